package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeasurementUnit enum constants
const (
	UnitPiece    = "piece"
	UnitGram     = "gram"
	UnitKilogram = "kilogram"
	UnitCarat    = "carat"
	UnitMeter    = "meter"
	UnitLiter    = "liter"
)

// ValidUnit reports whether u is a known measurement unit.
func ValidUnit(u string) bool {
	switch u {
	case UnitPiece, UnitGram, UnitKilogram, UnitCarat, UnitMeter, UnitLiter:
		return true
	}
	return false
}

// Item represents a product in the inventory. Category is held by name,
// not as a foreign key, so items survive category renames/deletes.
type Item struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"type:varchar(255);not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	Category         string    `gorm:"type:varchar(255);index" json:"category"`
	SKU              string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Price            float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	BuyPrice         float64   `gorm:"type:decimal(10,2);default:0" json:"buy_price"`
	StockQuantity    int       `gorm:"type:int;default:0;not null" json:"stock_quantity"`
	MinStockLevel    int       `gorm:"type:int;default:0" json:"min_stock_level"`
	MeasurementUnit  string    `gorm:"type:varchar(20);not null;default:'piece'" json:"measurement_unit"`
	TaxRate          float64   `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
	Barcode          *string   `gorm:"type:varchar(100)" json:"barcode,omitempty"`
	ImageData        []byte    `gorm:"type:bytes" json:"-"`
	InventoryAddedAt time.Time `json:"inventory_added_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BeforeCreate assigns the UUID client-side so sqlite and postgres behave
// the same.
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.InventoryAddedAt.IsZero() {
		i.InventoryAddedAt = time.Now()
	}
	return nil
}

// StockMovementType enum constants
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement records every stock quantity change strictly, forming the
// item's stock ledger.
type StockMovement struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID          uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	MovementType    string    `gorm:"type:varchar(10);not null" json:"movement_type"` // IN, OUT
	QuantityChanged int       `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int       `gorm:"type:int;not null" json:"stock_after"`
	Reason          string    `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
