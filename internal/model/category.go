package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomField kind enum constants
const (
	FieldKindText     = "text"
	FieldKindNumber   = "number"
	FieldKindDate     = "date"
	FieldKindBoolean  = "boolean"
	FieldKindDropdown = "dropdown"
)

// ValidFieldKind reports whether k is a known custom field kind.
func ValidFieldKind(k string) bool {
	switch k {
	case FieldKindText, FieldKindNumber, FieldKindDate, FieldKindBoolean, FieldKindDropdown:
		return true
	}
	return false
}

// Category groups items by name and carries the custom field definitions
// applied to items of that category. Deleting a category cascades to its
// custom fields.
type Category struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	CustomFields []CategoryField `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"custom_fields"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CategoryField defines a typed custom field owned by a category.
// Options holds the dropdown choices as a JSON-encoded string array.
type CategoryField struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Kind       string    `gorm:"type:varchar(20);not null;default:'text'" json:"kind"` // text, number, date, boolean, dropdown
	Required   bool      `gorm:"default:false" json:"required"`
	Options    string    `gorm:"type:text" json:"options,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (f *CategoryField) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
