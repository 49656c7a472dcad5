package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentType enum constants
const (
	DocTypeInvoice  = "INVOICE"
	DocTypeEstimate = "ESTIMATE"
)

// Invoice status enum constants
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Estimate status enum constants
const (
	EstimateStatusDraft    = "draft"
	EstimateStatusSent     = "sent"
	EstimateStatusAccepted = "accepted"
	EstimateStatusDeclined = "declined"
	EstimateStatusExpired  = "expired"
)

// DiscountType enum constants
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// ValidDocumentStatus reports whether status is valid for the given
// document type.
func ValidDocumentStatus(docType, status string) bool {
	switch docType {
	case DocTypeInvoice:
		switch status {
		case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
			InvoiceStatusOverdue, InvoiceStatusCancelled:
			return true
		}
	case DocTypeEstimate:
		switch status {
		case EstimateStatusDraft, EstimateStatusSent, EstimateStatusAccepted,
			EstimateStatusDeclined, EstimateStatusExpired:
			return true
		}
	}
	return false
}

// Document represents an invoice or an estimate, discriminated by Type.
// Client fields are a point-in-time snapshot, copied from the client record
// at creation, never resolved through a foreign key. Subtotal, DiscountAmount,
// TaxAmount and Total are derived from the line items and never set directly.
type Document struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Type           string          `gorm:"type:varchar(20);not null;index;uniqueIndex:idx_documents_type_number" json:"type"` // INVOICE, ESTIMATE
	Number         string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_documents_type_number" json:"number"`
	ClientName     string          `gorm:"type:varchar(255);not null" json:"client_name"`
	ClientEmail    string          `gorm:"type:varchar(255)" json:"client_email"`
	ClientPhone    string          `gorm:"type:varchar(50)" json:"client_phone"`
	ClientAddress  string          `gorm:"type:text" json:"client_address"`
	Status         string          `gorm:"type:varchar(20);not null;index" json:"status"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	DiscountType   string          `gorm:"type:varchar(20);not null;default:'percentage'" json:"discount_type"` // percentage, fixed
	DiscountValue  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_value"`
	TaxRate        float64         `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Items          []DocumentItem  `gorm:"foreignKey:DocumentID" json:"items"`
	CustomFields   []DocumentField `gorm:"foreignKey:DocumentID" json:"custom_fields"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DocumentItem is a line item on an invoice or estimate. DocumentID is the
// back-reference to the owning document; it is nullable because deleting a
// document detaches (nullifies) its children instead of cascading.
type DocumentItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  *uuid.UUID      `gorm:"type:uuid;index" json:"document_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description *string         `gorm:"type:text" json:"description,omitempty"`
	Quantity    float64         `gorm:"type:decimal(12,3);not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_price"`
	TaxRate     float64         `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
	Discount    float64         `gorm:"type:decimal(5,2);default:0" json:"discount"` // percent off the line
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	Position    int             `gorm:"type:int;default:0" json:"position"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (i *DocumentItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// DocumentField is a free-form name/value pair attached to a document.
// Same nullable back-reference rule as DocumentItem.
type DocumentField struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID *uuid.UUID `gorm:"type:uuid;index" json:"document_id"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Value      string     `gorm:"type:text" json:"value"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (f *DocumentField) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
