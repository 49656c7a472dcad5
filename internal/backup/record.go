package backup

// Typed record schemas for the backup wire format. Conventions shared by all
// families: uuids are lowercase hyphenated strings, timestamps are Unix epoch
// seconds (float64), money is float64, binary payloads are base64 strings.
// Optional fields are pointers with omitempty so an absent value is omitted
// from the JSON, never written as null; required fields are pointers too so
// that parsing can tell "missing" apart from a zero value.

// ItemRecord is the wire form of one inventory item.
// Required: id, name, sku.
type ItemRecord struct {
	ID               *string  `json:"id,omitempty"`
	Name             *string  `json:"name,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Category         *string  `json:"category,omitempty"`
	SKU              *string  `json:"sku,omitempty"`
	Price            float64  `json:"price"`
	BuyPrice         float64  `json:"buyPrice"`
	StockQuantity    int      `json:"stockQuantity"`
	MinStockLevel    int      `json:"minStockLevel"`
	MeasurementUnit  *string  `json:"measurementUnit,omitempty"`
	TaxRate          float64  `json:"taxRate"`
	Barcode          *string  `json:"barcode,omitempty"`
	ImageData        *string  `json:"imageData,omitempty"` // base64
	InventoryAddedAt *float64 `json:"inventoryAddedAt,omitempty"`
	CreatedAt        *float64 `json:"createdAt,omitempty"`
	UpdatedAt        *float64 `json:"updatedAt,omitempty"`
}

// CategoryRecord is the wire form of one category, with its custom field
// definitions denormalized under the parent record.
// Required: id, name.
type CategoryRecord struct {
	ID           *string             `json:"id,omitempty"`
	Name         *string             `json:"name,omitempty"`
	Description  *string             `json:"description,omitempty"`
	CustomFields []CustomFieldRecord `json:"customFields,omitempty"`
	CreatedAt    *float64            `json:"createdAt,omitempty"`
	UpdatedAt    *float64            `json:"updatedAt,omitempty"`
}

// CustomFieldRecord is a category-owned custom field definition.
// Required: id, name.
type CustomFieldRecord struct {
	ID       *string  `json:"id,omitempty"`
	Name     *string  `json:"name,omitempty"`
	Kind     *string  `json:"kind,omitempty"` // text, number, date, boolean, dropdown
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"` // dropdown choices
}

// ContactRecord is the shared wire form of clients and suppliers.
// Required: id, name.
type ContactRecord struct {
	ID        *string  `json:"id,omitempty"`
	Name      *string  `json:"name,omitempty"`
	Email     *string  `json:"email,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Address   *string  `json:"address,omitempty"`
	City      *string  `json:"city,omitempty"`
	State     *string  `json:"state,omitempty"`
	Zip       *string  `json:"zip,omitempty"`
	Country   *string  `json:"country,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	CreatedAt *float64 `json:"createdAt,omitempty"`
	UpdatedAt *float64 `json:"updatedAt,omitempty"`
}

// DocumentRecord is the wire form of an invoice or estimate. Line items and
// custom fields are nested under the parent, never stored as separate
// top-level sections.
// Required: id, number.
type DocumentRecord struct {
	ID             *string               `json:"id,omitempty"`
	Number         *string               `json:"number,omitempty"`
	ClientName     *string               `json:"clientName,omitempty"`
	ClientEmail    *string               `json:"clientEmail,omitempty"`
	ClientPhone    *string               `json:"clientPhone,omitempty"`
	ClientAddress  *string               `json:"clientAddress,omitempty"`
	Status         *string               `json:"status,omitempty"`
	IssueDate      *float64              `json:"issueDate,omitempty"`
	DueDate        *float64              `json:"dueDate,omitempty"`
	DiscountType   *string               `json:"discountType,omitempty"` // percentage, fixed
	DiscountValue  float64               `json:"discountValue"`
	TaxRate        float64               `json:"taxRate"`
	Subtotal       float64               `json:"subtotal"`
	DiscountAmount float64               `json:"discountAmount"`
	TaxAmount      float64               `json:"taxAmount"`
	Total          float64               `json:"total"`
	Notes          *string               `json:"notes,omitempty"`
	Items          []LineItemRecord      `json:"items,omitempty"`
	CustomFields   []DocumentFieldRecord `json:"customFields,omitempty"`
	CreatedAt      *float64              `json:"createdAt,omitempty"`
	UpdatedAt      *float64              `json:"updatedAt,omitempty"`
}

// LineItemRecord is one line of a document. The parent back-reference is
// implied by nesting and re-established on restore.
// Required: id, name.
type LineItemRecord struct {
	ID          *string `json:"id,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TaxRate     float64 `json:"taxRate"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
	Position    int     `json:"position"`
}

// DocumentFieldRecord is a document-level name/value custom field.
// Required: name.
type DocumentFieldRecord struct {
	ID    *string `json:"id,omitempty"`
	Name  *string `json:"name,omitempty"`
	Value *string `json:"value,omitempty"`
}
