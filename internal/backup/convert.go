package backup

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"stockly/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Converters between gorm models and wire records. The To* direction is
// total; the From* direction validates the family's required field set and
// returns an error for the caller to skip-and-report. A bad row never aborts
// a batch.

func epoch(t time.Time) *float64 {
	if t.IsZero() {
		return nil
	}
	f := float64(t.UnixNano()) / float64(time.Second)
	return &f
}

func fromEpoch(f *float64, fallback time.Time) time.Time {
	if f == nil {
		return fallback
	}
	sec := int64(*f)
	nsec := int64((*f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

func uuidString(id uuid.UUID) *string {
	s := id.String() // lowercase hyphenated
	return &s
}

func parseID(s *string, family string) (uuid.UUID, error) {
	if s == nil || *s == "" {
		return uuid.Nil, &MissingFieldError{Family: family, Field: "id"}
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("backup: %s record has malformed id %q: %w", family, *s, err)
	}
	return id, nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ToItemRecord converts an inventory item to its wire form. Optional fields
// left unset on the model are omitted from the record entirely.
func ToItemRecord(m *model.Item) ItemRecord {
	r := ItemRecord{
		ID:               uuidString(m.ID),
		Name:             &m.Name,
		Description:      optStr(m.Description),
		Category:         optStr(m.Category),
		SKU:              &m.SKU,
		Price:            m.Price,
		BuyPrice:         m.BuyPrice,
		StockQuantity:    m.StockQuantity,
		MinStockLevel:    m.MinStockLevel,
		MeasurementUnit:  optStr(m.MeasurementUnit),
		TaxRate:          m.TaxRate,
		Barcode:          m.Barcode,
		InventoryAddedAt: epoch(m.InventoryAddedAt),
		CreatedAt:        epoch(m.CreatedAt),
		UpdatedAt:        epoch(m.UpdatedAt),
	}
	if len(m.ImageData) > 0 {
		enc := base64.StdEncoding.EncodeToString(m.ImageData)
		r.ImageData = &enc
	}
	return r
}

// FromItemRecord reconstructs an item, requiring id, name and sku.
func FromItemRecord(r ItemRecord) (*model.Item, error) {
	id, err := parseID(r.ID, "item")
	if err != nil {
		return nil, err
	}
	if r.Name == nil || *r.Name == "" {
		return nil, &MissingFieldError{Family: "item", Field: "name"}
	}
	if r.SKU == nil || *r.SKU == "" {
		return nil, &MissingFieldError{Family: "item", Field: "sku"}
	}

	now := time.Now()
	m := &model.Item{
		ID:               id,
		Name:             *r.Name,
		Description:      strOrEmpty(r.Description),
		Category:         strOrEmpty(r.Category),
		SKU:              *r.SKU,
		Price:            r.Price,
		BuyPrice:         r.BuyPrice,
		StockQuantity:    r.StockQuantity,
		MinStockLevel:    r.MinStockLevel,
		MeasurementUnit:  model.UnitPiece,
		TaxRate:          r.TaxRate,
		Barcode:          r.Barcode,
		InventoryAddedAt: fromEpoch(r.InventoryAddedAt, now),
		CreatedAt:        fromEpoch(r.CreatedAt, now),
		UpdatedAt:        fromEpoch(r.UpdatedAt, now),
	}
	if r.MeasurementUnit != nil && model.ValidUnit(*r.MeasurementUnit) {
		m.MeasurementUnit = *r.MeasurementUnit
	}
	if r.ImageData != nil {
		data, err := base64.StdEncoding.DecodeString(*r.ImageData)
		if err != nil {
			return nil, fmt.Errorf("backup: item %s has malformed image data: %w", m.SKU, err)
		}
		m.ImageData = data
	}
	return m, nil
}

// ToCategoryRecord converts a category with its nested custom fields.
func ToCategoryRecord(m *model.Category) CategoryRecord {
	r := CategoryRecord{
		ID:          uuidString(m.ID),
		Name:        &m.Name,
		Description: optStr(m.Description),
		CreatedAt:   epoch(m.CreatedAt),
		UpdatedAt:   epoch(m.UpdatedAt),
	}
	for i := range m.CustomFields {
		f := &m.CustomFields[i]
		fr := CustomFieldRecord{
			ID:       uuidString(f.ID),
			Name:     &f.Name,
			Kind:     &f.Kind,
			Required: f.Required,
		}
		if f.Options != "" {
			// Options are stored JSON-encoded on the model; legacy rows
			// with junk in the column just lose their options.
			_ = json.Unmarshal([]byte(f.Options), &fr.Options)
		}
		r.CustomFields = append(r.CustomFields, fr)
	}
	return r
}

// FromCategoryRecord reconstructs a category, requiring id and name. Custom
// fields missing their own required fields are dropped individually.
func FromCategoryRecord(r CategoryRecord) (*model.Category, error) {
	id, err := parseID(r.ID, "category")
	if err != nil {
		return nil, err
	}
	if r.Name == nil || *r.Name == "" {
		return nil, &MissingFieldError{Family: "category", Field: "name"}
	}

	now := time.Now()
	m := &model.Category{
		ID:          id,
		Name:        *r.Name,
		Description: strOrEmpty(r.Description),
		CreatedAt:   fromEpoch(r.CreatedAt, now),
		UpdatedAt:   fromEpoch(r.UpdatedAt, now),
	}
	for _, fr := range r.CustomFields {
		fid, err := parseID(fr.ID, "customField")
		if err != nil || fr.Name == nil || *fr.Name == "" {
			continue
		}
		field := model.CategoryField{
			ID:         fid,
			CategoryID: id,
			Name:       *fr.Name,
			Kind:       model.FieldKindText,
			Required:   fr.Required,
		}
		if fr.Kind != nil && model.ValidFieldKind(*fr.Kind) {
			field.Kind = *fr.Kind
		}
		if len(fr.Options) > 0 {
			raw, _ := json.Marshal(fr.Options)
			field.Options = string(raw)
		}
		m.CustomFields = append(m.CustomFields, field)
	}
	return m, nil
}

// ToClientRecord converts a client.
func ToClientRecord(m *model.Client) ContactRecord {
	return ContactRecord{
		ID:        uuidString(m.ID),
		Name:      &m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Address:   optStr(m.Address),
		City:      optStr(m.City),
		State:     optStr(m.State),
		Zip:       optStr(m.Zip),
		Country:   optStr(m.Country),
		Notes:     m.Notes,
		CreatedAt: epoch(m.CreatedAt),
		UpdatedAt: epoch(m.UpdatedAt),
	}
}

// FromClientRecord reconstructs a client, requiring id and name.
func FromClientRecord(r ContactRecord) (*model.Client, error) {
	id, err := parseID(r.ID, "client")
	if err != nil {
		return nil, err
	}
	if r.Name == nil || *r.Name == "" {
		return nil, &MissingFieldError{Family: "client", Field: "name"}
	}
	now := time.Now()
	return &model.Client{
		ID:        id,
		Name:      *r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   strOrEmpty(r.Address),
		City:      strOrEmpty(r.City),
		State:     strOrEmpty(r.State),
		Zip:       strOrEmpty(r.Zip),
		Country:   strOrEmpty(r.Country),
		Notes:     r.Notes,
		CreatedAt: fromEpoch(r.CreatedAt, now),
		UpdatedAt: fromEpoch(r.UpdatedAt, now),
	}, nil
}

// ToSupplierRecord converts a supplier.
func ToSupplierRecord(m *model.Supplier) ContactRecord {
	return ContactRecord{
		ID:        uuidString(m.ID),
		Name:      &m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Address:   optStr(m.Address),
		City:      optStr(m.City),
		State:     optStr(m.State),
		Zip:       optStr(m.Zip),
		Country:   optStr(m.Country),
		Notes:     m.Notes,
		CreatedAt: epoch(m.CreatedAt),
		UpdatedAt: epoch(m.UpdatedAt),
	}
}

// FromSupplierRecord reconstructs a supplier, requiring id and name.
func FromSupplierRecord(r ContactRecord) (*model.Supplier, error) {
	id, err := parseID(r.ID, "supplier")
	if err != nil {
		return nil, err
	}
	if r.Name == nil || *r.Name == "" {
		return nil, &MissingFieldError{Family: "supplier", Field: "name"}
	}
	now := time.Now()
	return &model.Supplier{
		ID:        id,
		Name:      *r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   strOrEmpty(r.Address),
		City:      strOrEmpty(r.City),
		State:     strOrEmpty(r.State),
		Zip:       strOrEmpty(r.Zip),
		Country:   strOrEmpty(r.Country),
		Notes:     r.Notes,
		CreatedAt: fromEpoch(r.CreatedAt, now),
		UpdatedAt: fromEpoch(r.UpdatedAt, now),
	}, nil
}

// ToDocumentRecord converts an invoice or estimate with its nested line
// items and custom fields.
func ToDocumentRecord(m *model.Document) DocumentRecord {
	r := DocumentRecord{
		ID:             uuidString(m.ID),
		Number:         &m.Number,
		ClientName:     optStr(m.ClientName),
		ClientEmail:    optStr(m.ClientEmail),
		ClientPhone:    optStr(m.ClientPhone),
		ClientAddress:  optStr(m.ClientAddress),
		Status:         optStr(m.Status),
		IssueDate:      epoch(m.IssueDate),
		DiscountType:   optStr(m.DiscountType),
		DiscountValue:  m.DiscountValue.InexactFloat64(),
		TaxRate:        m.TaxRate,
		Subtotal:       m.Subtotal.InexactFloat64(),
		DiscountAmount: m.DiscountAmount.InexactFloat64(),
		TaxAmount:      m.TaxAmount.InexactFloat64(),
		Total:          m.Total.InexactFloat64(),
		Notes:          optStr(m.Notes),
		CreatedAt:      epoch(m.CreatedAt),
		UpdatedAt:      epoch(m.UpdatedAt),
	}
	if m.DueDate != nil {
		r.DueDate = epoch(*m.DueDate)
	}
	for i := range m.Items {
		it := &m.Items[i]
		r.Items = append(r.Items, LineItemRecord{
			ID:          uuidString(it.ID),
			Name:        &it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.InexactFloat64(),
			TaxRate:     it.TaxRate,
			Discount:    it.Discount,
			Total:       it.Total.InexactFloat64(),
			Position:    it.Position,
		})
	}
	for i := range m.CustomFields {
		f := &m.CustomFields[i]
		r.CustomFields = append(r.CustomFields, DocumentFieldRecord{
			ID:    uuidString(f.ID),
			Name:  &f.Name,
			Value: optStr(f.Value),
		})
	}
	return r
}

// FromDocumentRecord reconstructs an invoice or estimate of the given type,
// requiring id and number. Children are rebuilt with their back-reference
// pointing at the parent id; malformed children are dropped individually.
func FromDocumentRecord(r DocumentRecord, docType string) (*model.Document, error) {
	id, err := parseID(r.ID, "document")
	if err != nil {
		return nil, err
	}
	if r.Number == nil || *r.Number == "" {
		return nil, &MissingFieldError{Family: "document", Field: "number"}
	}

	now := time.Now()
	m := &model.Document{
		ID:             id,
		Type:           docType,
		Number:         *r.Number,
		ClientName:     strOrEmpty(r.ClientName),
		ClientEmail:    strOrEmpty(r.ClientEmail),
		ClientPhone:    strOrEmpty(r.ClientPhone),
		ClientAddress:  strOrEmpty(r.ClientAddress),
		Status:         model.InvoiceStatusDraft,
		IssueDate:      fromEpoch(r.IssueDate, now),
		DiscountType:   model.DiscountPercentage,
		DiscountValue:  decimal.NewFromFloat(r.DiscountValue),
		TaxRate:        r.TaxRate,
		Subtotal:       decimal.NewFromFloat(r.Subtotal),
		DiscountAmount: decimal.NewFromFloat(r.DiscountAmount),
		TaxAmount:      decimal.NewFromFloat(r.TaxAmount),
		Total:          decimal.NewFromFloat(r.Total),
		Notes:          strOrEmpty(r.Notes),
		CreatedAt:      fromEpoch(r.CreatedAt, now),
		UpdatedAt:      fromEpoch(r.UpdatedAt, now),
	}
	if docType == model.DocTypeEstimate {
		m.Status = model.EstimateStatusDraft
	}
	if r.Status != nil && model.ValidDocumentStatus(docType, *r.Status) {
		m.Status = *r.Status
	}
	if r.DiscountType != nil && (*r.DiscountType == model.DiscountPercentage || *r.DiscountType == model.DiscountFixed) {
		m.DiscountType = *r.DiscountType
	}
	if r.DueDate != nil {
		due := fromEpoch(r.DueDate, now)
		m.DueDate = &due
	}

	for _, ir := range r.Items {
		iid, err := parseID(ir.ID, "lineItem")
		if err != nil || ir.Name == nil || *ir.Name == "" {
			continue
		}
		parent := id
		m.Items = append(m.Items, model.DocumentItem{
			ID:          iid,
			DocumentID:  &parent,
			Name:        *ir.Name,
			Description: ir.Description,
			Quantity:    ir.Quantity,
			UnitPrice:   decimal.NewFromFloat(ir.UnitPrice),
			TaxRate:     ir.TaxRate,
			Discount:    ir.Discount,
			Total:       decimal.NewFromFloat(ir.Total),
			Position:    ir.Position,
		})
	}
	for _, fr := range r.CustomFields {
		if fr.Name == nil || *fr.Name == "" {
			continue
		}
		parent := id
		field := model.DocumentField{
			DocumentID: &parent,
			Name:       *fr.Name,
			Value:      strOrEmpty(fr.Value),
		}
		if fr.ID != nil {
			if fid, err := uuid.Parse(*fr.ID); err == nil {
				field.ID = fid
			}
		}
		m.CustomFields = append(m.CustomFields, field)
	}
	return m, nil
}
