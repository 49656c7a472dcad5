package backup

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"stockly/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestItemRecordRoundTrip(t *testing.T) {
	barcode := "1234567890123"
	src := &model.Item{
		ID:               uuid.New(),
		Name:             "Sapphire Pendant",
		Description:      "18k gold chain",
		Category:         "Necklaces",
		SKU:              "NECK-0001",
		Price:            1250.00,
		BuyPrice:         700.00,
		StockQuantity:    3,
		MinStockLevel:    1,
		MeasurementUnit:  model.UnitPiece,
		TaxRate:          8,
		Barcode:          &barcode,
		ImageData:        []byte{0xff, 0xd8, 0xff},
		InventoryAddedAt: time.Unix(1700000000, 0),
		CreatedAt:        time.Unix(1700000000, 0),
		UpdatedAt:        time.Unix(1700000100, 0),
	}

	got, err := FromItemRecord(ToItemRecord(src))
	if err != nil {
		t.Fatalf("FromItemRecord: %v", err)
	}
	if got.ID != src.ID || got.SKU != src.SKU || got.Name != src.Name {
		t.Errorf("identity fields lost: %+v", got)
	}
	if got.Barcode == nil || *got.Barcode != barcode {
		t.Errorf("barcode lost: %v", got.Barcode)
	}
	if string(got.ImageData) != string(src.ImageData) {
		t.Errorf("image data lost: %v", got.ImageData)
	}
	if !got.InventoryAddedAt.Equal(src.InventoryAddedAt) {
		t.Errorf("inventoryAddedAt = %v, want %v", got.InventoryAddedAt, src.InventoryAddedAt)
	}
}

func TestItemRecordOmitsAbsentOptionals(t *testing.T) {
	src := &model.Item{ID: uuid.New(), Name: "Plain Band", SKU: "RING-0002"}

	raw, err := json.Marshal(ToItemRecord(src))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"barcode", "imageData", "description", "inventoryAddedAt"} {
		if strings.Contains(string(raw), `"`+key+`"`) {
			t.Errorf("absent optional %q serialized: %s", key, raw)
		}
	}
}

func TestFromItemRecordMissingRequired(t *testing.T) {
	id := uuid.New().String()
	name := "No SKU"

	_, err := FromItemRecord(ItemRecord{ID: &id, Name: &name})
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("got %v, want MissingFieldError", err)
	}
	if missing.Field != "sku" {
		t.Errorf("missing field = %q, want sku", missing.Field)
	}

	if _, err := FromItemRecord(ItemRecord{Name: &name}); err == nil {
		t.Error("record without id accepted")
	}
}

func TestCategoryRecordDropdownOptions(t *testing.T) {
	src := &model.Category{
		ID:   uuid.New(),
		Name: "Rings",
		CustomFields: []model.CategoryField{{
			ID:      uuid.New(),
			Name:    "Metal",
			Kind:    model.FieldKindDropdown,
			Options: `["Gold","Silver"]`,
		}},
	}

	got, err := FromCategoryRecord(ToCategoryRecord(src))
	if err != nil {
		t.Fatalf("FromCategoryRecord: %v", err)
	}
	if len(got.CustomFields) != 1 {
		t.Fatalf("custom fields = %d, want 1", len(got.CustomFields))
	}
	f := got.CustomFields[0]
	if f.Kind != model.FieldKindDropdown || f.Options != `["Gold","Silver"]` {
		t.Errorf("field not preserved: %+v", f)
	}
	if f.CategoryID != src.ID {
		t.Errorf("field categoryID = %v, want %v", f.CategoryID, src.ID)
	}
}

func TestFromCategoryRecordDropsBadFields(t *testing.T) {
	id := uuid.New().String()
	name := "Earrings"
	goodID := uuid.New().String()
	goodName := "Clasp Type"

	got, err := FromCategoryRecord(CategoryRecord{
		ID:   &id,
		Name: &name,
		CustomFields: []CustomFieldRecord{
			{Name: &goodName},              // no id
			{ID: &goodID},                  // no name
			{ID: &goodID, Name: &goodName}, // fine
		},
	})
	if err != nil {
		t.Fatalf("FromCategoryRecord: %v", err)
	}
	if len(got.CustomFields) != 1 {
		t.Fatalf("custom fields = %d, want 1 (bad ones dropped)", len(got.CustomFields))
	}
}

func TestDocumentRecordRelinksChildren(t *testing.T) {
	docID := uuid.New()
	src := &model.Document{
		ID:           docID,
		Type:         model.DocTypeInvoice,
		Number:       "INV-0007",
		ClientName:   "Ada",
		Status:       model.InvoiceStatusSent,
		IssueDate:    time.Unix(1700000000, 0),
		DiscountType: model.DiscountPercentage,
		Subtotal:     decimal.NewFromInt(100),
		Total:        decimal.NewFromFloat(97.20),
		Items: []model.DocumentItem{
			{ID: uuid.New(), Name: "Ring resize", Quantity: 1, UnitPrice: decimal.NewFromInt(40), Position: 0},
			{ID: uuid.New(), Name: "Chain repair", Quantity: 2, UnitPrice: decimal.NewFromInt(30), Position: 1},
			{ID: uuid.New(), Name: "Engraving", Quantity: 1, UnitPrice: decimal.NewFromInt(15), Position: 2},
		},
		CustomFields: []model.DocumentField{
			{ID: uuid.New(), Name: "PO Number", Value: "PO-9"},
		},
	}

	got, err := FromDocumentRecord(ToDocumentRecord(src), model.DocTypeInvoice)
	if err != nil {
		t.Fatalf("FromDocumentRecord: %v", err)
	}
	if got.ID != docID || got.Number != "INV-0007" || got.Status != model.InvoiceStatusSent {
		t.Errorf("document fields lost: %+v", got)
	}
	if len(got.Items) != 3 {
		t.Fatalf("line items = %d, want 3", len(got.Items))
	}
	for i, it := range got.Items {
		if it.DocumentID == nil || *it.DocumentID != docID {
			t.Errorf("item %d back-reference = %v, want %v", i, it.DocumentID, docID)
		}
		if it.Position != i {
			t.Errorf("item %d position = %d", i, it.Position)
		}
	}
	if len(got.CustomFields) != 1 || got.CustomFields[0].DocumentID == nil || *got.CustomFields[0].DocumentID != docID {
		t.Errorf("custom field back-reference lost: %+v", got.CustomFields)
	}
}

func TestFromDocumentRecordDropsBadChildrenAndStatus(t *testing.T) {
	id := uuid.New().String()
	number := "EST-0001"
	badStatus := "paid" // invoice status, not valid for estimates
	goodID := uuid.New().String()
	goodName := "Appraisal"

	got, err := FromDocumentRecord(DocumentRecord{
		ID:     &id,
		Number: &number,
		Status: &badStatus,
		Items: []LineItemRecord{
			{Name: &goodName},              // no id, dropped
			{ID: &goodID, Name: &goodName}, // kept
		},
	}, model.DocTypeEstimate)
	if err != nil {
		t.Fatalf("FromDocumentRecord: %v", err)
	}
	if got.Status != model.EstimateStatusDraft {
		t.Errorf("status = %q, want fallback draft", got.Status)
	}
	if len(got.Items) != 1 {
		t.Errorf("line items = %d, want 1", len(got.Items))
	}
}

func TestEpochRoundTrip(t *testing.T) {
	orig := time.Date(2024, 5, 17, 10, 30, 0, 500_000_000, time.UTC)
	back := fromEpoch(epoch(orig), time.Time{})
	if d := back.Sub(orig); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("epoch round trip drifted by %v", d)
	}
}
