package service

import (
	"context"
	"testing"

	"stockly/internal/model"
	"stockly/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newDocumentService(t *testing.T) (DocumentService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewDocumentService(
		repository.NewDocumentRepository(db),
		repository.NewClientRepository(db),
		repository.NewSettingRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
	return svc, db
}

func decEq(t *testing.T, got decimal.Decimal, want string, field string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}

func TestComputeTotalsPercentageDiscountAndTax(t *testing.T) {
	doc := &model.Document{
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		TaxRate:       8,
		Items: []model.DocumentItem{
			{Quantity: 2, UnitPrice: decimal.NewFromInt(25)},
			{Quantity: 1, UnitPrice: decimal.NewFromInt(50)},
		},
	}
	ComputeTotals(doc)

	decEq(t, doc.Subtotal, "100", "subtotal")
	decEq(t, doc.DiscountAmount, "10", "discount amount")
	decEq(t, doc.TaxAmount, "7.2", "tax amount")
	decEq(t, doc.Total, "97.2", "total")
}

func TestComputeTotalsFixedDiscountCappedAtSubtotal(t *testing.T) {
	doc := &model.Document{
		DiscountType:  model.DiscountFixed,
		DiscountValue: decimal.NewFromInt(500),
		Items: []model.DocumentItem{
			{Quantity: 1, UnitPrice: decimal.NewFromInt(80)},
		},
	}
	ComputeTotals(doc)

	decEq(t, doc.Subtotal, "80", "subtotal")
	decEq(t, doc.DiscountAmount, "80", "discount amount")
	decEq(t, doc.Total, "0", "total")
}

func TestComputeTotalsLineDiscountAndRounding(t *testing.T) {
	doc := &model.Document{
		DiscountType: model.DiscountPercentage,
		Items: []model.DocumentItem{
			// 3 x 19.99 = 59.97, less 12.345% = 52.566... -> 52.57
			{Quantity: 3, UnitPrice: decimal.RequireFromString("19.99"), Discount: 12.345},
		},
	}
	ComputeTotals(doc)

	decEq(t, doc.Items[0].Total, "52.57", "line total")
	decEq(t, doc.Subtotal, "52.57", "subtotal")
	decEq(t, doc.Total, "52.57", "total")
}

func TestComputeTotalsHalfCentRoundsUp(t *testing.T) {
	doc := &model.Document{
		DiscountType: model.DiscountPercentage,
		TaxRate:      5,
		Items: []model.DocumentItem{
			// tax on 10.10 at 5% = 0.505 -> 0.51
			{Quantity: 1, UnitPrice: decimal.RequireFromString("10.10")},
		},
	}
	ComputeTotals(doc)

	decEq(t, doc.TaxAmount, "0.51", "tax amount")
	decEq(t, doc.Total, "10.61", "total")
}

func TestCreateDocumentSequentialNumbering(t *testing.T) {
	svc, _ := newDocumentService(t)
	ctx := context.Background()

	req := CreateDocumentRequest{
		ClientName: "Ada Lovelace",
		Items:      []LineItemRequest{{Name: "Ring resize", Quantity: 1, UnitPrice: 40}},
	}

	first, err := svc.CreateDocument(ctx, "", model.DocTypeInvoice, req)
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if first.Number != "INV-0001" {
		t.Errorf("first number = %q, want INV-0001", first.Number)
	}
	if first.Status != model.InvoiceStatusDraft {
		t.Errorf("status = %q, want draft", first.Status)
	}

	second, err := svc.CreateDocument(ctx, "", model.DocTypeInvoice, req)
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if second.Number != "INV-0002" {
		t.Errorf("second number = %q, want INV-0002", second.Number)
	}

	// Estimates count on their own sequence.
	est, err := svc.CreateDocument(ctx, "", model.DocTypeEstimate, req)
	if err != nil {
		t.Fatalf("CreateDocument estimate: %v", err)
	}
	if est.Number != "EST-0001" {
		t.Errorf("estimate number = %q, want EST-0001", est.Number)
	}
	if est.Status != model.EstimateStatusDraft {
		t.Errorf("estimate status = %q, want draft", est.Status)
	}
}

func TestCreateDocumentNumberPrefixFromSettings(t *testing.T) {
	svc, db := newDocumentService(t)
	ctx := context.Background()

	settingRepo := repository.NewSettingRepository(db)
	if err := settingRepo.Set(ctx, model.SettingInvoicePrefix, "R-"); err != nil {
		t.Fatalf("seeding prefix: %v", err)
	}

	doc, err := svc.CreateDocument(ctx, "", model.DocTypeInvoice, CreateDocumentRequest{
		ClientName: "Ada Lovelace",
		Items:      []LineItemRequest{{Name: "Appraisal", Quantity: 1, UnitPrice: 75}},
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.Number != "R-0001" {
		t.Errorf("number = %q, want R-0001", doc.Number)
	}
}

func TestCreateDocumentSnapshotsClient(t *testing.T) {
	svc, db := newDocumentService(t)
	ctx := context.Background()

	email := "ada@example.com"
	client := &model.Client{
		Name:    "Ada Lovelace",
		Email:   &email,
		Address: "12 St James Square",
		City:    "London",
		Country: "UK",
	}
	if err := repository.NewClientRepository(db).Create(ctx, client); err != nil {
		t.Fatalf("seeding client: %v", err)
	}

	doc, err := svc.CreateDocument(ctx, "", model.DocTypeInvoice, CreateDocumentRequest{
		ClientID: client.ID.String(),
		Items:    []LineItemRequest{{Name: "Cleaning", Quantity: 1, UnitPrice: 20}},
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.ClientName != "Ada Lovelace" || doc.ClientEmail != email {
		t.Errorf("snapshot = %q / %q", doc.ClientName, doc.ClientEmail)
	}
	if doc.ClientAddress != "12 St James Square, London, UK" {
		t.Errorf("address = %q", doc.ClientAddress)
	}
}

func TestUpdateStatusRejectsForeignStatus(t *testing.T) {
	svc, _ := newDocumentService(t)
	ctx := context.Background()

	est, err := svc.CreateDocument(ctx, "", model.DocTypeEstimate, CreateDocumentRequest{
		ClientName: "Ada Lovelace",
		Items:      []LineItemRequest{{Name: "Custom pendant", Quantity: 1, UnitPrice: 900}},
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	// paid is an invoice status, not an estimate one.
	if _, err := svc.UpdateStatus(ctx, "", est.ID.String(), UpdateStatusRequest{Status: model.InvoiceStatusPaid}); err == nil {
		t.Fatal("invoice status accepted on an estimate")
	}

	updated, err := svc.UpdateStatus(ctx, "", est.ID.String(), UpdateStatusRequest{Status: model.EstimateStatusAccepted})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != model.EstimateStatusAccepted {
		t.Errorf("status = %q", updated.Status)
	}
}

func TestUpdateDocumentReplacesChildren(t *testing.T) {
	svc, _ := newDocumentService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "", model.DocTypeInvoice, CreateDocumentRequest{
		ClientName: "Ada Lovelace",
		Items: []LineItemRequest{
			{Name: "Ring resize", Quantity: 1, UnitPrice: 40},
			{Name: "Engraving", Quantity: 1, UnitPrice: 15},
		},
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	updated, err := svc.UpdateDocument(ctx, "", doc.ID.String(), UpdateDocumentRequest{
		ClientName: "Ada Lovelace",
		Items:      []LineItemRequest{{Name: "Full restoration", Quantity: 1, UnitPrice: 250}},
	})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if len(updated.Items) != 1 || updated.Items[0].Name != "Full restoration" {
		t.Fatalf("items after update = %+v", updated.Items)
	}
	decEq(t, updated.Total, "250", "total")

	fetched, err := svc.GetDocument(ctx, doc.ID.String())
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if len(fetched.Items) != 1 {
		t.Fatalf("persisted items = %d, want 1", len(fetched.Items))
	}
	if fetched.Number != doc.Number {
		t.Errorf("number changed on update: %q -> %q", doc.Number, fetched.Number)
	}
}

func TestDeleteDocumentDetachesChildren(t *testing.T) {
	svc, db := newDocumentService(t)
	ctx := context.Background()

	doc, err := svc.CreateDocument(ctx, "", model.DocTypeInvoice, CreateDocumentRequest{
		ClientName: "Ada Lovelace",
		Items: []LineItemRequest{
			{Name: "Ring resize", Quantity: 1, UnitPrice: 40},
			{Name: "Engraving", Quantity: 1, UnitPrice: 15},
		},
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if err := svc.DeleteDocument(ctx, "", doc.ID.String()); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := svc.GetDocument(ctx, doc.ID.String()); err == nil {
		t.Fatal("document still readable after delete")
	}

	// Line items survive with their back-reference nullified.
	var orphans []model.DocumentItem
	if err := db.Find(&orphans).Error; err != nil {
		t.Fatalf("listing line items: %v", err)
	}
	if len(orphans) != 2 {
		t.Fatalf("line items after delete = %d, want 2", len(orphans))
	}
	for _, o := range orphans {
		if o.DocumentID != nil {
			t.Errorf("line item %s still linked to %s", o.ID, o.DocumentID)
		}
	}
}
