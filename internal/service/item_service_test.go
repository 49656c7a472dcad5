package service

import (
	"context"
	"errors"
	"testing"

	"stockly/internal/model"
	"stockly/internal/repository"

	"gorm.io/gorm"
)

func newItemService(t *testing.T) (ItemService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewItemService(
		repository.NewItemRepository(db),
		repository.NewStockMovementRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		nil, // no hub: alerts are dropped
	)
	return svc, db
}

func TestCreateItemRecordsInitialStock(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, "", CreateItemRequest{
		Name:          "Gold Band",
		SKU:           "RING-0001",
		Price:         499,
		StockQuantity: 8,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.MeasurementUnit != model.UnitPiece {
		t.Errorf("unit = %q, want default piece", item.MeasurementUnit)
	}

	movements, total, err := svc.GetStockMovements(ctx, item.ID.String(), 1, 20)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if total != 1 || len(movements) != 1 {
		t.Fatalf("movements = %d/%d, want exactly one", len(movements), total)
	}
	m := movements[0]
	if m.MovementType != model.MovementIn || m.QuantityChanged != 8 || m.StockAfter != 8 {
		t.Errorf("movement = %+v", m)
	}
	if m.Reason != "initial stock" {
		t.Errorf("reason = %q", m.Reason)
	}
}

func TestCreateItemZeroStockSkipsLedger(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, "", CreateItemRequest{Name: "Empty Shelf", SKU: "EMP-0001"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	_, total, err := svc.GetStockMovements(ctx, item.ID.String(), 1, 20)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if total != 0 {
		t.Errorf("movements = %d, want none", total)
	}
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	if _, err := svc.CreateItem(ctx, "", CreateItemRequest{Name: "First", SKU: "DUP-0001"}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	_, err := svc.CreateItem(ctx, "", CreateItemRequest{Name: "Second", SKU: "DUP-0001"})
	var conflict *SKUConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want SKUConflictError", err)
	}
	if conflict.SKU != "DUP-0001" {
		t.Errorf("conflict sku = %q", conflict.SKU)
	}
}

func TestCreateItemRejectsUnknownUnit(t *testing.T) {
	svc, _ := newItemService(t)

	_, err := svc.CreateItem(context.Background(), "", CreateItemRequest{
		Name: "Oddball", SKU: "ODD-0001", MeasurementUnit: "fathom",
	})
	if err == nil {
		t.Fatal("unknown unit accepted")
	}
}

func TestUpdateItemSKUConflict(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	if _, err := svc.CreateItem(ctx, "", CreateItemRequest{Name: "Holder", SKU: "TAKEN-0001"}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	item, err := svc.CreateItem(ctx, "", CreateItemRequest{Name: "Mover", SKU: "FREE-0001"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	_, err = svc.UpdateItem(ctx, "", item.ID.String(), UpdateItemRequest{Name: "Mover", SKU: "TAKEN-0001"})
	var conflict *SKUConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want SKUConflictError", err)
	}

	// Keeping its own SKU is never a conflict.
	updated, err := svc.UpdateItem(ctx, "", item.ID.String(), UpdateItemRequest{Name: "Renamed", SKU: "FREE-0001"})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q", updated.Name)
	}
}

func TestDeleteItemRemovesRow(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, "", CreateItemRequest{Name: "Doomed", SKU: "DOOM-0001"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if err := svc.DeleteItem(ctx, "", item.ID.String()); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := svc.GetItem(ctx, item.ID.String()); err == nil {
		t.Fatal("item still readable after delete")
	}
}

func TestGetLowStock(t *testing.T) {
	svc, _ := newItemService(t)
	ctx := context.Background()

	if _, err := svc.CreateItem(ctx, "", CreateItemRequest{
		Name: "Healthy", SKU: "OK-0001", StockQuantity: 20, MinStockLevel: 5,
	}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if _, err := svc.CreateItem(ctx, "", CreateItemRequest{
		Name: "Starving", SKU: "LOW-0001", StockQuantity: 2, MinStockLevel: 5,
	}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	low, err := svc.GetLowStock(ctx)
	if err != nil {
		t.Fatalf("GetLowStock: %v", err)
	}
	if len(low) != 1 || low[0].SKU != "LOW-0001" {
		t.Fatalf("low stock = %+v", low)
	}
}
