package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockly/internal/model"
	"stockly/internal/repository"
	ws "stockly/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SKUConflictError reports an attempt to use a SKU already taken by another
// item. SKU uniqueness is a business rule checked explicitly before insert,
// never left to an incidental database error.
type SKUConflictError struct {
	SKU string
}

func (e *SKUConflictError) Error() string {
	return fmt.Sprintf("sku %q is already in use", e.SKU)
}

// DTOs
type CreateItemRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	SKU             string  `json:"sku" binding:"required"`
	Price           float64 `json:"price" binding:"min=0"`
	BuyPrice        float64 `json:"buy_price" binding:"min=0"`
	StockQuantity   int     `json:"stock_quantity" binding:"min=0"`
	MinStockLevel   int     `json:"min_stock_level" binding:"min=0"`
	MeasurementUnit string  `json:"measurement_unit"`
	TaxRate         float64 `json:"tax_rate" binding:"min=0"`
	Barcode         *string `json:"barcode"`
}

type UpdateItemRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	SKU             string  `json:"sku" binding:"required"`
	Price           float64 `json:"price" binding:"min=0"`
	BuyPrice        float64 `json:"buy_price" binding:"min=0"`
	MinStockLevel   int     `json:"min_stock_level" binding:"min=0"`
	MeasurementUnit string  `json:"measurement_unit"`
	TaxRate         float64 `json:"tax_rate" binding:"min=0"`
	Barcode         *string `json:"barcode"`
}

type AdjustStockRequest struct {
	Change int    `json:"change" binding:"required"`
	Reason string `json:"reason"`
}

// LowStockEvent is broadcast over the websocket hub whenever an item drops
// to or below its minimum stock level.
type LowStockEvent struct {
	ItemID        string `json:"item_id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	StockQuantity int    `json:"stock_quantity"`
	MinStockLevel int    `json:"min_stock_level"`
}

type ItemService interface {
	GetItems(ctx context.Context, page, limit int, search, category string) ([]model.Item, int64, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	CreateItem(ctx context.Context, userID string, req CreateItemRequest) (*model.Item, error)
	UpdateItem(ctx context.Context, userID, id string, req UpdateItemRequest) (*model.Item, error)
	DeleteItem(ctx context.Context, userID, id string) error
	AdjustStock(ctx context.Context, userID, id string, req AdjustStockRequest) (*model.Item, error)
	GetLowStock(ctx context.Context) ([]model.Item, error)
	GetStockMovements(ctx context.Context, id string, page, limit int) ([]model.StockMovement, int64, error)
}

type itemService struct {
	itemRepo     repository.ItemRepository
	movementRepo repository.StockMovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewItemService(
	itemRepo repository.ItemRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ItemService {
	return &itemService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func (s *itemService) GetItems(ctx context.Context, page, limit int, search, category string) ([]model.Item, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.itemRepo.List(ctx, page, limit, search, category)
}

func (s *itemService) GetItem(ctx context.Context, id string) (*model.Item, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid item id: %w", err)
	}
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("item not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return item, nil
}

func (s *itemService) CreateItem(ctx context.Context, userID string, req CreateItemRequest) (*model.Item, error) {
	if _, err := s.itemRepo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, &SKUConflictError{SKU: req.SKU}
	}
	unit := req.MeasurementUnit
	if unit == "" {
		unit = model.UnitPiece
	}
	if !model.ValidUnit(unit) {
		return nil, fmt.Errorf("unknown measurement unit %q", unit)
	}

	item := &model.Item{
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		SKU:              req.SKU,
		Price:            req.Price,
		BuyPrice:         req.BuyPrice,
		StockQuantity:    req.StockQuantity,
		MinStockLevel:    req.MinStockLevel,
		MeasurementUnit:  unit,
		TaxRate:          req.TaxRate,
		Barcode:          req.Barcode,
		InventoryAddedAt: time.Now(),
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Create(txCtx, item); err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		if req.StockQuantity > 0 {
			movement := &model.StockMovement{
				ItemID:          item.ID,
				MovementType:    model.MovementIn,
				QuantityChanged: req.StockQuantity,
				StockAfter:      req.StockQuantity,
				Reason:          "initial stock",
			}
			if err := s.movementRepo.Record(txCtx, movement); err != nil {
				return fmt.Errorf("failed to record stock movement: %w", err)
			}
		}
		return s.logAudit(txCtx, userID, model.ActionCreateItem, item, req)
	})
	if err != nil {
		return nil, err
	}

	s.maybeAlertLowStock(item)
	return item, nil
}

func (s *itemService) UpdateItem(ctx context.Context, userID, id string, req UpdateItemRequest) (*model.Item, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid item id: %w", err)
	}
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("item not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.SKU != item.SKU {
		if existing, err := s.itemRepo.FindBySKU(ctx, req.SKU); err == nil && existing.ID != item.ID {
			return nil, &SKUConflictError{SKU: req.SKU}
		}
	}
	if req.MeasurementUnit != "" && !model.ValidUnit(req.MeasurementUnit) {
		return nil, fmt.Errorf("unknown measurement unit %q", req.MeasurementUnit)
	}

	item.Name = req.Name
	item.Description = req.Description
	item.Category = req.Category
	item.SKU = req.SKU
	item.Price = req.Price
	item.BuyPrice = req.BuyPrice
	item.MinStockLevel = req.MinStockLevel
	if req.MeasurementUnit != "" {
		item.MeasurementUnit = req.MeasurementUnit
	}
	item.TaxRate = req.TaxRate
	item.Barcode = req.Barcode

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Update(txCtx, item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionUpdateItem, item, req)
	})
	if err != nil {
		return nil, err
	}

	s.maybeAlertLowStock(item)
	return item, nil
}

func (s *itemService) DeleteItem(ctx context.Context, userID, id string) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid item id: %w", err)
	}
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("item not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Delete(txCtx, itemID); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionDeleteItem, item, nil)
	})
}

// AdjustStock applies a relative stock change and appends it to the stock
// ledger. The row is locked for the duration so concurrent adjustments
// cannot lose updates.
func (s *itemService) AdjustStock(ctx context.Context, userID, id string, req AdjustStockRequest) (*model.Item, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid item id: %w", err)
	}

	var item *model.Item
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err = s.itemRepo.FindByIDForUpdate(txCtx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("item not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		newStock := item.StockQuantity + req.Change
		if newStock < 0 {
			return fmt.Errorf("stock cannot go negative: have %d, change %d", item.StockQuantity, req.Change)
		}
		if err := s.itemRepo.UpdateStock(txCtx, itemID, newStock); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		item.StockQuantity = newStock

		movementType := model.MovementIn
		qty := req.Change
		if req.Change < 0 {
			movementType = model.MovementOut
			qty = -req.Change
		}
		movement := &model.StockMovement{
			ItemID:          itemID,
			MovementType:    movementType,
			QuantityChanged: qty,
			StockAfter:      newStock,
			Reason:          req.Reason,
		}
		if err := s.movementRepo.Record(txCtx, movement); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionAdjustStock, item, req)
	})
	if err != nil {
		return nil, err
	}

	s.maybeAlertLowStock(item)
	return item, nil
}

func (s *itemService) GetLowStock(ctx context.Context) ([]model.Item, error) {
	return s.itemRepo.LowStock(ctx)
}

func (s *itemService) GetStockMovements(ctx context.Context, id string, page, limit int) ([]model.StockMovement, int64, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid item id: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.movementRepo.ListByItem(ctx, itemID, page, limit)
}

func (s *itemService) maybeAlertLowStock(item *model.Item) {
	if s.hub == nil || item == nil {
		return
	}
	if item.MinStockLevel <= 0 || item.StockQuantity > item.MinStockLevel {
		return
	}
	s.hub.BroadcastEvent("low_stock", LowStockEvent{
		ItemID:        item.ID.String(),
		Name:          item.Name,
		SKU:           item.SKU,
		StockQuantity: item.StockQuantity,
		MinStockLevel: item.MinStockLevel,
	})
}

func (s *itemService) logAudit(ctx context.Context, userID, action string, item *model.Item, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	details := "{}"
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			details = string(raw)
		}
	}
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   item.ID.String(),
		EntityName: item.Name,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
