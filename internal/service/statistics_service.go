package service

import (
	"context"
	"fmt"

	"stockly/internal/model"
	"stockly/internal/repository"
)

// Dashboard is the aggregate payload the mobile dashboard renders from.
type Dashboard struct {
	Counts          repository.DashboardCounts  `json:"counts"`
	InventoryRetail float64                     `json:"inventory_retail_value"`
	InventoryCost   float64                     `json:"inventory_cost_value"`
	Invoices        []repository.DocumentTotals `json:"invoices_by_status"`
	Estimates       []repository.DocumentTotals `json:"estimates_by_status"`
	LowStockItems   []model.Item                `json:"low_stock_items"`
}

type StatisticsService interface {
	GetDashboard(ctx context.Context) (*Dashboard, error)
}

type statisticsService struct {
	statsRepo repository.StatisticsRepository
	itemRepo  repository.ItemRepository
}

func NewStatisticsService(statsRepo repository.StatisticsRepository, itemRepo repository.ItemRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo, itemRepo: itemRepo}
}

func (s *statisticsService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	counts, err := s.statsRepo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard counts: %w", err)
	}

	retail, cost, err := s.statsRepo.InventoryValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute inventory value: %w", err)
	}

	invoices, err := s.statsRepo.DocumentTotalsByStatus(ctx, model.DocTypeInvoice)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice totals: %w", err)
	}
	estimates, err := s.statsRepo.DocumentTotalsByStatus(ctx, model.DocTypeEstimate)
	if err != nil {
		return nil, fmt.Errorf("failed to load estimate totals: %w", err)
	}

	lowStock, err := s.itemRepo.LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock items: %w", err)
	}

	return &Dashboard{
		Counts:          counts,
		InventoryRetail: retail,
		InventoryCost:   cost,
		Invoices:        invoices,
		Estimates:       estimates,
		LowStockItems:   lowStock,
	}, nil
}
