package repository

import (
	"context"

	"stockly/internal/model"

	"gorm.io/gorm"
)

// DashboardCounts aggregates the headline numbers for the dashboard.
type DashboardCounts struct {
	Items      int64 `json:"items"`
	LowStock   int64 `json:"low_stock"`
	Categories int64 `json:"categories"`
	Clients    int64 `json:"clients"`
	Suppliers  int64 `json:"suppliers"`
	Invoices   int64 `json:"invoices"`
	Estimates  int64 `json:"estimates"`
}

// DocumentTotals sums the money amounts of one document type/status bucket.
type DocumentTotals struct {
	Status string  `json:"status"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

type StatisticsRepository interface {
	Counts(ctx context.Context) (DashboardCounts, error)
	InventoryValue(ctx context.Context) (retail float64, cost float64, err error)
	DocumentTotalsByStatus(ctx context.Context, docType string) ([]DocumentTotals, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) Counts(ctx context.Context) (DashboardCounts, error) {
	var c DashboardCounts
	db := GetDB(ctx, r.db)

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&c.Items, db.Model(&model.Item{})},
		{&c.LowStock, db.Model(&model.Item{}).Where("min_stock_level > 0 AND stock_quantity <= min_stock_level")},
		{&c.Categories, db.Model(&model.Category{})},
		{&c.Clients, db.Model(&model.Client{})},
		{&c.Suppliers, db.Model(&model.Supplier{})},
		{&c.Invoices, db.Model(&model.Document{}).Where("type = ?", model.DocTypeInvoice)},
		{&c.Estimates, db.Model(&model.Document{}).Where("type = ?", model.DocTypeEstimate)},
	}
	for _, q := range counts {
		if err := q.query.Count(q.dst).Error; err != nil {
			return DashboardCounts{}, err
		}
	}
	return c, nil
}

func (r *statisticsRepository) InventoryValue(ctx context.Context) (float64, float64, error) {
	var result struct {
		Retail float64
		Cost   float64
	}
	err := GetDB(ctx, r.db).Model(&model.Item{}).
		Select("COALESCE(SUM(price * stock_quantity), 0) as retail, COALESCE(SUM(buy_price * stock_quantity), 0) as cost").
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Retail, result.Cost, nil
}

func (r *statisticsRepository) DocumentTotalsByStatus(ctx context.Context, docType string) ([]DocumentTotals, error) {
	var totals []DocumentTotals
	err := GetDB(ctx, r.db).Model(&model.Document{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(total), 0) as total").
		Where("type = ?", docType).
		Group("status").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
