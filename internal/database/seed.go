package database

import (
	"log"
	"os"
	"time"

	"stockly/internal/model"

	"gorm.io/gorm"
)

// SeedSampleData fills an empty store with a small jewelry catalog so the
// app is usable right after first launch. Controlled by SEED_SAMPLE_DATA;
// a store that already has items is never touched.
func SeedSampleData(db *gorm.DB) {
	if os.Getenv("SEED_SAMPLE_DATA") != "true" {
		return
	}

	var count int64
	if err := db.Model(&model.Item{}).Count(&count).Error; err != nil {
		log.Println("WARNING: seed skipped, cannot count items:", err)
		return
	}
	if count > 0 {
		return
	}

	categories := []model.Category{
		{
			Name: "Rings",
			CustomFields: []model.CategoryField{
				{Name: "Ring Size", Kind: model.FieldKindNumber},
				{Name: "Metal", Kind: model.FieldKindDropdown, Options: `["Gold","White Gold","Silver","Platinum"]`},
			},
		},
		{
			Name: "Necklaces",
			CustomFields: []model.CategoryField{
				{Name: "Chain Length (cm)", Kind: model.FieldKindNumber},
			},
		},
		{Name: "Earrings"},
		{Name: "Bracelets"},
	}
	for i := range categories {
		if err := db.Create(&categories[i]).Error; err != nil {
			log.Println("WARNING: seed category failed:", err)
			return
		}
	}

	now := time.Now()
	items := []model.Item{
		{
			Name: "Classic Gold Band", SKU: "RING-0001", Category: "Rings",
			Price: 499.00, BuyPrice: 260.00, StockQuantity: 8, MinStockLevel: 2,
			MeasurementUnit: model.UnitPiece, TaxRate: 8, InventoryAddedAt: now,
		},
		{
			Name: "Sapphire Pendant Necklace", SKU: "NECK-0001", Category: "Necklaces",
			Price: 1250.00, BuyPrice: 700.00, StockQuantity: 3, MinStockLevel: 1,
			MeasurementUnit: model.UnitPiece, TaxRate: 8, InventoryAddedAt: now,
		},
		{
			Name: "Pearl Stud Earrings", SKU: "EARR-0001", Category: "Earrings",
			Price: 180.00, BuyPrice: 85.00, StockQuantity: 15, MinStockLevel: 4,
			MeasurementUnit: model.UnitPiece, TaxRate: 8, InventoryAddedAt: now,
		},
		{
			Name: "18k Gold Wire", SKU: "SUPP-0001", Category: "Bracelets",
			Price: 72.50, BuyPrice: 58.00, StockQuantity: 240, MinStockLevel: 50,
			MeasurementUnit: model.UnitGram, TaxRate: 8, InventoryAddedAt: now,
		},
	}
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			log.Println("WARNING: seed item failed:", err)
			return
		}
	}

	defaults := map[string]string{
		model.SettingCurrency:       "USD",
		model.SettingBusinessName:   "Stockly Jewelers",
		model.SettingInvoicePrefix:  "INV-",
		model.SettingEstimatePrefix: "EST-",
		model.SettingDefaultTaxRate: "8",
		model.SettingLowStockAlerts: "true",
	}
	for k, v := range defaults {
		if err := db.Where(model.Setting{Key: k}).
			Attrs(model.Setting{Value: v}).
			FirstOrCreate(&model.Setting{}).Error; err != nil {
			log.Println("WARNING: seed setting failed:", err)
			return
		}
	}

	log.Println("Seeded sample jewelry data")
}
