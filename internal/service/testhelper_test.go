package service

import (
	"fmt"
	"testing"

	"stockly/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.CategoryField{},
		&model.Item{},
		&model.StockMovement{},
		&model.Client{},
		&model.Supplier{},
		&model.Document{},
		&model.DocumentItem{},
		&model.DocumentField{},
		&model.Setting{},
		&model.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}
