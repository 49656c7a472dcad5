package model

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The schema must migrate on sqlite as well as postgres: the test suite and
// the DB_DRIVER=sqlite dev path both depend on it, so ID columns carry no
// database-side default expression.
func TestAutoMigrateOnSqlite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&User{}, &Category{}, &CategoryField{}, &Item{}, &StockMovement{},
		&Client{}, &Supplier{}, &Document{}, &DocumentItem{}, &DocumentField{},
		&Setting{}, &AuditLog{},
	)
	if err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// IDs come from the BeforeCreate hooks, not a column default.
	item := &Item{Name: "Gold Band", SKU: "RING-0001", MeasurementUnit: UnitPiece}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if item.ID == uuid.Nil {
		t.Error("item created without an id")
	}
	client := &Client{Name: "Ada Lovelace"}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if client.ID == uuid.Nil {
		t.Error("client created without an id")
	}
}
