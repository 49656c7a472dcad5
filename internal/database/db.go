package database

import (
	"fmt"
	"log"
	"os"

	"stockly/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM. The driver is
// chosen via DB_DRIVER: "postgres" (default) or "sqlite" for a single-file
// store.
func NewConnection() (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch os.Getenv("DB_DRIVER") {
	case "sqlite":
		path := os.Getenv("DB_PATH")
		if path == "" {
			path = "stockly.db"
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		db, err = gorm.Open(postgres.Open(postgresDSN()), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Auto-migrate core models
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
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

func postgresDSN() string {
	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	user := envOr("DB_USER", "postgres")
	password := envOr("DB_PASSWORD", "postgres")
	name := envOr("DB_NAME", "stockly")
	sslMode := envOr("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslMode
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
