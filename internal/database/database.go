package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

const sqliteScheme = "sqlite://"

// Connect opens the results store. URLs prefixed with sqlite:// open a local
// SQLite file; anything else is handed to the PostgreSQL driver as a DSN.
func Connect(url string) (*gorm.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("database url must not be empty")
	}

	config := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(url, sqliteScheme):
		path := strings.TrimPrefix(url, sqliteScheme)
		if path == "" {
			return nil, fmt.Errorf("sqlite path must not be empty")
		}
		dialector = sqlite.Open(path)
	default:
		dialector = postgres.Open(url)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dialector.Name(), err)
	}

	return db, nil
}

// Migrate creates or updates the tables backing persisted results.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ResultsFile{}, &models.StoredEvaluationRecord{}); err != nil {
		return fmt.Errorf("failed to migrate results tables: %w", err)
	}
	return nil
}
