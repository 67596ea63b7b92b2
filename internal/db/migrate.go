package db

import (
	"fmt"

	"github.com/zulandar/flightbag/internal/config"
	"github.com/zulandar/flightbag/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model the flight bag persists.
func AllModels() []interface{} {
	return []interface{}{
		&models.Setting{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Setup opens the configured backend and migrates it.
func Setup(cfg config.StorageConfig) (*gorm.DB, error) {
	gormDB, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}
