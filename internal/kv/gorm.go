package kv

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/flightbag/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists entries in the settings table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a migrated GORM connection.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("kv: db is required")
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	var s models.Setting
	err := g.db.Where("setting_key = ?", key).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: get %s: %w", key, err)
	}
	return s.Value, true, nil
}

func (g *GormStore) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s := models.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	result := g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&s)
	if result.Error != nil {
		return fmt.Errorf("kv: set %s: %w", key, result.Error)
	}
	return nil
}

func (g *GormStore) Remove(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := g.db.Where("setting_key = ?", key).Delete(&models.Setting{}).Error; err != nil {
		return fmt.Errorf("kv: remove %s: %w", key, err)
	}
	return nil
}
