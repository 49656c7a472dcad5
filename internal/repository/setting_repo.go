package repository

import (
	"context"
	"errors"

	"stockly/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository is the explicit key/value settings store. It is injected
// wherever settings are read or written; nothing reaches for ambient global
// state.
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	ReplaceAll(ctx context.Context, values map[string]string) error
}

type settingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var s model.Setting
	err := GetDB(ctx, r.db).First(&s, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return s.Value, true, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&model.Setting{Key: key, Value: value}).Error
}

func (r *settingRepository) All(ctx context.Context) (map[string]string, error) {
	var settings []model.Setting
	if err := GetDB(ctx, r.db).Find(&settings).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	return out, nil
}

// ReplaceAll swaps the whole settings table for the given map. Used by
// replace restores.
func (r *settingRepository) ReplaceAll(ctx context.Context, values map[string]string) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("1 = 1").Delete(&model.Setting{}).Error; err != nil {
		return err
	}
	for k, v := range values {
		if err := db.Create(&model.Setting{Key: k, Value: v}).Error; err != nil {
			return err
		}
	}
	return nil
}
