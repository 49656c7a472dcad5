package service

import (
	"context"
	"fmt"
	"strconv"

	"stockly/internal/model"
	"stockly/internal/repository"
)

type UpdateSettingsRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

type SettingsService interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (map[string]string, error)
	DefaultTaxRate(ctx context.Context) (float64, error)
	LowStockAlertsEnabled(ctx context.Context) (bool, error)
}

type settingsService struct {
	settingRepo repository.SettingRepository
	txManager   repository.TransactionManager
}

func NewSettingsService(settingRepo repository.SettingRepository, txManager repository.TransactionManager) SettingsService {
	return &settingsService{settingRepo: settingRepo, txManager: txManager}
}

func (s *settingsService) GetSettings(ctx context.Context) (map[string]string, error) {
	values, err := s.settingRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return values, nil
}

// UpdateSettings writes the given keys, leaving keys not present in the
// request untouched.
func (s *settingsService) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (map[string]string, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for k, v := range req.Values {
			if err := s.settingRepo.Set(txCtx, k, v); err != nil {
				return fmt.Errorf("failed to save setting %q: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.settingRepo.All(ctx)
}

func (s *settingsService) DefaultTaxRate(ctx context.Context) (float64, error) {
	v, ok, err := s.settingRepo.Get(ctx, model.SettingDefaultTaxRate)
	if err != nil {
		return 0, fmt.Errorf("failed to read default tax rate: %w", err)
	}
	if !ok || v == "" {
		return 0, nil
	}
	rate, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, nil
	}
	return rate, nil
}

func (s *settingsService) LowStockAlertsEnabled(ctx context.Context) (bool, error) {
	v, ok, err := s.settingRepo.Get(ctx, model.SettingLowStockAlerts)
	if err != nil {
		return false, fmt.Errorf("failed to read low stock alert setting: %w", err)
	}
	if !ok {
		return true, nil
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return true, nil
	}
	return enabled, nil
}
