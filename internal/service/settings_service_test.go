package service

import (
	"context"
	"testing"

	"stockly/internal/model"
	"stockly/internal/repository"
)

func newSettingsService(t *testing.T) SettingsService {
	t.Helper()
	db := newTestDB(t)
	return NewSettingsService(
		repository.NewSettingRepository(db),
		repository.NewTransactionManager(db),
	)
}

func TestUpdateSettingsLeavesOtherKeysAlone(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	if _, err := svc.UpdateSettings(ctx, UpdateSettingsRequest{Values: map[string]string{
		model.SettingCurrency:      "USD",
		model.SettingInvoicePrefix: "INV-",
	}}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	values, err := svc.UpdateSettings(ctx, UpdateSettingsRequest{Values: map[string]string{
		model.SettingCurrency: "EUR",
	}})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if values[model.SettingCurrency] != "EUR" {
		t.Errorf("currency = %q, want EUR", values[model.SettingCurrency])
	}
	if values[model.SettingInvoicePrefix] != "INV-" {
		t.Errorf("untouched key changed: %q", values[model.SettingInvoicePrefix])
	}
}

func TestDefaultTaxRate(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	rate, err := svc.DefaultTaxRate(ctx)
	if err != nil || rate != 0 {
		t.Fatalf("unset rate = %v, %v", rate, err)
	}

	if _, err := svc.UpdateSettings(ctx, UpdateSettingsRequest{Values: map[string]string{
		model.SettingDefaultTaxRate: "8.5",
	}}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	rate, err = svc.DefaultTaxRate(ctx)
	if err != nil || rate != 8.5 {
		t.Fatalf("rate = %v, %v, want 8.5", rate, err)
	}

	// Garbage values fall back to zero instead of erroring.
	if _, err := svc.UpdateSettings(ctx, UpdateSettingsRequest{Values: map[string]string{
		model.SettingDefaultTaxRate: "eight",
	}}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	rate, err = svc.DefaultTaxRate(ctx)
	if err != nil || rate != 0 {
		t.Fatalf("garbage rate = %v, %v, want 0", rate, err)
	}
}

func TestLowStockAlertsDefaultOn(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	enabled, err := svc.LowStockAlertsEnabled(ctx)
	if err != nil || !enabled {
		t.Fatalf("default = %v, %v, want enabled", enabled, err)
	}

	if _, err := svc.UpdateSettings(ctx, UpdateSettingsRequest{Values: map[string]string{
		model.SettingLowStockAlerts: "false",
	}}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	enabled, err = svc.LowStockAlertsEnabled(ctx)
	if err != nil || enabled {
		t.Fatalf("after disable = %v, %v, want disabled", enabled, err)
	}
}
