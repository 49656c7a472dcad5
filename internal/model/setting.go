package model

import "time"

// Well-known settings keys
const (
	SettingCurrency        = "currency"
	SettingBusinessName    = "business_name"
	SettingBusinessAddress = "business_address"
	SettingBusinessEmail   = "business_email"
	SettingBusinessPhone   = "business_phone"
	SettingInvoicePrefix   = "invoice_prefix"
	SettingEstimatePrefix  = "estimate_prefix"
	SettingDefaultTaxRate  = "default_tax_rate"
	SettingLowStockAlerts  = "low_stock_alerts"
)

// Setting is a single app configuration entry in the key/value store.
type Setting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
