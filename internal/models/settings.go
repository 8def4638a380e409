package models

import "time"

// Configuration keys stored in the settings table.
const (
	SettingCurrencySymbol         = "currency_symbol"
	SettingDefaultTaxRate         = "default_tax_rate"
	SettingInvoicePrefix          = "invoice_prefix"
	SettingInvoiceNextNumber      = "invoice_next_number"
	SettingDefaultDueDays         = "default_due_days"
	SettingLowStockThreshold      = "low_stock_threshold"
	SettingCriticalStockThreshold = "critical_stock_threshold"
	SettingOverpaymentTolerance   = "overpayment_tolerance"
	SettingNumberingRetryLimit    = "numbering_retry_limit"
	SettingPaymentMethods         = "payment_methods"
	SettingCompanyName            = "company_name"
	SettingCompanyAddress         = "company_address"
	SettingCompanyPhone           = "company_phone"
	SettingCompanyEmail           = "company_email"
)

// DefaultSettings seeds the settings table on first run, in insertion order.
var DefaultSettings = []Setting{
	{Key: SettingCurrencySymbol, Value: "₦"},
	{Key: SettingDefaultTaxRate, Value: "0.10"},
	{Key: SettingInvoicePrefix, Value: "INV-"},
	{Key: SettingInvoiceNextNumber, Value: "1001"},
	{Key: SettingDefaultDueDays, Value: "30"},
	{Key: SettingLowStockThreshold, Value: "10"},
	{Key: SettingCriticalStockThreshold, Value: "5"},
	{Key: SettingOverpaymentTolerance, Value: "0"},
	{Key: SettingNumberingRetryLimit, Value: "8"},
	{Key: SettingPaymentMethods, Value: "Cash,Card,Bank Transfer"},
	{Key: SettingCompanyName, Value: "My Shop"},
	{Key: SettingCompanyAddress, Value: ""},
	{Key: SettingCompanyPhone, Value: ""},
	{Key: SettingCompanyEmail, Value: ""},
}

// Clock supplies the current instant; services take one so tests can pin "today".
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time {
	return time.Now()
}
