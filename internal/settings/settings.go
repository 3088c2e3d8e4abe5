// Package settings stores the company profile and document defaults.
package settings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/money"
)

// Settings is a snapshot of the application settings row. Operations receive
// it by value so a request sees one consistent configuration.
type Settings struct {
	CompanyName    string `json:"company_name"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	CompanyTaxID   string `json:"company_tax_id"`
	CurrencySymbol string `json:"currency_symbol"`

	TaxEnabled bool            `json:"tax_enabled"`
	TaxRate    decimal.Decimal `json:"tax_rate"`

	DefaultPaymentDetails   string `json:"default_payment_details"`
	DefaultTerms            string `json:"default_terms"`
	DefaultValidityDays     int    `json:"default_validity_days"`
	DefaultPaymentTermsDays int    `json:"default_payment_terms_days"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults mirrors the values seeded by the first migration.
func Defaults() Settings {
	return Settings{
		CompanyName:             "Your Company Name",
		CurrencySymbol:          "RM",
		TaxEnabled:              false,
		TaxRate:                 decimal.RequireFromString("6.00"),
		DefaultValidityDays:     15,
		DefaultPaymentTermsDays: 15,
	}
}

// Tax projects the tax fields for the calculator.
func (s Settings) Tax() money.TaxSettings {
	return money.TaxSettings{Enabled: s.TaxEnabled, RatePercent: s.TaxRate}
}

// UpdateRequest carries a full replacement of the editable fields.
type UpdateRequest struct {
	CompanyName             string          `json:"company_name" validate:"required,max=255"`
	Address                 string          `json:"address"`
	Email                   string          `json:"email" validate:"omitempty,email"`
	Phone                   string          `json:"phone" validate:"max=50"`
	CompanyTaxID            string          `json:"company_tax_id" validate:"max=100"`
	CurrencySymbol          string          `json:"currency_symbol" validate:"required,max=5"`
	TaxEnabled              bool            `json:"tax_enabled"`
	TaxRate                 decimal.Decimal `json:"tax_rate"`
	DefaultPaymentDetails   string          `json:"default_payment_details"`
	DefaultTerms            string          `json:"default_terms"`
	DefaultValidityDays     int             `json:"default_validity_days" validate:"gte=0"`
	DefaultPaymentTermsDays int             `json:"default_payment_terms_days" validate:"gte=0"`
}
