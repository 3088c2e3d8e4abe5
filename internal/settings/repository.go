package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository loads and saves the singleton settings row.
type Repository interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) (Settings, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a postgres backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const settingsColumns = `company_name, address, email, phone, company_tax_id, currency_symbol,
	tax_enabled, tax_rate, default_payment_details, default_terms,
	default_validity_days, default_payment_terms_days, updated_at`

// Load returns the stored row, or Defaults when it has not been created yet.
func (r *repository) Load(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM app_settings WHERE id = 1`).Scan(
		&s.CompanyName, &s.Address, &s.Email, &s.Phone, &s.CompanyTaxID, &s.CurrencySymbol,
		&s.TaxEnabled, &s.TaxRate, &s.DefaultPaymentDetails, &s.DefaultTerms,
		&s.DefaultValidityDays, &s.DefaultPaymentTermsDays, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (r *repository) Save(ctx context.Context, s Settings) (Settings, error) {
	query := `
		INSERT INTO app_settings (id, company_name, address, email, phone, company_tax_id, currency_symbol,
			tax_enabled, tax_rate, default_payment_details, default_terms,
			default_validity_days, default_payment_terms_days, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			address = EXCLUDED.address,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			company_tax_id = EXCLUDED.company_tax_id,
			currency_symbol = EXCLUDED.currency_symbol,
			tax_enabled = EXCLUDED.tax_enabled,
			tax_rate = EXCLUDED.tax_rate,
			default_payment_details = EXCLUDED.default_payment_details,
			default_terms = EXCLUDED.default_terms,
			default_validity_days = EXCLUDED.default_validity_days,
			default_payment_terms_days = EXCLUDED.default_payment_terms_days,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		s.CompanyName, s.Address, s.Email, s.Phone, s.CompanyTaxID, s.CurrencySymbol,
		s.TaxEnabled, s.TaxRate, s.DefaultPaymentDetails, s.DefaultTerms,
		s.DefaultValidityDays, s.DefaultPaymentTermsDays,
	).Scan(&s.UpdatedAt)
	return s, err
}
