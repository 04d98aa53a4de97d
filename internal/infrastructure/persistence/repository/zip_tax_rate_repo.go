package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"github.com/garyjia/sales-tax-reports/pkg/database"
	"go.uber.org/zap"
)

// ZipTaxRateRepository implements port.RateTable over the zip_tax_rates table
type ZipTaxRateRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewZipTaxRateRepository creates a new zip tax rate repository
func NewZipTaxRateRepository(db *database.DB, logger *zap.Logger) *ZipTaxRateRepository {
	return &ZipTaxRateRepository{
		db:     db,
		logger: logger,
	}
}

// ListRates returns every live rate for a country, oldest first
func (r *ZipTaxRateRepository) ListRates(ctx context.Context, country string) ([]entity.ZipTaxRate, error) {
	query := `
		SELECT id, country, state, zip_code, combined_rate, is_seller_responsible
		FROM zip_tax_rates
		WHERE UPPER(country) = ? AND deleted_at IS NULL
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), strings.ToUpper(country))
	if err != nil {
		r.logger.Error("Failed to list zip tax rates", zap.String("country", country), zap.Error(err))
		return nil, fmt.Errorf("failed to list zip tax rates: %w", err)
	}
	defer rows.Close()

	var rates []entity.ZipTaxRate
	for rows.Next() {
		var rate entity.ZipTaxRate
		var state, zip sql.NullString
		if err := rows.Scan(
			&rate.ID,
			&rate.Country,
			&state,
			&zip,
			&rate.CombinedRate,
			&rate.IsSellerResponsible,
		); err != nil {
			return nil, fmt.Errorf("failed to scan zip tax rate: %w", err)
		}
		if state.Valid && strings.TrimSpace(state.String) != "" {
			rate.State = &state.String
		}
		if zip.Valid && strings.TrimSpace(zip.String) != "" {
			rate.ZipCode = &zip.String
		}
		rates = append(rates, rate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zip tax rates: %w", err)
	}
	return rates, nil
}

// Verify interface compliance
var _ port.RateTable = (*ZipTaxRateRepository)(nil)
