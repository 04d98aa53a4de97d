package repository

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"github.com/garyjia/sales-tax-reports/pkg/database"
	"go.uber.org/zap"
)

// LedgerRepository implements port.LedgerRepository over the purchases table
type LedgerRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB, logger *zap.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// ledgerWindowPadding covers the widest UTC offset a writer may have used
const ledgerWindowPadding = 24 * time.Hour

// ListTransactions streams completed purchases created inside period whose
// billing or IP country matches the jurisdiction. Refund and business tax id
// filtering is left to the caller.
func (r *LedgerRepository) ListTransactions(ctx context.Context, period entity.ReportingPeriod, jurisdiction port.Jurisdiction) iter.Seq2[*entity.Transaction, error] {
	return func(yield func(*entity.Transaction, error) bool) {
		states := entity.SuccessfulPurchaseStates()
		query := `
			SELECT p.id, p.external_id, p.created_at,
				COALESCE(p.country, ''), COALESCE(p.ip_country, ''),
				COALESCE(p.ip_state, ''), COALESCE(p.zip_code, ''),
				p.price_cents, p.quantity, p.tax_cents, p.purchase_state,
				COALESCE(p.stripe_refunded, FALSE),
				COALESCE(t.business_vat_id, '')
			FROM purchases p
			LEFT JOIN purchase_sales_tax_infos t ON t.purchase_id = p.id
			WHERE p.created_at >= ? AND p.created_at < ?
				AND (UPPER(p.country) IN (?, ?) OR UPPER(p.ip_country) IN (?, ?))
				AND p.purchase_state IN (` + placeholders(len(states)) + `)
			ORDER BY p.id ASC
		`

		code := strings.ToUpper(jurisdiction.Code)
		name := strings.ToUpper(jurisdiction.Name)
		// Stored timestamps keep the writer's offset and sqlite compares them
		// as text, so the SQL window is padded and the exact UTC cut is made
		// on the scanned instant.
		from := period.Start().Add(-ledgerWindowPadding)
		to := period.End().Add(ledgerWindowPadding)
		args := []interface{}{from, to, code, name, code, name}
		for _, state := range states {
			args = append(args, state)
		}

		rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
		if err != nil {
			r.logger.Error("Failed to query ledger",
				zap.String("period", period.String()),
				zap.Error(err))
			yield(nil, fmt.Errorf("failed to query purchases: %w", err))
			return
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			var tx entity.Transaction
			if err := rows.Scan(
				&tx.ID,
				&tx.ExternalID,
				&tx.CreatedAt,
				&tx.Country,
				&tx.IPCountry,
				&tx.IPState,
				&tx.ZipCode,
				&tx.PriceCents,
				&tx.Quantity,
				&tx.TaxCents,
				&tx.PurchaseState,
				&tx.Refunded,
				&tx.BusinessVATID,
			); err != nil {
				yield(nil, fmt.Errorf("failed to scan purchase: %w", err))
				return
			}
			if !period.Contains(tx.CreatedAt) {
				continue
			}
			count++
			if !yield(&tx, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("failed to iterate purchases: %w", err))
			return
		}

		r.logger.Debug("Ledger query finished",
			zap.String("period", period.String()),
			zap.Int("rows", count))
	}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// Verify interface compliance
var _ port.LedgerRepository = (*LedgerRepository)(nil)
