package taxreport

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"go.uber.org/zap"
)

// Filter selects the transactions that belong in a period's report
type Filter struct {
	ledger       port.LedgerRepository
	jurisdiction port.Jurisdiction
	logger       *zap.Logger
}

// NewFilter creates a new transaction filter
func NewFilter(ledger port.LedgerRepository, jurisdiction port.Jurisdiction, logger *zap.Logger) *Filter {
	return &Filter{
		ledger:       ledger,
		jurisdiction: jurisdiction,
		logger:       logger,
	}
}

// Select streams qualifying transactions for period. A ledger failure is
// yielded once as ErrLedgerQuery and ends the sequence.
func (f *Filter) Select(ctx context.Context, period entity.ReportingPeriod) iter.Seq2[*entity.Transaction, error] {
	return func(yield func(*entity.Transaction, error) bool) {
		skipped := 0
		for tx, err := range f.ledger.ListTransactions(ctx, period, f.jurisdiction) {
			if err != nil {
				yield(nil, fmt.Errorf("%w: %w", ErrLedgerQuery, err))
				return
			}
			if !Qualifies(tx, period, f.jurisdiction) {
				skipped++
				continue
			}
			if !yield(tx, nil) {
				return
			}
		}

		f.logger.Debug("Transaction filter finished",
			zap.String("period", period.String()),
			zap.Int("skipped", skipped))
	}
}

// Qualifies applies the inclusion and exclusion rules to one transaction
func Qualifies(tx *entity.Transaction, period entity.ReportingPeriod, jurisdiction port.Jurisdiction) bool {
	if tx == nil {
		return false
	}
	if !period.Contains(tx.CreatedAt) {
		return false
	}
	if !matchesJurisdiction(tx.Country, jurisdiction) && !matchesJurisdiction(tx.IPCountry, jurisdiction) {
		return false
	}
	if !tx.IsSuccessful() {
		return false
	}
	// Refunds and B2B sales are out of scope for consumer tax reconciliation
	if tx.Refunded || tx.HasBusinessVATID() {
		return false
	}
	return true
}

func matchesJurisdiction(country string, jurisdiction port.Jurisdiction) bool {
	country = strings.TrimSpace(country)
	return strings.EqualFold(country, jurisdiction.Code) || strings.EqualFold(country, jurisdiction.Name)
}
