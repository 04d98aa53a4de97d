package port

import (
	"context"
	"iter"

	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
)

// Jurisdiction identifies the taxing country by ISO code and display name
type Jurisdiction struct {
	Code string
	Name string
}

// India is the jurisdiction covered by the sales report
var India = Jurisdiction{Code: "IN", Name: "India"}

// LedgerRepository defines read access to completed sales
type LedgerRepository interface {
	// ListTransactions streams transactions created inside period whose billing or
	// IP country matches the jurisdiction. The sequence is single-pass and its
	// order is not guaranteed.
	ListTransactions(ctx context.Context, period entity.ReportingPeriod, jurisdiction Jurisdiction) iter.Seq2[*entity.Transaction, error]
}

// RateTable defines read access to jurisdiction tax rates
type RateTable interface {
	// ListRates returns every rate row for a country (ISO code)
	ListRates(ctx context.Context, country string) ([]entity.ZipTaxRate, error)
}
