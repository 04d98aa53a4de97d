package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportRow is the reconciliation line computed for one qualifying transaction
type ReportRow struct {
	ID                      int64 // ledger identity, used for ordering
	TransactionID           string
	Date                    time.Time
	PlaceOfSupply           string
	AppliedRatePercent      decimal.Decimal
	TaxableValueCents       int64
	CollectedTaxCents       int64
	ImpliedRatePercent      decimal.Decimal
	ExpectedTaxRoundedCents int64
	ExpectedTaxFlooredCents int64
	DifferenceRounded       int64
	DifferenceFloored       int64
}
