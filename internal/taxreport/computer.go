package taxreport

import (
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ImpliedRatePrecision is the number of decimal places kept for the rate
// derived from collected tax
const ImpliedRatePrecision = 2

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// ComputeRow builds the reconciliation line for tx. A nil rate yields zero
// expected tax so the row still appears in the report.
func ComputeRow(tx *entity.Transaction, rate *entity.ZipTaxRate) entity.ReportRow {
	placeOfSupply, _ := NormalizeIndianState(tx.IPState)

	row := entity.ReportRow{
		ID:                 tx.ID,
		TransactionID:      tx.ExternalID,
		Date:               tx.CreatedAt.UTC(),
		PlaceOfSupply:      placeOfSupply,
		AppliedRatePercent: decimal.Zero,
		TaxableValueCents:  tx.PriceCents,
		CollectedTaxCents:  tx.TaxCents,
		ImpliedRatePercent: impliedRatePercent(tx.TaxCents, tx.PriceCents),
	}

	if rate != nil {
		expected := decimal.NewFromInt(tx.PriceCents).Mul(rate.CombinedRate)
		row.AppliedRatePercent = rate.RatePercent()
		row.ExpectedTaxRoundedCents = roundHalfUp(expected).IntPart()
		row.ExpectedTaxFlooredCents = expected.Floor().IntPart()
	}

	row.DifferenceRounded = row.ExpectedTaxRoundedCents - row.CollectedTaxCents
	row.DifferenceFloored = row.ExpectedTaxFlooredCents - row.CollectedTaxCents
	return row
}

func impliedRatePercent(collectedCents, taxableCents int64) decimal.Decimal {
	if taxableCents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(collectedCents).
		Div(decimal.NewFromInt(taxableCents)).
		Mul(hundred).
		Round(ImpliedRatePrecision)
}

// roundHalfUp rounds to an integer with ties toward positive infinity
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}
