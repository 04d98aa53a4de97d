package entity

import "github.com/shopspring/decimal"

// ZipTaxRate is one row of the jurisdiction rate table.
// A nil State or ZipCode means the rate applies to every value of that field.
type ZipTaxRate struct {
	ID                  int64
	Country             string
	State               *string
	ZipCode             *string
	CombinedRate        decimal.Decimal // fraction, 0.18 == 18%
	IsSellerResponsible bool
}

// IsCountryDefault reports whether the rate is the country-wide fallback
func (r *ZipTaxRate) IsCountryDefault() bool {
	return r.State == nil && r.ZipCode == nil
}

// RatePercent returns the combined rate expressed as a percentage
func (r *ZipTaxRate) RatePercent() decimal.Decimal {
	return r.CombinedRate.Mul(decimal.NewFromInt(100))
}
