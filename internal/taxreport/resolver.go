package taxreport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
)

// RateResolver looks up the combined rate for a region. Rates are read once
// per country and cached; a resolver is safe for concurrent use.
type RateResolver struct {
	table port.RateTable

	mu    sync.Mutex
	cache map[string][]entity.ZipTaxRate
}

// NewRateResolver creates a new rate resolver
func NewRateResolver(table port.RateTable) *RateResolver {
	return &RateResolver{
		table: table,
		cache: make(map[string][]entity.ZipTaxRate),
	}
}

// Resolve returns the most specific rate for the region:
// state+zip, then state only, then the country default.
// A state that is present but unrecognized resolves to ErrRateNotFound.
func (r *RateResolver) Resolve(ctx context.Context, country, state, zip string) (*entity.ZipTaxRate, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	zip = strings.TrimSpace(zip)

	if strings.TrimSpace(state) != "" {
		code, ok := normalizeSubdivision(country, state)
		if !ok {
			return nil, fmt.Errorf("%w: unrecognized state %q", ErrRateNotFound, state)
		}
		state = code
	} else {
		state = ""
	}

	rates, err := r.ratesFor(ctx, country)
	if err != nil {
		return nil, err
	}

	if rate := selectRate(country, rates, state, zip); rate != nil {
		return rate, nil
	}
	return nil, fmt.Errorf("%w: country=%s state=%q zip=%q", ErrRateNotFound, country, state, zip)
}

func (r *RateResolver) ratesFor(ctx context.Context, country string) ([]entity.ZipTaxRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rates, ok := r.cache[country]; ok {
		return rates, nil
	}

	rates, err := r.table.ListRates(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRateLookup, err)
	}
	r.cache[country] = rates
	return rates, nil
}

func selectRate(country string, rates []entity.ZipTaxRate, state, zip string) *entity.ZipTaxRate {
	var stateOnly, countryDefault *entity.ZipTaxRate

	for i := range rates {
		rate := &rates[i]
		rateState := ""
		if rate.State != nil {
			rateState, _ = normalizeSubdivision(country, *rate.State)
			if rateState == "" {
				continue
			}
		}

		switch {
		case rate.State == nil && rate.ZipCode == nil:
			if countryDefault == nil {
				countryDefault = rate
			}
		case state == "" || rateState != state:
			continue
		case rate.ZipCode == nil:
			if stateOnly == nil {
				stateOnly = rate
			}
		case zip != "" && strings.EqualFold(strings.TrimSpace(*rate.ZipCode), zip):
			return rate
		}
	}

	if stateOnly != nil {
		return stateOnly
	}
	return countryDefault
}

// normalizeSubdivision canonicalizes a state for a country. Only Indian
// states are validated; other countries accept any non-empty value.
func normalizeSubdivision(country, state string) (string, bool) {
	if country == port.India.Code {
		return NormalizeIndianState(state)
	}
	state = strings.ToUpper(strings.TrimSpace(state))
	return state, state != ""
}
