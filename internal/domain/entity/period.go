package entity

import (
	"fmt"
	"time"
)

// Reporting period bounds
const (
	MinReportYear = 2014
	MaxReportYear = 3200
)

// ReportingPeriod identifies one calendar month of sales.
// The zero value is not a valid period; use NewReportingPeriod.
type ReportingPeriod struct {
	month time.Month
	year  int
}

// NewReportingPeriod validates month and year and returns the period
func NewReportingPeriod(month, year int) (ReportingPeriod, error) {
	if year < MinReportYear || year > MaxReportYear {
		return ReportingPeriod{}, fmt.Errorf("%w: year %d is outside [%d, %d]", ErrInvalidPeriod, year, MinReportYear, MaxReportYear)
	}
	if month < 1 || month > 12 {
		return ReportingPeriod{}, fmt.Errorf("%w: month %d is outside [1, 12]", ErrInvalidPeriod, month)
	}
	return ReportingPeriod{month: time.Month(month), year: year}, nil
}

// Month returns the calendar month
func (p ReportingPeriod) Month() time.Month {
	return p.month
}

// Year returns the calendar year
func (p ReportingPeriod) Year() int {
	return p.year
}

// Start returns the first instant of the month in UTC
func (p ReportingPeriod) Start() time.Time {
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month in UTC (exclusive bound)
func (p ReportingPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls inside [Start, End)
func (p ReportingPeriod) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && t.Before(p.End())
}

// String returns the period as YYYY-MM
func (p ReportingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.year, int(p.month))
}
