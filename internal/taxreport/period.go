package taxreport

import (
	"fmt"
	"time"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
)

// ResolvePeriod returns the reporting period for a run. With both values
// omitted it is the calendar month preceding clock.Now() in UTC; giving only
// one of month and year is rejected. The result is always validated.
func ResolvePeriod(clock port.Clock, month, year *int) (entity.ReportingPeriod, error) {
	switch {
	case month == nil && year == nil:
		now := clock.Now().UTC()
		previous := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		return entity.NewReportingPeriod(int(previous.Month()), previous.Year())
	case month == nil:
		return entity.ReportingPeriod{}, fmt.Errorf("%w: month is required when year is given", entity.ErrInvalidPeriod)
	case year == nil:
		return entity.ReportingPeriod{}, fmt.Errorf("%w: year is required when month is given", entity.ErrInvalidPeriod)
	}
	return entity.NewReportingPeriod(*month, *year)
}
