package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReportingPeriod_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		month   int
		year    int
		wantErr bool
	}{
		{name: "lowest year", month: 1, year: 2014},
		{name: "highest year", month: 12, year: 3200},
		{name: "year too small", month: 1, year: 2013, wantErr: true},
		{name: "year too large", month: 1, year: 3201, wantErr: true},
		{name: "month zero", month: 0, year: 2023, wantErr: true},
		{name: "month thirteen", month: 13, year: 2023, wantErr: true},
		{name: "negative month", month: -1, year: 2023, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, err := NewReportingPeriod(tt.month, tt.year)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPeriod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, time.Month(tt.month), period.Month())
			assert.Equal(t, tt.year, period.Year())
		})
	}
}

func TestReportingPeriod_Window(t *testing.T) {
	period, err := NewReportingPeriod(12, 2023)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), period.Start())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), period.End())
	assert.Equal(t, "2023-12", period.String())

	assert.True(t, period.Contains(period.Start()))
	assert.True(t, period.Contains(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, period.Contains(period.End()))
	assert.False(t, period.Contains(time.Date(2023, 11, 30, 23, 59, 59, 0, time.UTC)))

	// 2024-01-01 03:00 in Kolkata is still December in UTC
	kolkata := time.FixedZone("IST", 5*3600+1800)
	assert.True(t, period.Contains(time.Date(2024, 1, 1, 3, 0, 0, 0, kolkata)))
}
