package entity

import "errors"

var (
	// ErrInvalidPeriod is returned when a month or year is out of range
	ErrInvalidPeriod = errors.New("invalid reporting period")
)
