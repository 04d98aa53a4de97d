package taxreport

import (
	"errors"
	"fmt"
)

var (
	// ErrLedgerQuery is returned when the ledger cannot be read
	ErrLedgerQuery = errors.New("ledger query failed")

	// ErrRateLookup is returned when the rate table cannot be read.
	// It is a ledger failure for error handling purposes.
	ErrRateLookup = fmt.Errorf("%w: rate table lookup failed", ErrLedgerQuery)

	// ErrRateNotFound means no rate applies to the requested region
	ErrRateNotFound = errors.New("no applicable tax rate")

	// ErrRenderReport is returned when the artifact cannot be rendered
	ErrRenderReport = errors.New("report rendering failed")

	// ErrPublish is returned when the artifact cannot be stored or linked
	ErrPublish = errors.New("report publish failed")
)

// StageError records the job stage in which a run failed
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("india sales report failed while %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
