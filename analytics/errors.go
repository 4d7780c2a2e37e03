package analytics

import "fmt"

// InsufficientDataError is returned when a forecast is requested for a series
// with too little history. The caller can recover by waiting for more data;
// it is never retried internally.
type InsufficientDataError struct {
	RequiredDays int
	ObservedDays int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient history: need %d distinct days, observed %d", e.RequiredDays, e.ObservedDays)
}

// InvalidCostParametersError signals a non-positive cost input to the reorder
// calculator. This is a caller configuration bug and is surfaced immediately.
type InvalidCostParametersError struct {
	Parameter string
	Value     float64
}

func (e *InvalidCostParametersError) Error() string {
	return fmt.Sprintf("invalid cost parameter %s: %v (must be > 0)", e.Parameter, e.Value)
}

// ForecastUnavailableError is returned when the external predictor kept
// failing after all retry attempts. Callers may degrade to "no forecast
// available" rather than block.
type ForecastUnavailableError struct {
	Attempts int
	Err      error
}

func (e *ForecastUnavailableError) Error() string {
	return fmt.Sprintf("forecast unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ForecastUnavailableError) Unwrap() error {
	return e.Err
}
