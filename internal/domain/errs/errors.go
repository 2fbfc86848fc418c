// Package errs holds the error taxonomy shared by the engine, its providers
// and the HTTP boundary.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoStrategies is wrapped in an AnalysisError when every strategy failed.
var ErrNoStrategies = errors.New("no strategy produced a signal")

// ValidationError reports a malformed or out-of-range input parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func NewValidation(field, format string, a ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, a...)}
}

// InsufficientDataError reports a window shorter than a function's minimum.
type InsufficientDataError struct {
	Op       string
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: need %d points, got %d", e.Op, e.Required, e.Actual)
}

func NewInsufficientData(op string, required, actual int) *InsufficientDataError {
	return &InsufficientDataError{Op: op, Required: required, Actual: actual}
}

// InvalidDataError reports a non-finite or negative value inside a series.
type InvalidDataError struct {
	Field string
	Index int
	Value float64
}

func (e *InvalidDataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid data: %s=%v", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid data: %s[%d]=%v", e.Field, e.Index, e.Value)
}

// CalculationError reports an arithmetic failure not otherwise guarded.
type CalculationError struct {
	Op  string
	Err error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculation %s: %v", e.Op, e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }

// AnalysisError is an orchestration-level failure, optionally scoped to a symbol.
type AnalysisError struct {
	Symbol string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("analysis: %v", e.Err)
	}
	return fmt.Sprintf("analysis %s: %v", e.Symbol, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func NewAnalysis(symbol string, err error) *AnalysisError {
	return &AnalysisError{Symbol: symbol, Err: err}
}

// DataSourceError is a generic upstream provider failure.
type DataSourceError struct {
	Provider string
	Err      error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s: %v", e.Provider, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// RateLimitError reports that a provider throttled the request.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("data source %s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("data source %s: rate limited", e.Provider)
}

// DataNotAvailableError reports that a provider has no data for a symbol.
type DataNotAvailableError struct {
	Provider string
	Symbol   string
}

func (e *DataNotAvailableError) Error() string {
	return fmt.Sprintf("data source %s: no data for %s", e.Provider, e.Symbol)
}

// IsComputation reports whether err comes from validating or computing on
// data, as opposed to fetching it.
func IsComputation(err error) bool {
	var (
		v  *ValidationError
		id *InsufficientDataError
		iv *InvalidDataError
		c  *CalculationError
	)
	return errors.As(err, &v) || errors.As(err, &id) || errors.As(err, &iv) || errors.As(err, &c)
}

// IsProvider reports whether err comes from an upstream data provider.
func IsProvider(err error) bool {
	var (
		ds *DataSourceError
		rl *RateLimitError
		na *DataNotAvailableError
	)
	return errors.As(err, &ds) || errors.As(err, &rl) || errors.As(err, &na)
}

// Kind returns a short label for metrics and logs.
func Kind(err error) string {
	var (
		v  *ValidationError
		id *InsufficientDataError
		iv *InvalidDataError
		c  *CalculationError
		ds *DataSourceError
		rl *RateLimitError
		na *DataNotAvailableError
		a  *AnalysisError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &rl):
		return "rate_limit"
	case errors.As(err, &na):
		return "not_available"
	case errors.As(err, &ds):
		return "data_source"
	case errors.As(err, &v):
		return "validation"
	case errors.As(err, &id):
		return "insufficient_data"
	case errors.As(err, &iv):
		return "invalid_data"
	case errors.As(err, &c):
		return "calculation"
	case errors.As(err, &a):
		return "analysis"
	default:
		return "unknown"
	}
}
