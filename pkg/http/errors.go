package http

import (
	"errors"
	"fmt"
	"net/http"

	"SignalEngine/internal/domain/errs"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// WithParam sets a single error param.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// BadRequestError creates a 400 error.
func BadRequestError(message string) *AppError {
	return NewAppError("ERR_BAD_REQUEST", "", message, http.StatusBadRequest)
}

// NotFoundError creates a 404 error.
func NotFoundError(message string) *AppError {
	return NewAppError("ERR_NOT_FOUND", "", message, http.StatusNotFound)
}

// UnprocessableError creates a 422 error.
func UnprocessableError(message string) *AppError {
	return NewAppError("ERR_UNPROCESSABLE", "", message, http.StatusUnprocessableEntity)
}

// TooManyRequestsError creates a 429 error.
func TooManyRequestsError(message string) *AppError {
	return NewAppError("ERR_RATE_LIMITED", "", message, http.StatusTooManyRequests)
}

// BadGatewayError creates a 502 error.
func BadGatewayError(message string) *AppError {
	return NewAppError("ERR_UPSTREAM", "", message, http.StatusBadGateway)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}

// FromDomainError maps the engine's error taxonomy onto HTTP errors.
// Provider errors are checked first so a wrapped upstream failure is not
// reported as bad input. Validation inside an analysis maps to 422 because
// the offending value came from market data, not from the request.
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}
	var (
		app *AppError
		rl  *errs.RateLimitError
		na  *errs.DataNotAvailableError
		ds  *errs.DataSourceError
		a   *errs.AnalysisError
		v   *errs.ValidationError
	)
	switch {
	case errors.As(err, &app):
		return app
	case errors.As(err, &rl):
		e := TooManyRequestsError("upstream rate limit reached").WithError(err)
		if rl.RetryAfter > 0 {
			e.WithParam("retry_after_seconds", int(rl.RetryAfter.Seconds()))
		}
		return e
	case errors.As(err, &na):
		return NotFoundError(fmt.Sprintf("no market data for %s", na.Symbol)).WithError(err)
	case errors.As(err, &ds):
		return BadGatewayError("market data provider unavailable").WithError(err)
	case errors.As(err, &a):
		return UnprocessableError(err.Error()).WithError(err)
	case errors.As(err, &v):
		e := BadRequestError(v.Message).WithError(err)
		e.Code = "ERR_VALIDATION"
		e.Field = v.Field
		return e
	case errs.IsComputation(err):
		return UnprocessableError(err.Error()).WithError(err)
	default:
		return InternalError("internal error").WithError(err)
	}
}
