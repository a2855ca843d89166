// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrDataUnavailable = errors.New("market data unavailable")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrOpenTradeExists = errors.New("portfolio already holds an open trade")
	ErrNoOpenTrade     = errors.New("no open trade to settle")
	ErrAlreadySettled  = errors.New("trade already settled for this date")
	ErrAlertDelivery   = errors.New("alert delivery failed")
	ErrNotRunning      = errors.New("monitor is not running")
	ErrAlreadyRunning  = errors.New("monitor is already running")
)

// DataError represents a transient market-data error. The daemon retries
// on the next cycle; one-shot callers surface it and exit non-zero.
type DataError struct {
	Field   string
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Field, e.Message)
}

func (e *DataError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrDataUnavailable
}

// NewDataError creates a new DataError.
func NewDataError(field, message string, err error) *DataError {
	return &DataError{Field: field, Message: message, Err: err}
}

// ValidationError represents a fatal configuration validation error,
// raised before any evaluation and never recovered internally.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// SettlementError represents a bookkeeping invariant violation: a double
// entry, or settlement of a non-existent or already-settled trade. It
// indicates a sequencing bug upstream and is surfaced, never retried.
type SettlementError struct {
	Portfolio string
	Date      string
	Err       error
}

func (e *SettlementError) Error() string {
	if e.Date != "" {
		return fmt.Sprintf("settlement error [%s] %s: %v", e.Portfolio, e.Date, e.Err)
	}
	return fmt.Sprintf("settlement error [%s]: %v", e.Portfolio, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// NewSettlementError creates a new SettlementError.
func NewSettlementError(portfolio, date string, err error) *SettlementError {
	return &SettlementError{Portfolio: portfolio, Date: date, Err: err}
}

// AlertError represents a notification dispatch failure. It is logged and
// never blocks or retries the monitor cycle.
type AlertError struct {
	Channel string
	Kind    string
	Err     error
}

func (e *AlertError) Error() string {
	return fmt.Sprintf("alert error [%s] %s: %v", e.Channel, e.Kind, e.Err)
}

func (e *AlertError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrAlertDelivery
}

// NewAlertError creates a new AlertError.
func NewAlertError(channel, kind string, err error) *AlertError {
	return &AlertError{Channel: channel, Kind: kind, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
