// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors.
	ErrNoTransactions    = errors.New("no transactions left to segment")
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrMissingColumn     = errors.New("missing required column")

	// Data quality errors.
	ErrDataQuality = errors.New("data quality error")

	// Export errors.
	ErrNotFound     = errors.New("not found")
	ErrSheetsExport = errors.New("sheets export failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// DataQualityError reports input data that the pipeline cannot segment.
// It always matches ErrDataQuality with errors.Is.
type DataQualityError struct {
	Err    error
	Stage  string
	Metric string
}

func (e *DataQualityError) Error() string {
	if e.Metric != "" {
		return fmt.Sprintf("data quality error in %s (%s): %v", e.Stage, e.Metric, e.Err)
	}
	return fmt.Sprintf("data quality error in %s: %v", e.Stage, e.Err)
}

func (e *DataQualityError) Unwrap() []error {
	return []error{ErrDataQuality, e.Err}
}

// NewDataQualityError wraps err as a data quality failure for the given stage and metric.
func NewDataQualityError(stage, metric string, err error) error {
	return &DataQualityError{
		Stage:  stage,
		Metric: metric,
		Err:    err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
