package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/rfm-segmenter/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidRun      = errors.New("invalid run")
	ErrInvalidCustomer = errors.New("invalid customer")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateResult checks a result before it is exported.
func validateResult(result *model.Result) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	if strings.TrimSpace(result.RunID) == "" {
		return fmt.Errorf("%w: run ID cannot be empty", ErrInvalidRun)
	}
	if result.ReferenceDate.IsZero() {
		return fmt.Errorf("%w: reference date cannot be zero", ErrInvalidRun)
	}

	for i := range result.Customers {
		if err := validateCustomer(&result.Customers[i]); err != nil {
			return fmt.Errorf("customer at index %d: %w", i, err)
		}
	}
	return nil
}

// validateCustomer checks the invariants of a scored customer.
func validateCustomer(c *model.ScoredCustomer) error {
	if c.Monetary <= 0 {
		return fmt.Errorf("%w: monetary must be positive, got %v", ErrInvalidCustomer, c.Monetary)
	}
	for _, score := range []int{c.RecencyScore, c.FrequencyScore, c.MonetaryScore} {
		if score < model.MinScore || score > model.MaxScore {
			return fmt.Errorf("%w: score %d out of range", ErrInvalidCustomer, score)
		}
	}
	if c.Segment == "" {
		return fmt.Errorf("%w: segment cannot be empty", ErrInvalidCustomer)
	}
	return nil
}
