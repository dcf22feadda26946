// Package service defines the interfaces shared between the pipeline and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/model"
)

// TransactionLoader reads a raw invoice-line table from a source file.
type TransactionLoader interface {
	Load(ctx context.Context, path string) ([]model.TransactionLine, error)
}

// ReportWriter publishes a finished segmentation somewhere outside the process.
type ReportWriter interface {
	Write(ctx context.Context, result *model.Result) error
}

// ResultStore is the contract for the SQLite export file.
type ResultStore interface {
	SaveResult(ctx context.Context, result *model.Result) error
	GetRun(ctx context.Context, runID string) (*RunInfo, error)
	GetCustomersByRun(ctx context.Context, runID string) ([]model.ScoredCustomer, error)
	CountBySegment(ctx context.Context, runID string) (map[model.Segment]int, error)
	Migrate(ctx context.Context) error
	Close() error
}

// RunInfo describes one exported segmentation run.
type RunInfo struct {
	ReferenceDate time.Time
	GeneratedAt   time.Time
	RunID         string
	SourceFile    string
	CustomerCount int
	CleanRows     int
	RawRows       int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	// Operation names the call in logs and errors.
	Operation    string
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
