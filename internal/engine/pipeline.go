// Package engine runs the segmentation pipeline end to end.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/config"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/preprocess"
	"github.com/Veraticus/rfm-segmenter/internal/rfm"
	"github.com/Veraticus/rfm-segmenter/internal/service"
	"github.com/google/uuid"
)

// Pipeline stage names used in logs and errors.
const (
	StageLoad       = "load"
	StagePreprocess = "preprocess"
	StageAggregate  = "aggregate"
	StageScore      = "score"
)

// Pipeline orchestrates load, clean, aggregate and score.
type Pipeline struct {
	loader service.TransactionLoader
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
	cfg    config.Pipeline
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the clock used for Result.GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator overrides how run IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// New creates a pipeline. loader may be nil when only Run is used.
func New(cfg config.Pipeline, loader service.TransactionLoader, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		cfg:    cfg,
		loader: loader,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// RunFile loads path and runs the pipeline on its rows.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*model.Result, error) {
	if p.loader == nil {
		return nil, fmt.Errorf("%s: no loader configured", StageLoad)
	}

	lines, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageLoad, err)
	}

	result, err := p.Run(ctx, lines)
	if err != nil {
		return nil, err
	}
	result.SourceFile = path
	return result, nil
}

// Run cleans, aggregates and scores lines. Any stage failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, lines []model.TransactionLine) (*model.Result, error) {
	runID := p.newID()
	logger := p.logger.With("run_id", runID)
	logger.Info("starting segmentation",
		"rows", len(lines),
		"reference_date", p.cfg.ReferenceDate.Format(config.DateLayout))

	start := time.Now()
	cleanLines, report, err := preprocess.New(p.cfg, logger).Run(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StagePreprocess, err)
	}
	logger.Info("preprocessed transactions",
		"clean_rows", report.CleanRows,
		"dropped_null", report.DroppedNull,
		"dropped_cancelled", report.DroppedCancelled,
		"quantity_clipped", report.QuantityClipped,
		"unit_price_clipped", report.UnitPriceClipped,
		"duration", time.Since(start))

	p.checkReferenceDate(logger, report.MaxInvoiceDate)

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", StageAggregate, err)
	}
	start = time.Now()
	records := rfm.Aggregate(cleanLines, p.cfg.ReferenceDate)
	logger.Info("aggregated customers", "customers", len(records), "duration", time.Since(start))

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", StageScore, err)
	}
	start = time.Now()
	scored, err := rfm.Score(records, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageScore, err)
	}
	summary := rfm.Summarize(scored)
	logger.Info("scored customers", "segments", len(summary), "duration", time.Since(start))

	return &model.Result{
		RunID:         runID,
		ReferenceDate: p.cfg.ReferenceDate,
		GeneratedAt:   p.now(),
		Customers:     scored,
		Summary:       summary,
		Cleaning:      report,
	}, nil
}

// checkReferenceDate warns when the reference date is not the day after the
// last invoice, which skews every recency value.
func (p *Pipeline) checkReferenceDate(logger *slog.Logger, lastInvoice time.Time) {
	suggested := preprocess.SuggestReferenceDate(lastInvoice)
	if !suggested.Equal(p.cfg.ReferenceDate) {
		logger.Warn("reference date is not the day after the last invoice",
			"reference_date", p.cfg.ReferenceDate.Format(config.DateLayout),
			"last_invoice", lastInvoice,
			"suggested", suggested.Format(config.DateLayout))
	}
}
