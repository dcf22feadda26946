// Package preprocess cleans raw invoice lines before aggregation.
package preprocess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/Veraticus/rfm-segmenter/internal/config"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/stats"
)

// Preprocessor drops unusable rows and clips outliers.
type Preprocessor struct {
	logger *slog.Logger
	cfg    config.Pipeline
}

// New creates a Preprocessor. A nil logger uses slog.Default().
func New(cfg config.Pipeline, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{cfg: cfg, logger: logger}
}

// Run applies, in order: null drop, cancellation drop, Quantity clip,
// UnitPrice clip and LineTotal derivation. The input is not modified.
func (p *Preprocessor) Run(ctx context.Context, lines []model.TransactionLine) ([]model.CleanLine, model.CleaningReport, error) {
	report := model.CleaningReport{
		RawRows:    len(lines),
		NullCounts: NullCounts(lines),
	}

	kept := make([]*model.TransactionLine, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		switch {
		case line.HasNull():
			report.DroppedNull++
		case line.IsCancellation(p.cfg.CancellationMarker):
			report.DroppedCancelled++
		default:
			kept = append(kept, line)
		}
	}

	p.logger.Debug("dropped rows",
		"null", report.DroppedNull,
		"cancelled", report.DroppedCancelled,
		"remaining", len(kept))

	if len(kept) == 0 {
		return nil, report, common.ErrNoTransactions
	}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	quantities := make([]float64, len(kept))
	prices := make([]float64, len(kept))
	for i, line := range kept {
		quantities[i] = float64(*line.Quantity)
		prices[i] = *line.UnitPrice
	}

	var err error
	report.QuantityFence, report.QuantityClipped, err = p.clip(quantities)
	if err != nil {
		return nil, report, fmt.Errorf("clip %s: %w", model.ColumnQuantity, err)
	}
	report.UnitPriceFence, report.UnitPriceClipped, err = p.clip(prices)
	if err != nil {
		return nil, report, fmt.Errorf("clip %s: %w", model.ColumnUnitPrice, err)
	}

	p.logger.Debug("clipped outliers",
		"quantity_low", report.QuantityFence.Low,
		"quantity_high", report.QuantityFence.High,
		"quantity_clipped", report.QuantityClipped,
		"unit_price_low", report.UnitPriceFence.Low,
		"unit_price_high", report.UnitPriceFence.High,
		"unit_price_clipped", report.UnitPriceClipped)

	clean := make([]model.CleanLine, len(kept))
	for i, line := range kept {
		clean[i] = model.CleanLine{
			InvoiceNo:   *line.InvoiceNo,
			StockCode:   *line.StockCode,
			Description: *line.Description,
			Quantity:    quantities[i],
			InvoiceDate: *line.InvoiceDate,
			UnitPrice:   prices[i],
			CustomerID:  int64(*line.CustomerID),
			Country:     *line.Country,
			LineTotal:   quantities[i] * prices[i],
		}
		if clean[i].InvoiceDate.After(report.MaxInvoiceDate) {
			report.MaxInvoiceDate = clean[i].InvoiceDate
		}
	}
	report.CleanRows = len(clean)

	return clean, report, nil
}

// clip replaces values outside the Tukey fence in place.
func (p *Preprocessor) clip(values []float64) (model.Fence, int, error) {
	fence, err := stats.TukeyFence(values, p.cfg.LowerQuantile, p.cfg.UpperQuantile, p.cfg.FenceMultiplier)
	if err != nil {
		return fence, 0, err
	}

	clipped := 0
	for i, v := range values {
		var changed bool
		values[i], changed = stats.Clip(v, fence)
		if changed {
			clipped++
		}
	}
	return fence, clipped, nil
}

// NullCounts counts missing values per column.
func NullCounts(lines []model.TransactionLine) map[string]int {
	counts := make(map[string]int, len(model.Columns))
	for _, col := range model.Columns {
		counts[col] = 0
	}
	for i := range lines {
		for _, col := range lines[i].NullColumns() {
			counts[col]++
		}
	}
	return counts
}
