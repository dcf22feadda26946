package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/config"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/shopspring/decimal"
)

type jsonDocument struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	RunID         string         `json:"run_id"`
	ReferenceDate string         `json:"reference_date"`
	SourceFile    string         `json:"source_file,omitempty"`
	Customers     []jsonCustomer `json:"customers"`
	Summary       []jsonSummary  `json:"summary"`
	Cleaning      jsonCleaning   `json:"cleaning"`
}

// jsonCustomer keys match CustomerHeader so CSV and JSON records share names.
type jsonCustomer struct {
	Monetary       decimal.Decimal `json:"Monetary"`
	RFScore        string          `json:"RF_Score"`
	Segment        string          `json:"CustomerSegment"`
	CustomerID     int64           `json:"CustomerID"`
	Recency        int             `json:"Recency"`
	Frequency      int             `json:"Frequency"`
	RecencyScore   int             `json:"RecencyScore"`
	FrequencyScore int             `json:"FrequencyScore"`
	MonetaryScore  int             `json:"MonetaryScore"`
}

type jsonSummary struct {
	Segment       string          `json:"segment"`
	MeanMonetary  decimal.Decimal `json:"mean_monetary"`
	TotalMonetary decimal.Decimal `json:"total_monetary"`
	Customers     int             `json:"customers"`
	Share         float64         `json:"share"`
	MeanRecency   float64         `json:"mean_recency"`
	MeanFrequency float64         `json:"mean_frequency"`
}

type jsonFence struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type jsonCleaning struct {
	NullCounts       map[string]int `json:"null_counts"`
	QuantityFence    jsonFence      `json:"quantity_fence"`
	UnitPriceFence   jsonFence      `json:"unit_price_fence"`
	RawRows          int            `json:"raw_rows"`
	DroppedNull      int            `json:"dropped_null"`
	DroppedCancelled int            `json:"dropped_cancelled"`
	CleanRows        int            `json:"clean_rows"`
	QuantityClipped  int            `json:"quantity_clipped"`
	UnitPriceClipped int            `json:"unit_price_clipped"`
}

// JSONWriter writes the whole result as one JSON document.
type JSONWriter struct {
	w      io.Writer
	indent bool
}

// NewJSONWriter creates a JSON writer. indent pretty-prints the output.
func NewJSONWriter(w io.Writer, indent bool) *JSONWriter {
	return &JSONWriter{w: w, indent: indent}
}

// Write implements service.ReportWriter.
func (j *JSONWriter) Write(ctx context.Context, result *model.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoder := json.NewEncoder(j.w)
	if j.indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(newJSONDocument(result)); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func newJSONDocument(result *model.Result) jsonDocument {
	doc := jsonDocument{
		RunID:         result.RunID,
		ReferenceDate: result.ReferenceDate.Format(config.DateLayout),
		GeneratedAt:   result.GeneratedAt,
		SourceFile:    result.SourceFile,
		Customers:     make([]jsonCustomer, len(result.Customers)),
		Summary:       make([]jsonSummary, len(result.Summary)),
		Cleaning: jsonCleaning{
			RawRows:          result.Cleaning.RawRows,
			DroppedNull:      result.Cleaning.DroppedNull,
			DroppedCancelled: result.Cleaning.DroppedCancelled,
			CleanRows:        result.Cleaning.CleanRows,
			NullCounts:       result.Cleaning.NullCounts,
			QuantityFence:    jsonFence(result.Cleaning.QuantityFence),
			UnitPriceFence:   jsonFence(result.Cleaning.UnitPriceFence),
			QuantityClipped:  result.Cleaning.QuantityClipped,
			UnitPriceClipped: result.Cleaning.UnitPriceClipped,
		},
	}

	for i, c := range result.Customers {
		doc.Customers[i] = jsonCustomer{
			CustomerID:     c.CustomerID,
			Recency:        c.Recency,
			Frequency:      c.Frequency,
			Monetary:       decimal.NewFromFloat(c.Monetary).Round(2),
			RecencyScore:   c.RecencyScore,
			FrequencyScore: c.FrequencyScore,
			MonetaryScore:  c.MonetaryScore,
			RFScore:        c.RFScore,
			Segment:        string(c.Segment),
		}
	}

	for i, s := range result.Summary {
		doc.Summary[i] = jsonSummary{
			Segment:       string(s.Segment),
			Customers:     s.Customers,
			Share:         s.Share,
			MeanRecency:   s.MeanRecency,
			MeanFrequency: s.MeanFrequency,
			MeanMonetary:  decimal.NewFromFloat(s.MeanMonetary).Round(2),
			TotalMonetary: decimal.NewFromFloat(s.TotalMonetary).Round(2),
		}
	}

	return doc
}
