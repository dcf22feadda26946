package sheets

import (
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/shopspring/decimal"
)

// CustomerRow represents a single row in the Customers tab.
type CustomerRow struct {
	Segment        string
	RFScore        string
	Monetary       decimal.Decimal
	CustomerID     int64
	Recency        int
	Frequency      int
	RecencyScore   int
	FrequencyScore int
	MonetaryScore  int
}

// SummaryRow represents a single row in the Summary tab.
type SummaryRow struct {
	Segment       string
	MeanMonetary  decimal.Decimal
	TotalMonetary decimal.Decimal
	Customers     int
	SharePct      decimal.Decimal
	MeanRecency   decimal.Decimal
	MeanFrequency decimal.Decimal
}

var (
	customerHeader = []any{
		"CustomerID", "Recency", "Frequency", "Monetary",
		"RecencyScore", "FrequencyScore", "MonetaryScore", "RF_Score", "CustomerSegment",
	}
	summaryHeader = []any{
		"Segment", "Customers", "Share %", "Mean Recency", "Mean Frequency", "Mean Monetary", "Total Monetary",
	}
)

// NewCustomerRow converts a scored customer, rounding money to pence.
func NewCustomerRow(c model.ScoredCustomer) CustomerRow {
	return CustomerRow{
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

// NewSummaryRow converts a segment summary.
func NewSummaryRow(s model.SegmentSummary) SummaryRow {
	return SummaryRow{
		Segment:       string(s.Segment),
		Customers:     s.Customers,
		SharePct:      decimal.NewFromFloat(s.Share * 100).Round(1),
		MeanRecency:   decimal.NewFromFloat(s.MeanRecency).Round(1),
		MeanFrequency: decimal.NewFromFloat(s.MeanFrequency).Round(2),
		MeanMonetary:  decimal.NewFromFloat(s.MeanMonetary).Round(2),
		TotalMonetary: decimal.NewFromFloat(s.TotalMonetary).Round(2),
	}
}

func (r CustomerRow) values() []any {
	monetary, _ := r.Monetary.Float64()
	return []any{
		r.CustomerID, r.Recency, r.Frequency, monetary,
		r.RecencyScore, r.FrequencyScore, r.MonetaryScore, r.RFScore, r.Segment,
	}
}

func (r SummaryRow) values() []any {
	share, _ := r.SharePct.Float64()
	meanR, _ := r.MeanRecency.Float64()
	meanF, _ := r.MeanFrequency.Float64()
	meanM, _ := r.MeanMonetary.Float64()
	total, _ := r.TotalMonetary.Float64()
	return []any{r.Segment, r.Customers, share, meanR, meanF, meanM, total}
}
