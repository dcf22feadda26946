package model

import "time"

// Fence is a closed interval [Low, High] used to clip outliers.
type Fence struct {
	Low  float64
	High float64
}

// Contains reports whether v lies inside the fence.
func (f Fence) Contains(v float64) bool {
	return v >= f.Low && v <= f.High
}

// CleaningReport records what the preprocessor did to the raw table.
type CleaningReport struct {
	MaxInvoiceDate   time.Time
	NullCounts       map[string]int
	QuantityFence    Fence
	UnitPriceFence   Fence
	RawRows          int
	DroppedNull      int
	DroppedCancelled int
	CleanRows        int
	QuantityClipped  int
	UnitPriceClipped int
}

// ColumnStats is the describe() row of a numeric column.
type ColumnStats struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// DatasetDescription summarises a raw table before any cleaning.
type DatasetDescription struct {
	MaxInvoiceDate         time.Time
	SuggestedReferenceDate time.Time
	NullCounts             map[string]int
	Numeric                []ColumnStats
	Rows                   int
	Customers              int
	Invoices               int
}

// Result is the output of one pipeline run.
type Result struct {
	ReferenceDate time.Time
	GeneratedAt   time.Time
	RunID         string
	SourceFile    string
	Customers     []ScoredCustomer
	Summary       []SegmentSummary
	Cleaning      CleaningReport
}
