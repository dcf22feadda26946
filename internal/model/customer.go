package model

// CustomerRecord holds the RFM metrics of one customer.
type CustomerRecord struct {
	CustomerID int64
	Recency    int // days between the last purchase and the reference date
	Frequency  int // distinct invoices
	Monetary   float64
}

// ScoredCustomer is a CustomerRecord with its quintile scores and segment.
type ScoredCustomer struct {
	Segment Segment
	RFScore string
	CustomerRecord
	RecencyScore   int
	FrequencyScore int
	MonetaryScore  int
}

// SegmentSummary aggregates the customers that fell into one segment.
type SegmentSummary struct {
	Segment       Segment
	Customers     int
	Share         float64
	MeanRecency   float64
	MeanFrequency float64
	MeanMonetary  float64
	TotalMonetary float64
}
