package preprocess

import (
	"math"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/stats"
)

// Describe summarises the raw table: null counts, numeric column statistics
// and the reference date one day after the last invoice.
func Describe(lines []model.TransactionLine) model.DatasetDescription {
	desc := model.DatasetDescription{
		Rows:       len(lines),
		NullCounts: NullCounts(lines),
	}

	var quantities, prices []float64
	customers := make(map[float64]struct{})
	invoices := make(map[string]struct{})

	for i := range lines {
		line := &lines[i]
		if line.Quantity != nil {
			quantities = append(quantities, float64(*line.Quantity))
		}
		if line.UnitPrice != nil {
			prices = append(prices, *line.UnitPrice)
		}
		if line.CustomerID != nil {
			customers[*line.CustomerID] = struct{}{}
		}
		if line.InvoiceNo != nil {
			invoices[*line.InvoiceNo] = struct{}{}
		}
		if line.InvoiceDate != nil && line.InvoiceDate.After(desc.MaxInvoiceDate) {
			desc.MaxInvoiceDate = *line.InvoiceDate
		}
	}

	desc.Customers = len(customers)
	desc.Invoices = len(invoices)
	desc.Numeric = []model.ColumnStats{
		columnStats(model.ColumnQuantity, quantities),
		columnStats(model.ColumnUnitPrice, prices),
	}
	if !desc.MaxInvoiceDate.IsZero() {
		desc.SuggestedReferenceDate = SuggestReferenceDate(desc.MaxInvoiceDate)
	}

	return desc
}

// SuggestReferenceDate returns midnight of the day after last.
func SuggestReferenceDate(last time.Time) time.Time {
	y, m, d := last.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, last.Location())
}

func columnStats(column string, values []float64) model.ColumnStats {
	cs := model.ColumnStats{
		Column: column,
		Count:  len(values),
		Mean:   math.NaN(),
		Std:    math.NaN(),
		Min:    math.NaN(),
		Q25:    math.NaN(),
		Median: math.NaN(),
		Q75:    math.NaN(),
		Max:    math.NaN(),
	}
	if len(values) == 0 {
		return cs
	}

	cs.Mean, _ = stats.Mean(values)
	cs.Std, _ = stats.StdDev(values)
	qs, _ := stats.Quantiles(values, 0, 0.25, 0.5, 0.75, 1)
	cs.Min, cs.Q25, cs.Median, cs.Q75, cs.Max = qs[0], qs[1], qs[2], qs[3], qs[4]
	return cs
}
