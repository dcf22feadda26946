// Package report renders segmentation results as terminal tables, CSV and JSON.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/service"
	"github.com/shopspring/decimal"
)

// Format names accepted by New.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// Formats lists every supported output format.
var Formats = []string{FormatTable, FormatCSV, FormatJSON}

// CustomerHeader is the column order of every customer table.
var CustomerHeader = []string{
	"CustomerID", "Recency", "Frequency", "Monetary",
	"RecencyScore", "FrequencyScore", "MonetaryScore", "RF_Score", "CustomerSegment",
}

// New returns the writer for format. Table options only apply to FormatTable.
func New(format string, w io.Writer, opts TableOptions) (service.ReportWriter, error) {
	switch format {
	case FormatTable, "":
		return NewTableWriter(w, opts), nil
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w, true), nil
	default:
		return nil, fmt.Errorf("%w: output format %q (want one of %v)", common.ErrInvalidConfig, format, Formats)
	}
}

// Money renders an amount with exactly two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Percent renders a 0..1 share as a percentage with one decimal.
func Percent(share float64) string {
	return decimal.NewFromFloat(share*100).StringFixed(1) + "%"
}

func customerRow(c model.ScoredCustomer) []string {
	return []string{
		strconv.FormatInt(c.CustomerID, 10),
		strconv.Itoa(c.Recency),
		strconv.Itoa(c.Frequency),
		Money(c.Monetary),
		strconv.Itoa(c.RecencyScore),
		strconv.Itoa(c.FrequencyScore),
		strconv.Itoa(c.MonetaryScore),
		c.RFScore,
		string(c.Segment),
	}
}
