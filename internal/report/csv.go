package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Veraticus/rfm-segmenter/internal/model"
)

// CSVWriter writes one row per customer with a header row.
type CSVWriter struct {
	w io.Writer
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// Write implements service.ReportWriter.
func (c *CSVWriter) Write(ctx context.Context, result *model.Result) error {
	writer := csv.NewWriter(c.w)

	if err := writer.Write(CustomerHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, customer := range result.Customers {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := writer.Write(customerRow(customer)); err != nil {
			return fmt.Errorf("failed to write customer %d: %w", customer.CustomerID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
