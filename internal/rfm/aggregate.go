// Package rfm derives per-customer Recency, Frequency and Monetary metrics and
// scores them into segments.
package rfm

import (
	"sort"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/model"
)

const day = 24 * time.Hour

type customerAcc struct {
	last     time.Time
	invoices map[string]struct{}
	monetary float64
}

// Aggregate groups clean lines by customer. Recency counts whole days from the
// customer's last invoice to referenceDate. Customers whose Monetary total is
// not positive are dropped. The result is ordered by CustomerID.
func Aggregate(lines []model.CleanLine, referenceDate time.Time) []model.CustomerRecord {
	byCustomer := make(map[int64]*customerAcc)
	for _, line := range lines {
		acc, ok := byCustomer[line.CustomerID]
		if !ok {
			acc = &customerAcc{last: line.InvoiceDate, invoices: make(map[string]struct{})}
			byCustomer[line.CustomerID] = acc
		}
		if line.InvoiceDate.After(acc.last) {
			acc.last = line.InvoiceDate
		}
		acc.invoices[line.InvoiceNo] = struct{}{}
		acc.monetary += line.LineTotal
	}

	records := make([]model.CustomerRecord, 0, len(byCustomer))
	for id, acc := range byCustomer {
		if acc.monetary <= 0 {
			continue
		}
		records = append(records, model.CustomerRecord{
			CustomerID: id,
			Recency:    wholeDays(referenceDate.Sub(acc.last)),
			Frequency:  len(acc.invoices),
			Monetary:   acc.monetary,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CustomerID < records[j].CustomerID
	})

	return records
}

// wholeDays floors d to days, rounding negative durations toward minus infinity.
func wholeDays(d time.Duration) int {
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}
