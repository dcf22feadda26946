// Package model holds the data types that flow through the segmentation pipeline.
package model

import (
	"strings"
	"time"
)

// Column names of the raw invoice-line table.
const (
	ColumnInvoiceNo   = "InvoiceNo"
	ColumnStockCode   = "StockCode"
	ColumnDescription = "Description"
	ColumnQuantity    = "Quantity"
	ColumnInvoiceDate = "InvoiceDate"
	ColumnUnitPrice   = "UnitPrice"
	ColumnCustomerID  = "CustomerID"
	ColumnCountry     = "Country"
)

// Columns lists the required input columns in their canonical order.
var Columns = []string{
	ColumnInvoiceNo,
	ColumnStockCode,
	ColumnDescription,
	ColumnQuantity,
	ColumnInvoiceDate,
	ColumnUnitPrice,
	ColumnCustomerID,
	ColumnCountry,
}

// TransactionLine is one raw invoice line as read from the source file.
// A nil field means the cell was empty.
type TransactionLine struct {
	InvoiceNo   *string
	StockCode   *string
	Description *string
	Quantity    *int64
	InvoiceDate *time.Time
	UnitPrice   *float64
	CustomerID  *float64 // integer-like, may be stored as 17850.0
	Country     *string
}

// NullColumns returns the names of the columns that are missing on this line.
func (t *TransactionLine) NullColumns() []string {
	var nulls []string
	if t.InvoiceNo == nil {
		nulls = append(nulls, ColumnInvoiceNo)
	}
	if t.StockCode == nil {
		nulls = append(nulls, ColumnStockCode)
	}
	if t.Description == nil {
		nulls = append(nulls, ColumnDescription)
	}
	if t.Quantity == nil {
		nulls = append(nulls, ColumnQuantity)
	}
	if t.InvoiceDate == nil {
		nulls = append(nulls, ColumnInvoiceDate)
	}
	if t.UnitPrice == nil {
		nulls = append(nulls, ColumnUnitPrice)
	}
	if t.CustomerID == nil {
		nulls = append(nulls, ColumnCustomerID)
	}
	if t.Country == nil {
		nulls = append(nulls, ColumnCountry)
	}
	return nulls
}

// HasNull reports whether any column on the line is missing.
func (t *TransactionLine) HasNull() bool {
	return t.InvoiceNo == nil || t.StockCode == nil || t.Description == nil ||
		t.Quantity == nil || t.InvoiceDate == nil || t.UnitPrice == nil ||
		t.CustomerID == nil || t.Country == nil
}

// IsCancellation reports whether the invoice number contains marker.
// A missing invoice number never counts as a cancellation.
func (t *TransactionLine) IsCancellation(marker string) bool {
	if t.InvoiceNo == nil {
		return false
	}
	return strings.Contains(*t.InvoiceNo, marker)
}

// CleanLine is an invoice line that survived preprocessing.
type CleanLine struct {
	InvoiceDate time.Time
	InvoiceNo   string
	StockCode   string
	Description string
	Country     string
	Quantity    float64
	UnitPrice   float64
	LineTotal   float64
	CustomerID  int64
}
