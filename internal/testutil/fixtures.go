// Package testutil provides shared fixtures for tests that cross package boundaries.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RetailCSV is a small invoice-line table with three customers. It holds one
// cancellation, one row without a customer and one outlier in each of
// Quantity and UnitPrice. With the default reference date of 2011-12-11 it
// segments as:
//
//	12346  R1   F2  M15.00  RF 53  Potential Loyalist
//	12347  R29  F1  M8.75   RF 31  About to Sleep
//	12348  R179 F3  M10.75  RF 15  Can't Lose
const RetailCSV = "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n" +
	"1,22423,REGENCY CAKESTAND 3 TIER,2,2011-12-09 10:00,5,12346.0,United Kingdom\n" +
	"2,22423,REGENCY CAKESTAND 3 TIER,1,2011-12-01 12:00,5,12346.0,United Kingdom\n" +
	"3,22423,REGENCY CAKESTAND 3 TIER,1,2011-11-11 12:00,20,12347.0,United Kingdom\n" +
	"C7,22423,REGENCY CAKESTAND 3 TIER,-1,2011-11-12 12:00,20,12347.0,United Kingdom\n" +
	"4,22423,REGENCY CAKESTAND 3 TIER,3,2011-06-14 09:00,2,12348.0,United Kingdom\n" +
	"5,22423,REGENCY CAKESTAND 3 TIER,1,2011-06-14 09:00,4,12348.0,United Kingdom\n" +
	"6,22423,REGENCY CAKESTAND 3 TIER,1,2011-05-01 09:00,1,12348.0,United Kingdom\n" +
	"8,22423,REGENCY CAKESTAND 3 TIER,4,2011-12-01 09:00,3,,United Kingdom\n"

// WriteRetailCSV writes RetailCSV into a temporary directory and returns its path.
func WriteRetailCSV(t *testing.T) string {
	t.Helper()
	return WriteFile(t, "retail.csv", RetailCSV)
}

// WriteFile writes content to name inside a temporary directory.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}
