// Package loader reads raw invoice-line tables from CSV and Excel files.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order for textual InvoiceDate cells.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

var (
	errUnknownDateFormat = errors.New("unrecognised date format")
	errNotInteger        = errors.New("not an integer")
)

// nullTokens are cell values read as missing, matching the usual CSV NA markers.
var nullTokens = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true, "-NaN": true, "-nan": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true,
	"None": true, "n/a": true, "nan": true, "null": true,
}

// checkEvery is how many rows are decoded between context checks.
const checkEvery = 4096

// Options tunes how a file is read.
type Options struct {
	// OnRow is called once per decoded data row.
	OnRow func()
	// Sheet selects the worksheet of an Excel file. Empty means the first sheet.
	Sheet string
}

// Loader implements service.TransactionLoader and picks the reader by file extension.
type Loader struct {
	logger *slog.Logger
	opts   Options
}

// New creates a Loader.
func New(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts, logger: logger}
}

// Load reads path with default logging.
func Load(ctx context.Context, path string, opts Options) ([]model.TransactionLine, error) {
	return New(opts, nil).Load(ctx, path)
}

// Load reads every data row of path.
func (l *Loader) Load(ctx context.Context, path string) ([]model.TransactionLine, error) {
	var (
		lines []model.TransactionLine
		err   error
	)

	start := time.Now()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		lines, err = NewCSVLoader(l.opts).Load(ctx, path)
	case ".xlsx", ".xlsm":
		lines, err = NewXLSXLoader(l.opts).Load(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info("loaded transactions",
		"file", path,
		"rows", len(lines),
		"duration", time.Since(start))

	return lines, nil
}

// columnIndex maps each required column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	for _, col := range model.Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrMissingColumn, col)
		}
	}

	return index, nil
}

// rowDecoder turns string cells into a TransactionLine.
type rowDecoder struct {
	index map[string]int
	// serialDates accepts Excel date serial numbers in InvoiceDate.
	serialDates bool
}

func (d rowDecoder) cell(row []string, col string) (string, bool) {
	i := d.index[col]
	if i >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[i])
	if v == "" || nullTokens[v] {
		return "", false
	}
	return v, true
}

func (d rowDecoder) decode(row []string, rowNum int) (model.TransactionLine, error) {
	var line model.TransactionLine

	text := func(col string) *string {
		if v, ok := d.cell(row, col); ok {
			return &v
		}
		return nil
	}
	line.InvoiceNo = text(model.ColumnInvoiceNo)
	line.StockCode = text(model.ColumnStockCode)
	line.Description = text(model.ColumnDescription)
	line.Country = text(model.ColumnCountry)

	if v, ok := d.cell(row, model.ColumnQuantity); ok {
		q, err := parseInteger(v)
		if err != nil {
			return line, parseError(rowNum, model.ColumnQuantity, v, err)
		}
		line.Quantity = &q
	}

	if v, ok := d.cell(row, model.ColumnUnitPrice); ok {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return line, parseError(rowNum, model.ColumnUnitPrice, v, err)
		}
		line.UnitPrice = &p
	}

	if v, ok := d.cell(row, model.ColumnCustomerID); ok {
		id, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return line, parseError(rowNum, model.ColumnCustomerID, v, err)
		}
		line.CustomerID = &id
	}

	if v, ok := d.cell(row, model.ColumnInvoiceDate); ok {
		t, err := d.parseDate(v)
		if err != nil {
			return line, parseError(rowNum, model.ColumnInvoiceDate, v, err)
		}
		line.InvoiceDate = &t
	}

	return line, nil
}

func (d rowDecoder) parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}

	if d.serialDates {
		if serial, err := strconv.ParseFloat(v, 64); err == nil {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				return time.Time{}, err
			}
			return t.Round(time.Second), nil
		}
	}

	return time.Time{}, errUnknownDateFormat
}

// parseInteger accepts "6" and integral floats such as "6.0".
func parseInteger(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, errNotInteger
	}
	return int64(f), nil
}

func parseError(rowNum int, col, value string, err error) error {
	return fmt.Errorf("row %d: column %s: cannot parse %q: %w", rowNum, col, value, err)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// decodeRows converts data rows, numbering them from firstRow for error messages.
func decodeRows(ctx context.Context, d rowDecoder, rows [][]string, firstRow int, onRow func()) ([]model.TransactionLine, error) {
	lines := make([]model.TransactionLine, 0, len(rows))
	for i, row := range rows {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlank(row) {
			continue
		}

		line, err := d.decode(row, firstRow+i)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)

		if onRow != nil {
			onRow()
		}
	}
	return lines, nil
}
