package loader

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/xuri/excelize/v2"
)

// XLSXLoader reads Excel workbooks. The first non-blank row of the sheet is the header.
type XLSXLoader struct {
	opts Options
}

// NewXLSXLoader creates an Excel loader.
func NewXLSXLoader(opts Options) *XLSXLoader {
	return &XLSXLoader{opts: opts}
}

// Load opens the workbook at path and decodes the configured sheet.
func (x *XLSXLoader) Load(ctx context.Context, path string) ([]model.TransactionLine, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return x.decode(ctx, f)
}

// Read decodes a workbook streamed from r.
func (x *XLSXLoader) Read(ctx context.Context, r io.Reader) ([]model.TransactionLine, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	return x.decode(ctx, f)
}

func (x *XLSXLoader) decode(ctx context.Context, f *excelize.File) ([]model.TransactionLine, error) {
	sheet := x.opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	// raw values keep dates as serial numbers instead of locale-formatted text
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	headerRow := 0
	for headerRow < len(rows) && isBlank(rows[headerRow]) {
		headerRow++
	}
	if headerRow == len(rows) {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	index, err := columnIndex(rows[headerRow])
	if err != nil {
		return nil, err
	}

	d := rowDecoder{index: index, serialDates: true}
	return decodeRows(ctx, d, rows[headerRow+1:], headerRow+2, x.opts.OnRow)
}
