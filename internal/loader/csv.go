package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/rfm-segmenter/internal/model"
)

// CSVLoader reads comma-separated files with a header row.
type CSVLoader struct {
	opts Options
}

// NewCSVLoader creates a CSV loader.
func NewCSVLoader(opts Options) *CSVLoader {
	return &CSVLoader{opts: opts}
}

// Load opens path and decodes it.
func (c *CSVLoader) Load(ctx context.Context, path string) ([]model.TransactionLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return c.Read(ctx, f)
}

// Read decodes CSV content from r.
func (c *CSVLoader) Read(ctx context.Context, r io.Reader) ([]model.TransactionLine, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	// header is row 1
	return decodeRows(ctx, rowDecoder{index: index}, rows, 2, c.opts.OnRow)
}
