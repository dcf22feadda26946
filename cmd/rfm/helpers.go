package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/rfm-segmenter/internal/config"
	"github.com/Veraticus/rfm-segmenter/internal/service"
	"github.com/Veraticus/rfm-segmenter/internal/sheets"
	"github.com/Veraticus/rfm-segmenter/internal/storage"
	"github.com/spf13/viper"
)

// initStorage opens the SQLite export file and brings its schema up to date.
func initStorage(ctx context.Context, dbPath string) (service.ResultStore, error) {
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newSheetsWriter builds the Google Sheets writer from config. Tests replace it.
var newSheetsWriter = func(ctx context.Context, logger *slog.Logger) (service.ReportWriter, error) {
	cfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load sheets config: %w", err)
	}
	return sheets.NewWriter(ctx, *cfg, logger)
}

// openOutput returns w for an empty path or "-", otherwise a new file.
func openOutput(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}

	f, err := os.Create(config.ExpandPath(path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
