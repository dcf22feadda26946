package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/Veraticus/rfm-segmenter/internal/cli"
	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/Veraticus/rfm-segmenter/internal/config"
	"github.com/Veraticus/rfm-segmenter/internal/engine"
	"github.com/Veraticus/rfm-segmenter/internal/loader"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type segmentOptions struct {
	Input       string
	Format      string
	Output      string
	SQLitePath  string
	Sheet       string
	Limit       int
	Sheets      bool
	SummaryOnly bool
}

func segmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment <file>",
		Short: "Segment customers from an invoice-line file",
		Long: `Load a CSV or XLSX invoice-line table, clean it, score every customer
on Recency, Frequency and Monetary value, and print the segmented table.

The result can also be exported to a SQLite file and to Google Sheets.`,
		Args: cobra.ExactArgs(1),
		RunE: runSegment,
	}

	// Flags
	cmd.Flags().String("reference-date", config.DefaultReferenceDate, "Date recency is measured from (YYYY-MM-DD)")
	cmd.Flags().StringP("format", "f", report.FormatTable, "Output format (table, csv, json)")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().String("sqlite", "", "Also export the run to this SQLite file")
	cmd.Flags().Bool("sheets", false, "Also publish the run to Google Sheets")
	cmd.Flags().String("sheet", "", "Worksheet to read from an XLSX workbook (default: first sheet)")
	cmd.Flags().IntP("limit", "n", 0, "Show at most this many customers in the table (0 shows all)")
	cmd.Flags().Bool("summary", false, "Only show the per-segment summary in the table")

	// Bind to viper
	_ = viper.BindPFlag("pipeline.reference_date", cmd.Flags().Lookup("reference-date"))
	_ = viper.BindPFlag("segment.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("segment.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("output.sqlite_path", cmd.Flags().Lookup("sqlite"))
	_ = viper.BindPFlag("segment.sheets", cmd.Flags().Lookup("sheets"))
	_ = viper.BindPFlag("segment.sheet", cmd.Flags().Lookup("sheet"))
	_ = viper.BindPFlag("segment.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("segment.summary", cmd.Flags().Lookup("summary"))

	return cmd
}

func runSegment(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadPipeline(viper.GetViper())
	if err != nil {
		return common.NewUserError("invalid pipeline configuration", err)
	}

	opts := segmentOptions{
		Input:       config.ExpandPath(args[0]),
		Format:      strings.ToLower(viper.GetString("segment.format")),
		Output:      viper.GetString("segment.output"),
		SQLitePath:  viper.GetString("output.sqlite_path"),
		Sheet:       viper.GetString("segment.sheet"),
		Limit:       viper.GetInt("segment.limit"),
		Sheets:      viper.GetBool("segment.sheets"),
		SummaryOnly: viper.GetBool("segment.summary"),
	}

	_, err = segment(cmd.Context(), cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

func segment(ctx context.Context, cfg config.Pipeline, opts segmentOptions, stdout, stderr io.Writer) (*model.Result, error) {
	if !slices.Contains(report.Formats, opts.Format) {
		return nil, common.NewUserError(
			fmt.Sprintf("unknown format %q (want one of %s)", opts.Format, strings.Join(report.Formats, ", ")),
			common.ErrInvalidConfig)
	}
	if opts.Limit < 0 {
		return nil, common.NewUserError("--limit cannot be negative", common.ErrInvalidConfig)
	}

	logger := slog.Default()
	slog.Info(cli.FormatTitle("Segmenting customers..."), "file", opts.Input)

	progress := cli.NewLoadProgress(stderr, "Reading transactions")
	pipeline, err := engine.New(cfg, loader.New(loader.Options{OnRow: progress.Row, Sheet: opts.Sheet}, logger), logger)
	if err != nil {
		return nil, err
	}

	result, err := pipeline.RunFile(ctx, opts.Input)
	progress.Finish()
	if err != nil {
		return nil, err
	}

	slog.Info(cli.RenderBox("Cleaning", cleaningSummary(result.Cleaning)))

	if err := writeReport(ctx, result, opts, stdout); err != nil {
		return nil, err
	}

	if opts.SQLitePath != "" {
		if err := exportSQLite(ctx, opts.SQLitePath, result); err != nil {
			return nil, err
		}
		slog.Info(cli.FormatSuccess("Exported run to SQLite"), "path", opts.SQLitePath, "run_id", result.RunID)
	}

	if opts.Sheets {
		writer, err := newSheetsWriter(ctx, logger)
		if err != nil {
			return nil, common.NewUserError("Google Sheets is not configured", err)
		}
		if err := writer.Write(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to publish to Google Sheets: %w", err)
		}
		slog.Info(cli.FormatSuccess("Published to Google Sheets"))
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Segmented %d customers", len(result.Customers))))
	return result, nil
}

func writeReport(ctx context.Context, result *model.Result, opts segmentOptions, stdout io.Writer) (err error) {
	out, closeOut, err := openOutput(opts.Output, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeOut(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", closeErr)
		}
	}()

	writer, err := report.New(opts.Format, out, report.TableOptions{Limit: opts.Limit, SummaryOnly: opts.SummaryOnly})
	if err != nil {
		return err
	}
	return writer.Write(ctx, result)
}

func exportSQLite(ctx context.Context, path string, result *model.Result) error {
	store, err := initStorage(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to open SQLite export: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close SQLite export", "error", err)
		}
	}()

	if err := store.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to export run: %w", err)
	}
	return nil
}

func cleaningSummary(r model.CleaningReport) string {
	rows := [][2]string{
		{"Raw rows", strconv.Itoa(r.RawRows)},
		{"Dropped (missing)", strconv.Itoa(r.DroppedNull)},
		{"Dropped (cancelled)", strconv.Itoa(r.DroppedCancelled)},
		{"Clean rows", strconv.Itoa(r.CleanRows)},
		{"Quantity fence", fence(r.QuantityFence, r.QuantityClipped)},
		{"UnitPrice fence", fence(r.UnitPriceFence, r.UnitPriceClipped)},
		{"Last invoice", r.MaxInvoiceDate.Format("2006-01-02 15:04")},
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = fmt.Sprintf("%-20s %s", row[0]+":", row[1])
	}
	return strings.Join(lines, "\n")
}

func fence(f model.Fence, clipped int) string {
	return fmt.Sprintf("[%s, %s] (%d clipped)", report.Money(f.Low), report.Money(f.High), clipped)
}
