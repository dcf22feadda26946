package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/rfm-segmenter/internal/cli"
	"github.com/Veraticus/rfm-segmenter/internal/config"
	"github.com/Veraticus/rfm-segmenter/internal/loader"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/preprocess"
	"github.com/Veraticus/rfm-segmenter/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func describeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <file>",
		Short: "Describe a raw invoice-line file before cleaning",
		Long: `Print row, invoice and customer counts, missing values per column,
numeric column statistics and the suggested reference date of a raw file.`,
		Args: cobra.ExactArgs(1),
		RunE: runDescribe,
	}

	cmd.Flags().String("sheet", "", "Worksheet to read from an XLSX workbook (default: first sheet)")
	_ = viper.BindPFlag("describe.sheet", cmd.Flags().Lookup("sheet"))

	return cmd
}

func runDescribe(cmd *cobra.Command, args []string) error {
	path := config.ExpandPath(args[0])

	progress := cli.NewLoadProgress(cmd.ErrOrStderr(), "Reading transactions")
	lines, err := loader.Load(cmd.Context(), path, loader.Options{
		OnRow: progress.Row,
		Sheet: viper.GetString("describe.sheet"),
	})
	progress.Finish()
	if err != nil {
		return err
	}
	slog.Debug("Loaded transactions", "file", path, "rows", len(lines))

	return writeDescription(cmd.OutOrStdout(), preprocess.Describe(lines))
}

func writeDescription(w io.Writer, d model.DatasetDescription) error {
	_, err := fmt.Fprintln(w, cli.RenderBox("Dataset", describeSummary(d))+"\n"+report.DescriptionTable(d))
	return err
}

func describeSummary(d model.DatasetDescription) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-26s %d\n", "Rows:", d.Rows)
	fmt.Fprintf(&b, "%-26s %d\n", "Invoices:", d.Invoices)
	fmt.Fprintf(&b, "%-26s %d\n", "Customers:", d.Customers)
	if !d.MaxInvoiceDate.IsZero() {
		fmt.Fprintf(&b, "%-26s %s\n", "Last invoice:", d.MaxInvoiceDate.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "%-26s %s\n", "Suggested reference date:", d.SuggestedReferenceDate.Format(config.DateLayout))
	}

	b.WriteString("\nMissing values:")
	for _, col := range model.Columns {
		fmt.Fprintf(&b, "\n  %-24s %d", col, d.NullCounts[col])
	}
	return b.String()
}
