package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/Veraticus/rfm-segmenter/internal/cli"
	"github.com/Veraticus/rfm-segmenter/internal/config"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableOptions controls what the terminal table shows.
type TableOptions struct {
	// Limit caps the customer rows. Zero shows every customer.
	Limit int
	// SummaryOnly skips the customer rows.
	SummaryOnly bool
}

// TableWriter renders results for a terminal.
type TableWriter struct {
	w    io.Writer
	opts TableOptions
}

// NewTableWriter creates a terminal table writer.
func NewTableWriter(w io.Writer, opts TableOptions) *TableWriter {
	return &TableWriter{w: w, opts: opts}
}

// Write implements service.ReportWriter.
func (t *TableWriter) Write(ctx context.Context, result *model.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := cli.FormatTitle("RFM Segmentation") + "\n" +
		cli.SubtitleStyle.Render(fmt.Sprintf("Reference date %s · %d customers · run %s",
			result.ReferenceDate.Format(config.DateLayout), len(result.Customers), result.RunID)) + "\n"

	if !t.opts.SummaryOnly {
		out += t.customers(result.Customers) + "\n"
	}
	out += SummaryTable(result.Summary) + "\n"

	_, err := io.WriteString(t.w, out)
	return err
}

func (t *TableWriter) customers(customers []model.ScoredCustomer) string {
	shown := customers
	if t.opts.Limit > 0 && len(shown) > t.opts.Limit {
		shown = shown[:t.opts.Limit]
	}

	rows := make([][]string, len(shown))
	for i, c := range shown {
		rows[i] = customerRow(c)
	}

	rendered := newTable(CustomerHeader, rows).Render()
	if len(shown) < len(customers) {
		rendered += "\n" + cli.SubtleStyle.Render(fmt.Sprintf("… %d more customers", len(customers)-len(shown)))
	}
	return rendered
}

// SummaryTable renders one row per segment.
func SummaryTable(summary []model.SegmentSummary) string {
	rows := make([][]string, len(summary))
	for i, s := range summary {
		rows[i] = []string{
			cli.FormatSegment(s.Segment),
			strconv.Itoa(s.Customers),
			Percent(s.Share),
			strconv.FormatFloat(s.MeanRecency, 'f', 1, 64),
			strconv.FormatFloat(s.MeanFrequency, 'f', 2, 64),
			Money(s.MeanMonetary),
			Money(s.TotalMonetary),
		}
	}

	header := []string{"Segment", "Customers", "Share", "Mean Recency", "Mean Frequency", "Mean Monetary", "Total Monetary"}
	return newTable(header, rows).Render()
}

// DescriptionTable renders the numeric column statistics of a raw table.
func DescriptionTable(d model.DatasetDescription) string {
	rows := make([][]string, len(d.Numeric))
	for i, c := range d.Numeric {
		rows[i] = []string{
			c.Column,
			strconv.Itoa(c.Count),
			stat(c.Mean), stat(c.Std), stat(c.Min), stat(c.Q25), stat(c.Median), stat(c.Q75), stat(c.Max),
		}
	}

	header := []string{"Column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	return newTable(header, rows).Render()
}

func stat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SegmentGrid renders the recency by frequency lookup used to name segments.
func SegmentGrid() string {
	header := []string{"R \\ F"}
	for f := model.MinScore; f <= model.MaxScore; f++ {
		header = append(header, strconv.Itoa(f))
	}

	var rows [][]string
	for r := model.MaxScore; r >= model.MinScore; r-- {
		row := []string{strconv.Itoa(r)}
		for f := model.MinScore; f <= model.MaxScore; f++ {
			seg, err := model.SegmentFor(r, f)
			if err != nil {
				row = append(row, "?")
				continue
			}
			row = append(row, cli.FormatSegment(seg))
		}
		rows = append(rows, row)
	}

	return newTable(header, rows).Render()
}

func newTable(header []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cli.SubtleStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return cli.TableHeaderStyle
			}
			return cli.TableCellStyle
		}).
		Headers(header...).
		Rows(rows...)
}
