package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// LoadProgress shows a row counter while a file is being read.
type LoadProgress struct {
	bar  *progressbar.ProgressBar
	rows int
}

// NewLoadProgress creates a spinner that writes to w. A nil w writes to stderr.
func NewLoadProgress(w io.Writer, description string) *LoadProgress {
	if w == nil {
		w = os.Stderr
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	return &LoadProgress{bar: bar}
}

// Row records one decoded row. It matches loader.Options.OnRow.
func (p *LoadProgress) Row() {
	p.rows++
	if err := p.bar.Add(1); err != nil {
		slog.Debug("Failed to update progress bar", "error", err)
	}
}

// Rows returns how many rows were recorded.
func (p *LoadProgress) Rows() int {
	return p.rows
}

// Finish stops the spinner.
func (p *LoadProgress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Debug("Failed to finish progress bar", "error", err)
	}
}
