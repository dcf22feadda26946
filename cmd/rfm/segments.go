package main

import (
	"fmt"

	"github.com/Veraticus/rfm-segmenter/internal/cli"
	"github.com/Veraticus/rfm-segmenter/internal/report"
	"github.com/spf13/cobra"
)

func segmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "segments",
		Short: "Show how recency and frequency scores map to segments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("RFM segments")+"\n"+report.SegmentGrid())
			return err
		},
	}
}
