package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholarpath/directory-cli/internal/sink"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Rebuild the summary index from the detail documents",
	Long: `Scan details/ and regenerate summary.json.

The summary is derived entirely from the detail documents on disk, so it
can be rebuilt at any time. Entries are sorted by display name,
case-insensitive; unchanged inputs produce byte-identical output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := sink.BuildSummary(cfg.DataDir)
		if err != nil {
			return err
		}
		if err := sink.WriteSummary(cfg.DataDir, entries); err != nil {
			return err
		}
		fmt.Printf("wrote %s with %d entries\n", sink.SummaryFile, len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
