package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/scholarpath/directory-cli/internal/runlog"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline stage runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := runlog.Open(filepath.Join(cfg.DataDir, runLogFile))
		if err != nil {
			return err
		}
		defer log.Close() //nolint:errcheck

		runs, err := log.List(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSTAGE\tSTATUS\tDURATION\tPROCESSED\tSKIPPED\tERRORED")
		for _, r := range runs {
			duration := "-"
			if r.CompletedAt != nil {
				duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Stage, r.Status, duration, r.Processed, r.Skipped, r.Errored,
			)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
