package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/scholarpath/directory-cli/internal/merge"
	"github.com/scholarpath/directory-cli/internal/pipeline"
	"github.com/scholarpath/directory-cli/internal/runlog"
)

var fieldsOfStudyCmd = &cobra.Command{
	Use:   "fieldsofstudy",
	Short: "Build per-institution program arrays",
	Long: `Stream the field-of-study CSV and write fieldsofstudy/<id>.json.

The source can run to hundreds of thousands of rows and is never loaded
wholesale. Rows with zero graduates and zero working count are dropped;
PrivacySuppressed earnings survive as the literal sentinel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// The program build reads only its own source; no mappings needed.
		p := pipeline.New(cfg, []*merge.Mapping{}, nil)

		return trackStage(ctx, cfg.DataDir, "fieldsofstudy", func(ctx context.Context) (runlog.Counts, error) {
			return p.BuildFieldsOfStudy(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(fieldsOfStudyCmd)
}
