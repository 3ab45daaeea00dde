package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scholarpath/directory-cli/internal/merge"
	"github.com/scholarpath/directory-cli/internal/pipeline"
	"github.com/scholarpath/directory-cli/internal/runlog"
	"github.com/scholarpath/directory-cli/internal/scorecard"
)

var (
	buildFetch       bool
	buildConcurrency int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build per-institution detail documents",
	Long: `Build one detail JSON document per institution.

Loads the configured sources, resolves enrichment identities against the
master list, merges field groups in provider priority order, optionally
fetches remote Scorecard fields, and writes details/<slug>.json.

The build is resumable: institutions whose detail document already exists
are skipped entirely, including their remote fetch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if buildFetch {
			cfg.Fetch.Enabled = true
		}
		if buildConcurrency > 0 {
			cfg.Fetch.Concurrency = buildConcurrency
		}

		p, srcs, err := initPipeline()
		if err != nil {
			return err
		}

		return trackStage(ctx, cfg.DataDir, "build", func(ctx context.Context) (runlog.Counts, error) {
			return p.BuildDetails(ctx, srcs)
		})
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildFetch, "fetch", false, "fetch remote Scorecard fields (requires api key)")
	buildCmd.Flags().IntVar(&buildConcurrency, "concurrency", 0, "remote fetch workers sharing one rate budget")
	rootCmd.AddCommand(buildCmd)
}

// initPipeline loads mappings and sources and wires the pipeline. Missing
// master CSV or a missing API key with fetch enabled are fatal: no useful
// work can proceed.
func initPipeline() (*pipeline.Pipeline, *pipeline.Sources, error) {
	mappings, err := merge.LoadMappings(cfg.MappingsDir)
	if err != nil {
		return nil, nil, err
	}
	if len(mappings) == 0 {
		return nil, nil, eris.Errorf("no mappings found in %s", cfg.MappingsDir)
	}

	srcs, err := pipeline.LoadSources(cfg.Sources)
	if err != nil {
		return nil, nil, err
	}

	var fetcher pipeline.RemoteFetcher
	if cfg.Fetch.Enabled {
		if cfg.Scorecard.APIKey == "" {
			return nil, nil, eris.New("scorecard api key is required when fetch is enabled")
		}
		fetcher = scorecard.New(cfg.Scorecard)
	}

	zap.L().Info("pipeline initialized",
		zap.Int("mappings", len(mappings)),
		zap.Int("master_rows", srcs.Master.Len()),
		zap.Bool("fetch", cfg.Fetch.Enabled),
	)
	return pipeline.New(cfg, mappings, fetcher), srcs, nil
}
