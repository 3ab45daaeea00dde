package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/scholarpath/directory-cli/internal/merge"
	"github.com/scholarpath/directory-cli/internal/pipeline"
	"github.com/scholarpath/directory-cli/internal/resolve"
	"github.com/scholarpath/directory-cli/internal/sink"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve enrichment names against the master list",
	Long: `Fuzzy-match the name-keyed enrichment rows against the master list
and write the unmatched report to unmatched.json.

Runs the same resolution as build, without assembling or writing any
detail documents. Handy for tuning source data before a full run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mappings, err := merge.LoadMappings(cfg.MappingsDir)
		if err != nil {
			return err
		}
		var masterMap *merge.Mapping
		for _, mp := range mappings {
			if mp.Provider == pipeline.ProviderMaster {
				masterMap = mp
				break
			}
		}
		if masterMap == nil {
			return eris.New("no mapping declared for master source")
		}

		srcs, err := pipeline.LoadSources(cfg.Sources)
		if err != nil {
			return err
		}

		matcher := resolve.NewScoreMatcher(pipeline.MasterCandidates(srcs.Master, masterMap))
		index, unmatched := pipeline.ResolveEnrichment(matcher, srcs.Aid)
		if err := sink.WriteUnmatched(cfg.DataDir, unmatched); err != nil {
			return err
		}

		matchedRows := 0
		for _, rows := range index {
			matchedRows += len(rows)
		}
		fmt.Printf("matched %d rows across %d institutions, %d unmatched\n",
			matchedRows, len(index), len(unmatched))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
