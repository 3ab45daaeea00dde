package pipeline

import (
	"go.uber.org/zap"

	"github.com/scholarpath/directory-cli/internal/merge"
	"github.com/scholarpath/directory-cli/internal/resolve"
	"github.com/scholarpath/directory-cli/internal/source"
)

// EnrichmentIndex maps canonical institution ids to their enrichment rows.
type EnrichmentIndex map[string][]int

// ResolveEnrichment assigns each enrichment row a canonical id by fuzzy name
// match against the master list. Unresolved rows are returned for the
// unmatched report; they never block the pipeline.
func ResolveEnrichment(matcher resolve.Matcher, table *source.Table) (EnrichmentIndex, []resolve.Resolution) {
	index := make(EnrichmentIndex)
	var unmatched []resolve.Resolution

	if table == nil || table.Len() == 0 {
		return index, unmatched
	}

	for i, row := range table.Rows {
		if len(row) == 0 {
			continue
		}
		// First column is the free-text institution name by contract.
		name := row[0]
		res := matcher.Match(name)
		if !res.Matched {
			unmatched = append(unmatched, res)
			zap.L().Warn("pipeline: enrichment row unmatched",
				zap.String("name", name),
			)
			continue
		}
		index[res.ID] = append(index[res.ID], i)
	}

	return index, unmatched
}

// MasterCandidates extracts (id, name) pairs from the master table in source
// order, which keeps fuzzy tie-breaking stable across runs.
func MasterCandidates(master *source.Table, mapping *merge.Mapping) []resolve.Candidate {
	idCol, nameCol := identityColumns(master, mapping)
	if idCol < 0 || nameCol < 0 {
		return nil
	}

	candidates := make([]resolve.Candidate, 0, master.Len())
	for _, row := range master.Rows {
		if idCol >= len(row) || nameCol >= len(row) {
			continue
		}
		if row[idCol] == "" || row[nameCol] == "" {
			continue
		}
		candidates = append(candidates, resolve.Candidate{ID: row[idCol], Name: row[nameCol]})
	}
	return candidates
}

// identityColumns finds the header indexes the mapping binds to the
// canonical id and name keys.
func identityColumns(table *source.Table, mapping *merge.Mapping) (idCol, nameCol int) {
	idCol, nameCol = -1, -1
	for i, col := range table.Header {
		key, ok := mapping.CanonicalKey(col)
		if !ok {
			continue
		}
		switch key {
		case merge.KeyID:
			if idCol < 0 {
				idCol = i
			}
		case merge.KeyName:
			if nameCol < 0 {
				nameCol = i
			}
		}
	}
	return idCol, nameCol
}
