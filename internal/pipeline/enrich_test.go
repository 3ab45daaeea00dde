package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarpath/directory-cli/internal/merge"
	"github.com/scholarpath/directory-cli/internal/resolve"
	"github.com/scholarpath/directory-cli/internal/source"
)

func masterMapping(t *testing.T) *merge.Mapping {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: master
priority: 100
columns:
  UNITID: id
  INSTNM: name
`), 0o644))
	mp, err := merge.LoadMapping(path)
	require.NoError(t, err)
	return mp
}

func TestMasterCandidates(t *testing.T) {
	master := source.NewTable(
		[]string{"UNITID", "INSTNM", "CITY"},
		[][]string{
			{"100", "Alpha College", "Springfield"},
			{"", "No ID", "Nowhere"},
			{"300", "", "Nowhere"},
			{"200", "Beta University", "Shelbyville"},
		},
	)

	candidates := MasterCandidates(master, masterMapping(t))
	require.Len(t, candidates, 2)
	assert.Equal(t, resolve.Candidate{ID: "100", Name: "Alpha College"}, candidates[0])
	assert.Equal(t, resolve.Candidate{ID: "200", Name: "Beta University"}, candidates[1])
}

func TestMasterCandidates_MappingWithoutIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: bare\ncolumns:\n  X: some.key\n"), 0o644))
	mp, err := merge.LoadMapping(path)
	require.NoError(t, err)

	master := source.NewTable([]string{"X"}, [][]string{{"1"}})
	assert.Nil(t, MasterCandidates(master, mp))
}

func TestResolveEnrichment(t *testing.T) {
	matcher := resolve.NewScoreMatcher([]resolve.Candidate{
		{ID: "100", Name: "Alpha College"},
		{ID: "200", Name: "Beta University"},
	})
	table := source.NewTable(
		[]string{"Institution", "Aid"},
		[][]string{
			{"Alpha College", "Yes"},
			{"ALPHA COLLEGE", "Yes"}, // second row for the same institution
			{"Zeta Polytechnic", "No"},
		},
	)

	index, unmatched := ResolveEnrichment(matcher, table)
	assert.Equal(t, []int{0, 1}, index["100"])
	require.Len(t, unmatched, 1)
	assert.Equal(t, "Zeta Polytechnic", unmatched[0].Name)
	assert.False(t, unmatched[0].Matched)
}

func TestResolveEnrichment_NilTable(t *testing.T) {
	matcher := resolve.NewScoreMatcher(nil)
	index, unmatched := ResolveEnrichment(matcher, nil)
	assert.Empty(t, index)
	assert.Empty(t, unmatched)
}
