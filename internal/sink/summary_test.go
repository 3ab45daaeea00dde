package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarpath/directory-cli/internal/model"
)

func writeDetails(t *testing.T, dataDir string, insts ...*model.Institution) {
	t.Helper()
	w := NewWriter(dataDir)
	for _, inst := range insts {
		_, _, err := w.WriteDetail(inst)
		require.NoError(t, err)
	}
}

func TestBuildSummary_ProjectsMetrics(t *testing.T) {
	dir := t.TempDir()
	writeDetails(t, dir, &model.Institution{
		ID:   "1",
		Name: "Alpha College",
		City: "Springfield",
		Fields: map[string]string{
			"cost.tuition_in_state": "10000",
			"admissions.admit_rate": "0.5",
			"enrollment.total":      "4000",
			"web.homepage":          "https://alpha.edu",
		},
	})

	entries, err := BuildSummary(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "alpha-college", e.Slug)
	assert.Equal(t, "10000", e.CostInState)
	assert.Equal(t, "0.5", e.AdmitRate)
	assert.Equal(t, "4000", e.Enrollment)
}

func TestBuildSummary_SortsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeDetails(t, dir,
		&model.Institution{ID: "3", Name: "delta college"},
		&model.Institution{ID: "1", Name: "Alpha College"},
		&model.Institution{ID: "2", Name: "BETA UNIVERSITY"},
	)

	entries, err := BuildSummary(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Alpha College", entries[0].Name)
	assert.Equal(t, "BETA UNIVERSITY", entries[1].Name)
	assert.Equal(t, "delta college", entries[2].Name)
}

func TestBuildSummary_SkipsBrokenDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDetails(t, dir, &model.Institution{ID: "1", Name: "Alpha College"})

	detailDir := filepath.Join(dir, detailsDir)
	require.NoError(t, os.WriteFile(filepath.Join(detailDir, "broken.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(detailDir, "nameless.json"), []byte(`{"id":"9"}`), 0o644))

	entries, err := BuildSummary(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Alpha College", entries[0].Name)
}

func TestBuildSummary_EmptyDirectory(t *testing.T) {
	entries, err := BuildSummary(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteSummary_Deterministic(t *testing.T) {
	dir := t.TempDir()
	entries := []model.Summary{
		{ID: "1", Name: "Alpha College", Slug: "alpha-college"},
		{ID: "2", Name: "Beta University", Slug: "beta-university"},
	}

	require.NoError(t, WriteSummary(dir, entries))
	first, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)

	require.NoError(t, WriteSummary(dir, entries))
	second, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var back []model.Summary
	require.NoError(t, json.Unmarshal(first, &back))
	assert.Equal(t, entries, back)
}

func TestSortSummaries_TieBreaksOnID(t *testing.T) {
	entries := []model.Summary{
		{ID: "2", Name: "Alpha College"},
		{ID: "1", Name: "alpha college"},
	}
	SortSummaries(entries)
	assert.Equal(t, "1", entries[0].ID)
}
