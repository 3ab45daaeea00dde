package merge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMapping(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMapping_Basic(t *testing.T) {
	dir := t.TempDir()
	writeMapping(t, dir, "master.yaml", `
provider: master
priority: 100
columns:
  UNITID: id
  INSTNM: name
`)

	mp, err := LoadMapping(filepath.Join(dir, "master.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "master", mp.Provider)
	assert.Equal(t, 100, mp.Priority)
	assert.Equal(t, "fields", mp.Group)

	key, ok := mp.CanonicalKey("unitid")
	require.True(t, ok)
	assert.Equal(t, KeyID, key)
}

func TestLoadMapping_MissingProvider(t *testing.T) {
	dir := t.TempDir()
	writeMapping(t, dir, "bad.yaml", "priority: 1\ncolumns:\n  A: x\n")

	_, err := LoadMapping(filepath.Join(dir, "bad.yaml"))
	assert.Error(t, err)
}

func TestLoadMappings_PriorityOrder(t *testing.T) {
	dir := t.TempDir()
	writeMapping(t, dir, "low.yaml", "provider: low\npriority: 10\ncolumns: {}\n")
	writeMapping(t, dir, "high.yaml", "provider: high\npriority: 90\ncolumns: {}\n")

	mappings, err := LoadMappings(dir)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "high", mappings[0].Provider)
	assert.Equal(t, "low", mappings[1].Provider)
}

func TestLoadMappings_FilenameTieBreak(t *testing.T) {
	dir := t.TempDir()
	writeMapping(t, dir, "b.yaml", "provider: second\npriority: 50\ncolumns: {}\n")
	writeMapping(t, dir, "a.yaml", "provider: first\npriority: 50\ncolumns: {}\n")

	mappings, err := LoadMappings(dir)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "first", mappings[0].Provider)
}

func TestLoadMappings_EmptyDir(t *testing.T) {
	mappings, err := LoadMappings(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, mappings)
}

// The shipped mapping files must route remote Scorecard values into Fields,
// where the summary metrics are read from; only the hand-maintained aid
// source belongs in the enrichment group.
func TestLoadMappings_Shipped(t *testing.T) {
	mappings, err := LoadMappings(filepath.Join("..", "..", "mappings"))
	require.NoError(t, err)

	byProvider := make(map[string]*Mapping, len(mappings))
	for _, mp := range mappings {
		byProvider[mp.Provider] = mp
	}

	require.Contains(t, byProvider, "master")
	require.Contains(t, byProvider, "scorecard")
	assert.Equal(t, "fields", byProvider["master"].Group)
	assert.Equal(t, "fields", byProvider["scorecard"].Group)
	assert.Equal(t, "enrichment", byProvider["international-aid"].Group)

	key, ok := byProvider["scorecard"].CanonicalKey("latest.student.size")
	require.True(t, ok)
	assert.Equal(t, "enrollment.total", key)
}
