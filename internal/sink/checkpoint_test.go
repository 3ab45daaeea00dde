package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_Lifecycle(t *testing.T) {
	dir := t.TempDir()

	assert.Nil(t, LoadCheckpoint(dir))

	cp := &Checkpoint{Index: 42, WrittenSlugs: []string{"alpha-college", "beta-university"}}
	require.NoError(t, SaveCheckpoint(dir, cp))

	loaded := LoadCheckpoint(dir)
	require.NotNil(t, loaded)
	assert.Equal(t, 42, loaded.Index)
	assert.Equal(t, cp.WrittenSlugs, loaded.WrittenSlugs)

	require.NoError(t, ClearCheckpoint(dir))
	assert.Nil(t, LoadCheckpoint(dir))
}

func TestLoadCheckpoint_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, checkpointFile), []byte("{oops"), 0o644))

	assert.Nil(t, LoadCheckpoint(dir))
}

func TestClearCheckpoint_MissingIsFine(t *testing.T) {
	assert.NoError(t, ClearCheckpoint(t.TempDir()))
}
