package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Log {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "runlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestLog_StartComplete(t *testing.T) {
	log := openTemp(t)
	ctx := context.Background()

	id, err := log.Start(ctx, "build")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, log.Complete(ctx, id, Counts{Processed: 10, Skipped: 2, Errored: 1}))

	runs, err := log.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "build", r.Stage)
	assert.Equal(t, StatusComplete, r.Status)
	assert.Equal(t, 10, r.Processed)
	assert.Equal(t, 2, r.Skipped)
	assert.Equal(t, 1, r.Errored)
	require.NotNil(t, r.CompletedAt)
}

func TestLog_Fail(t *testing.T) {
	log := openTemp(t)
	ctx := context.Background()

	id, err := log.Start(ctx, "fieldsofstudy")
	require.NoError(t, err)
	require.NoError(t, log.Fail(ctx, id, "stream interrupted"))

	runs, err := log.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.Equal(t, "stream interrupted", runs[0].Error)
}

func TestLog_ListOrderAndLimit(t *testing.T) {
	log := openTemp(t)
	ctx := context.Background()

	for _, stage := range []string{"first", "second", "third"} {
		_, err := log.Start(ctx, stage)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond) // distinct started_at timestamps
	}

	runs, err := log.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].Stage)
	assert.Equal(t, "second", runs[1].Stage)
}

func TestLog_UpdateUnknownRun(t *testing.T) {
	log := openTemp(t)
	ctx := context.Background()

	assert.Error(t, log.Complete(ctx, "no-such-run", Counts{}))
	assert.Error(t, log.Fail(ctx, "no-such-run", "boom"))
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runlog.db")

	log, err := Open(path)
	require.NoError(t, err)
	id, err := log.Start(context.Background(), "build")
	require.NoError(t, err)
	require.NoError(t, log.Close())

	log, err = Open(path)
	require.NoError(t, err)
	defer log.Close() //nolint:errcheck

	runs, err := log.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, StatusRunning, runs[0].Status)
}
