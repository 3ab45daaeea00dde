package main

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/scholarpath/directory-cli/internal/runlog"
)

const runLogFile = "runlog.db"

// trackStage records a stage run in the run log around fn. The log is
// advisory: failing to open or update it never blocks the stage itself.
func trackStage(ctx context.Context, dataDir, stage string, fn func(ctx context.Context) (runlog.Counts, error)) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		zap.L().Warn("create data dir", zap.Error(err))
	}
	log, err := runlog.Open(filepath.Join(dataDir, runLogFile))
	if err != nil {
		zap.L().Warn("run log unavailable, continuing without it", zap.Error(err))
		_, err = fn(ctx)
		return err
	}
	defer log.Close() //nolint:errcheck

	runID, err := log.Start(ctx, stage)
	if err != nil {
		zap.L().Warn("run log start failed", zap.Error(err))
	}

	counts, stageErr := fn(ctx)
	if runID != "" {
		if stageErr != nil {
			if err := log.Fail(ctx, runID, stageErr.Error()); err != nil {
				zap.L().Warn("run log fail update", zap.Error(err))
			}
		} else if err := log.Complete(ctx, runID, counts); err != nil {
			zap.L().Warn("run log complete update", zap.Error(err))
		}
	}

	return stageErr
}
