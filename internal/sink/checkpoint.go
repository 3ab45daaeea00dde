package sink

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

const checkpointFile = "checkpoint.json"

// Checkpoint is the advisory resume state for long remote-fetch passes.
// Whole-file overwrite is acceptable: a corrupt checkpoint just means a
// full re-scan, and detail documents on disk remain authoritative.
type Checkpoint struct {
	Index        int      `json:"index"` // count of documents written so far
	WrittenSlugs []string `json:"writtenSlugs"`
}

// LoadCheckpoint reads the checkpoint if one exists. A missing or corrupt
// file returns nil: the run starts from zero.
func LoadCheckpoint(dataDir string) *Checkpoint {
	data, err := os.ReadFile(filepath.Join(dataDir, checkpointFile))
	if err != nil {
		return nil
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil
	}
	return &cp
}

// SaveCheckpoint persists the resume state.
func SaveCheckpoint(dataDir string, cp *Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return eris.Wrap(err, "sink: marshal checkpoint")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return eris.Wrapf(err, "sink: create dir %s", dataDir)
	}
	path := filepath.Join(dataDir, checkpointFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "sink: write checkpoint %s", path)
	}
	return nil
}

// ClearCheckpoint removes the checkpoint after a successful full completion.
func ClearCheckpoint(dataDir string) error {
	err := os.Remove(filepath.Join(dataDir, checkpointFile))
	if err != nil && !os.IsNotExist(err) {
		return eris.Wrap(err, "sink: clear checkpoint")
	}
	return nil
}
