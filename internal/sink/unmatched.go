package sink

import (
	"path/filepath"

	"github.com/scholarpath/directory-cli/internal/resolve"
)

// UnmatchedFile holds enrichment rows whose names could not be resolved to a
// canonical id, kept for manual mapping review.
const UnmatchedFile = "unmatched.json"

// WriteUnmatched persists the unresolved enrichment rows. Always rewritten:
// the report reflects the latest resolve pass.
func WriteUnmatched(dataDir string, rows []resolve.Resolution) error {
	if rows == nil {
		rows = []resolve.Resolution{}
	}
	return writeJSON(filepath.Join(dataDir, UnmatchedFile), rows)
}
