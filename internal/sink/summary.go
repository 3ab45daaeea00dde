package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/scholarpath/directory-cli/internal/model"
)

// SummaryFile is the derived index the UI list view reads.
const SummaryFile = "summary.json"

// summaryMetrics maps canonical field keys to the fixed set of scalar
// metrics the list view carries.
var summaryMetrics = map[string]func(*model.Summary, string){
	"cost.tuition_in_state": func(s *model.Summary, v string) { s.CostInState = v },
	"admissions.admit_rate": func(s *model.Summary, v string) { s.AdmitRate = v },
	"enrollment.total":      func(s *model.Summary, v string) { s.Enrollment = v },
}

// BuildSummary scans the detail directory and projects each document into a
// compact summary entry. Documents missing id or name are skipped with a
// warning, never fatal.
func BuildSummary(dataDir string) ([]model.Summary, error) {
	dir := filepath.Join(dataDir, detailsDir)
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, eris.Wrapf(err, "sink: scan %s", dir)
	}
	sort.Strings(paths)

	var entries []model.Summary
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "sink: read %s", path)
		}

		var inst model.Institution
		if err := json.Unmarshal(data, &inst); err != nil {
			zap.L().Warn("sink: unparseable detail document skipped",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		if inst.ID == "" || inst.Name == "" {
			zap.L().Warn("sink: detail document missing id or name, skipped",
				zap.String("path", path),
			)
			continue
		}

		entry := model.Summary{
			ID:    inst.ID,
			Name:  inst.Name,
			City:  inst.City,
			State: inst.State,
			Slug:  strings.TrimSuffix(filepath.Base(path), ".json"),
		}
		for key, set := range summaryMetrics {
			if v, ok := inst.Fields[key]; ok {
				set(&entry, v)
			}
		}
		entries = append(entries, entry)
	}

	SortSummaries(entries)
	return entries, nil
}

// SortSummaries orders entries by display name, case-insensitive ascending,
// with id as the deterministic tie-break.
func SortSummaries(entries []model.Summary) {
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(entries, func(i, j int) bool {
		if cmp := c.CompareString(entries[i].Name, entries[j].Name); cmp != 0 {
			return cmp < 0
		}
		return entries[i].ID < entries[j].ID
	})
}

// WriteSummary persists the summary index. Unlike detail documents the
// summary is always rewritten; with unchanged inputs the bytes are identical.
func WriteSummary(dataDir string, entries []model.Summary) error {
	return writeJSON(filepath.Join(dataDir, SummaryFile), entries)
}
