package sink

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scholarpath/directory-cli/internal/model"
)

const (
	detailsDir       = "details"
	fieldsOfStudyDir = "fieldsofstudy"
)

// Writer persists detail documents under a shared data directory. A run
// holds one Writer; the slug registry makes collision handling deterministic
// within the run, and identical inputs reproduce identical slugs across runs.
type Writer struct {
	dataDir string
	slugs   map[string]slugOwner
}

// slugOwner records who holds a slug, with enough context to decide whether
// a city token can still disambiguate a later collision.
type slugOwner struct {
	id   string
	city string
}

// NewWriter creates a Writer rooted at dataDir.
func NewWriter(dataDir string) *Writer {
	return &Writer{
		dataDir: dataDir,
		slugs:   make(map[string]slugOwner),
	}
}

// DetailPath returns the detail document path for a slug.
func (w *Writer) DetailPath(slug string) string {
	return filepath.Join(w.dataDir, detailsDir, slug+".json")
}

// DetailExists reports whether a detail document is already on disk.
// "File exists" means "done": upstream work for that institution is skipped.
func (w *Writer) DetailExists(slug string) bool {
	_, err := os.Stat(w.DetailPath(slug))
	return err == nil
}

// AssignSlug resolves the institution's slug, disambiguating collisions
// deterministically: name slug first, then name-city, then name-id. Never
// silently overwrites a different institution's document.
func (w *Writer) AssignSlug(inst *model.Institution) string {
	base := Slugify(inst.Name)
	if base == "" {
		base = inst.ID
	}
	city := Slugify(inst.City)

	for _, candidate := range w.slugCandidates(base, city, inst.ID) {
		if candidate == "" {
			continue
		}
		owner, taken := w.slugs[candidate]
		if !taken {
			w.slugs[candidate] = slugOwner{id: inst.ID, city: city}
			inst.Slug = candidate
			return candidate
		}
		if owner.id == inst.ID {
			inst.Slug = candidate
			return candidate
		}
	}

	// Unreachable in practice: the id-suffixed candidate is unique per id.
	fallback := base + "-" + inst.ID
	w.slugs[fallback] = slugOwner{id: inst.ID, city: city}
	inst.Slug = fallback
	return fallback
}

// slugCandidates offers the city token only when it actually distinguishes
// from whoever holds the base slug; same name and same city go straight to
// the id suffix.
func (w *Writer) slugCandidates(base, city, id string) []string {
	candidates := []string{base}
	if city != "" {
		if owner, taken := w.slugs[base]; !taken || owner.id == id || owner.city != city {
			candidates = append(candidates, base+"-"+city)
		}
	}
	return append(candidates, base+"-"+id)
}

// WriteDetail persists one detail document. Existing documents are treated
// as complete and skipped, which is what makes interrupted runs resumable.
func (w *Writer) WriteDetail(inst *model.Institution) (string, bool, error) {
	if inst.Slug == "" {
		w.AssignSlug(inst)
	}
	path := w.DetailPath(inst.Slug)

	if w.DetailExists(inst.Slug) {
		return path, true, nil
	}

	if err := writeJSON(path, inst); err != nil {
		return path, false, err
	}
	zap.L().Debug("sink: wrote detail",
		zap.String("id", inst.ID),
		zap.String("slug", inst.Slug),
	)
	return path, false, nil
}

// WriteFieldsOfStudy persists the program array for one institution id,
// skipping if already present.
func (w *Writer) WriteFieldsOfStudy(id string, programs []model.FieldOfStudy) (bool, error) {
	path := filepath.Join(w.dataDir, fieldsOfStudyDir, id+".json")
	if _, err := os.Stat(path); err == nil {
		return true, nil
	}
	return false, writeJSON(path, programs)
}

// writeJSON marshals v and writes it in a single file write. Output is
// deterministic: encoding/json sorts map keys and nothing embeds timestamps.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "sink: create dir %s", filepath.Dir(path))
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "sink: marshal %s", path)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "sink: write %s", path)
	}
	return nil
}
