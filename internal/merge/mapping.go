// Package merge combines provider field sets into one detail document per
// institution, applying column-to-canonical-key mappings and
// first-non-empty-wins precedence.
package merge

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Mapping declares how one provider's columns map to canonical keys.
// Mappings live in YAML files so a human can extend them without recompiling
// when the unmapped-column log surfaces new columns.
type Mapping struct {
	Provider string            `yaml:"provider"`
	Priority int               `yaml:"priority"`
	Group    string            `yaml:"group,omitempty"` // "fields" (default) or "enrichment"
	Tag      string            `yaml:"tag,omitempty"`   // classification code this source confers
	Columns  map[string]string `yaml:"columns"`         // source column -> canonical key

	normalized map[string]string
}

// Reserved canonical keys that set identity fields instead of entries in the
// open-ended field map.
const (
	KeyID    = "id"
	KeyName  = "name"
	KeyCity  = "city"
	KeyState = "state"
)

// LoadMapping reads a single mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: read mapping %s", path)
	}

	var mp Mapping
	if err := yaml.Unmarshal(data, &mp); err != nil {
		return nil, eris.Wrapf(err, "merge: parse mapping %s", path)
	}
	if mp.Provider == "" {
		return nil, eris.Errorf("merge: mapping %s: provider is required", path)
	}
	if mp.Group == "" {
		mp.Group = "fields"
	}

	mp.normalized = make(map[string]string, len(mp.Columns))
	for col, key := range mp.Columns {
		mp.normalized[normalizeColumn(col)] = key
	}
	return &mp, nil
}

// LoadMappings reads every *.yaml mapping in a directory, ordered by declared
// priority (highest first) with file name as the deterministic tie-break.
func LoadMappings(dir string) ([]*Mapping, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, eris.Wrapf(err, "merge: glob mappings %s", dir)
	}
	sort.Strings(paths)

	var mappings []*Mapping
	for _, path := range paths {
		mp, err := LoadMapping(path)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, mp)
	}

	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].Priority > mappings[j].Priority
	})
	return mappings, nil
}

// CanonicalKey returns the canonical key for a source column, if mapped.
func (mp *Mapping) CanonicalKey(column string) (string, bool) {
	key, ok := mp.normalized[normalizeColumn(column)]
	return key, ok
}

func normalizeColumn(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
