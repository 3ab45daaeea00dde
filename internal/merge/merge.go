package merge

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/scholarpath/directory-cli/internal/model"
)

// missingSentinels are values a lower-priority source is allowed to overwrite.
// They are treated as empty for precedence only and never rewritten in place
// when no better value arrives.
var missingSentinels = map[string]struct{}{
	"-":       {},
	"N/A":     {},
	"TBD":     {},
	"Pending": {},
	"FLAG":    {},
}

// IsMissing reports whether a value counts as absent for merge precedence.
func IsMissing(v string) bool {
	if strings.TrimSpace(v) == "" {
		return true
	}
	_, ok := missingSentinels[strings.TrimSpace(v)]
	return ok
}

// Merger applies provider rows to institution records. It remembers which
// unmapped columns it has already reported so each distinct name is logged
// once per run, not once per row.
type Merger struct {
	mu             sync.Mutex
	loggedUnmapped map[string]struct{}
}

// NewMerger creates a Merger with an empty unmapped-column registry.
func NewMerger() *Merger {
	return &Merger{loggedUnmapped: make(map[string]struct{})}
}

// Apply merges one raw row into the institution under the given mapping.
// For every mapped column the canonical key is written only if currently
// missing; unmapped columns land in the additional-info bag. Callers apply
// mappings in declared priority order, so first non-empty wins.
func (m *Merger) Apply(inst *model.Institution, mp *Mapping, header, row []string) {
	for i, column := range header {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])

		key, mapped := mp.CanonicalKey(column)
		if !mapped {
			if value != "" {
				if inst.AdditionalInfo == nil {
					inst.AdditionalInfo = make(map[string]string)
				}
				if _, exists := inst.AdditionalInfo[column]; !exists {
					inst.AdditionalInfo[column] = value
				}
				m.logUnmappedOnce(mp.Provider, column)
			}
			continue
		}

		if IsMissing(value) {
			continue
		}

		switch key {
		case KeyID:
			setIfMissing(&inst.ID, value)
		case KeyName:
			setIfMissing(&inst.Name, value)
		case KeyCity:
			setIfMissing(&inst.City, value)
		case KeyState:
			setIfMissing(&inst.State, value)
		default:
			if mp.Group == "enrichment" {
				if inst.Enrichment == nil {
					inst.Enrichment = make(map[string]string)
				}
				setMapIfMissing(inst.Enrichment, key, value)
			} else {
				if inst.Fields == nil {
					inst.Fields = make(map[string]string)
				}
				setMapIfMissing(inst.Fields, key, value)
			}
		}
	}

	if mp.Tag != "" {
		inst.AddTag(mp.Tag)
	}
}

// Merge folds src into dst record-to-record: identity scalars follow first
// non-empty wins, map groups merge key-by-key rather than being replaced
// wholesale, tags are deduplicated. Used when a partial record assembled from
// a remote source joins the locally merged one.
func Merge(dst, src *model.Institution) {
	mergeScalar(&dst.ID, src.ID)
	mergeScalar(&dst.Name, src.Name)
	mergeScalar(&dst.City, src.City)
	mergeScalar(&dst.State, src.State)

	if len(src.Fields) > 0 {
		if dst.Fields == nil {
			dst.Fields = make(map[string]string, len(src.Fields))
		}
		MergeMaps(dst.Fields, src.Fields)
	}
	if len(src.Enrichment) > 0 {
		if dst.Enrichment == nil {
			dst.Enrichment = make(map[string]string, len(src.Enrichment))
		}
		MergeMaps(dst.Enrichment, src.Enrichment)
	}
	if len(src.AdditionalInfo) > 0 {
		if dst.AdditionalInfo == nil {
			dst.AdditionalInfo = make(map[string]string, len(src.AdditionalInfo))
		}
		MergeMaps(dst.AdditionalInfo, src.AdditionalInfo)
	}
	if len(dst.FieldsOfStudy) == 0 {
		dst.FieldsOfStudy = src.FieldsOfStudy
	}
	for _, tag := range src.Tags {
		dst.AddTag(tag)
	}
}

// MergeMaps merges src into dst key by key with first-non-empty-wins
// precedence, rather than replacing the map wholesale.
func MergeMaps(dst, src map[string]string) {
	for key, value := range src {
		setMapIfMissing(dst, key, value)
	}
}

func mergeScalar(dst *string, value string) {
	if !IsMissing(value) {
		setIfMissing(dst, value)
	}
}

func setIfMissing(dst *string, value string) {
	if IsMissing(*dst) {
		*dst = value
	}
}

func setMapIfMissing(dst map[string]string, key, value string) {
	if IsMissing(dst[key]) && !IsMissing(value) {
		dst[key] = value
	}
}

func (m *Merger) logUnmappedOnce(provider, column string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := provider + "\x00" + column
	if _, seen := m.loggedUnmapped[key]; seen {
		return
	}
	m.loggedUnmapped[key] = struct{}{}
	zap.L().Info("merge: unmapped column stashed in additionalInfo",
		zap.String("provider", provider),
		zap.String("column", column),
	)
}
