// Package model defines the canonical record types shared by the pipeline stages.
package model

// Institution is the central entity: one detail document per canonical id.
type Institution struct {
	ID    string `json:"id"`
	Slug  string `json:"slug,omitempty"`
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`

	// Fields maps namespaced canonical keys (cost.*, admissions.*, ...) to
	// scalar values sourced from one or more providers.
	Fields map[string]string `json:"fields,omitempty"`

	FieldsOfStudy []FieldOfStudy `json:"fieldsOfStudy,omitempty"`

	// Enrichment holds manually curated data attached only when a name
	// fuzzy-match against the enrichment source succeeds.
	Enrichment map[string]string `json:"enrichment,omitempty"`

	Tags []string `json:"tags,omitempty"`

	// AdditionalInfo keeps source columns that no mapping claims, keyed by
	// the original column name, so nothing is silently discarded.
	AdditionalInfo map[string]string `json:"additionalInfo,omitempty"`
}

// AddTag appends a classification code unless it is already present.
func (inst *Institution) AddTag(tag string) {
	for _, t := range inst.Tags {
		if t == tag {
			return
		}
	}
	inst.Tags = append(inst.Tags, tag)
}

// HasTag reports whether the institution carries the given tag.
func (inst *Institution) HasTag(tag string) bool {
	for _, t := range inst.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FieldOfStudy is one program sub-record.
type FieldOfStudy struct {
	Program         string   `json:"program"`
	CredentialLevel int      `json:"credentialLevel"`
	CredentialTitle string   `json:"credentialTitle,omitempty"`
	Graduates       int      `json:"graduates"`
	Working         int      `json:"working"`
	EarningsMedian  Earnings `json:"earningsMedian"`
}

// Empty reports whether the sub-record carries no information
// (zero graduates and zero working count).
func (f FieldOfStudy) Empty() bool {
	return f.Graduates == 0 && f.Working == 0
}

// Summary is the compact list-view projection of an institution.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Slug        string `json:"slug"`
	CostInState string `json:"costInState,omitempty"`
	AdmitRate   string `json:"admitRate,omitempty"`
	Enrollment  string `json:"enrollment,omitempty"`
}
