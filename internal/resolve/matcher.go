package resolve

import "strings"

// Candidate is one (id, canonical name) pair from the authoritative master list.
type Candidate struct {
	ID   string
	Name string
}

// Resolution is the outcome of matching one input name.
type Resolution struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Rule    string `json:"rule,omitempty"`
	Matched bool   `json:"matched"`
}

// Matcher resolves a free-text name to a canonical id. The scoring formula
// lives behind this interface so it can later be swapped for a proper
// string-similarity metric without touching callers.
type Matcher interface {
	Match(name string) Resolution
}

// Match rules, in precedence order of their score contributions.
const (
	RuleExact             = "exact"
	RuleCandidateContains = "candidate_contains_input"
	RuleInputContains     = "input_contains_candidate"
)

type scoredCandidate struct {
	id   string
	norm string
}

// ScoreMatcher implements the exact/substring/length-penalty heuristic:
// +10 for normalized equality, +5 when the candidate contains the input,
// +3 when the input contains the candidate, minus the absolute difference
// in normalized lengths. Highest score wins; ties break on first-encountered
// order; anything scoring <= 0 is left unmatched.
type ScoreMatcher struct {
	candidates []scoredCandidate

	// exact short-circuits the linear scan: a normalized-equality hit always
	// outscores any substring hit, so the index alone decides those lookups.
	exact map[string]int
}

// NewScoreMatcher builds a matcher over the master list. Candidate order is
// preserved for deterministic tie-breaking.
func NewScoreMatcher(candidates []Candidate) *ScoreMatcher {
	m := &ScoreMatcher{
		candidates: make([]scoredCandidate, 0, len(candidates)),
		exact:      make(map[string]int, len(candidates)),
	}
	for _, c := range candidates {
		norm := NormalizeName(c.Name)
		m.candidates = append(m.candidates, scoredCandidate{id: c.ID, norm: norm})
		if _, seen := m.exact[norm]; !seen && norm != "" {
			m.exact[norm] = len(m.candidates) - 1
		}
	}
	return m
}

// Match resolves one name. Deterministic: a fixed master list and a fixed
// input always produce the same resolution.
func (m *ScoreMatcher) Match(name string) Resolution {
	input := NormalizeName(name)
	res := Resolution{Name: name}
	if input == "" {
		return res
	}

	if idx, ok := m.exact[input]; ok {
		res.ID = m.candidates[idx].id
		res.Score = 10
		res.Rule = RuleExact
		res.Matched = true
		return res
	}

	bestScore := 0
	bestIdx := -1
	for i, c := range m.candidates {
		if c.norm == "" {
			continue
		}
		score := 0
		switch {
		case c.norm == input:
			score += 10
		default:
			if strings.Contains(c.norm, input) {
				score += 5
			}
			if strings.Contains(input, c.norm) {
				score += 3
			}
		}
		if score == 0 {
			continue
		}
		diff := len(c.norm) - len(input)
		if diff < 0 {
			diff = -diff
		}
		score -= diff
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return res
	}

	res.ID = m.candidates[bestIdx].id
	res.Score = bestScore
	res.Matched = true
	if strings.Contains(m.candidates[bestIdx].norm, input) {
		res.Rule = RuleCandidateContains
	} else {
		res.Rule = RuleInputContains
	}
	return res
}
