// Package resolve maps free-text institution names to canonical ids.
package resolve

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeName standardizes an institution name for matching by:
//  1. Lowercasing
//  2. Stripping every character outside [a-z0-9\s]
//  3. Collapsing internal whitespace
//  4. Trimming
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = nonAlnumRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
