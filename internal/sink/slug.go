// Package sink persists detail documents, program arrays, and the derived
// summary index, with skip-if-exists resumability.
package sink

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugStripRe    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugHyphenRe   = regexp.MustCompile(`[\s-]+`)
	diacriticsFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify derives a URL-safe slug from a display name: diacritics folded,
// lowercased, non-alphanumerics stripped, whitespace to single hyphens,
// trimmed. Uniqueness is the Writer's job, not Slugify's.
func Slugify(name string) string {
	folded, _, err := transform.String(diacriticsFold, name)
	if err != nil {
		folded = name
	}
	s := strings.ToLower(strings.TrimSpace(folded))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugHyphenRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
