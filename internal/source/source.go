// Package source reads raw CSV and XLSX inputs into row collections keyed
// by header name, tolerant of BOM markers, mixed delimiters, and quoted
// fields containing embedded delimiters or newlines.
package source

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNotFound marks a missing input file. Auxiliary sources continue with an
// empty set; the primary master CSV treats it as fatal.
var ErrNotFound = eris.New("source: file not found")

// Table holds a fully loaded source: resolved header plus data rows.
type Table struct {
	Header []string
	Rows   [][]string

	colIdx map[string]int
}

// NewTable builds a Table and its normalized header index.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.colIdx = indexHeader(header)
	return t
}

// Col returns the index of a column by case-insensitive name, or -1.
func (t *Table) Col(name string) int {
	idx, ok := t.colIdx[normalizeHeader(name)]
	if !ok {
		return -1
	}
	return idx
}

// Get returns a cell from a row by column name, or "" when the column is
// unknown or the row is short.
func (t *Table) Get(row []string, name string) string {
	idx := t.Col(name)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

func indexHeader(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		key := normalizeHeader(col)
		if _, exists := m[key]; !exists {
			m[key] = i
		}
	}
	return m
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// stripBOM removes a UTF-8 byte-order-mark from the first header cell.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// DetectDelimiter sniffs `,` vs `;` from a header line by counting
// occurrences outside quoted regions.
func DetectDelimiter(line string) rune {
	var commas, semis int
	inQuotes := false
	for _, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				commas++
			}
		case ';':
			if !inQuotes {
				semis++
			}
		}
	}
	if semis > commas {
		return ';'
	}
	return ','
}
