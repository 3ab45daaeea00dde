package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDelimiter_Comma(t *testing.T) {
	assert.Equal(t, ',', DetectDelimiter("id,name,city"))
}

func TestDetectDelimiter_Semicolon(t *testing.T) {
	assert.Equal(t, ';', DetectDelimiter("id;name;city"))
}

func TestDetectDelimiter_IgnoresQuoted(t *testing.T) {
	// Semicolons inside a quoted cell must not flip the sniff.
	assert.Equal(t, ',', DetectDelimiter(`id,"a;b;c;d",city`))
}

func TestDetectDelimiter_DefaultsToComma(t *testing.T) {
	assert.Equal(t, ',', DetectDelimiter("singlecolumn"))
}

func TestTable_Get(t *testing.T) {
	table := NewTable([]string{"ID", "Name"}, [][]string{{"1", "Alpha"}})

	assert.Equal(t, "Alpha", table.Get(table.Rows[0], "name"))
	assert.Equal(t, "Alpha", table.Get(table.Rows[0], "NAME"))
	assert.Equal(t, "", table.Get(table.Rows[0], "missing"))
}

func TestTable_Get_ShortRow(t *testing.T) {
	table := NewTable([]string{"ID", "Name", "City"}, [][]string{{"1", "Alpha"}})
	assert.Equal(t, "", table.Get(table.Rows[0], "city"))
}

func TestTable_Col_Missing(t *testing.T) {
	table := NewTable([]string{"ID"}, nil)
	assert.Equal(t, -1, table.Col("nope"))
}

func TestTable_Col_FirstDuplicateWins(t *testing.T) {
	table := NewTable([]string{"ID", "Name", "Name"}, nil)
	assert.Equal(t, 1, table.Col("name"))
}
