package source

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures spreadsheet loading.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	HeaderRows int    // header rows before data; default 1
}

// ReadXLSX loads one sheet of an XLSX workbook into a Table. The enrichment
// spreadsheets are hand-maintained and sometimes arrive as .xlsx instead of
// semicolon CSV; both shapes resolve to the same Table.
func ReadXLSX(path string, opts XLSXOptions) (*Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrNotFound, "%s", path)
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open xlsx %s", path)
	}

	sheet, err := pickSheet(f, opts)
	if err != nil {
		return nil, err
	}

	headerRows := opts.HeaderRows
	if headerRows <= 0 {
		headerRows = 1
	}

	var header []string
	var rows [][]string
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		cells = trimFields(cells)

		switch {
		case i == 0:
			if len(cells) > 0 {
				cells[0] = stripBOM(cells[0])
			}
			header = cells
		case i < headerRows:
			header = mergeHeaderRow(header, cells)
		case !emptyRow(cells):
			rows = append(rows, cells)
		}
	}
	if header == nil {
		return nil, eris.Errorf("source: xlsx %s: empty sheet", path)
	}

	return NewTable(header, rows), nil
}

func pickSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("source: xlsx sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("source: xlsx sheet index %d out of range (%d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}
