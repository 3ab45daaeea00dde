package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options configures CSV loading.
type Options struct {
	Delimiter  rune // 0 = sniff from the header line
	HeaderRows int  // header rows before data; default 1
}

// ReadCSV loads a whole CSV file into a Table. Intended for the smaller
// sources (master list, enrichment spreadsheets); the field-of-study file
// goes through StreamCSV instead.
func ReadCSV(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNotFound, "%s", path)
		}
		return nil, eris.Wrapf(err, "source: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	header, reader, err := prepareReader(f, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read header %s", path)
	}

	var rows [][]string
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				skipped++
				continue
			}
			return nil, eris.Wrapf(err, "source: read %s", path)
		}
		if emptyRow(record) {
			continue
		}
		rows = append(rows, trimFields(record))
	}
	if skipped > 0 {
		zap.L().Warn("source: skipped unparseable rows",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return NewTable(header, rows), nil
}

// StreamCSV streams a CSV file row by row. The header is resolved eagerly;
// rows and errors arrive on channels that are both closed when processing
// completes. Unparseable rows are skipped and counted, not fatal.
func StreamCSV(ctx context.Context, path string, opts Options) ([]string, <-chan []string, <-chan error, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil, eris.Wrapf(ErrNotFound, "%s", path)
		}
		return nil, nil, nil, eris.Wrapf(err, "source: open %s", path)
	}

	header, reader, err := prepareReader(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, nil, nil, eris.Wrapf(err, "source: read header %s", path)
	}

	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)
		defer f.Close() //nolint:errcheck

		skipped := 0
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "source: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				if _, ok := err.(*csv.ParseError); ok {
					skipped++
					continue
				}
				errCh <- eris.Wrapf(err, "source: read %s", path)
				return
			}
			if emptyRow(record) {
				continue
			}

			select {
			case rowCh <- trimFields(record):
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "source: context cancelled")
				return
			}
		}
		if skipped > 0 {
			zap.L().Warn("source: skipped unparseable rows",
				zap.String("path", path),
				zap.Int("skipped", skipped),
			)
		}
	}()

	return header, rowCh, errCh, nil
}

// prepareReader sniffs the delimiter, strips the BOM, consumes the header
// row(s), and returns a csv.Reader positioned at the first data row.
func prepareReader(f *os.File, opts Options) ([]string, *csv.Reader, error) {
	br := bufio.NewReaderSize(f, 64*1024)

	headLine, err := peekLine(br)
	if err != nil {
		return nil, nil, err
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(stripBOM(headLine))
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // tolerate short rows; callers index by header

	headerRows := opts.HeaderRows
	if headerRows <= 0 {
		headerRows = 1
	}

	var header []string
	for i := 0; i < headerRows; i++ {
		record, err := reader.Read()
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			record[0] = stripBOM(record[0])
			header = trimFields(record)
		} else {
			header = mergeHeaderRow(header, trimFields(record))
		}
	}

	return header, reader, nil
}

// mergeHeaderRow collapses a two-row header: the category row prefixes the
// field-name row as "category.field" where both cells are non-empty.
// Category cells carry forward across the merged-cell gaps spreadsheets emit.
func mergeHeaderRow(categories, fields []string) []string {
	merged := make([]string, len(fields))
	category := ""
	for i, field := range fields {
		if i < len(categories) && categories[i] != "" {
			category = categories[i]
		}
		switch {
		case field == "":
			merged[i] = category
		case category == "":
			merged[i] = field
		default:
			merged[i] = category + "." + field
		}
	}
	return merged
}

// peekLine returns the first line without consuming it.
func peekLine(br *bufio.Reader) (string, error) {
	for peek := 256; peek <= 64*1024; peek *= 2 {
		buf, err := br.Peek(peek)
		if idx := strings.IndexByte(string(buf), '\n'); idx >= 0 {
			return string(buf[:idx]), nil
		}
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				return string(buf), nil
			}
			return "", err
		}
	}
	return "", eris.New("source: header line too long")
}

func trimFields(record []string) []string {
	for i, field := range record {
		record[i] = strings.TrimSpace(field)
	}
	return record
}

func emptyRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
