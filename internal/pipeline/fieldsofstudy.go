package pipeline

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scholarpath/directory-cli/internal/model"
	"github.com/scholarpath/directory-cli/internal/runlog"
	"github.com/scholarpath/directory-cli/internal/source"
)

// Field-of-study source columns (College Scorecard naming).
const (
	fosColID         = "UNITID"
	fosColProgram    = "CIPDESC"
	fosColCredLevel  = "CREDLEV"
	fosColCredTitle  = "CREDDESC"
	fosColGraduates  = "IPEDSCOUNT2"
	fosColWorking    = "EARN_COUNT_WNE_5YR"
	fosColEarningsMd = "EARN_MDN_5YR"
)

// BuildFieldsOfStudy streams the field-of-study CSV (hundreds of thousands
// of rows, never loaded wholesale) and writes one program array per
// institution id. Rows with zero graduates and zero working count carry no
// information and are dropped; the PrivacySuppressed earnings sentinel is
// preserved verbatim.
func (p *Pipeline) BuildFieldsOfStudy(ctx context.Context) (runlog.Counts, error) {
	path := p.cfg.Sources.FieldsOfStudy
	header, rows, errs, err := source.StreamCSV(ctx, path, source.Options{})
	if err != nil {
		return runlog.Counts{}, eris.Wrapf(err, "pipeline: fields of study source %s", path)
	}

	cols := indexColumns(header)
	for _, required := range []string{fosColID, fosColProgram} {
		if _, ok := cols[strings.ToLower(required)]; !ok {
			return runlog.Counts{}, eris.Errorf("pipeline: fields of study source missing column %s", required)
		}
	}

	// Grouping by institution holds only the kept sub-records in memory,
	// a small fraction of the raw row count.
	programs := make(map[string][]model.FieldOfStudy)
	order := make([]string, 0, 1024)
	var counts runlog.Counts

	for row := range rows {
		rec, id, ok := parseProgramRow(cols, row)
		if !ok {
			counts.Errored++
			continue
		}
		if rec.Empty() {
			counts.Skipped++
			continue
		}
		if _, seen := programs[id]; !seen {
			order = append(order, id)
		}
		programs[id] = append(programs[id], rec)
	}
	if err := <-errs; err != nil {
		return counts, eris.Wrap(err, "pipeline: stream fields of study")
	}

	for _, id := range order {
		skipped, err := p.writer.WriteFieldsOfStudy(id, programs[id])
		if err != nil {
			counts.Errored++
			zap.L().Error("pipeline: write fields of study failed",
				zap.String("id", id),
				zap.Error(err),
			)
			continue
		}
		if skipped {
			counts.Skipped++
			continue
		}
		counts.Processed++
	}

	zap.L().Info("pipeline: fields of study complete",
		zap.Int("institutions", len(order)),
		zap.Int("written", counts.Processed),
		zap.Int("skipped", counts.Skipped),
	)
	return counts, nil
}

// parseProgramRow converts one streamed row into a sub-record. Rows missing
// the institution id or program name are unparseable and skipped.
func parseProgramRow(cols map[string]int, row []string) (model.FieldOfStudy, string, bool) {
	get := func(name string) string {
		idx, ok := cols[strings.ToLower(name)]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	id := get(fosColID)
	program := get(fosColProgram)
	if id == "" || program == "" {
		return model.FieldOfStudy{}, "", false
	}

	earnings, err := model.ParseEarnings(get(fosColEarningsMd))
	if err != nil {
		return model.FieldOfStudy{}, "", false
	}

	return model.FieldOfStudy{
		Program:         program,
		CredentialLevel: parseIntOr(get(fosColCredLevel), 0),
		CredentialTitle: get(fosColCredTitle),
		Graduates:       parseIntOr(get(fosColGraduates), 0),
		Working:         parseIntOr(get(fosColWorking), 0),
		EarningsMedian:  earnings,
	}, id, true
}

// parseIntOr parses an integer column, returning def on empty or
// privacy-suppressed values.
func parseIntOr(s string, def int) int {
	if s == "" || s == "NULL" || s == model.PrivacySuppressed {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, exists := m[key]; !exists {
			m[key] = i
		}
	}
	return m
}
