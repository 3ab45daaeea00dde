// Package pipeline sequences the ETL stages: source loading, identity
// resolution, record merging, and sink writing, over a shared data directory.
package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scholarpath/directory-cli/internal/config"
	"github.com/scholarpath/directory-cli/internal/source"
)

// Provider names bind sources to their mapping files (mappings/<name>.yaml).
const (
	ProviderMaster    = "master"
	ProviderCommonApp = "commonapp"
	ProviderAid       = "international-aid"
	ProviderScorecard = "scorecard"
)

// Sources holds the loaded input tables. Auxiliary tables are nil when their
// file is missing; only the master list is mandatory.
type Sources struct {
	Master    *source.Table
	Aid       *source.Table
	CommonApp *source.Table
}

// LoadSources reads every configured source. A missing master CSV is fatal;
// a missing auxiliary source logs a warning and leaves its table nil so the
// pipeline continues with an empty set.
func LoadSources(cfg config.SourcesConfig) (*Sources, error) {
	master, err := source.ReadCSV(cfg.Master, source.Options{})
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: master source %s", cfg.Master)
	}

	s := &Sources{Master: master}
	s.Aid = loadAuxiliary(cfg.InternationalAid, ProviderAid, source.Options{Delimiter: ';'})
	s.CommonApp = loadAuxiliary(cfg.CommonApp, ProviderCommonApp, source.Options{Delimiter: ';', HeaderRows: 2})
	return s, nil
}

// loadAuxiliary loads an optional source, accepting .xlsx spreadsheets as
// well as delimited text.
func loadAuxiliary(path, provider string, opts source.Options) *source.Table {
	if path == "" {
		return nil
	}

	var table *source.Table
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		table, err = source.ReadXLSX(path, source.XLSXOptions{HeaderRows: opts.HeaderRows})
	} else {
		table, err = source.ReadCSV(path, opts)
	}
	if err != nil {
		zap.L().Warn("pipeline: auxiliary source unavailable, continuing without it",
			zap.String("provider", provider),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil
	}

	zap.L().Info("pipeline: loaded source",
		zap.String("provider", provider),
		zap.String("path", path),
		zap.Int("rows", table.Len()),
	)
	return table
}
