// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scholarpath/directory-cli/internal/scorecard"
)

// Config holds the full application configuration.
type Config struct {
	DataDir     string           `yaml:"data_dir" mapstructure:"data_dir"`
	MappingsDir string           `yaml:"mappings_dir" mapstructure:"mappings_dir"`
	Sources     SourcesConfig    `yaml:"sources" mapstructure:"sources"`
	Scorecard   scorecard.Config `yaml:"scorecard" mapstructure:"scorecard"`
	Fetch       FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Log         LogConfig        `yaml:"log" mapstructure:"log"`
}

// SourcesConfig locates the raw input files. Only the master list is
// mandatory; every other source degrades to an empty set when missing.
type SourcesConfig struct {
	Master           string `yaml:"master" mapstructure:"master"`
	FieldsOfStudy    string `yaml:"fields_of_study" mapstructure:"fields_of_study"`
	InternationalAid string `yaml:"international_aid" mapstructure:"international_aid"`
	CommonApp        string `yaml:"common_app" mapstructure:"common_app"`
}

// FetchConfig configures the remote Scorecard fetch pass.
type FetchConfig struct {
	Enabled         bool `yaml:"enabled" mapstructure:"enabled"`
	Concurrency     int  `yaml:"concurrency" mapstructure:"concurrency"`
	CheckpointEvery int  `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and DIRECTORY_* environment
// variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DIRECTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", "data")
	v.SetDefault("mappings_dir", "mappings")
	v.SetDefault("sources.master", "sources/institutions.csv")
	v.SetDefault("sources.fields_of_study", "sources/fieldsofstudy.csv")
	v.SetDefault("sources.international_aid", "sources/international-aid.csv")
	v.SetDefault("sources.common_app", "sources/commonapp.csv")
	v.SetDefault("scorecard.base_url", "https://api.data.gov/ed/collegescorecard/v1/schools")
	v.SetDefault("scorecard.api_key", "")
	v.SetDefault("scorecard.per_page", 100)
	v.SetDefault("scorecard.rate_per_sec", 2)
	v.SetDefault("scorecard.burst", 1)
	v.SetDefault("scorecard.timeout_secs", 30)
	v.SetDefault("fetch.enabled", false)
	v.SetDefault("fetch.concurrency", 3)
	v.SetDefault("fetch.checkpoint_every", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
