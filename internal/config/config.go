// Package config loads the converse.yaml router configuration with defaults,
// file values, and CONVERSE_* environment overrides layered by viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the router's runtime settings.
type Config struct {
	// Workflows lists workflow source files, lowest precedence first; the
	// last entry is the local workflow.
	Workflows []string `mapstructure:"workflows"`
	// MaxAncestorDepth bounds the containment walk.
	MaxAncestorDepth int `mapstructure:"max_ancestor_depth"`
	// TranscriptDir receives session transcript NDJSON files.
	TranscriptDir string `mapstructure:"transcript_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// Classifier configures the baseline intent classifier.
	Classifier Classifier `mapstructure:"classifier"`
}

// Classifier holds baseline classifier tuning.
type Classifier struct {
	// Threshold is the minimum similarity score for a match.
	Threshold float64 `mapstructure:"threshold"`
	// Margin is the score window within which candidates count as tied.
	Margin float64 `mapstructure:"margin"`
}

// Load reads configuration. With an explicit path the file must exist;
// otherwise converse.yaml is searched in the working directory and its
// absence is not an error, leaving defaults and environment values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("max_ancestor_depth", 16)
	v.SetDefault("transcript_dir", "transcripts")
	v.SetDefault("log_level", "info")
	v.SetDefault("classifier.threshold", 0.55)
	v.SetDefault("classifier.margin", 0.05)

	v.SetEnvPrefix("converse")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("converse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configured values are usable.
func (c *Config) Validate() error {
	if c.MaxAncestorDepth <= 0 {
		return fmt.Errorf("config: max_ancestor_depth must be positive, got %d", c.MaxAncestorDepth)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.Classifier.Threshold < 0 || c.Classifier.Threshold > 1 {
		return fmt.Errorf("config: classifier.threshold must be in [0,1], got %v", c.Classifier.Threshold)
	}
	if c.Classifier.Margin < 0 || c.Classifier.Margin > 1 {
		return fmt.Errorf("config: classifier.margin must be in [0,1], got %v", c.Classifier.Margin)
	}
	return nil
}
