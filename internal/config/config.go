// Package config loads nrlstats settings from a YAML file and NRLSTATS_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. NRLSTATS_SOURCE_KIND.
const EnvPrefix = "NRLSTATS"

// Source kinds.
const (
	SourceBrowser = "browser"
	SourceHTML    = "html"
	SourceFeed    = "feed"
)

// Config is the full application configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig selects where pages come from.
type SourceConfig struct {
	Kind          string        `yaml:"kind" split_words:"true" validate:"oneof=browser html feed"`
	URLTemplate   string        `yaml:"url_template" split_words:"true"`
	Rounds        []string      `yaml:"rounds" split_words:"true"`
	Pages         []string      `yaml:"pages" split_words:"true"`
	HTMLDir       string        `yaml:"html_dir" split_words:"true" validate:"required_if=Kind html"`
	FeedURL       string        `yaml:"feed_url" split_words:"true" validate:"required_if=Kind feed,omitempty,url"`
	FeedToken     string        `yaml:"feed_token" split_words:"true"`
	Format        string        `yaml:"format" split_words:"true" validate:"omitempty,oneof=positional named"`
	WaitTimeout   time.Duration `yaml:"wait_timeout" split_words:"true" validate:"gt=0"`
	RatePerSecond float64       `yaml:"rate_per_second" split_words:"true" validate:"gte=0"`
	Concurrency   int           `yaml:"concurrency" split_words:"true" validate:"gte=1,lte=32"`
	Headless      bool          `yaml:"headless" split_words:"true"`
}

// OutputConfig controls the written table.
type OutputConfig struct {
	Path             string `yaml:"path" split_words:"true" validate:"required"`
	Delimiter        string `yaml:"delimiter" split_words:"true"`
	Quote            bool   `yaml:"quote" split_words:"true"`
	XLSXPath         string `yaml:"xlsx_path" split_words:"true"`
	Pricing          bool   `yaml:"pricing" split_words:"true"`
	CanonicalHeaders bool   `yaml:"canonical_headers" split_words:"true"`
	Preview          int    `yaml:"preview" split_words:"true" validate:"gte=0"`
}

// CacheConfig controls the raw page cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	Path    string `yaml:"path" split_words:"true" validate:"required_if=Enabled true"`
	Refresh bool   `yaml:"refresh" split_words:"true"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" split_words:"true" validate:"oneof=json console"`
}

// HomeDir is where nrlstats keeps its cache and default config file.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nrlstats"
	}
	return filepath.Join(home, ".nrlstats")
}

// DefaultPath is the config file read when --config is not given.
func DefaultPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source: SourceConfig{
			Kind:          SourceBrowser,
			URLTemplate:   "https://fantasy.nrl.com/match-centre/{round}/1112710",
			Rounds:        []string{"27"},
			WaitTimeout:   30 * time.Second,
			RatePerSecond: 1,
			Concurrency:   1,
			Headless:      true,
		},
		Output: OutputConfig{
			Path:      "rugby_stats.csv",
			Delimiter: ",",
			Quote:     true,
			Pricing:   true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(HomeDir(), "cache.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (skipped when path
// is empty, or when it is the default path and does not exist), then environment
// overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			if !(errors.Is(err, os.ErrNotExist) && path == DefaultPath()) {
				return nil, err
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their YAML names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", ns, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", ns, fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
