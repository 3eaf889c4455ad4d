package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, SourceBrowser, cfg.Source.Kind)
	assert.Equal(t, []string{"27"}, cfg.Source.Rounds)
	assert.Equal(t, "rugby_stats.csv", cfg.Output.Path)
	assert.True(t, cfg.Output.Quote)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Source.WaitTimeout)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
source:
  kind: html
  html_dir: ./pages
  rounds: [1, 2, 3]
  wait_timeout: 45s
  concurrency: 4
output:
  path: out.tsv
  delimiter: tab
  quote: false
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceHTML, cfg.Source.Kind)
	assert.Equal(t, "./pages", cfg.Source.HTMLDir)
	assert.Equal(t, []string{"1", "2", "3"}, cfg.Source.Rounds)
	assert.Equal(t, 45*time.Second, cfg.Source.WaitTimeout)
	assert.Equal(t, 4, cfg.Source.Concurrency)
	assert.Equal(t, "out.tsv", cfg.Output.Path)
	assert.False(t, cfg.Output.Quote)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.True(t, cfg.Output.Pricing)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "output:\n  path: from-file.csv\n")
	t.Setenv("NRLSTATS_OUTPUT_PATH", "from-env.csv")
	t.Setenv("NRLSTATS_SOURCE_ROUNDS", "5,6")
	t.Setenv("NRLSTATS_SOURCE_RATE_PER_SECOND", "0.5")
	t.Setenv("NRLSTATS_CACHE_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.csv", cfg.Output.Path)
	assert.Equal(t, []string{"5", "6"}, cfg.Source.Rounds)
	assert.Equal(t, 0.5, cfg.Source.RatePerSecond)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_UnprefixedEnvIgnored(t *testing.T) {
	t.Setenv("LEVEL", "error")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "source:\n  knd: html\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad kind":           func(c *Config) { c.Source.Kind = "ftp" },
		"html without dir":   func(c *Config) { c.Source.Kind = SourceHTML },
		"feed without url":   func(c *Config) { c.Source.Kind = SourceFeed },
		"feed bad url":       func(c *Config) { c.Source.Kind = SourceFeed; c.Source.FeedURL = "not a url" },
		"zero concurrency":   func(c *Config) { c.Source.Concurrency = 0 },
		"bad format":         func(c *Config) { c.Source.Format = "grid" },
		"no output path":     func(c *Config) { c.Output.Path = "" },
		"cache without path": func(c *Config) { c.Cache.Path = "" },
		"bad log format":     func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Source.Kind = SourceFeed
	cfg.Source.FeedURL = "https://feed.test/v1"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ReportsYAMLNames(t *testing.T) {
	cfg := Default()
	cfg.Source.Concurrency = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.concurrency")
}
