package cmd

import (
	"fmt"
	"os"

	crerr "github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-nrl-stats/internal/config"
	"github.com/pable/go-nrl-stats/internal/logging"
)

var (
	configPath string
	dbPath     string
	logLevel   string

	cfg    *config.Config
	logger *logging.Logger
)

var (
	cError = color.New(color.FgRed, color.Bold)
	cWarn  = color.New(color.FgYellow)
	cMuted = color.New(color.Faint)
)

var rootCmd = &cobra.Command{
	Use:   "nrlstats",
	Short: "NRL fantasy match-centre stats scraper",
	Long: `Collect per-player match statistics from NRL fantasy match-centre pages and write them
as one table with a stable column set and derived pricing metrics.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cError.Fprintln(os.Stderr, "error:", err)
		if hints := crerr.FlattenHints(err); hints != "" {
			cMuted.Fprintln(os.Stderr, "hint:", hints)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite page cache (overrides cache.path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides logging.level)")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads configuration and the logger before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.Cache.Path = dbPath
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	cfg = c

	logger = logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)
	return nil
}

func warnf(format string, args ...any) {
	cWarn.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// cachePath returns the effective cache path, or an error when there is none.
func cachePath() (string, error) {
	if cfg.Cache.Path == "" {
		return "", fmt.Errorf("no cache path configured; set cache.path or pass --db")
	}
	return cfg.Cache.Path, nil
}
