package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pable/go-nrl-stats/internal/config"
	"github.com/pable/go-nrl-stats/internal/extract"
	"github.com/pable/go-nrl-stats/internal/feed"
	"github.com/pable/go-nrl-stats/internal/model"
	"github.com/pable/go-nrl-stats/internal/pipeline"
	"github.com/pable/go-nrl-stats/internal/report"
	"github.com/pable/go-nrl-stats/internal/scraper"
	"github.com/pable/go-nrl-stats/internal/storage"
)

var (
	scrapeRounds      []string
	scrapeURLs        []string
	scrapeOut         string
	scrapeDelimiter   string
	scrapeNoQuote     bool
	scrapeXLSX        string
	scrapeSource      string
	scrapeHTMLDir     string
	scrapeFeedURL     string
	scrapeFormat      string
	scrapeConcurrency int
	scrapeNoCache     bool
	scrapeRefresh     bool
	scrapePricing     bool
	scrapeCanonical   bool
	scrapePreview     int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape match-centre pages and write the stats table",
	Long: `Fetch one or more match-centre pages, normalize every player's stats, compute the derived
pricing columns and write a single delimited table.

Pages are given as rounds (expanded through source.url_template) or explicit URLs. An explicit
URL may carry its round as "27=https://...". Use "--out -" to write the table to stdout.

Nothing is written unless every page succeeds.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.StringSliceVarP(&scrapeRounds, "round", "r", nil, "round to scrape (repeatable, comma-separated)")
	f.StringSliceVar(&scrapeURLs, "url", nil, "explicit page URL, optionally round=URL (repeatable)")
	f.StringVarP(&scrapeOut, "out", "o", "", "output file, - for stdout (overrides output.path)")
	f.StringVar(&scrapeDelimiter, "delimiter", "", "field delimiter: a character, tab, comma, semicolon or pipe")
	f.BoolVar(&scrapeNoQuote, "no-quote", false, "join cells as-is without CSV quoting")
	f.StringVar(&scrapeXLSX, "xlsx", "", "also write an Excel workbook to this path")
	f.StringVar(&scrapeSource, "source", "", "page source: browser, html or feed")
	f.StringVar(&scrapeHTMLDir, "html-dir", "", "directory of saved <round>.html pages (implies --source html)")
	f.StringVar(&scrapeFeedURL, "feed-url", "", "JSON feed base URL (implies --source feed)")
	f.StringVar(&scrapeFormat, "format", "", "force page layout: positional or named")
	f.IntVarP(&scrapeConcurrency, "concurrency", "j", 0, "pages fetched in parallel")
	f.BoolVar(&scrapeNoCache, "no-cache", false, "do not read or write the page cache")
	f.BoolVar(&scrapeRefresh, "refresh", false, "refetch pages even if cached")
	f.BoolVar(&scrapePricing, "pricing", true, "parse cost and compute Priced at / premium")
	f.BoolVar(&scrapeCanonical, "canonical-headers", false, "seed the header set with every known stat column")
	f.IntVar(&scrapePreview, "preview", 0, "print the first N rows as a table")
}

// applyScrapeFlags overlays explicitly set flags onto the loaded config.
func applyScrapeFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("round") {
		c.Source.Rounds = scrapeRounds
	}
	if f.Changed("url") {
		c.Source.Pages = scrapeURLs
		if !f.Changed("round") {
			c.Source.Rounds = nil
		}
	}
	if f.Changed("out") {
		c.Output.Path = scrapeOut
	}
	if f.Changed("delimiter") {
		c.Output.Delimiter = scrapeDelimiter
	}
	if f.Changed("no-quote") {
		c.Output.Quote = !scrapeNoQuote
	}
	if f.Changed("xlsx") {
		c.Output.XLSXPath = scrapeXLSX
	}
	if f.Changed("html-dir") {
		c.Source.HTMLDir = scrapeHTMLDir
		c.Source.Kind = config.SourceHTML
	}
	if f.Changed("feed-url") {
		c.Source.FeedURL = scrapeFeedURL
		c.Source.Kind = config.SourceFeed
	}
	if f.Changed("source") {
		c.Source.Kind = scrapeSource
	}
	if f.Changed("format") {
		c.Source.Format = scrapeFormat
	}
	if f.Changed("concurrency") {
		c.Source.Concurrency = scrapeConcurrency
	}
	if f.Changed("no-cache") {
		c.Cache.Enabled = !scrapeNoCache
	}
	if f.Changed("refresh") {
		c.Cache.Refresh = scrapeRefresh
	}
	if f.Changed("pricing") {
		c.Output.Pricing = scrapePricing
	}
	if f.Changed("canonical-headers") {
		c.Output.CanonicalHeaders = scrapeCanonical
	}
	if f.Changed("preview") {
		c.Output.Preview = scrapePreview
	}
	return c.Validate()
}

func runScrape(cmd *cobra.Command, args []string) error {
	if err := applyScrapeFlags(cmd, cfg); err != nil {
		return err
	}

	delim, err := report.ParseDelimiter(cfg.Output.Delimiter)
	if err != nil {
		return err
	}
	csvOpts := report.CSVOptions{Delimiter: delim, Quote: cfg.Output.Quote}

	refs := scraper.BuildRefs(cfg.Source.URLTemplate, cfg.Source.Rounds, cfg.Source.Pages)
	if len(refs) == 0 {
		return crerr.WithHint(crerr.New("no pages to scrape"),
			"pass --round N (with source.url_template set) or --url URL")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	src, closeSrc, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	runID := uuid.NewString()
	started := time.Now()
	runLog := logger.With("run", runID)

	var db *storage.DB
	if cfg.Cache.Enabled {
		db, err = storage.Open(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer db.Close()
		if err := db.StartRun(runID, started); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		src = &storage.CachedSource{DB: db, Next: src, RunID: runID, Refresh: cfg.Cache.Refresh, Log: runLog}
		if !cfg.Cache.Refresh {
			runLog.Info("cache lookup", "cached", cachedCount(db, refs), "pages", len(refs))
		}
	}

	var seed []string
	if cfg.Output.CanonicalHeaders {
		seed = model.CanonicalHeaders()
	}
	runner := &pipeline.Runner{
		Source:      src,
		Extractor:   &extract.Extractor{Pricing: cfg.Output.Pricing, Source: statSourceFor(cfg.Source.Format), Log: runLog},
		Concurrency: cfg.Source.Concurrency,
		Seed:        seed,
		Log:         runLog,
	}

	runLog.Info("scrape started", "pages", len(refs), "source", cfg.Source.Kind,
		"concurrency", cfg.Source.Concurrency, "cache", cfg.Cache.Enabled)

	res, err := runner.Run(ctx, refs)
	if err == nil {
		err = writeOutputs(res, csvOpts)
	}
	finishRun(db, runID, res, err)
	if err != nil {
		return err
	}

	if cs, ok := src.(*storage.CachedSource); ok {
		hits, misses := cs.Stats()
		runLog.Info("cache", "hits", hits, "misses", misses)
	}
	runLog.Info("scrape finished", "rows", len(res.Rows), "columns", len(res.Headers),
		"elapsed", time.Since(started))

	if cfg.Output.Preview > 0 {
		report.PrintTable(os.Stderr, res.Headers, res.Rows, cfg.Output.Preview)
	}
	out := cfg.Output.Path
	if out == "-" {
		out = "stdout"
	}
	report.PrintRunSummary(os.Stderr, report.RunSummary{
		Pages: len(res.Pages), Rows: len(res.Rows), Columns: len(res.Headers), Output: out,
	})
	return nil
}

// writeOutputs writes the delimited table and, if configured, the workbook.
func writeOutputs(res *pipeline.Result, opts report.CSVOptions) error {
	if !opts.Quote {
		if n := report.CountUnsafe(res.Headers, res.Rows, opts.Delimiter); n > 0 {
			warnf("%d cells contain the delimiter, a quote or a line break; drop --no-quote for valid CSV", n)
		}
	}

	// Every file output is staged before any is renamed into place.
	var staged []*report.Staged
	discard := func() {
		for _, st := range staged {
			st.Discard()
		}
	}
	if cfg.Output.XLSXPath != "" {
		st, err := report.StageXLSX(cfg.Output.XLSXPath, res.Headers, res.Rows)
		if err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		staged = append(staged, st)
	}

	if cfg.Output.Path == "-" {
		if err := report.RenderCSV(os.Stdout, res.Headers, res.Rows, opts); err != nil {
			discard()
			return fmt.Errorf("write table: %w", err)
		}
	} else {
		st, err := report.StageCSV(cfg.Output.Path, res.Headers, res.Rows, opts)
		if err != nil {
			discard()
			return fmt.Errorf("write table: %w", err)
		}
		staged = append(staged, st)
	}

	if err := report.CommitAll(staged...); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}
	return nil
}

func finishRun(db *storage.DB, runID string, res *pipeline.Result, runErr error) {
	if db == nil {
		return
	}
	r := storage.Run{ID: runID, FinishedAt: time.Now(), Status: "ok", Output: cfg.Output.Path}
	if runErr != nil {
		r.Status = "failed"
	}
	if res != nil {
		r.Pages = len(res.Pages)
		r.Rows = len(res.Rows)
	}
	if err := db.FinishRun(r); err != nil {
		logger.Warn("could not record run outcome", "run", runID, "err", err)
	}
}

// cachedCount reports how many refs already have a cached page.
func cachedCount(db *storage.DB, refs []scraper.PageRef) int {
	n := 0
	for _, r := range refs {
		ok, err := db.PageExists(storage.CacheKey(r.Round, r.URL))
		if err != nil {
			logger.Warn("cache lookup failed", "round", r.Round, "err", err)
			continue
		}
		if ok {
			n++
		}
	}
	return n
}

// buildSource assembles the configured page source. The returned func releases it.
func buildSource(ctx context.Context, c *config.Config) (scraper.PageSource, func(), error) {
	format := model.PageFormat("")
	if c.Source.Format != "" {
		format = model.ParseFormat(c.Source.Format)
	}

	switch c.Source.Kind {
	case config.SourceHTML:
		return scraper.Dir{Root: c.Source.HTMLDir, Format: format}, func() {}, nil

	case config.SourceFeed:
		client := feed.NewClient(c.Source.FeedURL, c.Source.FeedToken)
		if c.Source.WaitTimeout > 0 {
			client.WithHTTPClient(&http.Client{Timeout: c.Source.WaitTimeout})
		}
		return scraper.NewThrottle(client, c.Source.RatePerSecond), func() {}, nil

	default:
		b := &scraper.Browser{
			Headless:    c.Source.Headless,
			WaitTimeout: c.Source.WaitTimeout,
			Format:      format,
			Log:         logger,
		}
		if err := b.Start(ctx); err != nil {
			return nil, nil, err
		}
		return scraper.NewThrottle(b, c.Source.RatePerSecond), b.Close, nil
	}
}

// statSourceFor returns a forced stat layout, or nil to follow each page's own format.
func statSourceFor(format string) extract.StatSource {
	if format == "" {
		return nil
	}
	return extract.SourceFor(model.ParseFormat(format))
}
