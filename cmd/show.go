package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-nrl-stats/internal/extract"
	"github.com/pable/go-nrl-stats/internal/model"
	"github.com/pable/go-nrl-stats/internal/pipeline"
	"github.com/pable/go-nrl-stats/internal/report"
	"github.com/pable/go-nrl-stats/internal/scraper"
	"github.com/pable/go-nrl-stats/internal/storage"
)

var (
	showLimit   int
	showPricing bool
)

var showCmd = &cobra.Command{
	Use:   "show <round|url>",
	Short: "Show a cached page as a stats table",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "maximum rows to print (0 = all)")
	showCmd.Flags().BoolVar(&showPricing, "pricing", true, "parse cost and compute Priced at / premium")
}

func runShow(cmd *cobra.Command, args []string) error {
	ref := args[0]

	path, err := cachePath()
	if err != nil {
		return err
	}
	db, err := storage.Open(path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	return showPage(cmd.Context(), db, ref, showLimit, showPricing)
}

// showPage replays a cached page through the pipeline and prints the resulting table.
func showPage(ctx context.Context, db *storage.DB, ref string, limit int, pricing bool) error {
	page, err := db.FindPage(ref)
	if err != nil {
		return fmt.Errorf("query page: %w", err)
	}
	if page == nil {
		fmt.Fprintf(os.Stderr, "No cached page for %q\n", ref)
		return nil
	}

	// Replay the cached page through the normal pipeline.
	src := scraper.SourceFunc(func(context.Context, scraper.PageRef) (*model.RawPage, error) {
		return page.Raw, nil
	})
	runner := &pipeline.Runner{
		Source:    src,
		Extractor: &extract.Extractor{Pricing: pricing, Log: logger},
		Log:       logger,
	}
	res, err := runner.Run(ctx, []scraper.PageRef{{Round: page.Round, URL: page.URL}})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nRound: %s  |  Players: %d  |  Format: %s  |  Fetched: %s\n  %s\n\n",
		page.Round, page.PlayerCount, page.Format, page.FetchedAt.Local().Format("2006-01-02 15:04"), page.URL)
	report.PrintTable(os.Stdout, res.Headers, res.Rows, limit)
	return nil
}
