package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-nrl-stats/internal/report"
	"github.com/pable/go-nrl-stats/internal/storage"
)

var (
	listRuns  bool
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached pages (or recent runs with --runs)",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listRuns, "runs", false, "list recent scrape runs instead of pages")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum runs to show")
}

func runList(cmd *cobra.Command, args []string) error {
	path, err := cachePath()
	if err != nil {
		return err
	}
	db, err := storage.Open(path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	if listRuns {
		return printRuns(db, listLimit)
	}
	return printPages(db)
}

func printPages(db *storage.DB) error {
	pages, err := db.ListPages()
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	if len(pages) == 0 {
		fmt.Fprintln(os.Stdout, "No pages cached yet. Run 'nrlstats scrape --round N' to fetch some.")
		return nil
	}

	infos := make([]report.PageInfo, 0, len(pages))
	for _, p := range pages {
		infos = append(infos, report.PageInfo{
			Round:       p.Round,
			URL:         p.URL,
			Format:      string(p.Format),
			FetchedAt:   p.FetchedAt.Local().Format("2006-01-02 15:04"),
			PlayerCount: p.PlayerCount,
			RunID:       p.RunID,
		})
	}
	report.PrintPageList(os.Stdout, infos)
	return nil
}

func printRuns(db *storage.DB, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs recorded yet.")
		return nil
	}

	infos := make([]report.RunInfo, 0, len(runs))
	for _, r := range runs {
		took := ""
		if !r.FinishedAt.IsZero() {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		infos = append(infos, report.RunInfo{
			ID:       r.ID,
			Started:  r.StartedAt.Local().Format("2006-01-02 15:04"),
			Duration: took,
			Status:   r.Status,
			Pages:    r.Pages,
			Rows:     r.Rows,
			Output:   r.Output,
		})
	}
	report.PrintRunList(os.Stdout, infos)
	return nil
}
