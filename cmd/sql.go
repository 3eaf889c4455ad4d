package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-nrl-stats/internal/report"
	"github.com/pable/go-nrl-stats/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the page cache",
	Long: `Run an arbitrary SQL query against the page cache and print results as a table.

Schema overview:
  pages(cache_key, round, url, format, fetched_at, run_id, player_count, payload)
  runs(id, started_at, finished_at, status, page_count, row_count, output)

payload is the raw page as JSON. SQLite's JSON functions work on it, e.g.
  SELECT round, json_array_length(payload, '$.players') FROM pages`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	path, err := cachePath()
	if err != nil {
		return err
	}
	db, err := storage.Open(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	return printQuery(db, query)
}

func printQuery(db *storage.DB, query string) error {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	report.PrintQueryResult(os.Stdout, cols, rows)
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
