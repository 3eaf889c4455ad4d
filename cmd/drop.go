package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-nrl-stats/internal/storage"
)

var (
	dropForce bool
	dropPage  string
)

// dropCmd deletes the page cache, or a single page from it.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the page cache",
	Long:  "Permanently delete the SQLite page cache, or with --page a single cached page. Pages are refetched on the next scrape.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropPage, "page", "", "only remove the page with this round, URL or key")
}

func runDrop(cmd *cobra.Command, args []string) error {
	path, err := cachePath()
	if err != nil {
		return err
	}

	if dropPage != "" {
		db, err := storage.Open(path)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()
		n, err := db.DeletePage(dropPage)
		if err != nil {
			return fmt.Errorf("delete page: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Removed %d cached page(s) matching %q\n", n, dropPage)
		return nil
	}

	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", path)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Cache does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove cache: %w", err)
	}
	// WAL side files.
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", path)
	return nil
}
