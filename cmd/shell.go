package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-nrl-stats/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session against the page cache",
	Long:  "Open a persistent session against the page cache. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	path, err := cachePath()
	if err != nil {
		return err
	}
	db, err := storage.Open(path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	cGreeting.Println("nrlstats shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	sh := &shell{db: db, in: cmd.InOrStdin()}
	return sh.loop(cmd)
}

type shell struct {
	db *storage.DB
	in io.Reader
}

func (sh *shell) loop(cmd *cobra.Command) error {
	scanner := bufio.NewScanner(sh.in)
	for {
		cPrompt.Print("nrlstats")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := sh.exec(cmd, line); quit {
			return nil
		}
	}
}

// exec runs one shell line and reports whether the session should end.
func (sh *shell) exec(cmd *cobra.Command, line string) bool {
	tokens := strings.Fields(line)
	name, args := tokens[0], tokens[1:]

	var err error
	switch name {
	case "exit", "quit":
		return true
	case "help":
		shellHelp()
	case "list":
		err = printPages(sh.db)
	case "runs":
		limit := 20
		if len(args) > 0 {
			if n, perr := strconv.Atoi(args[0]); perr == nil && n > 0 {
				limit = n
			}
		}
		err = printRuns(sh.db, limit)
	case "show":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: show <round|url> [limit]")
			return false
		}
		limit := 0
		if len(args) > 1 {
			limit, _ = strconv.Atoi(args[1])
		}
		err = showPage(cmd.Context(), sh.db, args[0], limit, true)
	case "sql":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: sql <query>")
			return false
		}
		err = printQuery(sh.db, strings.TrimSpace(strings.TrimPrefix(line, name)))
	case "stats":
		err = runStats(cmd, args)
	default:
		cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
	}
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return false
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list cached pages"},
		{"runs [n]", "list the last n scrape runs"},
		{"show <round|url> [limit]", "show a cached page as a stats table"},
		{"sql <query>", "run a raw SQL query against the cache"},
		{"stats [code...]", "list known stat codes"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-28s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}
