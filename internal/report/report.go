package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pable/go-nrl-stats/internal/model"
)

// RunSummary is the one-line footer printed after a run.
type RunSummary struct {
	Pages   int
	Rows    int
	Columns int
	Output  string
}

// PrintRunSummary prints a one-line summary of a completed run.
func PrintRunSummary(w io.Writer, s RunSummary) {
	out := s.Output
	if out == "" {
		out = "(none)"
	}
	fmt.Fprintf(w, "\nPages: %d  |  Rows: %d  |  Columns: %d  |  Output: %s\n\n",
		s.Pages, s.Rows, s.Columns, out)
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintTable previews the accumulated table. limit <= 0 prints every row.
func PrintTable(w io.Writer, headers []string, rows []model.PlayerRecord, limit int) {
	table := newTable(w)
	table.Header(toAny(headers)...)

	n := len(rows)
	if limit > 0 && limit < n {
		n = limit
	}
	for i := 0; i < n; i++ {
		table.Append(toAny(rowCells(headers, &rows[i]))...)
	}
	table.Render()

	if n < len(rows) {
		fmt.Fprintf(w, "... %d more rows\n", len(rows)-n)
	}
}

// PrintStatDefs prints the stat table: code, label, source field and base membership.
func PrintStatDefs(w io.Writer, defs []model.StatDef) {
	table := newTable(w)
	table.Header("CODE", "LABEL", "FIELD", "BASE")
	for _, d := range defs {
		base := ""
		if d.Base {
			base = "yes"
		}
		table.Append(d.Code, d.Label, d.Field, base)
	}
	table.Render()
}

// PageInfo is the listing view of one cached page.
type PageInfo struct {
	Round       string
	URL         string
	Format      string
	FetchedAt   string
	PlayerCount int
	RunID       string
}

// PrintPageList prints cached pages.
func PrintPageList(w io.Writer, pages []PageInfo) {
	table := newTable(w)
	table.Header("ROUND", "FORMAT", "PLAYERS", "FETCHED", "RUN", "URL")
	for _, p := range pages {
		table.Append(
			p.Round,
			p.Format,
			strconv.Itoa(p.PlayerCount),
			p.FetchedAt,
			shortID(p.RunID),
			p.URL,
		)
	}
	table.Render()
}

// rowCells renders one record against the header set. Missing cells come back empty.
func rowCells(headers []string, rec *model.PlayerRecord) []string {
	cells := rec.CellMap()
	out := make([]string, len(headers))
	for i, h := range headers {
		if v, ok := cells[h]; ok {
			out[i] = v.String()
		}
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RunInfo is the listing view of one recorded run.
type RunInfo struct {
	ID       string
	Started  string
	Duration string
	Status   string
	Pages    int
	Rows     int
	Output   string
}

// PrintRunList prints recorded runs.
func PrintRunList(w io.Writer, runs []RunInfo) {
	table := newTable(w)
	table.Header("RUN", "STARTED", "TOOK", "STATUS", "PAGES", "ROWS", "OUTPUT")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			r.Started,
			r.Duration,
			r.Status,
			strconv.Itoa(r.Pages),
			strconv.Itoa(r.Rows),
			r.Output,
		)
	}
	table.Render()
}

// PrintQueryResult prints the result of an ad-hoc query. Cells are left as returned.
func PrintQueryResult(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	table.Header(toAny(cols)...)
	for _, row := range rows {
		table.Append(toAny(row)...)
	}
	table.Render()
}
