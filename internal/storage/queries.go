package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/pable/go-nrl-stats/internal/model"
)

const timeLayout = time.RFC3339

// Page is one cached raw page plus its bookkeeping columns.
type Page struct {
	Key         string
	Round       string
	URL         string
	Format      model.PageFormat
	FetchedAt   time.Time
	RunID       string
	PlayerCount int
	Raw         *model.RawPage
}

// Run is one scrape invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Pages      int
	Rows       int
	Output     string
}

// CacheKey identifies a page in the cache: its URL, or the round when there is no URL.
func CacheKey(round, url string) string {
	if url != "" {
		return url
	}
	return "round:" + round
}

// PageExists returns true if a page with the given key is already cached.
func (db *DB) PageExists(key string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM pages WHERE cache_key = ?", key).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertPage stores a raw page under key. Uses INSERT OR REPLACE so a refetch overwrites
// the entry.
func (db *DB) InsertPage(key string, page *model.RawPage, runID string, fetchedAt time.Time) error {
	payload, err := sonic.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT OR REPLACE INTO pages(cache_key, round, url, format, fetched_at, run_id, player_count, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key, page.Round, page.URL, string(page.Format),
		fetchedAt.UTC().Format(timeLayout), runID, len(page.Players), string(payload),
	)
	return err
}

const pageColumns = `cache_key, round, url, format, fetched_at, run_id, player_count, payload`

func scanPage(scan func(dest ...any) error, withPayload bool) (*Page, error) {
	var (
		p         Page
		format    string
		fetchedAt string
		payload   string
	)
	if err := scan(&p.Key, &p.Round, &p.URL, &format, &fetchedAt, &p.RunID, &p.PlayerCount, &payload); err != nil {
		return nil, err
	}
	p.Format = model.PageFormat(format)
	if t, err := time.Parse(timeLayout, fetchedAt); err == nil {
		p.FetchedAt = t
	}
	if withPayload {
		var raw model.RawPage
		if err := sonic.UnmarshalString(payload, &raw); err != nil {
			return nil, fmt.Errorf("decode page %s: %w", p.Key, err)
		}
		p.Raw = &raw
	}
	return &p, nil
}

// GetPage returns the cached page for key, or nil if there is none.
func (db *DB) GetPage(key string) (*Page, error) {
	row := db.conn.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE cache_key = ?`, key)
	p, err := scanPage(row.Scan, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FindPage returns the most recently fetched page whose key, URL or round equals ref.
func (db *DB) FindPage(ref string) (*Page, error) {
	row := db.conn.QueryRow(`
		SELECT `+pageColumns+` FROM pages
		WHERE cache_key = ? OR url = ? OR round = ?
		ORDER BY fetched_at DESC LIMIT 1`, ref, ref, ref)
	p, err := scanPage(row.Scan, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListPages returns every cached page without payloads, newest first.
func (db *DB) ListPages() ([]Page, error) {
	rows, err := db.conn.Query(`SELECT ` + pageColumns + ` FROM pages ORDER BY fetched_at DESC, round`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Page
	for rows.Next() {
		p, err := scanPage(rows.Scan, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DeletePage removes the page with the given key, URL or round. It returns the number of
// entries removed.
func (db *DB) DeletePage(ref string) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM pages WHERE cache_key = ? OR url = ? OR round = ?`, ref, ref, ref)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartRun records the start of a scrape.
func (db *DB) StartRun(id string, at time.Time) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO runs(id, started_at) VALUES (?, ?)`,
		id, at.UTC().Format(timeLayout))
	return err
}

// FinishRun stores the outcome of a scrape.
func (db *DB) FinishRun(r Run) error {
	_, err := db.conn.Exec(`
		UPDATE runs SET finished_at = ?, status = ?, page_count = ?, row_count = ?, output = ?
		WHERE id = ?`,
		r.FinishedAt.UTC().Format(timeLayout), r.Status, r.Pages, r.Rows, r.Output, r.ID)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, status, page_count, row_count, output
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Status, &r.Pages, &r.Rows, &r.Output); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
