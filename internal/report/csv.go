// Package report renders the accumulated table: delimited text, Excel workbooks and
// terminal previews.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pable/go-nrl-stats/internal/model"
	"github.com/valyala/bytebufferpool"
)

// CSVOptions controls delimited output.
type CSVOptions struct {
	Delimiter rune
	// Quote escapes fields that contain the delimiter, a quote or a line break. With Quote
	// off, cells are joined as-is and such values corrupt the row.
	Quote bool
}

// DefaultCSVOptions is comma-separated with quoting.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', Quote: true}
}

// ParseDelimiter accepts a single character or the names "tab", "comma", "semicolon", "pipe".
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "comma":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || !validDelim(r) {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

func validDelim(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError
}

// RenderCSV writes a header line followed by one line per row. Each row has exactly
// len(headers) fields; a header the row does not carry renders as an empty field.
func RenderCSV(w io.Writer, headers []string, rows []model.PlayerRecord, opts CSVOptions) error {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if !validDelim(opts.Delimiter) {
		return fmt.Errorf("invalid delimiter %q", opts.Delimiter)
	}

	if !opts.Quote {
		return renderRaw(w, headers, rows, string(opts.Delimiter))
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.Delimiter
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(rowCells(headers, &rows[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderRaw(w io.Writer, headers []string, rows []model.PlayerRecord, sep string) error {
	if _, err := io.WriteString(w, strings.Join(headers, sep)+"\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		line := strings.Join(rowCells(headers, &rows[i]), sep) + "\n"
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

// WriteFile renders the table in memory and replaces path with it in one step. If rendering
// or writing fails, whatever was at path before is left untouched.
func WriteFile(path string, headers []string, rows []model.PlayerRecord, opts CSVOptions) error {
	st, err := StageCSV(path, headers, rows, opts)
	if err != nil {
		return err
	}
	return st.Commit()
}

// StageCSV renders the table into a temp file next to path. Nothing at path changes until
// the returned Staged is committed.
func StageCSV(path string, headers []string, rows []model.PlayerRecord, opts CSVOptions) (*Staged, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := RenderCSV(buf, headers, rows, opts); err != nil {
		return nil, err
	}
	return stage(path, ".tmp", func(tmp *os.File) error {
		_, err := tmp.Write(buf.B)
		return err
	})
}

// CountUnsafe returns how many cells would break a raw (unquoted) join: cells containing the
// delimiter, a quote or a line break.
func CountUnsafe(headers []string, rows []model.PlayerRecord, delim rune) int {
	bad := string(delim) + "\"\r\n"
	n := 0
	for _, h := range headers {
		if strings.ContainsAny(h, bad) {
			n++
		}
	}
	for i := range rows {
		for _, c := range rowCells(headers, &rows[i]) {
			if strings.ContainsAny(c, bad) {
				n++
			}
		}
	}
	return n
}
