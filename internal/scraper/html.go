package scraper

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"

	"github.com/pable/go-nrl-stats/internal/model"
)

// Match-centre markup. The browser script in browser.go reads the same selectors.
const (
	RowSelector        = ".match-centre-row"
	StatColumnSelector = `.column[class*="js-order-by"]`
	OrderByAttr        = "data-order-by"
	StatAttr           = "data-stat"
	NameSelector       = ".player-name"
	PlayerColSelector  = ".player-column"
	OpponentSelector   = ".player-opponent"
	PositionsSelector  = ".player-positions"
	CostSelector       = ".player-cost"
)

// ParseHTML reads a saved match-centre page. With format "" the layout is detected: rows
// carrying data-stat cells are named, anything else is positional.
func ParseHTML(r io.Reader, ref PageRef, format model.PageFormat) (*model.RawPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, crerr.Wrap(err, "parse html")
	}

	rows := doc.Find(RowSelector)
	if rows.Length() == 0 {
		return nil, crerr.WithHint(
			crerr.Mark(crerr.Newf("no %s elements in %s", RowSelector, ref.URL), ErrMarkerTimeout),
			"the page may not have finished rendering when it was saved")
	}

	page := &model.RawPage{Round: ref.Round, URL: ref.URL}

	// Header cells live outside the player rows and carry the order-by key.
	doc.Find(StatColumnSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Closest(RowSelector).Length() > 0 {
			return
		}
		if key, ok := s.Attr(OrderByAttr); ok && strings.TrimSpace(key) != "" {
			page.Headers = append(page.Headers, model.StripHeaderPrefix(key))
		}
	})

	named := false
	rows.Each(func(_ int, row *goquery.Selection) {
		p := model.RawPlayer{
			Name:      playerName(row),
			Opponent:  text(row.Find(OpponentSelector)),
			Positions: text(row.Find(PositionsSelector)),
			Cost:      text(row.Find(CostSelector)),
		}
		row.Find(StatColumnSelector).Each(func(_ int, c *goquery.Selection) {
			p.Cells = append(p.Cells, text(c))
		})
		row.Find("[" + StatAttr + "]").Each(func(_ int, c *goquery.Selection) {
			key, _ := c.Attr(StatAttr)
			if key = strings.TrimSpace(key); key == "" {
				return
			}
			if p.Fields == nil {
				p.Fields = make(map[string]string)
			}
			p.Fields[key] = text(c)
			named = true
		})
		page.Players = append(page.Players, p)
	})

	switch {
	case format != "":
		page.Format = format
	case named && len(page.Headers) == 0:
		page.Format = model.FormatNamed
	default:
		page.Format = model.FormatPositional
	}
	return page, nil
}

func playerName(row *goquery.Selection) string {
	if n := row.Find(NameSelector); n.Length() > 0 {
		return text(n)
	}
	return text(row.Find(PlayerColSelector))
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.First().Text())
}

// Dir reads pages saved as <Root>/<round>.html. A ref without a round is looked up by the
// base name of its URL.
type Dir struct {
	Root   string
	Format model.PageFormat
}

func (d Dir) FetchPage(ctx context.Context, ref PageRef) (*model.RawPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := d.pathFor(ref)
	f, err := os.Open(path)
	if err != nil {
		return nil, crerr.WithHint(
			crerr.Mark(crerr.Wrapf(err, "open %s", path), ErrUnreachable),
			"save each round as <round>.html in the html directory")
	}
	defer f.Close()
	return ParseHTML(f, ref, d.Format)
}

func (d Dir) pathFor(ref PageRef) string {
	name := ref.Round
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(ref.URL), ".html")
	}
	return filepath.Join(d.Root, name+".html")
}
