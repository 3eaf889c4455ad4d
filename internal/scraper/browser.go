package scraper

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	crerr "github.com/cockroachdb/errors"

	"github.com/pable/go-nrl-stats/internal/logging"
	"github.com/pable/go-nrl-stats/internal/model"
)

// DefaultWaitTimeout bounds how long Browser waits for the stats table.
const DefaultWaitTimeout = 30 * time.Second

// extractJS collects header keys and every row's raw fields in one round trip.
const extractJS = `(() => {
	const txt = el => el ? el.innerText.trim() : '';
	const rowSel = '` + RowSelector + `';
	const colSel = '` + StatColumnSelector + `';
	const headers = Array.from(document.querySelectorAll(colSel))
		.filter(el => !el.closest(rowSel))
		.map(el => el.getAttribute('` + OrderByAttr + `'))
		.filter(Boolean);
	const rows = Array.from(document.querySelectorAll(rowSel)).map(row => {
		const fields = {};
		row.querySelectorAll('[` + StatAttr + `]').forEach(c => {
			const k = (c.getAttribute('` + StatAttr + `') || '').trim();
			if (k) fields[k] = txt(c);
		});
		return {
			name: txt(row.querySelector('` + NameSelector + `') || row.querySelector('` + PlayerColSelector + `')),
			opponent: txt(row.querySelector('` + OpponentSelector + `')),
			positions: txt(row.querySelector('` + PositionsSelector + `')),
			cost: txt(row.querySelector('` + CostSelector + `')),
			cells: Array.from(row.querySelectorAll(colSel)).map(txt),
			fields: fields,
		};
	});
	return {headers, rows};
})()`

type browserPage struct {
	Headers []string `json:"headers"`
	Rows    []struct {
		Name      string            `json:"name"`
		Opponent  string            `json:"opponent"`
		Positions string            `json:"positions"`
		Cost      string            `json:"cost"`
		Cells     []string          `json:"cells"`
		Fields    map[string]string `json:"fields"`
	} `json:"rows"`
}

// Browser renders pages in headless Chrome. One browser process is shared; each fetch gets
// its own tab, so FetchPage is safe for concurrent use.
type Browser struct {
	Headless    bool
	WaitTimeout time.Duration
	Format      model.PageFormat
	Log         *logging.Logger

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc
}

// Start launches the browser. Close must be called when done.
func (b *Browser) Start(ctx context.Context) error {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts, chromedp.Flag("headless", b.Headless))

	b.allocCtx, b.cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)
	b.browserCtx, b.cancelTab = chromedp.NewContext(b.allocCtx)

	// Running an empty task list starts the browser process.
	if err := chromedp.Run(b.browserCtx); err != nil {
		b.Close()
		return crerr.WithHint(crerr.Wrap(err, "start browser"),
			"a Chrome or Chromium binary must be installed; use --source html or --source feed otherwise")
	}
	return nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	if b.cancelTab != nil {
		b.cancelTab()
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
}

func (b *Browser) FetchPage(ctx context.Context, ref PageRef) (*model.RawPage, error) {
	if b.browserCtx == nil {
		return nil, crerr.New("browser not started")
	}
	log := b.Log
	if log == nil {
		log = logging.Default()
	}

	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()
	// Stop the tab when the caller's context ends.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()
	if err := chromedp.Run(tabCtx, chromedp.Navigate(ref.URL)); err != nil {
		return nil, unreachable(err, ref)
	}

	timeout := b.WaitTimeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	waitCtx, cancelWait := context.WithTimeout(tabCtx, timeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(RowSelector, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		err = crerr.Mark(crerr.Wrapf(err, "wait for %s on %s", RowSelector, ref.URL), ErrMarkerTimeout)
		return nil, crerr.WithHintf(err, "no player rows after %s; raise source.wait_timeout or check the round has been played", timeout)
	}

	var raw browserPage
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(extractJS, &raw)); err != nil {
		return nil, crerr.Wrapf(err, "extract rows from %s", ref.URL)
	}

	page := &model.RawPage{Round: ref.Round, URL: ref.URL, Format: b.Format}
	for _, h := range raw.Headers {
		page.Headers = append(page.Headers, model.StripHeaderPrefix(h))
	}
	named := false
	for _, r := range raw.Rows {
		p := model.RawPlayer{
			Name: r.Name, Opponent: r.Opponent, Positions: r.Positions, Cost: r.Cost,
			Cells: r.Cells,
		}
		if len(r.Fields) > 0 {
			p.Fields = r.Fields
			named = true
		}
		page.Players = append(page.Players, p)
	}
	if page.Format == "" {
		page.Format = model.FormatPositional
		if named && len(page.Headers) == 0 {
			page.Format = model.FormatNamed
		}
	}

	log.Debug("page rendered", "round", ref.Round, "url", ref.URL,
		"players", len(page.Players), "elapsed", time.Since(start))
	return page, nil
}
