// Package pipeline drives pages through extraction, enrichment and accumulation.
package pipeline

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/stream"

	"github.com/pable/go-nrl-stats/internal/aggregator"
	"github.com/pable/go-nrl-stats/internal/extract"
	"github.com/pable/go-nrl-stats/internal/logging"
	"github.com/pable/go-nrl-stats/internal/model"
	"github.com/pable/go-nrl-stats/internal/scraper"
)

// PageStat records what one page contributed.
type PageStat struct {
	Round   string
	URL     string
	Players int
}

// Result is the finished table.
type Result struct {
	Headers []string
	Rows    []model.PlayerRecord
	Pages   []PageStat
}

// Runner fetches pages from Source and builds one table from them.
type Runner struct {
	Source    scraper.PageSource
	Extractor *extract.Extractor
	// Concurrency is the number of pages fetched at once. Values below 2 run sequentially.
	Concurrency int
	// Seed pre-populates the header set (e.g. model.CanonicalHeaders()).
	Seed []string
	Log  *logging.Logger
}

// Run processes refs in order. Rows and headers come out in ref order regardless of
// Concurrency. The first failing page cancels the rest and its error is returned; no
// partial table is returned in that case.
func (r *Runner) Run(ctx context.Context, refs []scraper.PageRef) (*Result, error) {
	if r.Source == nil {
		return nil, crerr.New("pipeline: no page source")
	}
	acc := aggregator.NewAccumulator(r.Seed)
	res := &Result{}

	if r.Concurrency < 2 {
		for _, ref := range refs {
			recs, err := r.processPage(ctx, ref)
			if err != nil {
				return nil, err
			}
			acc.ObserveAll(recs)
			res.Pages = append(res.Pages, PageStat{Round: ref.Round, URL: ref.URL, Players: len(recs)})
		}
		return r.finish(acc, res), nil
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// Callbacks run one at a time in submission order, so the accumulator has a single
	// writer and sees pages in ref order.
	s := stream.New().WithMaxGoroutines(r.Concurrency)
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		s.Go(func() stream.Callback {
			recs, err := r.processPage(ctx, ref)
			if err != nil {
				cancel(err)
				return func() {}
			}
			return func() {
				if ctx.Err() != nil {
					return
				}
				acc.ObserveAll(recs)
				res.Pages = append(res.Pages, PageStat{Round: ref.Round, URL: ref.URL, Players: len(recs)})
			}
		})
	}
	s.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return r.finish(acc, res), nil
}

func (r *Runner) processPage(ctx context.Context, ref scraper.PageRef) ([]model.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := r.logger()
	start := time.Now()

	page, err := r.Source.FetchPage(ctx, ref)
	if err != nil {
		return nil, crerr.Wrapf(err, "round %q", ref.Round)
	}
	if page == nil {
		return nil, crerr.Newf("round %q: source returned no page", ref.Round)
	}
	if page.Round == "" {
		page.Round = ref.Round
	}
	if page.URL == "" {
		page.URL = ref.URL
	}

	ex := r.Extractor
	if ex == nil {
		ex = &extract.Extractor{Log: log}
	}
	recs := ex.ExtractPage(page)
	aggregator.EnrichAll(recs)

	log.Info("page processed", "round", page.Round, "format", string(page.Format),
		"players", len(recs), "elapsed", time.Since(start))
	return recs, nil
}

func (r *Runner) finish(acc *aggregator.Accumulator, res *Result) *Result {
	res.Headers = acc.Headers()
	res.Rows = acc.Rows()
	r.logger().Debug("table assembled", "rows", len(res.Rows), "columns", len(res.Headers))
	return res
}

func (r *Runner) logger() *logging.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logging.Default()
}
