package scraper

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/pable/go-nrl-stats/internal/model"
)

// Throttle limits how often Next is asked for a page.
type Throttle struct {
	Next    PageSource
	limiter *rate.Limiter
}

// NewThrottle allows perSecond fetches per second with a burst of one. perSecond <= 0
// disables limiting.
func NewThrottle(next PageSource, perSecond float64) *Throttle {
	lim := rate.NewLimiter(rate.Inf, 0)
	if perSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &Throttle{Next: next, limiter: lim}
}

func (t *Throttle) FetchPage(ctx context.Context, ref PageRef) (*model.RawPage, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.Next.FetchPage(ctx, ref)
}
