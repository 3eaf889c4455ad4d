package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pable/go-nrl-stats/internal/logging"
	"github.com/pable/go-nrl-stats/internal/model"
	"github.com/pable/go-nrl-stats/internal/scraper"
)

// CachedSource serves pages from the cache and falls through to Next on a miss, storing
// what Next returns. With Refresh set every page is refetched and overwritten.
type CachedSource struct {
	DB      *DB
	Next    scraper.PageSource
	RunID   string
	Refresh bool
	Log     *logging.Logger

	// Now is overridable in tests.
	Now func() time.Time

	mu     sync.Mutex
	hits   int
	misses int
}

func (c *CachedSource) FetchPage(ctx context.Context, ref scraper.PageRef) (*model.RawPage, error) {
	log := c.Log
	if log == nil {
		log = logging.Default()
	}
	key := CacheKey(ref.Round, ref.URL)

	if !c.Refresh {
		c.mu.Lock()
		p, err := c.DB.GetPage(key)
		c.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("read cache %s: %w", key, err)
		}
		if p != nil {
			c.count(true)
			log.Debug("cache hit", "key", key, "fetched_at", p.FetchedAt)
			return p.Raw, nil
		}
	}

	page, err := c.Next.FetchPage(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.count(false)

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	c.mu.Lock()
	err = c.DB.InsertPage(key, page, c.RunID, now())
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write cache %s: %w", key, err)
	}
	return page, nil
}

func (c *CachedSource) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

// Stats returns cache hits and misses so far.
func (c *CachedSource) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
