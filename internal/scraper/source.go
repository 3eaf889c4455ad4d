// Package scraper retrieves match-centre pages and hands them over as raw player bundles.
package scraper

import (
	"context"
	"strings"

	crerr "github.com/cockroachdb/errors"

	"github.com/pable/go-nrl-stats/internal/model"
)

// RoundPlaceholder is substituted with the round number in URL templates.
const RoundPlaceholder = "{round}"

var (
	// ErrUnreachable means the page (or feed) could not be loaded at all.
	ErrUnreachable = crerr.New("page unreachable")
	// ErrMarkerTimeout means the page loaded but the stats table never appeared.
	ErrMarkerTimeout = crerr.New("stats table did not appear")
)

// PageRef identifies one match page.
type PageRef struct {
	Round string
	URL   string
}

// PageSource fetches one page's raw player bundles.
type PageSource interface {
	FetchPage(ctx context.Context, ref PageRef) (*model.RawPage, error)
}

// SourceFunc adapts a function to PageSource.
type SourceFunc func(ctx context.Context, ref PageRef) (*model.RawPage, error)

func (f SourceFunc) FetchPage(ctx context.Context, ref PageRef) (*model.RawPage, error) {
	return f(ctx, ref)
}

// BuildRefs expands a URL template over rounds and appends explicit URLs. An explicit URL
// gets an empty round unless it is given as "round=url".
func BuildRefs(template string, rounds []string, urls []string) []PageRef {
	var refs []PageRef
	if template != "" {
		for _, r := range rounds {
			r = strings.TrimSpace(r)
			if r == "" {
				continue
			}
			refs = append(refs, PageRef{Round: r, URL: strings.ReplaceAll(template, RoundPlaceholder, r)})
		}
	}
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		ref := PageRef{URL: u}
		if round, rest, ok := strings.Cut(u, "="); ok && !strings.Contains(round, "/") {
			ref = PageRef{Round: round, URL: rest}
		}
		refs = append(refs, ref)
	}
	return refs
}

// unreachable wraps err as ErrUnreachable with a hint for the operator.
func unreachable(err error, ref PageRef) error {
	err = crerr.Mark(crerr.Wrapf(err, "fetch %s", ref.URL), ErrUnreachable)
	return crerr.WithHint(err, "check the URL and your network connection; --html-dir reads saved pages instead")
}
