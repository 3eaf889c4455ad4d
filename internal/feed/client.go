// Package feed provides a minimal client for the match-centre JSON feed.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/pable/go-nrl-stats/internal/model"
	"github.com/pable/go-nrl-stats/internal/scraper"
)

// maxBody caps how much of a feed response is read.
const maxBody = 16 << 20

// Client is a minimal match-centre feed client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a feed client rooted at baseURL. token is sent as a bearer token when set.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Round is the body of /rounds/{round}.json.
type Round struct {
	Round   string   `json:"round"`
	Players []Player `json:"players"`
}

// Player is one entry of Round.Players. Stat values arrive as numbers or strings.
type Player struct {
	Name      string         `json:"name"`
	Opponent  string         `json:"opponent"`
	Positions string         `json:"positions"`
	Cost      any            `json:"cost"`
	Stats     map[string]any `json:"stats"`
}

// RoundPath returns the feed path for a round.
func RoundPath(round string) string {
	return "/rounds/" + url.PathEscape(round) + ".json"
}

// get performs a GET request against the feed and decodes the response body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return crerr.Mark(fmt.Errorf("GET %s: %w", path, err), scraper.ErrUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := crerr.Mark(fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode), scraper.ErrUnreachable)
		if resp.StatusCode == http.StatusNotFound {
			err = crerr.WithHint(err, "the round may not have been played yet")
		}
		return err
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

// GetRound fetches one round's players.
func (c *Client) GetRound(ctx context.Context, round string) (*Round, error) {
	var r Round
	if err := c.get(ctx, RoundPath(round), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// FetchPage implements scraper.PageSource. The feed is always named-format.
func (c *Client) FetchPage(ctx context.Context, ref scraper.PageRef) (*model.RawPage, error) {
	r, err := c.GetRound(ctx, ref.Round)
	if err != nil {
		return nil, err
	}

	page := &model.RawPage{
		Round:  ref.Round,
		URL:    c.baseURL + RoundPath(ref.Round),
		Format: model.FormatNamed,
	}
	if page.Round == "" {
		page.Round = r.Round
	}
	for _, p := range r.Players {
		rp := model.RawPlayer{
			Name:      p.Name,
			Opponent:  p.Opponent,
			Positions: p.Positions,
			Cost:      rawText(p.Cost),
			CostUnits: isNumber(p.Cost),
			Fields:    make(map[string]string, len(p.Stats)),
		}
		for k, v := range p.Stats {
			rp.Fields[k] = rawText(v)
		}
		page.Players = append(page.Players, rp)
	}
	return page, nil
}

// isNumber reports whether a decoded JSON cost was a bare number. The feed gives those in
// currency units; strings carry the displayed "$530k" form.
func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}

// rawText turns a decoded JSON scalar back into source text for the coercer.
func rawText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
