package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-nrl-stats/internal/extract"
	"github.com/pable/go-nrl-stats/internal/logging"
	"github.com/pable/go-nrl-stats/internal/model"
	"github.com/pable/go-nrl-stats/internal/scraper"
)

// fakeSource serves positional pages whose only stat column is named after the round,
// so header order shows the order pages were accumulated in.
type fakeSource struct {
	delay func(round int) time.Duration
	fail  map[string]error
	calls atomic.Int32
}

func (f *fakeSource) FetchPage(ctx context.Context, ref scraper.PageRef) (*model.RawPage, error) {
	f.calls.Add(1)
	var n int
	fmt.Sscanf(ref.Round, "%d", &n)
	if f.delay != nil {
		select {
		case <-time.After(f.delay(n)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.fail[ref.Round]; ok {
		return nil, err
	}
	return &model.RawPage{
		Format:  model.FormatPositional,
		Headers: []string{"TCK", "R" + ref.Round},
		Players: []model.RawPlayer{
			{Name: "p" + ref.Round, Positions: "HLF", Cells: []string{ref.Round, "1"}},
		},
	}, nil
}

func refs(n int) []scraper.PageRef {
	out := make([]scraper.PageRef, n)
	for i := range out {
		r := fmt.Sprint(i + 1)
		out[i] = scraper.PageRef{Round: r, URL: "https://example.test/" + r}
	}
	return out
}

func newRunner(src scraper.PageSource, concurrency int) *Runner {
	return &Runner{
		Source:      src,
		Extractor:   &extract.Extractor{Pricing: true, Log: logging.NewNop()},
		Concurrency: concurrency,
		Log:         logging.NewNop(),
	}
}

func TestRun_Sequential(t *testing.T) {
	res, err := newRunner(&fakeSource{}, 1).Run(context.Background(), refs(3))
	require.NoError(t, err)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, "1", res.Rows[0].Round)
	assert.Equal(t, "p3", res.Rows[2].Name)
	assert.Equal(t, 3.0, res.Rows[2].TotalBase)
	assert.Equal(t, []string{
		model.ColRound, model.ColPlayer, model.ColPosition1, model.ColPosition2, model.ColCost,
		model.ColTotalBase, "TCK", "R1", "R2", "R3",
	}, res.Headers)
	assert.Len(t, res.Pages, 3)
	assert.Equal(t, 1, res.Pages[0].Players)
}

func TestRun_ParallelKeepsOrder(t *testing.T) {
	// Later rounds finish first.
	src := &fakeSource{delay: func(n int) time.Duration { return time.Duration(10-n) * 5 * time.Millisecond }}
	res, err := newRunner(src, 4).Run(context.Background(), refs(8))
	require.NoError(t, err)

	require.Len(t, res.Rows, 8)
	for i, row := range res.Rows {
		assert.Equal(t, fmt.Sprint(i+1), row.Round)
	}
	want := []string{"R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8"}
	assert.Equal(t, want, res.Headers[len(res.Headers)-8:])
}

func TestRun_SequentialAndParallelAgree(t *testing.T) {
	seq, err := newRunner(&fakeSource{}, 1).Run(context.Background(), refs(6))
	require.NoError(t, err)
	par, err := newRunner(&fakeSource{}, 3).Run(context.Background(), refs(6))
	require.NoError(t, err)

	assert.Equal(t, seq.Headers, par.Headers)
	assert.Equal(t, seq.Rows, par.Rows)
}

func TestRun_FailureAborts(t *testing.T) {
	boom := errors.New("navigation failed")
	for _, c := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", c), func(t *testing.T) {
			src := &fakeSource{
				delay: func(n int) time.Duration { return time.Duration(n) * time.Millisecond },
				fail:  map[string]error{"2": boom},
			}
			res, err := newRunner(src, c).Run(context.Background(), refs(20))
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, boom)
			assert.Less(t, int(src.calls.Load()), 20)
		})
	}
}

func TestRun_SeedHeaders(t *testing.T) {
	r := newRunner(&fakeSource{}, 1)
	r.Seed = model.CanonicalHeaders()
	res, err := r.Run(context.Background(), refs(1))
	require.NoError(t, err)

	seed := model.CanonicalHeaders()
	assert.Equal(t, seed, res.Headers[:len(seed)])
	assert.Equal(t, "R1", res.Headers[len(res.Headers)-1])
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(&fakeSource{}, 2).Run(ctx, refs(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_NoSource(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background(), refs(1))
	assert.Error(t, err)
}
