package aggregator

import "github.com/pable/go-nrl-stats/internal/model"

// Accumulator collects rows and the union of their columns in first-seen order.
// It has a single writer; callers serialize Observe.
type Accumulator struct {
	headers []string
	seen    map[string]struct{}
	rows    []model.PlayerRecord
}

// NewAccumulator returns an accumulator whose header set starts with seed (duplicates in
// seed are dropped).
func NewAccumulator(seed []string) *Accumulator {
	a := &Accumulator{seen: make(map[string]struct{}, len(seed))}
	for _, h := range seed {
		a.addHeader(h)
	}
	return a
}

func (a *Accumulator) addHeader(h string) {
	if _, ok := a.seen[h]; ok {
		return
	}
	a.seen[h] = struct{}{}
	a.headers = append(a.headers, h)
}

// Observe appends rec and any of its columns not seen before.
func (a *Accumulator) Observe(rec model.PlayerRecord) {
	for _, c := range rec.Columns() {
		a.addHeader(c.Name)
	}
	a.rows = append(a.rows, rec)
}

// ObserveAll observes recs in order.
func (a *Accumulator) ObserveAll(recs []model.PlayerRecord) {
	for _, r := range recs {
		a.Observe(r)
	}
}

// Headers returns a copy of the current header set.
func (a *Accumulator) Headers() []string {
	out := make([]string, len(a.headers))
	copy(out, a.headers)
	return out
}

// Rows returns the accumulated rows in input order. The slice is shared; do not modify.
func (a *Accumulator) Rows() []model.PlayerRecord { return a.rows }

func (a *Accumulator) Len() int { return len(a.rows) }
