package model

import "strings"

// Output column names for the fixed (non-stat) part of a record.
const (
	ColRound     = "Round"
	ColPlayer    = "Player"
	ColTeam      = "Team"
	ColPosition1 = "Position 1"
	ColPosition2 = "Position 2"
	ColCost      = "Cost"
	ColPricedAt  = "Priced at"
	ColTotalBase = "Total base"
	ColPremium   = "Base exceeds price premium"
)

// PageFormat tells the extractor how stat cells are laid out on a page.
type PageFormat string

const (
	// FormatPositional pages expose an ordered header list and ordered cells per row.
	FormatPositional PageFormat = "positional"
	// FormatNamed pages expose each stat under an explicit field name.
	FormatNamed PageFormat = "named"
)

// ParseFormat maps a config/flag string onto a PageFormat. Unknown values fall back to positional.
func ParseFormat(s string) PageFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FormatNamed):
		return FormatNamed
	default:
		return FormatPositional
	}
}

// ---- Raw bundles handed over by a page source ----

// RawPlayer is one player's raw field set as read from a page. Every value is unparsed text.
type RawPlayer struct {
	Name      string            `json:"name"`
	Opponent  string            `json:"opponent"`
	Positions string            `json:"positions"`
	Cost      string            `json:"cost"`
	CostUnits bool              `json:"cost_units,omitempty"` // Cost is already in currency units, not thousands
	Cells     []string          `json:"cells,omitempty"`  // positional: matched against RawPage.Headers
	Fields    map[string]string `json:"fields,omitempty"` // named: keyed by stat source field
}

// RawPage is everything a source returns for one match page.
type RawPage struct {
	Round   string      `json:"round"`
	URL     string      `json:"url"`
	Format  PageFormat  `json:"format"`
	Headers []string    `json:"headers,omitempty"`
	Players []RawPlayer `json:"players"`
}

// StripHeaderPrefix removes the "match_stats." / "stats." prefixes the match centre puts on
// its order-by column names.
func StripHeaderPrefix(h string) string {
	h = strings.TrimSpace(h)
	if s, ok := strings.CutPrefix(h, "match_stats."); ok {
		return s
	}
	if s, ok := strings.CutPrefix(h, "stats."); ok {
		return s
	}
	return h
}

// ---- Normalized records ----

// Cost holds a player's price. Raw is always the trimmed source text; Units is only
// meaningful when Priced is true.
type Cost struct {
	Raw    string
	Units  int64
	Priced bool
}

// Value renders the cost cell: absolute units when priced, raw text otherwise.
func (c Cost) Value() Value {
	if c.Priced {
		return Number(float64(c.Units))
	}
	if c.Raw == "" {
		return Empty()
	}
	return Text(c.Raw)
}

// PlayerRecord is one output row: one player on one page.
type PlayerRecord struct {
	Round     string
	Name      string
	Team      string
	TeamSet   bool
	Position1 string
	Position2 string
	Cost      Cost
	Stats     StatSet

	// Derived, filled by aggregator.Enrich.
	PricedAt  *int64
	TotalBase float64
	Enriched  bool
	Premium   *float64
}

// HasPosition reports whether either position slot equals pos.
func (r *PlayerRecord) HasPosition(pos string) bool {
	return r.Position1 == pos || r.Position2 == pos
}

// Column is a single named cell of a record.
type Column struct {
	Name  string
	Value Value
}

// Columns returns the record's cells in output order: fixed columns first, then stats in
// the order they were extracted. Cells the record does not carry are omitted, so the
// serializer renders them empty.
func (r *PlayerRecord) Columns() []Column {
	cols := make([]Column, 0, 9+r.Stats.Len())
	if r.Round != "" {
		cols = append(cols, Column{ColRound, Text(r.Round)})
	}
	cols = append(cols, Column{ColPlayer, textOrEmpty(r.Name)})
	if r.TeamSet {
		cols = append(cols, Column{ColTeam, textOrEmpty(r.Team)})
	}
	cols = append(cols,
		Column{ColPosition1, textOrEmpty(r.Position1)},
		Column{ColPosition2, textOrEmpty(r.Position2)},
		Column{ColCost, r.Cost.Value()},
	)
	if r.PricedAt != nil {
		cols = append(cols, Column{ColPricedAt, Number(float64(*r.PricedAt))})
	}
	if r.Enriched {
		cols = append(cols, Column{ColTotalBase, Number(r.TotalBase)})
	}
	if r.Premium != nil {
		cols = append(cols, Column{ColPremium, Number(*r.Premium)})
	}
	for _, code := range r.Stats.Keys() {
		v, _ := r.Stats.Get(code)
		cols = append(cols, Column{code, v})
	}
	return cols
}

// Cell looks up a single column by name.
func (r *PlayerRecord) Cell(name string) (Value, bool) {
	for _, c := range r.Columns() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return Value{}, false
}

// CellMap indexes Columns by name. Used by serializers that render many headers per row.
func (r *PlayerRecord) CellMap() map[string]Value {
	cols := r.Columns()
	m := make(map[string]Value, len(cols))
	for _, c := range cols {
		m[c.Name] = c.Value
	}
	return m
}

func textOrEmpty(s string) Value {
	if s == "" {
		return Empty()
	}
	return Text(s)
}

// FixedColumns lists the non-stat columns in canonical order.
func FixedColumns() []string {
	return []string{
		ColRound, ColPlayer, ColTeam, ColPosition1, ColPosition2,
		ColCost, ColPricedAt, ColTotalBase, ColPremium,
	}
}
