// Package extract turns raw player bundles into normalized PlayerRecords.
package extract

import "github.com/pable/go-nrl-stats/internal/model"

// Field is one stat as found (or not) on a page.
type Field struct {
	Code    string
	Raw     string
	Present bool
}

// StatSource knows how a page format lays out stat values for a player.
type StatSource interface {
	Stats(page *model.RawPage, p model.RawPlayer) []Field
}

// Positional pairs the page's header list with each row's cells by index. A header with no
// matching cell is reported as absent; surplus cells are ignored.
type Positional struct{}

func (Positional) Stats(page *model.RawPage, p model.RawPlayer) []Field {
	out := make([]Field, 0, len(page.Headers))
	for i, h := range page.Headers {
		code := model.StripHeaderPrefix(h)
		if code == "" {
			continue
		}
		f := Field{Code: code}
		if i < len(p.Cells) {
			f.Raw = p.Cells[i]
			f.Present = true
		}
		out = append(out, f)
	}
	return out
}

// Named looks each stat up by its source field, walking Defs in order.
type Named struct {
	Defs []model.StatDef
}

func (n Named) Stats(_ *model.RawPage, p model.RawPlayer) []Field {
	defs := n.Defs
	if defs == nil {
		defs = model.StatDefs
	}
	out := make([]Field, 0, len(defs))
	for _, d := range defs {
		raw, ok := p.Fields[d.Field]
		out = append(out, Field{Code: d.Code, Raw: raw, Present: ok})
	}
	return out
}

// SourceFor picks the StatSource for a page format.
func SourceFor(f model.PageFormat) StatSource {
	if f == model.FormatNamed {
		return Named{}
	}
	return Positional{}
}
