package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pable/go-nrl-stats/internal/logging"
	"github.com/pable/go-nrl-stats/internal/model"
)

// CostMultiplier converts a price shown in thousands ("$457k") into currency units.
const CostMultiplier = 1000

var teamRe = regexp.MustCompile(`^[A-Z]+`)

// costStrip removes the currency sign, thousands suffix, separators and spacing.
var costStrip = strings.NewReplacer("$", "", "k", "", "K", "", ",", "", " ", "")

// Extractor builds PlayerRecords from raw bundles.
type Extractor struct {
	// Pricing parses cost into currency units so derived pricing can run. When false the
	// trimmed cost text is kept as-is.
	Pricing bool
	// Source overrides per-page format selection.
	Source StatSource
	Log    *logging.Logger
}

// Extract normalizes one player. It never fails: anything missing is left at its zero value.
func (e *Extractor) Extract(page *model.RawPage, raw model.RawPlayer) model.PlayerRecord {
	rec := model.PlayerRecord{
		Round: strings.TrimSpace(page.Round),
		Name:  strings.TrimSpace(raw.Name),
	}

	if team := teamRe.FindString(strings.TrimLeft(raw.Opponent, " \t\r\n")); team != "" {
		rec.Team = team
		rec.TeamSet = true
	}

	rec.Position1, rec.Position2 = splitPositions(raw.Positions)
	rec.Cost = e.parseCost(raw.Cost, raw.CostUnits)

	src := e.Source
	if src == nil {
		src = SourceFor(page.Format)
	}
	var missing []string
	for _, f := range src.Stats(page, raw) {
		if !f.Present {
			rec.Stats.Set(f.Code, model.Empty())
			missing = append(missing, f.Code)
			continue
		}
		rec.Stats.Set(f.Code, model.Coerce(f.Raw))
	}
	if len(missing) > 0 {
		e.logger().Debug("stats missing for player",
			"round", rec.Round, "player", rec.Name, "codes", missing)
	}
	return rec
}

// ExtractPage normalizes every player on a page, keeping page order.
func (e *Extractor) ExtractPage(page *model.RawPage) []model.PlayerRecord {
	out := make([]model.PlayerRecord, 0, len(page.Players))
	for _, p := range page.Players {
		out = append(out, e.Extract(page, p))
	}
	return out
}

// parseCost reads a displayed price. Unless inUnits is set the number is in thousands.
// Values that would overflow once scaled keep only their raw text.
func (e *Extractor) parseCost(raw string, inUnits bool) model.Cost {
	c := model.Cost{Raw: strings.TrimSpace(raw)}
	if !e.Pricing || c.Raw == "" {
		return c
	}
	n, err := strconv.ParseInt(costStrip.Replace(c.Raw), 10, 64)
	if err != nil {
		e.logger().Debug("cost not numeric", "cost", c.Raw)
		return c
	}
	if !inUnits {
		if n > math.MaxInt64/CostMultiplier || n < math.MinInt64/CostMultiplier {
			e.logger().Debug("cost out of range", "cost", c.Raw)
			return c
		}
		n *= CostMultiplier
	}
	c.Units = n
	c.Priced = true
	return c
}

func (e *Extractor) logger() *logging.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logging.Default()
}

// splitPositions returns the first two comma-separated position codes. A missing second
// position comes back as "".
func splitPositions(s string) (string, string) {
	if strings.TrimSpace(s) == "" {
		return "", ""
	}
	parts := strings.Split(s, ",")
	first := strings.TrimSpace(parts[0])
	if len(parts) < 2 {
		return first, ""
	}
	return first, strings.TrimSpace(parts[1])
}
