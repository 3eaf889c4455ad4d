package aggregator

import (
	"reflect"
	"testing"

	"github.com/pable/go-nrl-stats/internal/extract"
	"github.com/pable/go-nrl-stats/internal/logging"
	"github.com/pable/go-nrl-stats/internal/model"
)

// makeRecord builds a record with the given positions and numeric stats.
func makeRecord(pos1, pos2 string, stats map[string]float64, order ...string) model.PlayerRecord {
	rec := model.PlayerRecord{Name: "player", Position1: pos1, Position2: pos2}
	for _, code := range order {
		rec.Stats.Set(code, model.Number(stats[code]))
	}
	return rec
}

// namedPage builds a single-player named-format page for a round.
func namedPage(round, positions string, fields map[string]string) *model.RawPage {
	return &model.RawPage{
		Round:  round,
		Format: model.FormatNamed,
		Players: []model.RawPlayer{
			{Name: "Isaiya Katoa", Opponent: "DOL v NZW", Positions: positions, Cost: "$530k", Fields: fields},
		},
	}
}

// ---- Derived metrics ----

func TestTotalBase_AllEmptyIsZero(t *testing.T) {
	var rec model.PlayerRecord
	for _, code := range model.BaseCodes() {
		rec.Stats.Set(code, model.Empty())
	}
	rec.Stats.Set("TA", model.DashValue())
	if got := TotalBase(&rec); got != 0 {
		t.Errorf("expected 0 for all-empty stats, got %v", got)
	}
}

func TestTotalBase_DashCountsAsZero(t *testing.T) {
	rec := makeRecord("CTR", "", map[string]float64{"TCK": 10}, "TCK")
	rec.Stats.Set("MT", model.DashValue())
	if got := TotalBase(&rec); got != 10 {
		t.Errorf("expected 10, got %v", got)
	}
	if !rec.Stats.Value("MT").IsDash() {
		t.Error("dash must survive the sum unchanged")
	}
}

func TestTotalBase_IgnoresNonBaseStats(t *testing.T) {
	rec := makeRecord("CTR", "", map[string]float64{"T": 2, "LB": 3, "G": 4}, "T", "LB", "G")
	if got := TotalBase(&rec); got != 4 {
		t.Errorf("expected only G (4) to count, got %v", got)
	}
}

// TestTotalBase_HalfBonus: primary HLF with TA=4 gets +2.
func TestTotalBase_HalfBonus(t *testing.T) {
	rec := makeRecord(PosHalf, "", map[string]float64{"TCK": 5, "TA": 4, "TS": 3}, "TCK", "TA", "TS")
	if got := TotalBase(&rec); got != 7 {
		t.Errorf("expected 5 + TA/2 = 7, got %v", got)
	}
}

// TestTotalBase_FullbackBonus: secondary WFB with TA=4, TS=3 gets +2 +3.
func TestTotalBase_FullbackBonus(t *testing.T) {
	rec := makeRecord("CTW", PosFullback, map[string]float64{"TCK": 1, "TA": 4, "TS": 3}, "TCK", "TA", "TS")
	if got := TotalBase(&rec); got != 6 {
		t.Errorf("expected 1 + 2 + 3 = 6, got %v", got)
	}
}

func TestTotalBase_NoBonusForOtherPositions(t *testing.T) {
	rec := makeRecord("FRF", "2RF", map[string]float64{"TA": 4, "TS": 3}, "TA", "TS")
	if got := TotalBase(&rec); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestEnrich_PricedAt(t *testing.T) {
	rec := makeRecord("HOK", "", map[string]float64{"TCK": 12}, "TCK")
	rec.Cost = model.Cost{Raw: "$137k", Units: 137000, Priced: true}

	Enrich(&rec)

	if rec.PricedAt == nil || *rec.PricedAt != 10 {
		t.Fatalf("expected Priced at 10, got %v", rec.PricedAt)
	}
	if rec.Premium == nil || *rec.Premium != 2 {
		t.Errorf("expected premium 12 - 10 = 2, got %v", rec.Premium)
	}
}

func TestEnrich_RoundsToNearestTier(t *testing.T) {
	rec := model.PlayerRecord{Cost: model.Cost{Units: 890000, Priced: true}}
	Enrich(&rec)
	// 890000 / 13700 = 64.96
	if *rec.PricedAt != 65 {
		t.Errorf("expected 65, got %d", *rec.PricedAt)
	}
}

func TestEnrich_NoPricingWithoutNumericCost(t *testing.T) {
	rec := makeRecord("HOK", "", map[string]float64{"TCK": 12}, "TCK")
	rec.Cost = model.Cost{Raw: "$137k"}

	Enrich(&rec)

	if rec.PricedAt != nil || rec.Premium != nil {
		t.Error("Priced at and premium must be omitted without a numeric cost")
	}
	if _, ok := rec.Cell(model.ColPricedAt); ok {
		t.Error("Priced at column must not be emitted")
	}
	if v, ok := rec.Cell(model.ColTotalBase); !ok || v.String() != "12" {
		t.Errorf("Total base still computed, got %v", v)
	}
}

func TestEnrich_Idempotent(t *testing.T) {
	rec := makeRecord(PosFullback, "", map[string]float64{"TCK": 3, "TA": 1, "TS": 2}, "TCK", "TA", "TS")
	rec.Cost = model.Cost{Units: 274000, Priced: true}

	Enrich(&rec)
	first, firstPrem := rec.TotalBase, *rec.Premium
	Enrich(&rec)

	if rec.TotalBase != first || *rec.Premium != firstPrem {
		t.Errorf("second Enrich changed values: %v/%v -> %v/%v", first, firstPrem, rec.TotalBase, *rec.Premium)
	}
}

// ---- Schema accumulation ----

func TestAccumulator_AppendsNewCodesAtEnd(t *testing.T) {
	acc := NewAccumulator(nil)

	p1 := makeRecord("", "", map[string]float64{"TCK": 1, "MT": 2}, "TCK", "MT")
	p2 := makeRecord("", "", map[string]float64{"MT": 1, "TCK": 1, "KM": 30}, "MT", "TCK", "KM")
	acc.Observe(p1)
	acc.Observe(p2)

	want := []string{model.ColPlayer, model.ColPosition1, model.ColPosition2, model.ColCost, "TCK", "MT", "KM"}
	if got := acc.Headers(); !reflect.DeepEqual(got, want) {
		t.Errorf("headers:\n got  %v\n want %v", got, want)
	}
	if acc.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", acc.Len())
	}
}

func TestAccumulator_SeedComesFirstWithoutDuplicates(t *testing.T) {
	acc := NewAccumulator([]string{"Player", "TCK", "TCK"})
	acc.Observe(makeRecord("", "", map[string]float64{"ER": 1, "TCK": 2}, "ER", "TCK"))

	want := []string{"Player", "TCK", model.ColPosition1, model.ColPosition2, model.ColCost, "ER"}
	if got := acc.Headers(); !reflect.DeepEqual(got, want) {
		t.Errorf("headers:\n got  %v\n want %v", got, want)
	}
}

func TestAccumulator_HeadersIsACopy(t *testing.T) {
	acc := NewAccumulator([]string{"A"})
	h := acc.Headers()
	h[0] = "mutated"
	if acc.Headers()[0] != "A" {
		t.Error("Headers must not expose internal state")
	}
}

// TestPipeline_TwoPages: page A has TCK=2, MT=1, HLF, TA=2; page B has TCK=3 and no TA.
func TestPipeline_TwoPages(t *testing.T) {
	ex := &extract.Extractor{Pricing: true, Log: logging.NewNop()}
	acc := NewAccumulator(model.CanonicalHeaders())

	pageA := namedPage("1", "HLF", map[string]string{"TCK": "2", "MT": "1", "TA": "2"})
	pageB := namedPage("2", "HLF", map[string]string{"TCK": "3"})

	for _, page := range []*model.RawPage{pageA, pageB} {
		recs := ex.ExtractPage(page)
		EnrichAll(recs)
		acc.ObserveAll(recs)
	}

	rows := acc.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].TotalBase != 4 {
		t.Errorf("row A Total base: want 4, got %v", rows[0].TotalBase)
	}
	if rows[1].TotalBase != 3 {
		t.Errorf("row B Total base: want 3, got %v", rows[1].TotalBase)
	}
	if rows[0].Round != "1" || rows[1].Round != "2" {
		t.Errorf("rows out of order: %q, %q", rows[0].Round, rows[1].Round)
	}
	if !reflect.DeepEqual(acc.Headers(), model.CanonicalHeaders()) {
		t.Errorf("named pages should not add columns beyond the canonical set: %v", acc.Headers())
	}
}
