// Package aggregator computes derived fantasy metrics and accumulates records into a table
// with a stable column set.
package aggregator

import (
	"math"

	"github.com/pable/go-nrl-stats/internal/model"
)

// PriceUnit is the cost, in currency units, of one price tier.
const PriceUnit = 13700

// Positions that earn try-assist / try-save bonuses in Total base.
const (
	PosHalf     = "HLF"
	PosFullback = "WFB"
)

// Enrich computes Priced at, Total base and Base exceeds price premium for rec. It reads
// the stats without changing them, so calling it twice yields the same result.
func Enrich(rec *model.PlayerRecord) {
	rec.PricedAt = nil
	rec.Premium = nil

	if rec.Cost.Priced {
		p := int64(math.Round(float64(rec.Cost.Units) / PriceUnit))
		rec.PricedAt = &p
	}

	rec.TotalBase = TotalBase(rec)
	rec.Enriched = true

	if rec.PricedAt != nil {
		premium := rec.TotalBase - float64(*rec.PricedAt)
		rec.Premium = &premium
	}
}

// TotalBase sums the base stats plus positional bonuses. Dash, empty and text cells count
// as 0 here only.
func TotalBase(rec *model.PlayerRecord) float64 {
	var total float64
	for _, code := range model.BaseCodes() {
		total += rec.Stats.Value(code).OrZero()
	}
	if rec.HasPosition(PosHalf) || rec.HasPosition(PosFullback) {
		total += rec.Stats.Value("TA").OrZero() / 2
	}
	if rec.HasPosition(PosFullback) {
		total += rec.Stats.Value("TS").OrZero()
	}
	return total
}

// EnrichAll runs Enrich over a slice in place.
func EnrichAll(recs []model.PlayerRecord) {
	for i := range recs {
		Enrich(&recs[i])
	}
}
