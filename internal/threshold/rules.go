package threshold

import (
	"fmt"
	"math"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/feed"
)

// Series and symbols read by the default rules.
const (
	SeriesProfOpenings   = "JTU540099JOL"
	SeriesGradUnemp      = "CGBD25O"
	SeriesJoblessClaims  = "ICSA"
	SeriesSentiment      = "UMCSENT"
	SeriesCardDelinq     = "DRCCLACBS"
	SeriesSavingRate     = "PSAVERT"
	SeriesHighYield      = "BAMLH0A0HYM2"
	SeriesYieldCurve     = "T10Y2Y"
	SeriesCREDelinq      = "DRCRELEXFACBS"
	SeriesMortgageDelinq = "DRSFRMACBS"
	SeriesHousingStarts  = "HOUST"
	SeriesFedFunds       = "FEDFUNDS"

	SymbolSoftware   = "IGV"
	SymbolSemis      = "SMH"
	SymbolVolatility = "VIX"
)

func key(dominoID int, signal string) domino.Key {
	return domino.Key{DominoID: dominoID, Signal: signal}
}

func th(op Operator, v float64, s domino.Status, reason string) Threshold {
	return Threshold{Op: op, Value: v, Status: s, Reason: reason}
}

func custom(pred string, params map[string]float64, s domino.Status, reason string) Threshold {
	return Threshold{Op: OpCustom, Predicate: pred, Params: params, Status: s, Reason: reason}
}

func manual(dominoID int, signal string) Rule {
	return Rule{Key: key(dominoID, signal), Source: domino.SourceManual, ManualOnly: true}
}

// DefaultRules returns the rule table for domino.Default().
func DefaultRules() []Rule {
	red, amber := domino.StatusRed, domino.StatusAmber
	return []Rule{
		{
			Key:     key(domino.LaborDisplacement, domino.SigProfessionalOpenings),
			Source:  domino.SourceFRED,
			Extract: SeriesYoY(SeriesProfOpenings, 12),
			Thresholds: []Threshold{
				th(OpLT, -20, red, "Professional openings down more than 20% YoY"),
				th(OpLT, -10, amber, "Professional openings down more than 10% YoY"),
			},
		},
		{
			Key:     key(domino.LaborDisplacement, domino.SigGradUnemployment),
			Source:  domino.SourceFRED,
			Extract: SeriesLatest(SeriesGradUnemp, "%.1f%%"),
			Thresholds: []Threshold{
				th(OpGTE, 4.0, red, "Graduate unemployment at or above 4%"),
				th(OpGTE, 3.0, amber, "Graduate unemployment at or above 3%"),
			},
		},
		{
			Key:     key(domino.LaborDisplacement, domino.SigJoblessClaims),
			Source:  domino.SourceFRED,
			Extract: SeriesAverage(SeriesJoblessClaims, 4),
			Thresholds: []Threshold{
				th(OpGTE, 300000, red, "4-week average claims at or above 300k"),
				th(OpGTE, 250000, amber, "4-week average claims at or above 250k"),
			},
		},
		manual(domino.LaborDisplacement, domino.SigTechLayoffs),
		{
			Key:     key(domino.ConsumerDemand, domino.SigConsumerSentiment),
			Source:  domino.SourceFRED,
			Extract: SeriesLatest(SeriesSentiment, "%.1f"),
			Thresholds: []Threshold{
				th(OpLT, 55, red, "Sentiment below 55"),
				th(OpLT, 65, amber, "Sentiment below 65"),
			},
		},
		{
			Key:     key(domino.ConsumerDemand, domino.SigCardDelinquency),
			Source:  domino.SourceFRED,
			Extract: SeriesLatest(SeriesCardDelinq, "%.2f%%"),
			Thresholds: []Threshold{
				th(OpGTE, 4.0, red, "Card delinquency at or above 4%"),
				th(OpGTE, 3.0, amber, "Card delinquency at or above 3%"),
			},
		},
		{
			Key:     key(domino.ConsumerDemand, domino.SigSavingRate),
			Source:  domino.SourceFRED,
			Extract: SeriesTrend(SeriesSavingRate, 3, "%.1f%%"),
			Thresholds: []Threshold{
				th(OpLT, 3.0, red, "Saving rate below 3%"),
				custom(PredConsecutiveDeclines, map[string]float64{"n": 3}, amber, "Saving rate declined three periods in a row"),
			},
		},
		{
			Key:     key(domino.CreditContagion, domino.SigHighYieldSpread),
			Source:  domino.SourceFRED,
			Extract: SeriesLatest(SeriesHighYield, "%.2f"),
			Thresholds: []Threshold{
				th(OpGTE, 6.0, red, "High yield spread at or above 6.0"),
				th(OpGTE, 4.5, amber, "High yield spread at or above 4.5"),
			},
		},
		{
			Key:     key(domino.CreditContagion, domino.SigYieldCurve),
			Source:  domino.SourceFRED,
			Extract: SeriesLatest(SeriesYieldCurve, "%.2f"),
			Thresholds: []Threshold{
				th(OpLT, -0.5, red, "Curve inverted by more than 50bp"),
				th(OpLT, 0, amber, "Curve inverted"),
			},
		},
		{
			Key:     key(domino.CreditContagion, domino.SigCREDelinquency),
			Source:  domino.SourceFRED,
			Extract: SeriesLatest(SeriesCREDelinq, "%.2f%%"),
			Thresholds: []Threshold{
				th(OpGTE, 3.0, red, "CRE delinquency at or above 3%"),
				th(OpGTE, 2.0, amber, "CRE delinquency at or above 2%"),
			},
		},
		{
			Key:     key(domino.SaaSRepricing, domino.SigSoftwareDrawdown),
			Source:  domino.SourceQuotes,
			Extract: QuoteDrawdown(SymbolSoftware),
			Thresholds: []Threshold{
				th(OpLTE, -30, red, "Software ETF 30% or more off its high"),
				th(OpLTE, -15, amber, "Software ETF 15% or more off its high"),
			},
		},
		{
			Key:     key(domino.SaaSRepricing, domino.SigVolatility),
			Source:  domino.SourceQuotes,
			Extract: QuotePrice(SymbolVolatility),
			Thresholds: []Threshold{
				th(OpGTE, 30, red, "VIX at or above 30"),
				th(OpGTE, 20, amber, "VIX at or above 20"),
			},
		},
		{
			Key:     key(domino.SaaSRepricing, domino.SigSemisSoftware),
			Source:  domino.SourceQuotes,
			Extract: QuoteRatio(SymbolSemis, SymbolSoftware),
			Thresholds: []Threshold{
				th(OpGT, 2.0, red, "Semis trading above 2x software"),
				custom(PredOutside, map[string]float64{"min": 0.8, "max": 1.6}, amber, "Semis/software ratio outside 0.8-1.6"),
			},
		},
		{
			Key:     key(domino.HousingWealth, domino.SigMortgageDelinquency),
			Source:  domino.SourceFRED,
			Extract: SeriesLatest(SeriesMortgageDelinq, "%.2f%%"),
			Thresholds: []Threshold{
				th(OpGTE, 4.0, red, "Mortgage delinquency at or above 4%"),
				th(OpGTE, 3.0, amber, "Mortgage delinquency at or above 3%"),
			},
		},
		{
			Key:     key(domino.HousingWealth, domino.SigHousingStarts),
			Source:  domino.SourceFRED,
			Extract: SeriesYoY(SeriesHousingStarts, 12),
			Thresholds: []Threshold{
				th(OpLT, -25, red, "Housing starts down more than 25% YoY"),
				th(OpLT, -15, amber, "Housing starts down more than 15% YoY"),
			},
		},
		manual(domino.PolicyResponse, domino.SigEmergencyCuts),
		manual(domino.PolicyResponse, domino.SigFiscalStimulus),
		{
			Key:     key(domino.PolicyResponse, domino.SigFedFunds),
			Source:  domino.SourceFRED,
			Extract: SeriesTrend(SeriesFedFunds, 3, "%.2f%%"),
			Thresholds: []Threshold{
				th(OpLT, 1.0, red, "Fed funds below 1%"),
				custom(PredConsecutiveDeclines, map[string]float64{"n": 3}, amber, "Three consecutive rate cuts"),
			},
		},
	}
}

// SeriesLatest reads the newest observation.
func SeriesLatest(id, format string) Extractor {
	return func(snap feed.Snapshot) (Reading, bool) {
		obs, ok := snap.Latest(id)
		if !ok || !finite(obs.Value) {
			return Reading{}, false
		}
		return Reading{Value: obs.Value, Label: fmt.Sprintf(format, obs.Value)}, true
	}
}

// SeriesAverage averages the last n observations; fewer than n fails.
func SeriesAverage(id string, n int) Extractor {
	return func(snap feed.Snapshot) (Reading, bool) {
		vals := snap.Values(id, n)
		if len(vals) < n || n <= 0 {
			return Reading{}, false
		}
		sum := 0.0
		for _, v := range vals {
			if !finite(v) {
				return Reading{}, false
			}
			sum += v
		}
		avg := sum / float64(n)
		return Reading{Value: avg, Label: fmt.Sprintf("%.0fk (%d-period avg)", avg/1000, n), Recent: vals}, true
	}
}

// SeriesYoY computes the percent change between the newest observation and
// the one `periods` observations earlier.
func SeriesYoY(id string, periods int) Extractor {
	return func(snap feed.Snapshot) (Reading, bool) {
		vals := snap.Values(id, periods+1)
		if len(vals) < periods+1 {
			return Reading{}, false
		}
		base, last := vals[0], vals[len(vals)-1]
		if base == 0 || !finite(base) || !finite(last) {
			return Reading{}, false
		}
		pct := (last - base) / base * 100
		return Reading{Value: pct, Label: fmt.Sprintf("%+.1f%% YoY", pct)}, true
	}
}

// SeriesTrend reads the newest value and keeps the trailing n+1 values for
// streak predicates.
func SeriesTrend(id string, n int, format string) Extractor {
	return func(snap feed.Snapshot) (Reading, bool) {
		vals := snap.Values(id, n+1)
		if len(vals) == 0 {
			return Reading{}, false
		}
		last := vals[len(vals)-1]
		if !finite(last) {
			return Reading{}, false
		}
		return Reading{Value: last, Label: fmt.Sprintf(format, last), Recent: vals}, true
	}
}

func QuotePrice(symbol string) Extractor {
	return func(snap feed.Snapshot) (Reading, bool) {
		q, ok := snap.Quote(symbol)
		if !ok || !finite(q.Price) {
			return Reading{}, false
		}
		return Reading{Value: q.Price, Label: fmt.Sprintf("%s %.2f", symbol, q.Price)}, true
	}
}

// QuoteDrawdown is the percent distance from the 52-week high (<= 0).
func QuoteDrawdown(symbol string) Extractor {
	return func(snap feed.Snapshot) (Reading, bool) {
		q, ok := snap.Quote(symbol)
		if !ok || q.High52w <= 0 || !finite(q.Price) {
			return Reading{}, false
		}
		dd := (q.Price - q.High52w) / q.High52w * 100
		return Reading{Value: dd, Label: fmt.Sprintf("%s %.1f%% from high", symbol, dd)}, true
	}
}

func QuoteRatio(num, den string) Extractor {
	return func(snap feed.Snapshot) (Reading, bool) {
		a, ok1 := snap.Quote(num)
		b, ok2 := snap.Quote(den)
		if !ok1 || !ok2 || b.Price == 0 {
			return Reading{}, false
		}
		r := a.Price / b.Price
		if !finite(r) {
			return Reading{}, false
		}
		return Reading{Value: r, Label: fmt.Sprintf("%s/%s %.2f", num, den, r)}, true
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
