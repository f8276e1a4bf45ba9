package threshold

import (
	"math"
	"testing"
	"time"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/feed"
)

func fixedRule(value float64) Rule {
	return Rule{
		Key:    domino.Key{DominoID: 1, Signal: "x"},
		Source: "src",
		Extract: func(feed.Snapshot) (Reading, bool) {
			return Reading{Value: value, Label: "v"}, true
		},
		Thresholds: []Threshold{
			{Op: OpLT, Value: -20, Status: domino.StatusRed, Reason: "deep"},
			{Op: OpLT, Value: -10, Status: domino.StatusAmber, Reason: "shallow"},
		},
	}
}

func TestEvaluate_FirstMatchWins(t *testing.T) {
	snaps := map[string]feed.Snapshot{"src": {Source: "src"}}
	cases := []struct {
		value float64
		want  domino.Status
	}{
		{-25, domino.StatusRed},
		{-12, domino.StatusAmber},
		{-5, domino.StatusGreen},
	}
	e := NewEngine(nil)
	for _, tc := range cases {
		res := e.EvaluateRule(fixedRule(tc.value), snaps)
		if !res.Evaluated {
			t.Fatalf("value=%v not evaluated: %s", tc.value, res.Reason)
		}
		if res.NewStatus != tc.want {
			t.Fatalf("value=%v status=%s want=%s", tc.value, res.NewStatus, tc.want)
		}
		if res.Reading == nil || res.Reading.Value != tc.value {
			t.Fatalf("reading=%v", res.Reading)
		}
	}
	if res := e.EvaluateRule(fixedRule(-5), snaps); res.Reason != ReasonBaseline {
		t.Fatalf("reason=%q", res.Reason)
	}
}

func TestEvaluate_NotEvaluatedReasons(t *testing.T) {
	e := NewEngine(nil)
	snaps := map[string]feed.Snapshot{"src": {Source: "src"}}

	manualRule := Rule{Key: domino.Key{DominoID: 1, Signal: "m"}, ManualOnly: true}
	if res := e.EvaluateRule(manualRule, snaps); res.Evaluated || !res.ManualOnly {
		t.Fatalf("manual res=%+v", res)
	}

	missing := fixedRule(1)
	missing.Source = "other"
	if res := e.EvaluateRule(missing, snaps); res.Evaluated || res.Reason != ReasonNoData {
		t.Fatalf("missing res=%+v", res)
	}

	failing := fixedRule(1)
	failing.Extract = func(feed.Snapshot) (Reading, bool) { return Reading{}, false }
	if res := e.EvaluateRule(failing, snaps); res.Evaluated || res.Reason != ReasonExtraction {
		t.Fatalf("failing res=%+v", res)
	}

	empty := fixedRule(1)
	empty.Thresholds = nil
	if res := e.EvaluateRule(empty, snaps); res.Evaluated || res.Reason != ReasonNoThresholds {
		t.Fatalf("empty res=%+v", res)
	}
}

func TestEvaluate_CustomPredicate(t *testing.T) {
	e := NewEngine(nil)
	rule := Rule{
		Key:    domino.Key{DominoID: 1, Signal: "r"},
		Source: "src",
		Thresholds: []Threshold{
			{Op: OpCustom, Predicate: PredOutside, Params: map[string]float64{"min": 0.8, "max": 1.6}, Status: domino.StatusAmber, Reason: "out"},
		},
	}
	if res := e.Classify(rule, Reading{Value: 1.7}); res.NewStatus != domino.StatusAmber {
		t.Fatalf("status=%s", res.NewStatus)
	}
	if res := e.Classify(rule, Reading{Value: 1.2}); res.NewStatus != domino.StatusGreen {
		t.Fatalf("status=%s", res.NewStatus)
	}

	rule.Thresholds[0].Predicate = "nope"
	if res := e.Classify(rule, Reading{Value: 5}); res.NewStatus != domino.StatusGreen {
		t.Fatalf("unknown predicate should not match, got %s", res.NewStatus)
	}
}

func TestConsecutiveDeclines(t *testing.T) {
	pred := DefaultRegistry()[PredConsecutiveDeclines]
	p := map[string]float64{"n": 3}
	if !pred(Reading{Recent: []float64{5, 4.5, 4.2, 4.0}}, p) {
		t.Fatalf("expected streak")
	}
	if pred(Reading{Recent: []float64{5, 4.5, 4.6, 4.0}}, p) {
		t.Fatalf("broken streak matched")
	}
	if pred(Reading{Recent: []float64{5, 4}}, p) {
		t.Fatalf("short window matched")
	}
}

func TestDefaultRulesCoverCatalog(t *testing.T) {
	cat := domino.Default()
	if err := cat.Validate(); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	e := NewEngine(DefaultRules())
	if err := e.Validate(cat); err != nil {
		t.Fatalf("rules: %v", err)
	}
	for _, k := range cat.Keys() {
		if _, ok := e.Rule(k); !ok {
			t.Fatalf("no rule for %s", k)
		}
	}
}

func TestDefaultRules_FredSnapshot(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var openings []feed.Observation
	for i := 0; i <= 12; i++ {
		v := 1000.0
		if i == 12 {
			v = 750
		}
		openings = append(openings, feed.Observation{Date: start.AddDate(0, i, 0), Value: v})
	}
	snap := feed.Snapshot{
		Source:    domino.SourceFRED,
		FetchedAt: start.AddDate(1, 0, 0),
		Series: map[string][]feed.Observation{
			SeriesProfOpenings: openings,
			SeriesYieldCurve:   {{Date: start, Value: -0.2}},
		},
	}
	e := NewEngine(DefaultRules())
	results := e.Evaluate(map[string]feed.Snapshot{domino.SourceFRED: snap})
	byKey := map[domino.Key]Result{}
	for _, r := range results {
		byKey[r.Key] = r
	}
	if got := byKey[domino.Key{DominoID: domino.LaborDisplacement, Signal: domino.SigProfessionalOpenings}]; got.NewStatus != domino.StatusRed {
		t.Fatalf("openings=%+v", got)
	}
	if got := byKey[domino.Key{DominoID: domino.CreditContagion, Signal: domino.SigYieldCurve}]; got.NewStatus != domino.StatusAmber {
		t.Fatalf("curve=%+v", got)
	}
	if got := byKey[domino.Key{DominoID: domino.SaaSRepricing, Signal: domino.SigVolatility}]; got.Evaluated || got.Reason != ReasonNoData {
		t.Fatalf("vix=%+v", got)
	}
	if got := byKey[domino.Key{DominoID: domino.ConsumerDemand, Signal: domino.SigConsumerSentiment}]; got.Evaluated || got.Reason != ReasonExtraction {
		t.Fatalf("sentiment=%+v", got)
	}
}

func TestQuoteExtractors(t *testing.T) {
	snap := feed.Snapshot{Quotes: map[string]feed.Quote{
		SymbolSoftware: {Price: 70, High52w: 100},
		SymbolSemis:    {Price: 140},
	}}
	dd, ok := QuoteDrawdown(SymbolSoftware)(snap)
	if !ok || math.Abs(dd.Value+30) > 1e-9 {
		t.Fatalf("drawdown=%v ok=%v", dd.Value, ok)
	}
	ratio, ok := QuoteRatio(SymbolSemis, SymbolSoftware)(snap)
	if !ok || ratio.Value != 2 {
		t.Fatalf("ratio=%v ok=%v", ratio.Value, ok)
	}
	if _, ok := QuotePrice(SymbolVolatility)(snap); ok {
		t.Fatalf("missing symbol extracted")
	}
}
