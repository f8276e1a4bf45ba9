package prediction

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func base(typ string) CreateParams {
	return CreateParams{
		UserID:     "u1",
		DominoID:   domino.LaborDisplacement,
		SignalName: domino.SigJoblessClaims,
		Type:       typ,
		TargetDate: "2026-12-31",
	}
}

func TestCreate_Validation(t *testing.T) {
	cases := []struct {
		name  string
		mod   func(p *CreateParams)
		field string
	}{
		{"missing type", func(p *CreateParams) { p.Type = "" }, "type"},
		{"bad type", func(p *CreateParams) { p.Type = "vibes" }, "type"},
		{"missing operator", func(p *CreateParams) { p.Threshold = f(1) }, "operator"},
		{"bad operator", func(p *CreateParams) { p.Operator = "eq"; p.Threshold = f(1) }, "operator"},
		{"missing threshold", func(p *CreateParams) { p.Operator = "gt" }, "threshold"},
		{"bad date", func(p *CreateParams) { p.Operator = "gt"; p.Threshold = f(1); p.TargetDate = "next week" }, "target_date"},
		{"missing date", func(p *CreateParams) { p.TargetDate = "" }, "target_date"},
		{"missing domino", func(p *CreateParams) { p.DominoID = 0 }, "domino_id"},
	}
	for _, tc := range cases {
		p := base(TypeThreshold)
		tc.mod(&p)
		_, err := Create(p, testNow)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: err=%v", tc.name, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("%s: field=%s want=%s", tc.name, verr.Field, tc.field)
		}
	}

	p := base(TypeDirection)
	p.Direction = "sideways"
	if _, err := Create(p, testNow); err == nil {
		t.Fatalf("expected direction error")
	}
	p = base(TypeRange)
	p.Min = f(1)
	if _, err := Create(p, testNow); err == nil {
		t.Fatalf("expected max error")
	}
}

func TestCreate_RangeAutoOrdersAndDates(t *testing.T) {
	p := base(TypeRange)
	p.Min, p.Max = f(300000), f(200000)
	p.TargetDate = "2026-11-01T15:00:00+02:00"
	item, err := Create(p, testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cond, err := DecodeCondition(*item)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *cond.Min != 200000 || *cond.Max != 300000 {
		t.Fatalf("cond=%+v", cond)
	}
	if !item.TargetDate.Equal(time.Date(2026, 11, 1, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("target=%v", item.TargetDate)
	}
	if item.ID == "" || item.Outcome != nil || item.ScoredAt != nil {
		t.Fatalf("item=%+v", item)
	}
}

func mustCreate(t *testing.T, p CreateParams) models.Prediction {
	t.Helper()
	item, err := Create(p, testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return *item
}

func TestEvaluate_NeverBeforeTarget(t *testing.T) {
	p := base(TypeThreshold)
	p.Operator, p.Threshold = "gt", f(1)
	pred := mustCreate(t, p)
	for _, v := range []*float64{nil, f(0), f(10)} {
		if ev := Evaluate(pred, v, pred.TargetDate); ev.ShouldScore {
			t.Fatalf("scored on target date")
		}
		if ev := Evaluate(pred, v, testNow); ev.ShouldScore {
			t.Fatalf("scored early")
		}
	}
}

func TestEvaluate_Outcomes(t *testing.T) {
	after := time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC)

	th := base(TypeThreshold)
	th.Operator, th.Threshold = "gte", f(250000)
	up := base(TypeDirection)
	up.Direction, up.Baseline = "up", f(100)
	down := base(TypeDirection)
	down.Direction, down.Baseline = "down", f(100)
	noBase := base(TypeDirection)
	noBase.Direction = "up"
	rng := base(TypeRange)
	rng.Min, rng.Max = f(1), f(2)

	cases := []struct {
		name    string
		params  CreateParams
		reading *float64
		want    string
	}{
		{"threshold hit", th, f(250000), OutcomeHit},
		{"threshold miss", th, f(249999), OutcomeMiss},
		{"threshold no reading", th, nil, OutcomePartial},
		{"up hit", up, f(101), OutcomeHit},
		{"up miss", up, f(99), OutcomeMiss},
		{"up equal", up, f(100), OutcomePartial},
		{"down hit", down, f(99), OutcomeHit},
		{"no baseline", noBase, f(5), OutcomePartial},
		{"range inclusive low", rng, f(1), OutcomeHit},
		{"range inclusive high", rng, f(2), OutcomeHit},
		{"range miss", rng, f(2.5), OutcomeMiss},
		{"range no reading", rng, nil, OutcomePartial},
	}
	for _, tc := range cases {
		ev := Evaluate(mustCreate(t, tc.params), tc.reading, after)
		if !ev.ShouldScore || ev.Outcome != tc.want {
			t.Fatalf("%s: %+v want=%s", tc.name, ev, tc.want)
		}
	}
}

func scored(outcome string) models.Prediction {
	at := testNow
	return models.Prediction{ScoredAt: &at, Outcome: &outcome}
}

func TestBattingAverage(t *testing.T) {
	if st := BattingAverage(nil); !st.BattingAverage.IsZero() {
		t.Fatalf("empty=%s", st.BattingAverage)
	}
	st := BattingAverage([]models.Prediction{scored(OutcomePartial), {}})
	if !st.BattingAverage.Equal(decimal.NewFromFloat(0.5)) || st.Pending != 1 || st.Scored != 1 {
		t.Fatalf("single partial=%+v", st)
	}

	items := []models.Prediction{scored(OutcomeMiss), scored(OutcomePartial), scored(OutcomeMiss)}
	prev := BattingAverage(items).BattingAverage
	for i := 0; i < 5; i++ {
		items = append(items, scored(OutcomeHit))
		cur := BattingAverage(items).BattingAverage
		if cur.LessThan(prev) {
			t.Fatalf("average decreased after hit: %s -> %s", prev, cur)
		}
		prev = cur
	}
	st = BattingAverage([]models.Prediction{scored(OutcomeHit), scored(OutcomeMiss), scored(OutcomeMiss)})
	if st.BattingAverage.String() != "0.333" || st.Hits != 1 || st.Misses != 2 {
		t.Fatalf("stats=%+v", st)
	}
}
