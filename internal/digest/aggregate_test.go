package digest

import (
	"testing"
	"time"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func hist(id uint64, dominoID int, sig, from, to string, at time.Time) models.SignalHistory {
	return models.SignalHistory{
		ID: id, UserID: "u1", DominoID: dominoID, SignalName: sig,
		OldStatus: from, NewStatus: to, TriggerType: domino.TriggerAuto,
		Reason: "reason " + sig, ChangedAt: at,
	}
}

func TestThreatLevel(t *testing.T) {
	cases := []struct {
		counts Counts
		want   string
	}{
		{Counts{Red: 6}, ThreatCrisis},
		{Counts{Red: 3, Amber: 15}, ThreatCritical},
		{Counts{Amber: 12}, ThreatElevated},
		{Counts{Amber: 6}, ThreatWatch},
		{Counts{Red: 2, Amber: 5, Green: 11}, ThreatBaseline},
		{Counts{Green: 18}, ThreatBaseline},
	}
	for _, tc := range cases {
		if got := ThreatLevel(tc.counts); got != tc.want {
			t.Fatalf("counts=%+v got=%s want=%s", tc.counts, got, tc.want)
		}
	}
}

func TestPeriodFor_DayBoundaries(t *testing.T) {
	p := PeriodFor(testNow, 7)
	if !p.Start.Equal(time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start=%v", p.Start)
	}
	if p.End.Format(time.RFC3339Nano) != "2026-10-14T23:59:59.999999999Z" {
		t.Fatalf("end=%v", p.End)
	}
}

func TestAggregate_ClassifiesAndSummarizes(t *testing.T) {
	cat := domino.Default()
	labor := domino.LaborDisplacement
	claims := domino.SigJoblessClaims
	in := Input{
		Days:    7,
		Now:     testNow,
		Catalog: cat,
		History: []models.SignalHistory{
			hist(1, labor, claims, "green", "red", testNow.Add(-24*time.Hour)),
			hist(2, labor, claims, "red", "amber", testNow.Add(-2*time.Hour)),
			hist(3, labor, claims, "green", "green", testNow.Add(-3*time.Hour)),
			hist(4, labor, claims, "purple", "red", testNow.Add(-4*time.Hour)),
			hist(5, labor, claims, "green", "red", testNow.AddDate(0, 0, -30)),
		},
		Statuses: []models.SignalStatus{
			{UserID: "u1", DominoID: labor, SignalName: claims, Status: "amber", UpdatedAt: testNow.Add(-2 * time.Hour)},
		},
	}
	d := Aggregate(in)
	if len(d.Escalations) != 1 || len(d.Deescalations) != 1 {
		t.Fatalf("esc=%d deesc=%d", len(d.Escalations), len(d.Deescalations))
	}
	if d.Escalations[0].Kind != KindEscalation || d.Deescalations[0].New != domino.StatusAmber {
		t.Fatalf("classification wrong: %+v %+v", d.Escalations, d.Deescalations)
	}
	var summary DominoSummary
	for _, s := range d.Dominos {
		if s.ID == labor {
			summary = s
		}
	}
	if summary.Escalations != 1 || summary.Deescalations != 1 || summary.Posture != PostureStable {
		t.Fatalf("summary=%+v", summary)
	}
	if len(summary.Changes) != 1 || summary.Changes[0].New != domino.StatusAmber {
		t.Fatalf("latest change per signal=%+v", summary.Changes)
	}
	if d.Counts.Amber != 1 || d.Counts.Green != cat.SignalCount()-1 || d.ThreatLevel != ThreatBaseline {
		t.Fatalf("counts=%+v threat=%s", d.Counts, d.ThreatLevel)
	}
	if len(d.Stale) != cat.SignalCount()-1 {
		t.Fatalf("stale=%d", len(d.Stale))
	}
	if len(d.Unchanged) != cat.SignalCount()-1 {
		t.Fatalf("unchanged=%d", len(d.Unchanged))
	}
	if d.TouchedDominos() != 1 {
		t.Fatalf("touched=%d", d.TouchedDominos())
	}
}

func TestAggregate_StalenessUsesNewestOfStatusAndHistory(t *testing.T) {
	cat := domino.Default()
	labor := domino.LaborDisplacement
	d := Aggregate(Input{
		Days:    7,
		Now:     testNow,
		Catalog: cat,
		Statuses: []models.SignalStatus{
			{DominoID: labor, SignalName: domino.SigJoblessClaims, Status: "green", UpdatedAt: testNow.AddDate(0, 0, -40)},
			{DominoID: labor, SignalName: domino.SigGradUnemployment, Status: "green", UpdatedAt: testNow.AddDate(0, 0, -31)},
		},
		Latest: []models.SignalHistory{
			hist(9, labor, domino.SigJoblessClaims, "amber", "green", testNow.AddDate(0, 0, -10)),
		},
	})
	stale := map[string]SignalState{}
	for _, s := range d.Stale {
		stale[s.SignalName] = s
	}
	if _, ok := stale[domino.SigJoblessClaims]; ok {
		t.Fatalf("recent history should keep claims fresh")
	}
	grad, ok := stale[domino.SigGradUnemployment]
	if !ok || grad.DaysSinceUpdate == nil || *grad.DaysSinceUpdate != 31 {
		t.Fatalf("grad=%+v ok=%v", grad, ok)
	}
	never, ok := stale[domino.SigTechLayoffs]
	if !ok || never.DaysSinceUpdate != nil {
		t.Fatalf("never updated signal=%+v", never)
	}
	// history outside the period does not count as a change
	if len(d.Escalations)+len(d.Deescalations) != 0 {
		t.Fatalf("latest history leaked into period")
	}
}

func TestAggregate_SeededRowsCountAsNeverUpdated(t *testing.T) {
	labor := domino.LaborDisplacement
	d := Aggregate(Input{
		Days:    7,
		Now:     testNow,
		Catalog: domino.Default(),
		Statuses: []models.SignalStatus{
			{DominoID: labor, SignalName: domino.SigTechLayoffs, Status: "green", UpdatedBy: domino.UpdatedBySeed, UpdatedAt: testNow.Add(-time.Hour)},
			{DominoID: labor, SignalName: domino.SigJoblessClaims, Status: "green", UpdatedBy: domino.UpdatedBySeed, UpdatedAt: testNow.Add(-time.Hour)},
		},
		Latest: []models.SignalHistory{
			hist(3, labor, domino.SigJoblessClaims, "amber", "green", testNow.AddDate(0, 0, -2)),
		},
	})
	stale := map[string]SignalState{}
	for _, s := range d.Stale {
		stale[s.SignalName] = s
	}
	seeded, ok := stale[domino.SigTechLayoffs]
	if !ok || seeded.DaysSinceUpdate != nil || seeded.LastUpdate != nil {
		t.Fatalf("seeded signal=%+v ok=%v", seeded, ok)
	}
	if _, ok := stale[domino.SigJoblessClaims]; ok {
		t.Fatalf("history on a seeded row should count as an update")
	}
}

func TestAggregate_PostureAndCounts(t *testing.T) {
	cat := domino.Default()
	credit := domino.CreditContagion
	var statuses []models.SignalStatus
	for _, d := range cat.Dominos {
		for _, s := range d.Signals {
			statuses = append(statuses, models.SignalStatus{DominoID: d.ID, SignalName: s.Name, Status: "red", UpdatedAt: testNow})
		}
	}
	d := Aggregate(Input{
		Days:     3,
		Now:      testNow,
		Catalog:  cat,
		Statuses: statuses,
		History: []models.SignalHistory{
			hist(1, credit, domino.SigHighYieldSpread, "green", "amber", testNow.Add(-5*time.Hour)),
			hist(2, credit, domino.SigYieldCurve, "amber", "red", testNow.Add(-4*time.Hour)),
		},
	})
	if d.ThreatLevel != ThreatCrisis || d.Counts.Red != cat.SignalCount() {
		t.Fatalf("threat=%s counts=%+v", d.ThreatLevel, d.Counts)
	}
	for _, s := range d.Dominos {
		if s.ID == credit && s.Posture != PostureDeteriorating {
			t.Fatalf("credit posture=%s", s.Posture)
		}
		if s.ID != credit && s.Posture != PostureStable {
			t.Fatalf("domino %d posture=%s", s.ID, s.Posture)
		}
	}
	if len(d.Stale) != 0 {
		t.Fatalf("stale=%d", len(d.Stale))
	}
}
