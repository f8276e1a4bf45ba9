package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
	"asymmetricbridge/internal/threshold"
)

func labor(sig string) domino.Key {
	return domino.Key{DominoID: domino.LaborDisplacement, Signal: sig}
}

func TestManualSet_OverridesAndRecordsOnce(t *testing.T) {
	repo := newStubRepo()
	pub := &recordingPublisher{}
	m := &Manual{Repo: repo, Catalog: domino.Default(), Publisher: pub, Now: func() time.Time { return testNow }}
	key := labor(domino.SigTechLayoffs)

	res, err := m.Set(context.Background(), "u1", key, "RED", "big cuts announced")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !res.Changed || !res.Status.IsOverride || res.Status.Status != "red" {
		t.Fatalf("res=%+v", res)
	}
	if len(repo.history) != 1 || repo.history[0].TriggerType != domino.TriggerManual || repo.history[0].OldStatus != "green" {
		t.Fatalf("history=%+v", repo.history)
	}

	res, err = m.Set(context.Background(), "u1", key, "red", "")
	if err != nil {
		t.Fatalf("set again: %v", err)
	}
	if res.Changed || len(repo.history) != 1 {
		t.Fatalf("repeat set recorded history: %+v", repo.history)
	}
	if len(pub.events) != 1 {
		t.Fatalf("events=%d", len(pub.events))
	}
}

func TestManualSet_Validation(t *testing.T) {
	m := &Manual{Repo: newStubRepo(), Catalog: domino.Default()}
	if _, err := m.Set(context.Background(), "u1", labor("Nope"), "red", ""); !errors.Is(err, ErrUnknownSignal) {
		t.Fatalf("err=%v", err)
	}
	if _, err := m.Set(context.Background(), "u1", labor(domino.SigTechLayoffs), "purple", ""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err=%v", err)
	}
}

func TestManualRelease_ResumesAutomation(t *testing.T) {
	repo := newStubRepo()
	cat := domino.Default()
	key := labor(domino.SigJoblessClaims)
	m := &Manual{Repo: repo, Catalog: cat, Now: func() time.Time { return testNow.Add(-time.Hour) }}
	if _, err := m.Set(context.Background(), "u1", key, "amber", "watching"); err != nil {
		t.Fatalf("set: %v", err)
	}

	rec := &Reconciler{Repo: repo, Now: func() time.Time { return testNow }}
	results := []threshold.Result{{Key: key, Evaluated: true, NewStatus: domino.StatusRed, Reason: "claims"}}
	out, _ := rec.ReconcileUser(context.Background(), "u1", results)
	if out.Applied != 0 {
		t.Fatalf("override was overwritten")
	}

	released, err := m.Release(context.Background(), "u1", key)
	if err != nil || !released {
		t.Fatalf("release=%v err=%v", released, err)
	}
	if len(repo.history) != 1 {
		t.Fatalf("release wrote history")
	}
	out, _ = rec.ReconcileUser(context.Background(), "u1", results)
	if out.Applied != 1 {
		t.Fatalf("automation did not resume: %+v", out)
	}

	released, _ = m.Release(context.Background(), "u1", key)
	if released {
		t.Fatalf("second release reported a change")
	}
}

func TestSeed_CreatesOnlyMissing(t *testing.T) {
	cat := domino.Default()
	repo := newStubRepo(existingRow(cat))
	n, err := Seed(context.Background(), repo, cat, "u1", testNow)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if int(n) != cat.SignalCount()-1 {
		t.Fatalf("created=%d want=%d", n, cat.SignalCount()-1)
	}
	if got := repo.statuses[stubKey("u1", domino.LaborDisplacement, domino.SigProfessionalOpenings)]; got.Status != "red" {
		t.Fatalf("existing row overwritten: %+v", got)
	}
	n, _ = Seed(context.Background(), repo, cat, "u1", testNow)
	if n != 0 {
		t.Fatalf("reseed created %d", n)
	}
	if _, err := Seed(context.Background(), repo, cat, " ", testNow); err == nil {
		t.Fatalf("expected user error")
	}
}

func existingRow(cat domino.Catalog) models.SignalStatus {
	k := cat.Keys()[0]
	r := row(k.Signal, "red", false, time.Hour)
	r.DominoID = k.DominoID
	return r
}

// racingRepo runs an automated pass between the first read and the write.
type racingRepo struct {
	*stubRepo
	race  func()
	fired bool
}

func (r *racingRepo) GetSignalStatus(ctx context.Context, userID string, dominoID int, signalName string) (*models.SignalStatus, error) {
	got, err := r.stubRepo.GetSignalStatus(ctx, userID, dominoID, signalName)
	if !r.fired {
		r.fired = true
		r.race()
	}
	return got, err
}

func TestManualSet_ConcurrentAutoChangeKeepsHistoryChained(t *testing.T) {
	key := labor(domino.SigTechLayoffs)
	base := newStubRepo(models.SignalStatus{
		UserID:     "u1",
		DominoID:   key.DominoID,
		SignalName: key.Signal,
		Status:     "green",
		UpdatedBy:  domino.UpdatedByAuto,
		UpdatedAt:  testNow.Add(-time.Hour),
	})
	rec := &Reconciler{Repo: base, Now: func() time.Time { return testNow }}
	repo := &racingRepo{stubRepo: base, race: func() {
		results := []threshold.Result{{Key: key, Evaluated: true, NewStatus: domino.StatusAmber, Reason: "layoffs"}}
		if out, err := rec.ReconcileUser(context.Background(), "u1", results); err != nil || out.Applied != 1 {
			t.Fatalf("auto pass applied=%d err=%v", out.Applied, err)
		}
	}}
	m := &Manual{Repo: repo, Catalog: domino.Default(), Now: func() time.Time { return testNow }}

	res, err := m.Set(context.Background(), "u1", key, "green", "analyst call")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !res.Changed || res.Status.Status != "green" || !res.Status.IsOverride {
		t.Fatalf("res=%+v", res)
	}
	if len(base.history) != 2 {
		t.Fatalf("history=%+v", base.history)
	}
	auto, manual := base.history[0], base.history[1]
	if auto.OldStatus != "green" || auto.NewStatus != "amber" || auto.TriggerType != domino.TriggerAuto {
		t.Fatalf("auto entry=%+v", auto)
	}
	if manual.OldStatus != "amber" || manual.NewStatus != "green" || manual.TriggerType != domino.TriggerManual {
		t.Fatalf("manual entry=%+v", manual)
	}
	got := base.statuses[stubKey("u1", key.DominoID, key.Signal)]
	if got.Status != "green" || !got.IsOverride || got.UpdatedBy != domino.UpdatedByManual {
		t.Fatalf("final row=%+v", got)
	}
}

// conflictRepo makes every conditional update look lost.
type conflictRepo struct{ *stubRepo }

func (conflictRepo) UpdateSignalStatusTx(context.Context, *gorm.DB, repository.UpdateSignalStatusParams) error {
	return repository.ErrStatusConflict
}

func TestManualSet_GivesUpAfterRepeatedConflicts(t *testing.T) {
	key := labor(domino.SigTechLayoffs)
	base := newStubRepo(models.SignalStatus{UserID: "u1", DominoID: key.DominoID, SignalName: key.Signal, Status: "green", UpdatedBy: domino.UpdatedByAuto, UpdatedAt: testNow})
	pub := &recordingPublisher{}
	m := &Manual{Repo: conflictRepo{base}, Catalog: domino.Default(), Publisher: pub, Now: func() time.Time { return testNow }}

	if _, err := m.Set(context.Background(), "u1", key, "red", ""); !errors.Is(err, repository.ErrStatusConflict) {
		t.Fatalf("err=%v", err)
	}
	if len(base.history) != 0 || len(pub.events) != 0 {
		t.Fatalf("history=%d events=%d", len(base.history), len(pub.events))
	}
}
