package gormrepository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"asymmetricbridge/internal/config"
	"asymmetricbridge/internal/db"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

var base = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.Open(config.DBConfig{Driver: "sqlite", DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", name)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(conn.Gorm)
}

func TestCreateMissingSignalStatusesKeepsExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	rows := []models.SignalStatus{
		{UserID: "u1", DominoID: 1, SignalName: "a", Status: "green", UpdatedBy: "seed", UpdatedAt: base},
		{UserID: "u1", DominoID: 1, SignalName: "b", Status: "green", UpdatedBy: "seed", UpdatedAt: base},
	}
	n, err := s.CreateMissingSignalStatuses(ctx, rows)
	if err != nil || n != 2 {
		t.Fatalf("first seed: n=%d err=%v", n, err)
	}

	again := []models.SignalStatus{
		{UserID: "u1", DominoID: 1, SignalName: "a", Status: "red", UpdatedBy: "seed", UpdatedAt: base},
		{UserID: "u1", DominoID: 1, SignalName: "c", Status: "amber", UpdatedBy: "seed", UpdatedAt: base},
	}
	n, err = s.CreateMissingSignalStatuses(ctx, again)
	if err != nil || n != 1 {
		t.Fatalf("second seed: n=%d err=%v", n, err)
	}
	got, err := s.GetSignalStatus(ctx, "u1", 1, "a")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Status != "green" {
		t.Fatalf("existing row overwritten: %s", got.Status)
	}
	missing, err := s.GetSignalStatus(ctx, "u2", 1, "a")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown user, got %v %v", missing, err)
	}
	users, err := s.ListStatusUserIDs(ctx)
	if err != nil || len(users) != 1 || users[0] != "u1" {
		t.Fatalf("users: %v %v", users, err)
	}
}

func TestUpdateSignalStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.CreateMissingSignalStatuses(ctx, []models.SignalStatus{
		{UserID: "u1", DominoID: 2, SignalName: "x", Status: "green", UpdatedBy: "seed", UpdatedAt: base},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	later := base.Add(time.Hour)
	update := repository.UpdateSignalStatusParams{
		UserID:            "u1",
		DominoID:          2,
		SignalName:        "x",
		ExpectStatus:      "amber",
		RequireNoOverride: true,
		Status:            "red",
		UpdatedBy:         "auto",
		UpdatedAt:         later,
	}
	if err := s.UpdateSignalStatusTx(ctx, nil, update); !errors.Is(err, repository.ErrStatusConflict) {
		t.Fatalf("expected conflict for stale expectation, got %v", err)
	}

	update.ExpectStatus = "green"
	cutoff := base.Add(-time.Minute)
	update.NotUpdatedAfter = &cutoff
	if err := s.UpdateSignalStatusTx(ctx, nil, update); !errors.Is(err, repository.ErrStatusConflict) {
		t.Fatalf("expected conflict inside debounce window, got %v", err)
	}

	update.NotUpdatedAfter = nil
	update.ExpectUpdatedBy = "manual"
	if err := s.UpdateSignalStatusTx(ctx, nil, update); !errors.Is(err, repository.ErrStatusConflict) {
		t.Fatalf("expected conflict for another writer, got %v", err)
	}

	update.ExpectUpdatedBy = "seed"
	if err := s.UpdateSignalStatusTx(ctx, nil, update); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetSignalStatus(ctx, "u1", 2, "x")
	if got.Status != "red" || got.UpdatedBy != "auto" || !got.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestOverrideBlocksAutomatedUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	err := s.UpsertSignalStatusTx(ctx, nil, &models.SignalStatus{
		UserID: "u1", DominoID: 3, SignalName: "y", Status: "amber", IsOverride: true, UpdatedBy: "manual", UpdatedAt: base,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	err = s.UpdateSignalStatusTx(ctx, nil, repository.UpdateSignalStatusParams{
		UserID: "u1", DominoID: 3, SignalName: "y",
		ExpectStatus: "amber", RequireNoOverride: true,
		Status: "red", UpdatedBy: "auto", UpdatedAt: base.Add(time.Hour),
	})
	if !errors.Is(err, repository.ErrStatusConflict) {
		t.Fatalf("expected conflict on override, got %v", err)
	}

	n, err := s.ClearSignalOverride(ctx, "u1", 3, "y")
	if err != nil || n != 1 {
		t.Fatalf("release: n=%d err=%v", n, err)
	}
	n, err = s.ClearSignalOverride(ctx, "u1", 3, "y")
	if err != nil || n != 0 {
		t.Fatalf("second release: n=%d err=%v", n, err)
	}
}

func TestHistoryRejectsNoOpAndRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.CreateMissingSignalStatuses(ctx, []models.SignalStatus{
		{UserID: "u1", DominoID: 1, SignalName: "a", Status: "green", UpdatedBy: "seed", UpdatedAt: base},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := s.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.UpdateSignalStatusTx(ctx, tx, repository.UpdateSignalStatusParams{
			UserID: "u1", DominoID: 1, SignalName: "a", ExpectStatus: "green",
			Status: "amber", UpdatedBy: "auto", UpdatedAt: base.Add(time.Hour),
		}); err != nil {
			return err
		}
		return s.InsertSignalHistoryTx(ctx, tx, &models.SignalHistory{
			UserID: "u1", DominoID: 1, SignalName: "a", OldStatus: "amber", NewStatus: "amber",
			TriggerType: "auto", ChangedAt: base.Add(time.Hour),
		})
	})
	if err == nil {
		t.Fatalf("expected no-op history entry to fail")
	}
	got, _ := s.GetSignalStatus(ctx, "u1", 1, "a")
	if got.Status != "green" {
		t.Fatalf("status update not rolled back: %s", got.Status)
	}
}

func TestListLatestSignalHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	entries := []models.SignalHistory{
		{UserID: "u1", DominoID: 1, SignalName: "a", OldStatus: "green", NewStatus: "amber", TriggerType: "auto", ChangedAt: base},
		{UserID: "u1", DominoID: 1, SignalName: "a", OldStatus: "amber", NewStatus: "red", TriggerType: "auto", ChangedAt: base.Add(24 * time.Hour)},
		{UserID: "u1", DominoID: 2, SignalName: "b", OldStatus: "green", NewStatus: "amber", TriggerType: "manual", ChangedAt: base},
		{UserID: "u2", DominoID: 1, SignalName: "a", OldStatus: "green", NewStatus: "red", TriggerType: "auto", ChangedAt: base.Add(48 * time.Hour)},
	}
	for i := range entries {
		if err := s.InsertSignalHistoryTx(ctx, nil, &entries[i]); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	latest, err := s.ListLatestSignalHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected one row per signal, got %d", len(latest))
	}
	for _, h := range latest {
		if h.DominoID == 1 && h.NewStatus != "red" {
			t.Fatalf("expected newest entry for 1/a, got %+v", h)
		}
		if h.UserID != "u1" {
			t.Fatalf("leaked row from %s", h.UserID)
		}
	}

	domino := 1
	total, err := s.CountSignalHistory(ctx, repository.ListSignalHistoryParams{UserID: "u1", DominoID: &domino})
	if err != nil || total != 2 {
		t.Fatalf("count: %d %v", total, err)
	}
}

func TestSignalDataPointsUpsertAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	items := []models.SignalDataPoint{
		{DominoID: 1, SignalName: "a", Date: day.AddDate(0, 0, -10), Value: decimal.NewFromInt(1), Source: "fred"},
		{DominoID: 1, SignalName: "a", Date: day, Value: decimal.NewFromInt(2), Source: "fred"},
	}
	if err := s.UpsertSignalDataPoints(ctx, items); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	replay := []models.SignalDataPoint{
		{DominoID: 1, SignalName: "a", Date: day, Value: decimal.NewFromInt(5), Source: "fred"},
	}
	if err := s.UpsertSignalDataPoints(ctx, replay); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	latest, err := s.ListLatestSignalDataPoints(ctx)
	if err != nil || len(latest) != 1 {
		t.Fatalf("latest: %v %v", latest, err)
	}
	if !latest[0].Value.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("same-day reading not replaced: %s", latest[0].Value)
	}

	n, err := s.DeleteSignalDataPointsBefore(ctx, day.AddDate(0, 0, -1))
	if err != nil || n != 1 {
		t.Fatalf("prune: n=%d err=%v", n, err)
	}
}

func TestScorePredictionOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := &models.Prediction{
		ID: "p-1", UserID: "u1", DominoID: 1, SignalName: "a",
		Type: "threshold", Condition: datatypes.JSON(`{"operator":"gt","threshold":"1"}`),
		TargetDate: base,
	}
	if err := s.InsertPrediction(ctx, p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	pending := true
	due := base.Add(time.Hour)
	n, err := s.CountPredictions(ctx, repository.ListPredictionsParams{Pending: &pending, DueBefore: &due})
	if err != nil || n != 1 {
		t.Fatalf("due count: %d %v", n, err)
	}

	value := decimal.NewFromInt(2)
	score := repository.ScorePredictionParams{ID: "p-1", Outcome: "hit", ScoredAt: due, Value: &value}
	if err := s.ScorePrediction(ctx, score); err != nil {
		t.Fatalf("score: %v", err)
	}
	score.Outcome = "miss"
	if err := s.ScorePrediction(ctx, score); !errors.Is(err, repository.ErrAlreadyScored) {
		t.Fatalf("expected already scored, got %v", err)
	}
	got, err := s.GetPredictionByID(ctx, "p-1")
	if err != nil || got == nil || got.Outcome == nil || *got.Outcome != "hit" {
		t.Fatalf("outcome changed: %+v %v", got, err)
	}
}

func TestDigestScopedByUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	d := &models.Digest{
		UserID: "u1", PeriodStart: base.AddDate(0, 0, -6), PeriodEnd: base,
		Content: "# Digest", ThreatLevel: "BASELINE", Source: "template", GeneratedAt: base,
	}
	if err := s.InsertDigest(ctx, d); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if d.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}
	got, err := s.GetDigestByID(ctx, "u1", d.ID)
	if err != nil || got == nil {
		t.Fatalf("get own: %v %v", got, err)
	}
	other, err := s.GetDigestByID(ctx, "u2", d.ID)
	if err != nil || other != nil {
		t.Fatalf("expected nil for other user, got %v %v", other, err)
	}
}

func TestUpsertSystemSetting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.UpsertSystemSetting(ctx, &models.SystemSetting{Key: "feature.digest", Value: datatypes.JSON("true")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertSystemSetting(ctx, &models.SystemSetting{Key: "feature.digest", Value: datatypes.JSON("false")}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err := s.GetSystemSettingByKey(ctx, "feature.digest")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if string(got.Value) != "false" {
		t.Fatalf("value not updated: %s", got.Value)
	}
	prefix := "feature."
	total, err := s.CountSystemSettings(ctx, repository.ListSystemSettingsParams{Prefix: &prefix})
	if err != nil || total != 1 {
		t.Fatalf("count: %d %v", total, err)
	}
}
