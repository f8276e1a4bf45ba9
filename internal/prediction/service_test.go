package prediction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

type stubRepo struct {
	items  map[string]models.Prediction
	points []models.SignalDataPoint
	// raceID is scored by "someone else" right before ScorePrediction runs.
	raceID string
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: map[string]models.Prediction{}}
}

func (s *stubRepo) InsertPrediction(ctx context.Context, item *models.Prediction) error {
	s.items[item.ID] = *item
	return nil
}

func (s *stubRepo) GetPredictionByID(ctx context.Context, id string) (*models.Prediction, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (s *stubRepo) ListPredictions(ctx context.Context, p repository.ListPredictionsParams) ([]models.Prediction, error) {
	var out []models.Prediction
	for _, it := range s.items {
		if p.UserID != nil && it.UserID != *p.UserID {
			continue
		}
		if p.Pending != nil && *p.Pending != (it.ScoredAt == nil) {
			continue
		}
		if p.DueBefore != nil && !it.TargetDate.Before(*p.DueBefore) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *stubRepo) CountPredictions(ctx context.Context, p repository.ListPredictionsParams) (int64, error) {
	items, _ := s.ListPredictions(ctx, p)
	return int64(len(items)), nil
}

func (s *stubRepo) ScorePrediction(ctx context.Context, p repository.ScorePredictionParams) error {
	it, ok := s.items[p.ID]
	if p.ID == s.raceID {
		return repository.ErrAlreadyScored
	}
	if !ok || it.ScoredAt != nil {
		return repository.ErrAlreadyScored
	}
	outcome, at := p.Outcome, p.ScoredAt
	it.Outcome, it.ScoredAt, it.ScoredValue = &outcome, &at, p.Value
	s.items[p.ID] = it
	return nil
}

func (s *stubRepo) UpsertSignalDataPoints(ctx context.Context, items []models.SignalDataPoint) error {
	s.points = append(s.points, items...)
	return nil
}

func (s *stubRepo) ListSignalDataPoints(ctx context.Context, p repository.ListSignalDataPointsParams) ([]models.SignalDataPoint, error) {
	return s.points, nil
}

func (s *stubRepo) ListLatestSignalDataPoints(ctx context.Context) ([]models.SignalDataPoint, error) {
	return s.points, nil
}

func (s *stubRepo) DeleteSignalDataPointsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func newService(repo *stubRepo, now *time.Time) *Service {
	return &Service{
		Repo:       repo,
		DataPoints: repo,
		Catalog:    domino.Default(),
		Now:        func() time.Time { return *now },
	}
}

func claimsPoint(v int64) models.SignalDataPoint {
	return models.SignalDataPoint{
		DominoID: domino.LaborDisplacement, SignalName: domino.SigJoblessClaims,
		Date: testNow, Value: decimal.NewFromInt(v),
	}
}

func TestService_CreateCapturesBaseline(t *testing.T) {
	repo := newStubRepo()
	repo.points = []models.SignalDataPoint{claimsPoint(230000)}
	now := testNow
	svc := newService(repo, &now)

	p := base(TypeDirection)
	p.Direction = "up"
	item, err := svc.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cond, _ := DecodeCondition(*item)
	if cond.Baseline == nil || *cond.Baseline != 230000 {
		t.Fatalf("baseline=%v", cond.Baseline)
	}
	if _, ok := repo.items[item.ID]; !ok {
		t.Fatalf("prediction not stored")
	}

	p.SignalName = "Made Up"
	_, err = svc.Create(context.Background(), p)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "signal_name" {
		t.Fatalf("err=%v", err)
	}
}

func TestService_ScoreDueOnlyOnce(t *testing.T) {
	repo := newStubRepo()
	now := testNow
	svc := newService(repo, &now)

	due := base(TypeThreshold)
	due.Operator, due.Threshold, due.TargetDate = "gt", f(200000), "2026-10-01"
	future := due
	future.TargetDate = "2027-01-01"
	dueItem, _ := svc.Create(context.Background(), due)
	futureItem, _ := svc.Create(context.Background(), future)
	repo.points = []models.SignalDataPoint{claimsPoint(260000)}

	rep, err := svc.ScoreDue(context.Background())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if rep.Scored != 1 {
		t.Fatalf("report=%+v", rep)
	}
	got := repo.items[dueItem.ID]
	if got.Outcome == nil || *got.Outcome != OutcomeHit || got.ScoredValue == nil {
		t.Fatalf("due=%+v", got)
	}
	if repo.items[futureItem.ID].ScoredAt != nil {
		t.Fatalf("future prediction scored early")
	}

	repo.points = []models.SignalDataPoint{claimsPoint(100000)}
	now = testNow.Add(time.Hour)
	rep, _ = svc.ScoreDue(context.Background())
	if rep.Scored != 0 || *repo.items[dueItem.ID].Outcome != OutcomeHit {
		t.Fatalf("rescored: %+v", rep)
	}
	if _, _, err := svc.ScoreOne(context.Background(), dueItem.ID); !errors.Is(err, repository.ErrAlreadyScored) {
		t.Fatalf("score one err=%v", err)
	}
}

func TestService_ScoreDueSkipsConcurrentScore(t *testing.T) {
	repo := newStubRepo()
	now := testNow
	svc := newService(repo, &now)
	p := base(TypeRange)
	p.Min, p.Max, p.TargetDate = f(1), f(2), "2026-10-01"
	item, _ := svc.Create(context.Background(), p)
	repo.raceID = item.ID

	rep, err := svc.ScoreDue(context.Background())
	if err != nil || rep.Scored != 0 || rep.Skipped != 1 || len(rep.Errors) != 0 {
		t.Fatalf("report=%+v err=%v", rep, err)
	}
}

func TestService_ScoreOneReportsConcurrentScore(t *testing.T) {
	repo := newStubRepo()
	now := testNow
	svc := newService(repo, &now)
	p := base(TypeRange)
	p.Min, p.Max, p.TargetDate = f(1), f(2), "2026-10-01"
	item, _ := svc.Create(context.Background(), p)
	repo.raceID = item.ID

	updated, ev, err := svc.ScoreOne(context.Background(), item.ID)
	if !errors.Is(err, repository.ErrAlreadyScored) {
		t.Fatalf("err=%v", err)
	}
	if !ev.ShouldScore || updated == nil || updated.ID != item.ID {
		t.Fatalf("ev=%+v updated=%+v", ev, updated)
	}
}

func TestService_ScoreOneAndStats(t *testing.T) {
	repo := newStubRepo()
	now := testNow
	svc := newService(repo, &now)
	p := base(TypeThreshold)
	p.Operator, p.Threshold, p.TargetDate = "lt", f(1), "2026-10-10"
	item, _ := svc.Create(context.Background(), p)
	pending := base(TypeThreshold)
	pending.Operator, pending.Threshold = "lt", f(1)
	_, _ = svc.Create(context.Background(), pending)

	updated, ev, err := svc.ScoreOne(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("score one: %v", err)
	}
	if !ev.ShouldScore || ev.Outcome != OutcomePartial || updated.ScoredAt == nil {
		t.Fatalf("ev=%+v updated=%+v", ev, updated)
	}
	if _, _, err := svc.ScoreOne(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err=%v", err)
	}

	st, err := svc.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 2 || st.Pending != 1 || st.Partials != 1 || !st.BattingAverage.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("stats=%+v", st)
	}
}
