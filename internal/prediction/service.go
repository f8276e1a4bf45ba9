package prediction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
	"asymmetricbridge/internal/service"
)

var ErrNotFound = errors.New("prediction not found")

type Service struct {
	Repo       repository.PredictionRepository
	DataPoints repository.DataPointRepository
	Catalog    domino.Catalog
	Flags      *service.SystemSettingsService
	Logger     *zap.Logger
	Now        func() time.Time
}

type ScoreReport struct {
	Scored  int      `json:"scored"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create validates and stores a prediction. Direction predictions without a
// baseline capture the latest stored reading.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Prediction, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("prediction service not configured")
	}
	key := domino.Key{DominoID: params.DominoID, Signal: strings.TrimSpace(params.SignalName)}
	if _, _, ok := s.Catalog.Lookup(key); !ok && key.Signal != "" {
		return nil, invalid("signal_name", "unknown signal for domino %d", params.DominoID)
	}
	if strings.EqualFold(strings.TrimSpace(params.Type), TypeDirection) && params.Baseline == nil {
		readings, err := s.readings(ctx)
		if err != nil {
			return nil, err
		}
		if v, ok := readings[key]; ok {
			params.Baseline = &v
		}
	}
	item, err := Create(params, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Repo.InsertPrediction(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// readings maps each signal to its newest stored value.
func (s *Service) readings(ctx context.Context) (map[domino.Key]float64, error) {
	out := map[domino.Key]float64{}
	if s.DataPoints == nil {
		return out, nil
	}
	points, err := s.DataPoints.ListLatestSignalDataPoints(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		out[domino.Key{DominoID: p.DominoID, Signal: p.SignalName}] = p.Value.InexactFloat64()
	}
	return out, nil
}

// ScoreDue scores every pending prediction whose target date has passed.
// A row scored concurrently counts as skipped.
func (s *Service) ScoreDue(ctx context.Context) (ScoreReport, error) {
	var rep ScoreReport
	if s == nil || s.Repo == nil {
		return rep, nil
	}
	if s.Flags != nil && !s.Flags.IsEnabled(ctx, service.FeaturePredictionScoring, true) {
		return rep, nil
	}
	now := s.now()
	pending := true
	due, err := s.Repo.ListPredictions(ctx, repository.ListPredictionsParams{
		Limit:     500,
		Pending:   &pending,
		DueBefore: &now,
		OrderBy:   "target_date",
	})
	if err != nil {
		return rep, err
	}
	if len(due) == 0 {
		return rep, nil
	}
	readings, err := s.readings(ctx)
	if err != nil {
		return rep, err
	}
	for _, p := range due {
		scored, err := s.score(ctx, p, readings, now)
		switch {
		case err != nil:
			rep.Errors = append(rep.Errors, p.ID+": "+err.Error())
			if s.Logger != nil {
				s.Logger.Warn("score prediction failed", zap.String("prediction_id", p.ID), zap.Error(err))
			}
		case scored:
			rep.Scored++
		default:
			rep.Skipped++
		}
	}
	return rep, nil
}

// ScoreOne scores a single prediction if it is due.
func (s *Service) ScoreOne(ctx context.Context, id string) (*models.Prediction, Evaluation, error) {
	if s == nil || s.Repo == nil {
		return nil, Evaluation{}, errors.New("prediction service not configured")
	}
	p, err := s.Repo.GetPredictionByID(ctx, id)
	if err != nil {
		return nil, Evaluation{}, err
	}
	if p == nil {
		return nil, Evaluation{}, ErrNotFound
	}
	if p.ScoredAt != nil {
		return p, Evaluation{}, repository.ErrAlreadyScored
	}
	readings, err := s.readings(ctx)
	if err != nil {
		return nil, Evaluation{}, err
	}
	now := s.now()
	ev := Evaluate(*p, reading(readings, *p), now)
	if !ev.ShouldScore {
		return p, ev, nil
	}
	scored, err := s.score(ctx, *p, readings, now)
	if err != nil {
		return nil, ev, err
	}
	updated, err := s.Repo.GetPredictionByID(ctx, id)
	if err != nil {
		return nil, ev, err
	}
	if !scored {
		// Scored concurrently between the read and the write.
		return updated, ev, repository.ErrAlreadyScored
	}
	return updated, ev, nil
}

func (s *Service) score(ctx context.Context, p models.Prediction, readings map[domino.Key]float64, now time.Time) (bool, error) {
	r := reading(readings, p)
	ev := Evaluate(p, r, now)
	if !ev.ShouldScore {
		return false, nil
	}
	params := repository.ScorePredictionParams{ID: p.ID, Outcome: ev.Outcome, ScoredAt: now}
	if r != nil {
		v := decimal.NewFromFloat(*r)
		params.Value = &v
	}
	err := s.Repo.ScorePrediction(ctx, params)
	if errors.Is(err, repository.ErrAlreadyScored) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func reading(readings map[domino.Key]float64, p models.Prediction) *float64 {
	v, ok := readings[domino.Key{DominoID: p.DominoID, Signal: p.SignalName}]
	if !ok {
		return nil
	}
	return &v
}

// Stats summarizes a user's predictions.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	if s == nil || s.Repo == nil {
		return BattingAverage(nil), nil
	}
	var all []models.Prediction
	for offset := 0; ; offset += 500 {
		page, err := s.Repo.ListPredictions(ctx, repository.ListPredictionsParams{
			Limit:  500,
			Offset: offset,
			UserID: &userID,
		})
		if err != nil {
			return Stats{}, err
		}
		all = append(all, page...)
		if len(page) < 500 {
			break
		}
	}
	return BattingAverage(all), nil
}
