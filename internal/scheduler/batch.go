package scheduler

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/reconcile"
	"asymmetricbridge/internal/repository"
	"asymmetricbridge/internal/threshold"
)

// Batch replays the newest stored data point per signal through the rules
// and reconciles every user. It needs no live feed.
type Batch struct {
	Engine     *threshold.Engine
	DataPoints repository.DataPointRepository
	Statuses   repository.StatusRepository
	Reconciler *reconcile.Reconciler
	Logger     *zap.Logger
}

type BatchReport struct {
	Points   int                          `json:"points"`
	Results  []threshold.Result           `json:"results"`
	Outcomes map[string]reconcile.Outcome `json:"outcomes"`
	Errors   []string                     `json:"errors,omitempty"`
}

func (b *Batch) Run(ctx context.Context) (BatchReport, error) {
	if b == nil || b.Engine == nil || b.DataPoints == nil || b.Statuses == nil || b.Reconciler == nil {
		return BatchReport{}, errors.New("batch not configured")
	}
	points, err := b.DataPoints.ListLatestSignalDataPoints(ctx)
	if err != nil {
		return BatchReport{}, err
	}
	rep := BatchReport{Points: len(points), Outcomes: map[string]reconcile.Outcome{}}
	rep.Results = ReplayResults(b.Engine, points)

	users, err := b.Statuses.ListStatusUserIDs(ctx)
	if err != nil {
		return rep, err
	}
	for _, user := range users {
		out, err := b.Reconciler.ReconcileUser(ctx, user, rep.Results)
		if err != nil {
			rep.Errors = append(rep.Errors, user+": "+err.Error())
			if b.Logger != nil {
				b.Logger.Warn("batch reconcile failed", zap.String("user_id", user), zap.Error(err))
			}
			continue
		}
		rep.Outcomes[user] = out
	}
	return rep, nil
}

// ReplayResults classifies stored readings. Points without a rule are dropped.
func ReplayResults(engine *threshold.Engine, points []models.SignalDataPoint) []threshold.Result {
	out := make([]threshold.Result, 0, len(points))
	for _, p := range points {
		rule, ok := engine.Rule(domino.Key{DominoID: p.DominoID, Signal: p.SignalName})
		if !ok {
			continue
		}
		reading := threshold.Reading{Value: p.Value.InexactFloat64(), Label: p.Label}
		if len(p.Recent) > 0 {
			_ = json.Unmarshal(p.Recent, &reading.Recent)
		}
		out = append(out, engine.Classify(rule, reading))
	}
	return out
}
