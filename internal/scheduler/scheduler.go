package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"asymmetricbridge/internal/feed"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/reconcile"
	"asymmetricbridge/internal/repository"
	"asymmetricbridge/internal/threshold"
)

const (
	DefaultMinInterval = 30 * time.Second
	DefaultMaxFeedAge  = 6 * time.Hour
)

// Reasons a tick did not run.
const (
	NotRunBusy    = "pass already running"
	NotRunTooSoon = "min interval not elapsed"
	NotRunNoFeeds = "no fresh feed data"
	NotRunNoUsers = "no status rows loaded"
)

// Scheduler owns the evaluation cadence. The last-run time lives here so
// the engine stays free of global state.
type Scheduler struct {
	Engine     *threshold.Engine
	Feeds      feed.Store
	Statuses   repository.StatusRepository
	DataPoints repository.DataPointRepository
	Reconciler *reconcile.Reconciler
	Logger     *zap.Logger

	MinInterval time.Duration
	MaxFeedAge  time.Duration
	Now         func() time.Time

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

type Report struct {
	Ran        bool                         `json:"ran"`
	NotRun     string                       `json:"not_run,omitempty"`
	At         time.Time                    `json:"at"`
	Sources    []string                     `json:"sources,omitempty"`
	Evaluated  int                          `json:"evaluated"`
	DataPoints int                          `json:"data_points"`
	Outcomes   map[string]reconcile.Outcome `json:"outcomes,omitempty"`
	Errors     []string                     `json:"errors,omitempty"`
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) begin(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return NotRunBusy
	}
	interval := s.MinInterval
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < interval {
		return NotRunTooSoon
	}
	s.running = true
	return ""
}

func (s *Scheduler) end(now time.Time, ran bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if ran {
		s.lastRun = now
	}
}

// Tick runs one pass when the interval has elapsed and there is both fresh
// feed data and at least one user with status rows.
func (s *Scheduler) Tick(ctx context.Context) (Report, error) {
	if s == nil || s.Engine == nil || s.Feeds == nil || s.Statuses == nil || s.Reconciler == nil {
		return Report{}, errors.New("scheduler not configured")
	}
	now := s.now()
	rep := Report{At: now}
	if reason := s.begin(now); reason != "" {
		rep.NotRun = reason
		return rep, nil
	}
	ran := false
	defer func() { s.end(now, ran) }()

	all, err := s.Feeds.All(ctx)
	if err != nil {
		return rep, err
	}
	maxAge := s.MaxFeedAge
	if maxAge <= 0 {
		maxAge = DefaultMaxFeedAge
	}
	fresh := make(map[string]feed.Snapshot, len(all))
	for name, snap := range all {
		if snap.Fresh(now, maxAge) {
			fresh[name] = snap
			rep.Sources = append(rep.Sources, name)
		}
	}
	if len(fresh) == 0 {
		rep.NotRun = NotRunNoFeeds
		return rep, nil
	}
	users, err := s.Statuses.ListStatusUserIDs(ctx)
	if err != nil {
		return rep, err
	}
	if len(users) == 0 {
		rep.NotRun = NotRunNoUsers
		return rep, nil
	}

	ran = true
	rep.Ran = true
	results := s.Engine.Evaluate(fresh)
	points := DataPointsFromResults(results, now)
	rep.Evaluated = len(points)
	if s.DataPoints != nil && len(points) > 0 {
		if err := s.DataPoints.UpsertSignalDataPoints(ctx, points); err != nil {
			rep.Errors = append(rep.Errors, "data points: "+err.Error())
			if s.Logger != nil {
				s.Logger.Warn("persist data points failed", zap.Error(err))
			}
		} else {
			rep.DataPoints = len(points)
		}
	}

	rep.Outcomes = make(map[string]reconcile.Outcome, len(users))
	for _, user := range users {
		out, err := s.Reconciler.ReconcileUser(ctx, user, results)
		if err != nil {
			rep.Errors = append(rep.Errors, user+": "+err.Error())
			if s.Logger != nil {
				s.Logger.Warn("reconcile user failed", zap.String("user_id", user), zap.Error(err))
			}
			continue
		}
		rep.Outcomes[user] = out
	}
	return rep, nil
}

// DataPointsFromResults builds one dated row per successful extraction.
func DataPointsFromResults(results []threshold.Result, now time.Time) []models.SignalDataPoint {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]models.SignalDataPoint, 0, len(results))
	for _, r := range results {
		if !r.Evaluated || r.Reading == nil {
			continue
		}
		var recent datatypes.JSON
		if len(r.Reading.Recent) > 0 {
			raw, err := json.Marshal(r.Reading.Recent)
			if err == nil {
				recent = datatypes.JSON(raw)
			}
		}
		out = append(out, models.SignalDataPoint{
			DominoID:   r.Key.DominoID,
			SignalName: r.Key.Signal,
			Date:       day,
			Value:      decimal.NewFromFloat(r.Reading.Value),
			Label:      r.Reading.Label,
			Status:     string(r.NewStatus),
			Source:     r.Source,
			Recent:     recent,
		})
	}
	return out
}
