package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/notify"
	"asymmetricbridge/internal/repository"
	"asymmetricbridge/internal/threshold"
)

// ChangeError is a failed write attributed to one staged change.
type ChangeError struct {
	Change Change
	Err    error
}

func (e ChangeError) Error() string {
	return fmt.Sprintf("apply %s %s->%s: %v", e.Change.Key, e.Change.Old, e.Change.New, e.Err)
}

func (e ChangeError) Unwrap() error { return e.Err }

func (e ChangeError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"change": e.Change,
		"error":  e.Err.Error(),
	})
}

type Outcome struct {
	Applied int           `json:"applied"`
	Skipped int           `json:"skipped"`
	Errors  []ChangeError `json:"errors"`
	Changes []Change      `json:"changes"`
	Skips   []Skip        `json:"skips"`
}

type Reconciler struct {
	Repo           repository.StatusRepository
	Logger         *zap.Logger
	Publisher      notify.Publisher
	DebounceWindow time.Duration
	Now            func() time.Time
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Reconciler) window() time.Duration {
	if r.DebounceWindow > 0 {
		return r.DebounceWindow
	}
	return DefaultDebounceWindow
}

// ReconcileUser loads the user's status rows and reconciles against them.
func (r *Reconciler) ReconcileUser(ctx context.Context, userID string, results []threshold.Result) (Outcome, error) {
	if r == nil || r.Repo == nil {
		return Outcome{}, errors.New("reconciler not configured")
	}
	rows, err := r.Repo.ListSignalStatuses(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	return r.Reconcile(ctx, userID, results, rows), nil
}

// Reconcile applies every planned change in its own transaction. Failures are
// collected per change and never stop the batch.
func (r *Reconciler) Reconcile(ctx context.Context, userID string, results []threshold.Result, current []models.SignalStatus) Outcome {
	out := Outcome{Errors: []ChangeError{}, Changes: []Change{}, Skips: []Skip{}}
	if r == nil || r.Repo == nil {
		return out
	}
	now := r.now()
	window := r.window()
	plan := Plan(results, IndexStatuses(current), now, window)
	out.Skips = append(out.Skips, plan.Skips...)

	for _, ch := range plan.Changes {
		err := r.apply(ctx, userID, ch, now, window)
		switch {
		case err == nil:
			out.Applied++
			out.Changes = append(out.Changes, ch)
			r.publish(ctx, userID, ch, now)
		case errors.Is(err, repository.ErrStatusConflict):
			out.Skips = append(out.Skips, Skip{Key: ch.Key, Reason: SkipConflict})
		default:
			out.Errors = append(out.Errors, ChangeError{Change: ch, Err: err})
			if r.Logger != nil {
				r.Logger.Warn("status change failed",
					zap.String("user_id", userID),
					zap.Int("domino_id", ch.Key.DominoID),
					zap.String("signal", ch.Key.Signal),
					zap.Error(err),
				)
			}
		}
	}
	out.Skipped = len(out.Skips)
	if r.Logger != nil && (out.Applied > 0 || len(out.Errors) > 0) {
		r.Logger.Info("reconcile pass",
			zap.String("user_id", userID),
			zap.Int("applied", out.Applied),
			zap.Int("skipped", out.Skipped),
			zap.Int("errors", len(out.Errors)),
		)
	}
	return out
}

func (r *Reconciler) apply(ctx context.Context, userID string, ch Change, now time.Time, window time.Duration) error {
	params := repository.UpdateSignalStatusParams{
		UserID:            userID,
		DominoID:          ch.Key.DominoID,
		SignalName:        ch.Key.Signal,
		ExpectStatus:      string(ch.Old),
		RequireNoOverride: true,
		Status:            string(ch.New),
		IsOverride:        false,
		UpdatedBy:         domino.UpdatedByAuto,
		UpdatedAt:         now,
	}
	if ch.seeded {
		// Any manual or automated write replaces updated_by, so this still
		// detects a concurrent writer.
		params.ExpectUpdatedBy = domino.UpdatedBySeed
	} else {
		cutoff := now.Add(-window)
		params.NotUpdatedAfter = &cutoff
	}
	return r.Repo.InTx(ctx, func(tx *gorm.DB) error {
		err := r.Repo.UpdateSignalStatusTx(ctx, tx, params)
		if err != nil {
			return err
		}
		return r.Repo.InsertSignalHistoryTx(ctx, tx, &models.SignalHistory{
			UserID:      userID,
			DominoID:    ch.Key.DominoID,
			SignalName:  ch.Key.Signal,
			OldStatus:   string(ch.Old),
			NewStatus:   string(ch.New),
			TriggerType: domino.TriggerAuto,
			Reason:      ch.Reason,
			ChangedAt:   now,
		})
	})
}

func (r *Reconciler) publish(ctx context.Context, userID string, ch Change, at time.Time) {
	publish(ctx, r.Publisher, r.Logger, notify.Transition{
		UserID:      userID,
		DominoID:    ch.Key.DominoID,
		SignalName:  ch.Key.Signal,
		OldStatus:   string(ch.Old),
		NewStatus:   string(ch.New),
		TriggerType: domino.TriggerAuto,
		Reason:      ch.Reason,
		ChangedAt:   at,
	})
}

func publish(ctx context.Context, p notify.Publisher, logger *zap.Logger, ev notify.Transition) {
	if p == nil {
		return
	}
	if err := p.PublishTransition(ctx, ev); err != nil && logger != nil {
		logger.Warn("publish transition failed",
			zap.Int("domino_id", ev.DominoID),
			zap.String("signal", ev.SignalName),
			zap.Error(err),
		)
	}
}
