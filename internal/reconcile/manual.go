package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/notify"
	"asymmetricbridge/internal/repository"
)

var (
	ErrUnknownSignal = errors.New("unknown signal")
	ErrInvalidStatus = errors.New("status must be green, amber or red")
)

// Manual handles human status actions.
type Manual struct {
	Repo      repository.StatusRepository
	Catalog   domino.Catalog
	Logger    *zap.Logger
	Publisher notify.Publisher
	Now       func() time.Time
}

type SetResult struct {
	Status  *models.SignalStatus `json:"status"`
	Changed bool                 `json:"changed"`
}

func (m *Manual) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

// manualAttempts bounds retries when an automated write lands between the
// read and the conditional update.
const manualAttempts = 3

// Set writes a manual status and marks it as an override. A history entry is
// appended only when the status actually changes. The write is conditional on
// the status that was read, so a concurrent automated change is re-read and
// recorded against the right old status.
func (m *Manual) Set(ctx context.Context, userID string, key domino.Key, rawStatus, reason string) (SetResult, error) {
	if m == nil || m.Repo == nil {
		return SetResult{}, errors.New("manual status service not configured")
	}
	_, sig, ok := m.Catalog.Lookup(key)
	if !ok {
		return SetResult{}, ErrUnknownSignal
	}
	status, ok := domino.ParseStatus(rawStatus)
	if !ok {
		return SetResult{}, ErrInvalidStatus
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "manual update"
	}
	for attempt := 0; attempt < manualAttempts; attempt++ {
		res, old, err := m.set(ctx, userID, key, sig, status, reason)
		if errors.Is(err, repository.ErrStatusConflict) {
			continue
		}
		if err != nil {
			return SetResult{}, err
		}
		if res.Changed {
			publish(ctx, m.Publisher, m.Logger, notify.Transition{
				UserID:      userID,
				DominoID:    key.DominoID,
				SignalName:  key.Signal,
				OldStatus:   string(old),
				NewStatus:   string(status),
				TriggerType: domino.TriggerManual,
				Reason:      reason,
				ChangedAt:   res.Status.UpdatedAt,
			})
		}
		return res, nil
	}
	return SetResult{}, repository.ErrStatusConflict
}

func (m *Manual) set(ctx context.Context, userID string, key domino.Key, sig domino.Signal, status domino.Status, reason string) (SetResult, domino.Status, error) {
	existing, err := m.Repo.GetSignalStatus(ctx, userID, key.DominoID, key.Signal)
	if err != nil {
		return SetResult{}, "", err
	}
	old := sig.InitialStatus()
	if existing != nil {
		old = domino.Status(existing.Status)
	}
	now := m.now()
	row := &models.SignalStatus{
		UserID:     userID,
		DominoID:   key.DominoID,
		SignalName: key.Signal,
		Status:     string(status),
		IsOverride: true,
		UpdatedBy:  domino.UpdatedByManual,
		UpdatedAt:  now,
	}
	changed := old != status
	err = m.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if existing == nil {
			// Automation never creates rows, so a missing row can only race
			// with seeding, which writes the catalog default.
			if err := m.Repo.UpsertSignalStatusTx(ctx, tx, row); err != nil {
				return err
			}
		} else if err := m.Repo.UpdateSignalStatusTx(ctx, tx, repository.UpdateSignalStatusParams{
			UserID:       userID,
			DominoID:     key.DominoID,
			SignalName:   key.Signal,
			ExpectStatus: existing.Status,
			Status:       row.Status,
			IsOverride:   true,
			UpdatedBy:    row.UpdatedBy,
			UpdatedAt:    now,
		}); err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return m.Repo.InsertSignalHistoryTx(ctx, tx, &models.SignalHistory{
			UserID:      userID,
			DominoID:    key.DominoID,
			SignalName:  key.Signal,
			OldStatus:   string(old),
			NewStatus:   string(status),
			TriggerType: domino.TriggerManual,
			Reason:      reason,
			ChangedAt:   now,
		})
	})
	if err != nil {
		return SetResult{}, "", err
	}
	return SetResult{Status: row, Changed: changed}, old, nil
}

// Release clears the override flag so automation can write the signal again.
// The status itself is kept and no history is recorded.
func (m *Manual) Release(ctx context.Context, userID string, key domino.Key) (bool, error) {
	if m == nil || m.Repo == nil {
		return false, errors.New("manual status service not configured")
	}
	if _, _, ok := m.Catalog.Lookup(key); !ok {
		return false, ErrUnknownSignal
	}
	n, err := m.Repo.ClearSignalOverride(ctx, userID, key.DominoID, key.Signal)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Seed creates missing status rows from catalog defaults. Existing rows are
// left alone.
func Seed(ctx context.Context, repo repository.StatusRepository, cat domino.Catalog, userID string, now time.Time) (int64, error) {
	if repo == nil {
		return 0, nil
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	rows := make([]models.SignalStatus, 0, cat.SignalCount())
	for _, d := range cat.Dominos {
		for _, s := range d.Signals {
			rows = append(rows, models.SignalStatus{
				UserID:     userID,
				DominoID:   d.ID,
				SignalName: s.Name,
				Status:     string(s.InitialStatus()),
				UpdatedBy:  domino.UpdatedBySeed,
				UpdatedAt:  now.UTC(),
			})
		}
	}
	return repo.CreateMissingSignalStatuses(ctx, rows)
}
