package reconcile

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"gorm.io/gorm"

	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

// stubRepo is an in-memory repository.StatusRepository. failUpdate and
// failHistory inject errors for one signal name.
type stubRepo struct {
	mu          sync.Mutex
	statuses    map[string]models.SignalStatus
	history     []models.SignalHistory
	failUpdate  string
	failHistory string
}

func newStubRepo(rows ...models.SignalStatus) *stubRepo {
	s := &stubRepo{statuses: map[string]models.SignalStatus{}}
	for _, r := range rows {
		s.statuses[stubKey(r.UserID, r.DominoID, r.SignalName)] = r
	}
	return s
}

func stubKey(user string, dominoID int, name string) string {
	return user + "|" + strconv.Itoa(dominoID) + "|" + name
}

// InTx snapshots state and restores it if fn fails.
func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	saved := map[string]models.SignalStatus{}
	for k, v := range s.statuses {
		saved[k] = v
	}
	histLen := len(s.history)
	s.mu.Unlock()
	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.statuses = saved
		s.history = s.history[:histLen]
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *stubRepo) ListSignalStatuses(ctx context.Context, userID string) ([]models.SignalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SignalStatus
	for _, v := range s.statuses {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *stubRepo) GetSignalStatus(ctx context.Context, userID string, dominoID int, signalName string) (*models.SignalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.statuses[stubKey(userID, dominoID, signalName)]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *stubRepo) ListStatusUserIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, v := range s.statuses {
		if _, ok := seen[v.UserID]; !ok {
			seen[v.UserID] = struct{}{}
			out = append(out, v.UserID)
		}
	}
	return out, nil
}

func (s *stubRepo) CreateMissingSignalStatuses(ctx context.Context, items []models.SignalStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, it := range items {
		k := stubKey(it.UserID, it.DominoID, it.SignalName)
		if _, ok := s.statuses[k]; ok {
			continue
		}
		s.statuses[k] = it
		n++
	}
	return n, nil
}

func (s *stubRepo) UpdateSignalStatusTx(ctx context.Context, tx *gorm.DB, p repository.UpdateSignalStatusParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.SignalName == s.failUpdate {
		return errors.New("update failed")
	}
	k := stubKey(p.UserID, p.DominoID, p.SignalName)
	row, ok := s.statuses[k]
	if !ok ||
		(p.ExpectStatus != "" && row.Status != p.ExpectStatus) ||
		(p.ExpectUpdatedBy != "" && row.UpdatedBy != p.ExpectUpdatedBy) ||
		(p.RequireNoOverride && row.IsOverride) ||
		(p.NotUpdatedAfter != nil && row.UpdatedAt.After(*p.NotUpdatedAfter)) {
		return repository.ErrStatusConflict
	}
	row.Status = p.Status
	row.IsOverride = p.IsOverride
	row.UpdatedBy = p.UpdatedBy
	row.UpdatedAt = p.UpdatedAt
	s.statuses[k] = row
	return nil
}

func (s *stubRepo) UpsertSignalStatusTx(ctx context.Context, tx *gorm.DB, item *models.SignalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[stubKey(item.UserID, item.DominoID, item.SignalName)] = *item
	return nil
}

func (s *stubRepo) ClearSignalOverride(ctx context.Context, userID string, dominoID int, signalName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := stubKey(userID, dominoID, signalName)
	row, ok := s.statuses[k]
	if !ok || !row.IsOverride {
		return 0, nil
	}
	row.IsOverride = false
	s.statuses[k] = row
	return 1, nil
}

func (s *stubRepo) InsertSignalHistoryTx(ctx context.Context, tx *gorm.DB, item *models.SignalHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.SignalName == s.failHistory {
		return errors.New("history insert failed")
	}
	if item.OldStatus == item.NewStatus {
		return errors.New("no-op history entry")
	}
	s.history = append(s.history, *item)
	return nil
}

var _ repository.StatusRepository = (*stubRepo)(nil)
