package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

func (s *Store) ListSignalStatuses(ctx context.Context, userID string) ([]models.SignalStatus, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SignalStatus
	err := s.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("domino_id asc").
		Order("signal_name asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetSignalStatus(ctx context.Context, userID string, dominoID int, signalName string) (*models.SignalStatus, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SignalStatus
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND domino_id = ? AND signal_name = ?", strings.TrimSpace(userID), dominoID, signalName).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListStatusUserIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.SignalStatus{}).
		Distinct("user_id").
		Order("user_id asc").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateMissingSignalStatuses inserts rows that do not exist yet and leaves
// existing rows untouched.
func (s *Store) CreateMissingSignalStatuses(ctx context.Context, items []models.SignalStatus) (int64, error) {
	if s == nil || s.db == nil || len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "domino_id"}, {Name: "signal_name"}},
		DoNothing: true,
	}).Create(&items)
	return res.RowsAffected, res.Error
}

func (s *Store) UpdateSignalStatusTx(ctx context.Context, tx *gorm.DB, params repository.UpdateSignalStatusParams) error {
	if s == nil || s.db == nil {
		return nil
	}
	query := s.conn(ctx, tx).
		Model(&models.SignalStatus{}).
		Where("user_id = ? AND domino_id = ? AND signal_name = ?", params.UserID, params.DominoID, params.SignalName)
	if params.ExpectStatus != "" {
		query = query.Where("status = ?", params.ExpectStatus)
	}
	if params.ExpectUpdatedBy != "" {
		query = query.Where("updated_by = ?", params.ExpectUpdatedBy)
	}
	if params.RequireNoOverride {
		query = query.Where("is_override = ?", false)
	}
	if params.NotUpdatedAfter != nil {
		query = query.Where("updated_at <= ?", *params.NotUpdatedAfter)
	}
	res := query.UpdateColumns(map[string]any{
		"status":      params.Status,
		"is_override": params.IsOverride,
		"updated_by":  params.UpdatedBy,
		"updated_at":  params.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

func (s *Store) UpsertSignalStatusTx(ctx context.Context, tx *gorm.DB, item *models.SignalStatus) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.conn(ctx, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "domino_id"}, {Name: "signal_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"is_override",
			"updated_by",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) ClearSignalOverride(ctx context.Context, userID string, dominoID int, signalName string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.SignalStatus{}).
		Where("user_id = ? AND domino_id = ? AND signal_name = ?", userID, dominoID, signalName).
		Where("is_override = ?", true).
		UpdateColumn("is_override", false)
	return res.RowsAffected, res.Error
}

func (s *Store) InsertSignalHistoryTx(ctx context.Context, tx *gorm.DB, item *models.SignalHistory) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.OldStatus == item.NewStatus {
		return errors.New("history entry must change status")
	}
	return s.conn(ctx, tx).Create(item).Error
}
