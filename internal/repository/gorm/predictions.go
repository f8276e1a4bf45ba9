package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

func (s *Store) InsertPrediction(ctx context.Context, item *models.Prediction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetPredictionByID(ctx context.Context, id string) (*models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var item models.Prediction
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) predictionQuery(ctx context.Context, params repository.ListPredictionsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Prediction{})
	if params.UserID != nil && strings.TrimSpace(*params.UserID) != "" {
		query = query.Where("user_id = ?", strings.TrimSpace(*params.UserID))
	}
	if params.DominoID != nil {
		query = query.Where("domino_id = ?", *params.DominoID)
	}
	if params.SignalName != nil && strings.TrimSpace(*params.SignalName) != "" {
		query = query.Where("signal_name = ?", strings.TrimSpace(*params.SignalName))
	}
	if params.Pending != nil {
		if *params.Pending {
			query = query.Where("scored_at IS NULL")
		} else {
			query = query.Where("scored_at IS NOT NULL")
		}
	}
	if params.DueBefore != nil && !params.DueBefore.IsZero() {
		query = query.Where("target_date < ?", *params.DueBefore)
	}
	return query
}

func (s *Store) ListPredictions(ctx context.Context, params repository.ListPredictionsParams) ([]models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOrder(s.predictionQuery(ctx, params), params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Prediction
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPredictions(ctx context.Context, params repository.ListPredictionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.predictionQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ScorePrediction writes the outcome only while the row is still pending.
func (s *Store) ScorePrediction(ctx context.Context, params repository.ScorePredictionParams) error {
	if s == nil || s.db == nil {
		return nil
	}
	updates := map[string]any{
		"outcome":   params.Outcome,
		"scored_at": params.ScoredAt,
	}
	if params.Value != nil {
		updates["scored_value"] = *params.Value
	}
	res := s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("id = ?", params.ID).
		Where("scored_at IS NULL").
		UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrAlreadyScored
	}
	return nil
}
