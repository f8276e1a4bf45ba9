package gormrepository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/clause"

	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

func (s *Store) UpsertSignalDataPoints(ctx context.Context, items []models.SignalDataPoint) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domino_id"}, {Name: "signal_name"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"label",
			"status",
			"source",
			"recent",
			"updated_at",
		}),
	}).CreateInBatches(items, 200).Error
}

func (s *Store) ListSignalDataPoints(ctx context.Context, params repository.ListSignalDataPointsParams) ([]models.SignalDataPoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SignalDataPoint{})
	if params.DominoID != nil {
		query = query.Where("domino_id = ?", *params.DominoID)
	}
	if params.SignalName != nil && strings.TrimSpace(*params.SignalName) != "" {
		query = query.Where("signal_name = ?", strings.TrimSpace(*params.SignalName))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("date >= ?", *params.Since)
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "date")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.SignalDataPoint
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListLatestSignalDataPoints returns the newest data point per signal.
func (s *Store) ListLatestSignalDataPoints(ctx context.Context) ([]models.SignalDataPoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	latest := s.db.Model(&models.SignalDataPoint{}).
		Select("domino_id, signal_name, MAX(date) AS date").
		Group("domino_id, signal_name")
	var items []models.SignalDataPoint
	err := s.db.WithContext(ctx).
		Table("signal_data_points AS p").
		Select("p.*").
		Joins("JOIN (?) AS l ON p.domino_id = l.domino_id AND p.signal_name = l.signal_name AND p.date = l.date", latest).
		Order("p.domino_id asc").
		Order("p.signal_name asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteSignalDataPointsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil || before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("date < ?", before).
		Delete(&models.SignalDataPoint{})
	return res.RowsAffected, res.Error
}

func signalKey(dominoID int, signalName string) string {
	return fmt.Sprintf("%d/%s", dominoID, signalName)
}
