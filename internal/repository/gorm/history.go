package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

func (s *Store) historyQuery(ctx context.Context, params repository.ListSignalHistoryParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.SignalHistory{})
	if v := strings.TrimSpace(params.UserID); v != "" {
		query = query.Where("user_id = ?", v)
	}
	if params.DominoID != nil {
		query = query.Where("domino_id = ?", *params.DominoID)
	}
	if params.SignalName != nil && strings.TrimSpace(*params.SignalName) != "" {
		query = query.Where("signal_name = ?", strings.TrimSpace(*params.SignalName))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("changed_at >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("changed_at <= ?", *params.Until)
	}
	return query
}

func (s *Store) ListSignalHistory(ctx context.Context, params repository.ListSignalHistoryParams) ([]models.SignalHistory, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOrder(s.historyQuery(ctx, params), params.OrderBy, params.Asc, "changed_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.SignalHistory
	if err := query.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSignalHistory(ctx context.Context, params repository.ListSignalHistoryParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.historyQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListLatestSignalHistory returns the newest entry per signal for a user,
// regardless of age.
func (s *Store) ListLatestSignalHistory(ctx context.Context, userID string) ([]models.SignalHistory, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	userID = strings.TrimSpace(userID)
	latest := s.db.Model(&models.SignalHistory{}).
		Select("domino_id, signal_name, MAX(changed_at) AS changed_at").
		Where("user_id = ?", userID).
		Group("domino_id, signal_name")
	var rows []models.SignalHistory
	err := s.db.WithContext(ctx).
		Table("signal_history AS h").
		Select("h.*").
		Joins("JOIN (?) AS l ON h.domino_id = l.domino_id AND h.signal_name = l.signal_name AND h.changed_at = l.changed_at", latest).
		Where("h.user_id = ?", userID).
		Order("h.id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	// Same-timestamp ties keep the highest id.
	out := make([]models.SignalHistory, 0, len(rows))
	seen := map[string]struct{}{}
	for _, r := range rows {
		k := signalKey(r.DominoID, r.SignalName)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}
