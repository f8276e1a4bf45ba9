package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

func (s *Store) InsertDigest(ctx context.Context, item *models.Digest) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetDigestByID(ctx context.Context, userID string, id uint64) (*models.Digest, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Digest
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, strings.TrimSpace(userID)).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) digestQuery(ctx context.Context, params repository.ListDigestsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Digest{})
	if v := strings.TrimSpace(params.UserID); v != "" {
		query = query.Where("user_id = ?", v)
	}
	return query
}

func (s *Store) ListDigests(ctx context.Context, params repository.ListDigestsParams) ([]models.Digest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOrder(s.digestQuery(ctx, params), params.OrderBy, params.Asc, "generated_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Digest
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountDigests(ctx context.Context, params repository.ListDigestsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.digestQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
