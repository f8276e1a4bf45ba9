package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

const (
	FeatureReconcile         = "feature.reconcile"
	FeatureDigest            = "feature.digest"
	FeaturePredictionScoring = "feature.prediction_scoring"
	FeatureAIDigest          = "feature.ai_digest"
	FeatureDataPointPrune    = "feature.data_point_prune"
)

var ErrUnknownFeature = errors.New("unknown feature switch")

func DefaultFeatureSwitches() map[string]bool {
	return map[string]bool{
		FeatureReconcile:         true,
		FeatureDigest:            true,
		FeaturePredictionScoring: true,
		FeatureAIDigest:          false, // needs llm.provider
		FeatureDataPointPrune:    true,
	}
}

func KnownFeature(key string) bool {
	_, ok := DefaultFeatureSwitches()[strings.TrimSpace(key)]
	return ok
}

type Switch struct {
	Key       string    `json:"key"`
	Enabled   bool      `json:"enabled"`
	Default   bool      `json:"default"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type SystemSettingsService struct {
	Repo repository.SettingsRepository
	Now  func() time.Time
}

func (s *SystemSettingsService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// EnsureDefaultSwitches creates missing switches. Stored values are kept.
func (s *SystemSettingsService) EnsureDefaultSwitches(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	now := s.now()
	for key, enabled := range DefaultFeatureSwitches() {
		existing, err := s.Repo.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := s.Repo.UpsertSystemSetting(ctx, switchRow(key, enabled, now)); err != nil {
			return err
		}
	}
	return nil
}

func (s *SystemSettingsService) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	if s == nil || s.Repo == nil {
		return fallback
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil || item == nil {
		return fallback
	}
	enabled, ok := decodeSwitch(item.Value)
	if !ok {
		return fallback
	}
	return enabled
}

func (s *SystemSettingsService) SetEnabled(ctx context.Context, key string, enabled bool) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if !KnownFeature(key) {
		return ErrUnknownFeature
	}
	return s.Repo.UpsertSystemSetting(ctx, switchRow(key, enabled, s.now()))
}

// Switches lists every known switch with its effective value.
func (s *SystemSettingsService) Switches(ctx context.Context) ([]Switch, error) {
	defaults := DefaultFeatureSwitches()
	out := make([]Switch, 0, len(defaults))
	stored := map[string]models.SystemSetting{}
	if s != nil && s.Repo != nil {
		prefix := "feature."
		items, err := s.Repo.ListSystemSettings(ctx, repository.ListSystemSettingsParams{Limit: 200, Prefix: &prefix})
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			stored[it.Key] = it
		}
	}
	for key, def := range defaults {
		sw := Switch{Key: key, Enabled: def, Default: def}
		if it, ok := stored[key]; ok {
			if v, ok := decodeSwitch(it.Value); ok {
				sw.Enabled = v
			}
			sw.UpdatedAt = it.UpdatedAt
		}
		out = append(out, sw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func switchRow(key string, enabled bool, now time.Time) *models.SystemSetting {
	raw, _ := json.Marshal(enabled)
	return &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: "feature switch",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func decodeSwitch(raw datatypes.JSON) (bool, bool) {
	if len(raw) == 0 {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, false
	}
	return v, true
}
