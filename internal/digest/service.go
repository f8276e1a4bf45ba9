package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
	"asymmetricbridge/internal/service"
)

var ErrInvalidRange = errors.New("invalid digest range")

const (
	DefaultDays    = 7
	DefaultMaxDays = 90

	historyPageSize = 500
)

var validate = validator.New()

type Options struct {
	Days int `json:"days" validate:"gte=1,lte=365"`
}

type Service struct {
	Statuses  repository.StatusRepository
	History   repository.HistoryRepository
	Digests   repository.DigestRepository
	Catalog   domino.Catalog
	Generator ReportGenerator
	// AI is used instead of Generator when feature.ai_digest is on.
	AI     ReportGenerator
	Flags  *service.SystemSettingsService
	Logger *zap.Logger

	DefaultDays    int
	MaxDays        int
	StaleAfterDays int
	Now            func() time.Time
}

type Result struct {
	Digest *models.Digest `json:"digest"`
	Data   Data           `json:"data"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// NormalizeOptions applies the default range and checks the bounds.
func (s *Service) NormalizeOptions(opts Options) (Options, error) {
	if opts.Days == 0 {
		opts.Days = s.DefaultDays
		if opts.Days <= 0 {
			opts.Days = DefaultDays
		}
	}
	if err := validate.Struct(opts); err != nil {
		return opts, fmt.Errorf("%w: days must be between 1 and 365", ErrInvalidRange)
	}
	maxDays := s.MaxDays
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	if opts.Days > maxDays {
		return opts, fmt.Errorf("%w: days must not exceed %d", ErrInvalidRange, maxDays)
	}
	return opts, nil
}

// Build aggregates the user's data without persisting anything.
func (s *Service) Build(ctx context.Context, userID string, opts Options) (Data, error) {
	if s == nil || s.Statuses == nil || s.History == nil {
		return Data{}, errors.New("digest service not configured")
	}
	opts, err := s.NormalizeOptions(opts)
	if err != nil {
		return Data{}, err
	}
	now := s.now()
	period := PeriodFor(now, opts.Days)

	history, err := s.periodHistory(ctx, userID, period)
	if err != nil {
		return Data{}, err
	}
	statuses, err := s.Statuses.ListSignalStatuses(ctx, userID)
	if err != nil {
		return Data{}, err
	}
	latest, err := s.History.ListLatestSignalHistory(ctx, userID)
	if err != nil {
		return Data{}, err
	}
	return Aggregate(Input{
		Days:           opts.Days,
		Now:            now,
		History:        history,
		Statuses:       statuses,
		Latest:         latest,
		Catalog:        s.Catalog,
		StaleAfterDays: s.StaleAfterDays,
	}), nil
}

func (s *Service) periodHistory(ctx context.Context, userID string, period Period) ([]models.SignalHistory, error) {
	since, until := period.Start, period.End
	var out []models.SignalHistory
	for offset := 0; ; offset += historyPageSize {
		page, err := s.History.ListSignalHistory(ctx, repository.ListSignalHistoryParams{
			Limit:  historyPageSize,
			Offset: offset,
			UserID: userID,
			Since:  &since,
			Until:  &until,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < historyPageSize {
			return out, nil
		}
	}
}

func (s *Service) generator(ctx context.Context) ReportGenerator {
	if s.AI != nil && s.Flags != nil && s.Flags.IsEnabled(ctx, service.FeatureAIDigest, false) {
		return s.AI
	}
	if s.Generator != nil {
		return s.Generator
	}
	return TemplateGenerator{}
}

// Generate builds, renders and stores a digest.
func (s *Service) Generate(ctx context.Context, userID string, opts Options) (Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Result{}, errors.New("user id is required")
	}
	data, err := s.Build(ctx, userID, opts)
	if err != nil {
		return Result{}, err
	}
	report := s.generator(ctx).Generate(ctx, data)
	raw, err := json.Marshal(data)
	if err != nil {
		return Result{}, err
	}
	item := &models.Digest{
		UserID:            userID,
		PeriodStart:       data.Period.Start,
		PeriodEnd:         data.Period.End,
		Content:           report.Content,
		ThreatLevel:       data.ThreatLevel,
		Source:            report.Source,
		Data:              datatypes.JSON(raw),
		EscalationCount:   len(data.Escalations),
		DeescalationCount: len(data.Deescalations),
		GeneratedAt:       data.GeneratedAt,
	}
	if s.Digests != nil {
		if err := s.Digests.InsertDigest(ctx, item); err != nil {
			return Result{}, err
		}
	}
	return Result{Digest: item, Data: data}, nil
}

// RunScheduled generates the default-range digest for every user with
// status rows. Per-user failures are logged and do not stop the run.
func (s *Service) RunScheduled(ctx context.Context) (int, error) {
	if s == nil || s.Statuses == nil {
		return 0, nil
	}
	if s.Flags != nil && !s.Flags.IsEnabled(ctx, service.FeatureDigest, true) {
		return 0, nil
	}
	users, err := s.Statuses.ListStatusUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, user := range users {
		res, err := s.Generate(ctx, user, Options{})
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("digest generation failed", zap.String("user_id", user), zap.Error(err))
			}
			continue
		}
		n++
		if s.Logger != nil {
			s.Logger.Info("digest generated",
				zap.String("user_id", user),
				zap.String("threat_level", res.Digest.ThreatLevel),
				zap.String("source", res.Digest.Source),
			)
		}
	}
	return n, nil
}
