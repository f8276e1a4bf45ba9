package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"asymmetricbridge/internal/models"
)

// ErrStatusConflict means a conditional status update matched no row: the
// status, override flag or timestamp changed since it was read.
var ErrStatusConflict = errors.New("signal status changed concurrently")

// ErrAlreadyScored means a prediction already has an outcome.
var ErrAlreadyScored = errors.New("prediction already scored")

type StatusRepository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	ListSignalStatuses(ctx context.Context, userID string) ([]models.SignalStatus, error)
	GetSignalStatus(ctx context.Context, userID string, dominoID int, signalName string) (*models.SignalStatus, error)
	ListStatusUserIDs(ctx context.Context) ([]string, error)
	CreateMissingSignalStatuses(ctx context.Context, items []models.SignalStatus) (int64, error)
	UpdateSignalStatusTx(ctx context.Context, tx *gorm.DB, params UpdateSignalStatusParams) error
	UpsertSignalStatusTx(ctx context.Context, tx *gorm.DB, item *models.SignalStatus) error
	ClearSignalOverride(ctx context.Context, userID string, dominoID int, signalName string) (int64, error)
	InsertSignalHistoryTx(ctx context.Context, tx *gorm.DB, item *models.SignalHistory) error
}

type HistoryRepository interface {
	ListSignalHistory(ctx context.Context, params ListSignalHistoryParams) ([]models.SignalHistory, error)
	CountSignalHistory(ctx context.Context, params ListSignalHistoryParams) (int64, error)
	ListLatestSignalHistory(ctx context.Context, userID string) ([]models.SignalHistory, error)
}

type DataPointRepository interface {
	UpsertSignalDataPoints(ctx context.Context, items []models.SignalDataPoint) error
	ListSignalDataPoints(ctx context.Context, params ListSignalDataPointsParams) ([]models.SignalDataPoint, error)
	ListLatestSignalDataPoints(ctx context.Context) ([]models.SignalDataPoint, error)
	DeleteSignalDataPointsBefore(ctx context.Context, before time.Time) (int64, error)
}

type DigestRepository interface {
	InsertDigest(ctx context.Context, item *models.Digest) error
	GetDigestByID(ctx context.Context, userID string, id uint64) (*models.Digest, error)
	ListDigests(ctx context.Context, params ListDigestsParams) ([]models.Digest, error)
	CountDigests(ctx context.Context, params ListDigestsParams) (int64, error)
}

type PredictionRepository interface {
	InsertPrediction(ctx context.Context, item *models.Prediction) error
	GetPredictionByID(ctx context.Context, id string) (*models.Prediction, error)
	ListPredictions(ctx context.Context, params ListPredictionsParams) ([]models.Prediction, error)
	CountPredictions(ctx context.Context, params ListPredictionsParams) (int64, error)
	ScorePrediction(ctx context.Context, params ScorePredictionParams) error
}

type SettingsRepository interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
	CountSystemSettings(ctx context.Context, params ListSystemSettingsParams) (int64, error)
}

// Repository is the full store used by the service wiring.
type Repository interface {
	StatusRepository
	HistoryRepository
	DataPointRepository
	DigestRepository
	PredictionRepository
	SettingsRepository
}

// UpdateSignalStatusParams is a compare-and-set update. The row is written
// only if it still has ExpectStatus and ExpectUpdatedBy, is not overridden
// (when RequireNoOverride), and was last updated at or before NotUpdatedAfter.
type UpdateSignalStatusParams struct {
	UserID     string
	DominoID   int
	SignalName string

	ExpectStatus      string
	ExpectUpdatedBy   string
	RequireNoOverride bool
	NotUpdatedAfter   *time.Time

	Status     string
	IsOverride bool
	UpdatedBy  string
	UpdatedAt  time.Time
}

type ListSignalHistoryParams struct {
	Limit      int
	Offset     int
	UserID     string
	DominoID   *int
	SignalName *string
	Since      *time.Time
	Until      *time.Time
	OrderBy    string
	Asc        *bool
}

type ListSignalDataPointsParams struct {
	Limit      int
	Offset     int
	DominoID   *int
	SignalName *string
	Since      *time.Time
	OrderBy    string
	Asc        *bool
}

type ListDigestsParams struct {
	Limit   int
	Offset  int
	UserID  string
	OrderBy string
	Asc     *bool
}

type ListPredictionsParams struct {
	Limit      int
	Offset     int
	UserID     *string
	DominoID   *int
	SignalName *string
	Pending    *bool
	DueBefore  *time.Time
	OrderBy    string
	Asc        *bool
}

type ScorePredictionParams struct {
	ID       string
	Outcome  string
	ScoredAt time.Time
	Value    *decimal.Decimal
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}
