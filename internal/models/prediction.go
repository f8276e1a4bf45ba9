package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Prediction is a user forecast about one signal. Outcome and ScoredAt are
// written once.
type Prediction struct {
	ID string `gorm:"type:varchar(36);primaryKey"`

	UserID     string `gorm:"type:varchar(64);not null;index"`
	DominoID   int    `gorm:"not null;index:idx_predictions_signal,priority:1"`
	SignalName string `gorm:"type:varchar(120);not null;index:idx_predictions_signal,priority:2"`

	Type      string         `gorm:"type:varchar(20);not null"`
	Condition datatypes.JSON `gorm:"not null"`

	TargetDate  time.Time        `gorm:"not null;index"`
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
	ScoredAt    *time.Time       `gorm:"index"`
	Outcome     *string          `gorm:"type:varchar(10)"`
	ScoredValue *decimal.Decimal `gorm:"type:numeric(24,8)"`
	Notes       string           `gorm:"type:text"`
}

func (Prediction) TableName() string {
	return "predictions"
}
