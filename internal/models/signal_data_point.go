package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SignalDataPoint is one extracted reading per signal per day.
type SignalDataPoint struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	DominoID   int       `gorm:"not null;uniqueIndex:ux_signal_data_points_day,priority:1"`
	SignalName string    `gorm:"type:varchar(120);not null;uniqueIndex:ux_signal_data_points_day,priority:2"`
	Date       time.Time `gorm:"not null;uniqueIndex:ux_signal_data_points_day,priority:3;index"`

	Value  decimal.Decimal `gorm:"type:numeric(24,8);not null"`
	Label  string          `gorm:"type:varchar(120)"`
	Status string          `gorm:"type:varchar(10)"`
	Source string          `gorm:"type:varchar(50);not null"`

	// Trailing values the extractor saw, so a replay can run streak predicates.
	Recent datatypes.JSON

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SignalDataPoint) TableName() string {
	return "signal_data_points"
}
