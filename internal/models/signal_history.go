package models

import "time"

// SignalHistory is an append-only status transition.
type SignalHistory struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	UserID     string `gorm:"type:varchar(64);not null;index"`
	DominoID   int    `gorm:"not null;index:idx_signal_history_signal,priority:1"`
	SignalName string `gorm:"type:varchar(120);not null;index:idx_signal_history_signal,priority:2"`

	OldStatus   string `gorm:"type:varchar(10);not null"`
	NewStatus   string `gorm:"type:varchar(10);not null"`
	TriggerType string `gorm:"type:varchar(10);not null"`
	Reason      string `gorm:"type:text"`

	ChangedAt time.Time `gorm:"not null;index;index:idx_signal_history_signal,priority:3"`
}

func (SignalHistory) TableName() string {
	return "signal_history"
}
