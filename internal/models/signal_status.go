package models

import "time"

// SignalStatus is the persisted status of one signal for one user.
type SignalStatus struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	UserID     string `gorm:"type:varchar(64);not null;uniqueIndex:ux_signal_statuses_key,priority:1"`
	DominoID   int    `gorm:"not null;uniqueIndex:ux_signal_statuses_key,priority:2"`
	SignalName string `gorm:"type:varchar(120);not null;uniqueIndex:ux_signal_statuses_key,priority:3"`

	Status     string `gorm:"type:varchar(10);not null"`
	IsOverride bool   `gorm:"not null;default:false"`
	UpdatedBy  string `gorm:"type:varchar(20);not null"`

	// Written explicitly; the debounce guard reads it.
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SignalStatus) TableName() string {
	return "signal_statuses"
}
