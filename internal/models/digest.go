package models

import (
	"time"

	"gorm.io/datatypes"
)

// Digest is a generated report. Rows are never updated.
type Digest struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	UserID      string    `gorm:"type:varchar(64);not null;index"`
	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`

	Content     string         `gorm:"type:text;not null"`
	ThreatLevel string         `gorm:"type:varchar(20);not null;index"`
	Source      string         `gorm:"type:varchar(20);not null"`
	Data        datatypes.JSON

	EscalationCount   int `gorm:"not null;default:0"`
	DeescalationCount int `gorm:"not null;default:0"`

	GeneratedAt time.Time `gorm:"not null;index"`
}

func (Digest) TableName() string {
	return "digests"
}
