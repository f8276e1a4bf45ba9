package db

import (
	"asymmetricbridge/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.SignalStatus{},
		&models.SignalHistory{},
		&models.SignalDataPoint{},
		&models.Digest{},
		&models.Prediction{},
		&models.SystemSetting{},
	)
}
