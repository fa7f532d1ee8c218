package database

import (
	"teambot/internal/model"
	"teambot/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.StockItem{},
		&model.StockMovement{},
		&model.Receipt{},
		&model.AuditLog{},
	)
	if err != nil {
		logger.Warn("failed to auto-migrate models: " + err.Error())
	}

	return db, nil
}
