// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"

	"github.com/gourmetguru/api/internal/infrastructure/config"
	gormModels "github.com/gourmetguru/api/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupDatabase opens the SQLite database at cfg.Path and migrates the
// account and saved recipe tables
func SetupDatabase(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger: gormModels.NewLogger(log, cfg.LogLevel, cfg.SlowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(gormModels.Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("SQLite database ready", zap.String("path", path))
	return db, nil
}
