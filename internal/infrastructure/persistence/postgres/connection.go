// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gourmetguru/api/internal/infrastructure/config"
	gormModels "github.com/gourmetguru/api/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// ConnectionManager owns the primary connection and any read replicas
type ConnectionManager struct {
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB
	sqlDB  *sql.DB
}

// NewConnectionManager connects to the primary, configures the pool and
// registers read replicas with dbresolver
func NewConnectionManager(cfg *config.Config, log *zap.Logger) (*ConnectionManager, error) {
	log = log.Named("postgres")
	dbCfg := cfg.Database

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger:                 gormModels.NewLogger(log, dbCfg.LogLevel, dbCfg.SlowQueryThreshold),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(orDefault(dbCfg.MaxOpenConns, 25))
	sqlDB.SetMaxIdleConns(orDefault(dbCfg.MaxIdleConns, 5))
	sqlDB.SetConnMaxLifetime(orDefaultDuration(dbCfg.ConnMaxLifetime, 30*time.Minute))
	sqlDB.SetConnMaxIdleTime(orDefaultDuration(dbCfg.ConnMaxIdleTime, 5*time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cm := &ConnectionManager{config: cfg, logger: log, db: db, sqlDB: sqlDB}

	if err := cm.registerReplicas(); err != nil {
		log.Warn("Failed to initialize read replicas", zap.Error(err))
	}

	log.Info("Database connection manager initialized",
		zap.String("host", dbCfg.Host),
		zap.Int("max_open_conns", orDefault(dbCfg.MaxOpenConns, 25)),
		zap.Int("replicas", len(dbCfg.Replicas)),
	)

	return cm, nil
}

func (cm *ConnectionManager) registerReplicas() error {
	replicasCfg := cm.config.Database.Replicas
	if len(replicasCfg) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, len(replicasCfg))
	for i, host := range replicasCfg {
		replicas[i] = postgres.Open(cm.config.ReplicaDSN(host))
	}

	err := cm.db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.StrictRoundRobinPolicy(),
	}))
	if err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}

	cm.logger.Info("Read replicas configured", zap.Strings("hosts", replicasCfg))
	return nil
}

// DB returns the GORM handle
func (cm *ConnectionManager) DB() *gorm.DB {
	return cm.db
}

// SQLDB returns the primary's database/sql handle
func (cm *ConnectionManager) SQLDB() *sql.DB {
	return cm.sqlDB
}

// HealthCheck pings the primary
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("primary database ping failed: %w", err)
	}
	return nil
}

// Close closes the primary connection pool
func (cm *ConnectionManager) Close() error {
	return cm.sqlDB.Close()
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
