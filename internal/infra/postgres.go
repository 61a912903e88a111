package infra

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"khaja/internal/config"
	"khaja/internal/logger"
)

func InitPostgresql(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	if cfg.Postgres.URL == "" {
		return nil, errors.New("postgres url is not configured")
	}

	db, err := gorm.Open(postgres.Open(cfg.Postgres.URL), &gorm.Config{
		Logger:         logger.NewGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Postgres.ConnMaxLife)

	log.Info("postgres connected", zap.Int("max_open_conns", cfg.Postgres.MaxOpenConns))
	return db, nil
}

// InitDatabase opens postgres, or the sqlite fallback when only sqlite.path is configured.
// The sqlite schema comes from AutoMigrate since the goose migrations are postgres SQL.
func InitDatabase(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	if cfg.Postgres.URL == "" && cfg.SQLite.Path != "" {
		db, err := OpenSQLite(cfg.SQLite.Path, logger.NewGormLogger(log))
		if err != nil {
			return nil, err
		}
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("auto migrate sqlite: %w", err)
		}
		log.Warn("using sqlite database, not for production", zap.String("path", cfg.SQLite.Path))
		return db, nil
	}
	return InitPostgresql(cfg, log)
}

func CloseDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("get database instance", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Error("close database", zap.Error(err))
		return
	}
	log.Info("database connection closed")
}
