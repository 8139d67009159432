// Package database provides database initialization and connection management.
// It uses GORM with the pure-Go SQLite driver for embedded report storage.
package database

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/carbonreport/carbonreport/internal/model"
	"github.com/carbonreport/carbonreport/pkg/errors"
	"github.com/carbonreport/carbonreport/pkg/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var (
	db   *gorm.DB
	once sync.Once
)

// Init opens the global database at path and migrates it.
// Only the first call takes effect.
func Init(path string) error {
	var initErr error
	once.Do(func() {
		db, initErr = Open(path)
	})
	return initErr
}

// Open creates a migrated connection at path without touching the global instance.
func Open(path string) (*gorm.DB, error) {
	return OpenWithDriver(&SQLiteDriver{}, path)
}

// OpenWithDriver creates a migrated connection using driver.
func OpenWithDriver(driver Driver, path string) (*gorm.DB, error) {
	logger.Info("Initializing database", zap.String("path", path), zap.String("driver", driver.Name()))

	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("Failed to create database directory", zap.Error(err), zap.String("dir", dir))
			return nil, errors.Wrap(errors.ErrCodeDBConnection, "failed to create database directory", err)
		}
	}

	dialector, err := driver.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDBConnection, "failed to open database", err)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return nil, errors.Wrap(errors.ErrCodeDBConnection, "failed to connect to database", err)
	}

	if err := driver.PreMigrationConfig(conn); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDBConnection, "failed to apply pre-migration config", err)
	}
	if err := migrate(conn); err != nil {
		return nil, err
	}
	if err := driver.PostMigrationConfig(conn); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDBConnection, "failed to apply post-migration config", err)
	}

	logger.Info("Database initialized successfully", zap.String("driver", driver.Name()))
	return conn, nil
}

// migrate runs auto-migration for all models
func migrate(conn *gorm.DB) error {
	models := model.AllModels()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run database migrations", zap.Error(err))
		return errors.Wrap(errors.ErrCodeDBMigration, "failed to run database migrations", err)
	}
	logger.Debug("Database migrations completed", zap.Int("models", len(models)))
	return nil
}

// Get returns the global database instance.
// Panics if the database hasn't been initialized.
func Get() *gorm.DB {
	if db == nil {
		panic("database not initialized, call Init first")
	}
	return db
}

// Close closes the global database connection
func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	logger.Info("Closing database connection")
	return sqlDB.Close()
}

// ResetForTesting closes the global connection and allows Init to run again.
// Only use this function in tests.
func ResetForTesting() {
	if db != nil {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
		db = nil
	}
	once = sync.Once{}
}

// HealthCheck pings conn
func HealthCheck(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDBConnection, "failed to get database connection", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return errors.Wrap(errors.ErrCodeDBConnection, "database ping failed", err)
	}
	return nil
}
