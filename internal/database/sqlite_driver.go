package database

import (
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/carbonreport/carbonreport/pkg/logger"
)

// SQLiteDriver implements Driver for the embedded pure-Go SQLite.
type SQLiteDriver struct{}

// Name returns the driver name
func (d *SQLiteDriver) Name() string {
	return "sqlite"
}

// Open opens a SQLite database file, or an in-memory database for ":memory:"
func (d *SQLiteDriver) Open(dsn string) (gorm.Dialector, error) {
	return sqlite.Open(dsn), nil
}

// PreMigrationConfig limits the pool to one connection and enables WAL
func (d *SQLiteDriver) PreMigrationConfig(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// Single connection: SQLite serializes writers, and an in-memory database
	// only exists on the connection that created it
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		logger.Warn("Failed to enable WAL mode", zap.Error(err))
	}
	if err := db.Exec("PRAGMA synchronous = NORMAL").Error; err != nil {
		logger.Warn("Failed to set synchronous mode", zap.Error(err))
	}

	logger.Debug("SQLite pre-migration config applied",
		zap.String("journal_mode", "WAL"),
		zap.String("synchronous", "NORMAL"),
	)
	return nil
}

// PostMigrationConfig enables foreign key constraints
func (d *SQLiteDriver) PostMigrationConfig(db *gorm.DB) error {
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		logger.Warn("Failed to enable foreign keys", zap.Error(err))
	}
	return nil
}
