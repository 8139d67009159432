package database

import "gorm.io/gorm"

// Driver opens and tunes one kind of relational database.
type Driver interface {
	// Name returns the driver name (e.g., "sqlite")
	Name() string

	// Open returns a GORM dialector for dsn
	Open(dsn string) (gorm.Dialector, error)

	// PreMigrationConfig runs before auto-migration (connection pool, journal mode)
	PreMigrationConfig(db *gorm.DB) error

	// PostMigrationConfig runs after auto-migration (foreign keys)
	PostMigrationConfig(db *gorm.DB) error
}
