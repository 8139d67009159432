// Package store provides the data access layer for stored reports.
package store

import "gorm.io/gorm"

// Store aggregates the data store interfaces.
type Store interface {
	Report() ReportStore

	// DB returns the underlying database connection for advanced operations.
	DB() *gorm.DB

	// Transaction executes operations within a database transaction.
	Transaction(fn func(Store) error) error
}

// gormStore implements Store using GORM.
type gormStore struct {
	db          *gorm.DB
	reportStore ReportStore
}

// NewStore creates a new Store instance with GORM backend.
func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:          db,
		reportStore: newReportStore(db),
	}
}

func (s *gormStore) Report() ReportStore {
	return s.reportStore
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
