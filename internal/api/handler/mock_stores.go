// Package handler provides mock store implementations for testing.
package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/carbonreport/carbonreport/internal/model"
	"github.com/carbonreport/carbonreport/internal/store"
)

// MockReportStore is a testify mock of store.ReportStore.
type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) Create(ctx context.Context, report *model.Report) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockReportStore) GetByID(ctx context.Context, id string) (*model.Report, error) {
	args := m.Called(ctx, id)
	rpt, _ := args.Get(0).(*model.Report)
	return rpt, args.Error(1)
}

func (m *MockReportStore) Update(ctx context.Context, report *model.Report) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockReportStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReportStore) List(ctx context.Context, opts store.ListOptions) ([]model.Report, int64, error) {
	args := m.Called(ctx, opts)
	reports, _ := args.Get(0).([]model.Report)
	total, _ := args.Get(1).(int64)
	return reports, total, args.Error(2)
}

func (m *MockReportStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	total, _ := args.Get(0).(int64)
	return total, args.Error(1)
}

func (m *MockReportStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	deleted, _ := args.Get(0).(int64)
	return deleted, args.Error(1)
}

// MockStore implements store.Store around a MockReportStore.
type MockStore struct {
	Reports *MockReportStore
}

// NewMockStore creates a new mock store.
func NewMockStore() *MockStore {
	return &MockStore{Reports: &MockReportStore{}}
}

func (m *MockStore) Report() store.ReportStore {
	return m.Reports
}

func (m *MockStore) DB() *gorm.DB {
	return nil
}

func (m *MockStore) Transaction(fn func(store.Store) error) error {
	return fn(m)
}

// Compile-time interface checks
var (
	_ store.Store       = (*MockStore)(nil)
	_ store.ReportStore = (*MockReportStore)(nil)
)
