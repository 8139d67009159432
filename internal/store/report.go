package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/carbonreport/carbonreport/internal/model"
)

// Pagination bounds for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListOptions filters and pages List.
type ListOptions struct {
	Page     int
	PageSize int
	// Source filters by narrative source when set
	Source model.NarrativeSource
}

// Normalize clamps the page to at least 1 and the page size to [1, MaxPageSize].
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

// ReportStore defines operations for Report.
type ReportStore interface {
	Create(ctx context.Context, report *model.Report) error
	// GetByID returns gorm.ErrRecordNotFound for missing or deleted reports
	GetByID(ctx context.Context, id string) (*model.Report, error)
	Update(ctx context.Context, report *model.Report) error
	// Delete soft-deletes a report; it returns gorm.ErrRecordNotFound when nothing matched
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, opts ListOptions) ([]model.Report, int64, error)
	Count(ctx context.Context) (int64, error)

	// DeleteOlderThan permanently removes reports, including soft-deleted ones,
	// created before cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// reportStore implements ReportStore using GORM.
type reportStore struct {
	db *gorm.DB
}

func newReportStore(db *gorm.DB) ReportStore {
	return &reportStore{db: db}
}

func (s *reportStore) Create(ctx context.Context, report *model.Report) error {
	return s.db.WithContext(ctx).Create(report).Error
}

func (s *reportStore) GetByID(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *reportStore) Update(ctx context.Context, report *model.Report) error {
	return s.db.WithContext(ctx).Save(report).Error
}

func (s *reportStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Report{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of reports, newest first, and the total matching count.
func (s *reportStore) List(ctx context.Context, opts ListOptions) ([]model.Report, int64, error) {
	opts = opts.Normalize()

	var reports []model.Report
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Report{})
	if opts.Source != "" {
		query = query.Where("narrative_source = ?", opts.Source)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (opts.Page - 1) * opts.PageSize
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(opts.PageSize).Offset(offset).
		Find(&reports).Error
	return reports, total, err
}

func (s *reportStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Report{}).Count(&count).Error
	return count, err
}

func (s *reportStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&model.Report{})
	return result.RowsAffected, result.Error
}
