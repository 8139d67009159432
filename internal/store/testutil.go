package store

import (
	"context"
	"testing"

	"github.com/carbonreport/carbonreport/internal/database"
	"github.com/carbonreport/carbonreport/internal/model"
	"github.com/carbonreport/carbonreport/pkg/idgen"
)

// SetupTestDB creates a migrated in-memory SQLite database for testing.
// It returns a Store instance and a cleanup function.
func SetupTestDB(t *testing.T) (Store, func()) {
	t.Helper()

	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return NewStore(db), cleanup
}

// CreateTestReport creates a Report with default values.
// Fields can be overridden by passing functions that modify the report.
func CreateTestReport(t *testing.T, s Store, overrides ...func(*model.Report)) *model.Report {
	t.Helper()

	report := &model.Report{
		ID:          idgen.NewReportID(),
		Title:       "Test report",
		TotalKgCO2e: 45,
		Details: model.CategoryBreakdown{
			{Key: "transporte", Value: 30},
			{Key: "energia_eletrica", Value: 10},
			{Key: "gas_cozinha", Value: 5},
		},
		Narrative:       "## Resumo\n\nTotal de **45 kg**.",
		NarrativeSource: model.NarrativeProvided,
	}
	for _, override := range overrides {
		override(report)
	}

	if err := s.Report().Create(context.Background(), report); err != nil {
		t.Fatalf("Failed to create test report: %v", err)
	}
	return report
}
