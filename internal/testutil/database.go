// Package testutil provides test utilities for the loan reconciliation packages:
// a migrated in-memory store and ready-made loan records.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database with migrations applied.
// The database is closed when the test finishes.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	loan := db.MustSaveLoan(testutil.NewLoan().Build())
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustSaveLoan stores the loan and returns it with its assigned ID.
func (db *TestDB) MustSaveLoan(loan *model.LoanRecord) *model.LoanRecord {
	db.t.Helper()
	if err := db.Storage.SaveLoan(context.Background(), loan); err != nil {
		db.t.Fatalf("failed to save loan: %v", err)
	}
	return loan
}

// MustSaveExtraction stores an extraction of record for the loan.
func (db *TestDB) MustSaveExtraction(loanID int64, record *model.LoanRecord) *model.Extraction {
	db.t.Helper()
	ext := &model.Extraction{
		LoanID:       loanID,
		Record:       record,
		DocumentName: "application.pdf",
		DocumentType: "loan_application",
		Confidence:   0.9,
	}
	if err := db.Storage.SaveExtraction(context.Background(), ext); err != nil {
		db.t.Fatalf("failed to save extraction: %v", err)
	}
	return ext
}

// MustSaveRules replaces the stored rule configuration.
func (db *TestDB) MustSaveRules(rules map[string]model.Rule) {
	db.t.Helper()
	if err := db.Storage.SaveRules(context.Background(), rules); err != nil {
		db.t.Fatalf("failed to save rules: %v", err)
	}
}
