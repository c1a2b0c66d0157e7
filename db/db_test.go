package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kerem-ae/prospect/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
	if err != nil {
		t.Fatalf("os.CreateTemp() failed: %v", err)
	}
	tempFile.Close()

	dbConn, err := New(tempFile.Name())
	if err != nil {
		t.Fatalf("db.New() failed: %v", err)
	}

	repo := NewRepository(dbConn)

	teardown := func() {
		repo.Close()
		os.Remove(tempFile.Name())
	}

	return repo, teardown
}

func testCompany(t *testing.T, name, website string) *domain.CompanyProfile {
	t.Helper()
	return &domain.CompanyProfile{
		Name:        name,
		Description: "A test company used by the repository tests",
		Industry:    "Software",
		Size:        "11-50",
		Location:    "Rotterdam, NL",
		Specialties: []string{"Testing", "Tooling"},
		Services:    []string{"Consulting"},
		Website:     website,
		Stage:       "SME",
		AddedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestNewAppliesMigrations(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()

	// The seed row of excluded domains proves the schema is in place.
	patterns, err := repo.GetExcludedDomains()
	if err != nil {
		t.Fatalf("GetExcludedDomains() failed: %v", err)
	}
	if len(patterns) == 0 {
		t.Fatal("expected seeded excluded domains, got none")
	}
}

func TestNewIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	conn, err := New(dbPath)
	if err != nil {
		t.Fatalf("first New() failed: %v", err)
	}

	repo := NewRepository(conn)
	company := testCompany(t, "Baksters", "https://baksters.example")
	if _, err := repo.InsertCompany(company); err != nil {
		t.Fatalf("inserting company: %v", err)
	}
	repo.Close()

	// Reopening re-runs goose.Up against a current schema. It must neither
	// fail nor disturb existing rows.
	conn, err = New(dbPath)
	if err != nil {
		t.Fatalf("second New() failed: %v", err)
	}
	repo = NewRepository(conn)
	defer repo.Close()

	companies, err := repo.GetCompanies()
	if err != nil {
		t.Fatalf("GetCompanies() failed: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("expected 1 company to survive reopen, got %d", len(companies))
	}
	if companies[0].Name != "Baksters" {
		t.Errorf("expected company name Baksters, got %s", companies[0].Name)
	}
}
