package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
)

func TestInsertAndGetLogs(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}
	reportID, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	entry := &domain.Log{
		ID:        id,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		Level:     "WARN",
		Message:   "ranking failed, returning unranked results",
		Context:   map[string]any{"lead": "Nvidia"},
		ReportID:  &reportID,
		HookName:  "drop-aggregators",
	}
	if err := repo.InsertLog(entry); err != nil {
		t.Fatalf("InsertLog() failed: %v", err)
	}

	logs, err := repo.GetLogs()
	if err != nil {
		t.Fatalf("GetLogs() failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	got := logs[0]
	if got.Level != "WARN" || got.Message != entry.Message {
		t.Errorf("log did not round-trip: %+v", got)
	}
	if got.ReportID == nil || *got.ReportID != reportID {
		t.Errorf("expected report ID %s, got %v", reportID, got.ReportID)
	}
	if got.Context["lead"] != "Nvidia" {
		t.Errorf("context did not round-trip: %v", got.Context)
	}
	if got.HookName != "drop-aggregators" {
		t.Errorf("expected hook name to round-trip, got %q", got.HookName)
	}
}

func TestInsertAndGetSearches(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()

	record := &domain.SearchRecord{
		LeadName:    "Nvidia",
		Query:       "Nvidia official website",
		ResultCount: 5,
	}
	if err := repo.InsertSearch(record); err != nil {
		t.Fatalf("InsertSearch() failed: %v", err)
	}

	records, err := repo.GetSearches()
	if err != nil {
		t.Fatalf("GetSearches() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 search record, got %d", len(records))
	}
	if records[0].Query != "Nvidia official website" || records[0].ResultCount != 5 {
		t.Errorf("search record did not round-trip: %+v", records[0])
	}
}

func TestExcludedDomainsRoundTrip(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()

	patterns := []string{`spam\.example`, `^ads\.`}
	if err := repo.SetExcludedDomains(patterns); err != nil {
		t.Fatalf("SetExcludedDomains() failed: %v", err)
	}

	got, err := repo.GetExcludedDomains()
	if err != nil {
		t.Fatalf("GetExcludedDomains() failed: %v", err)
	}
	if len(got) != 2 || got[0] != `spam\.example` {
		t.Errorf("excluded domains did not round-trip: %v", got)
	}
}
