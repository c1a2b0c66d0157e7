package domain

import (
	"time"

	"github.com/google/uuid"
)

// SearchRepository defines the interface for recording search history.
type SearchRepository interface {
	// InsertSearch records a completed search.
	InsertSearch(record *SearchRecord) error

	// GetSearches retrieves all recorded searches, most recent first.
	GetSearches() ([]*SearchRecord, error)
}

// SearchResult is one candidate URL returned by the discovery search.
type SearchResult struct {
	URL     string `json:"url"`     // Result URL.
	Title   string `json:"title"`   // Page title from the search engine.
	Snippet string `json:"snippet"` // Short preview, capped at 300 characters.
	Domain  string `json:"domain"`  // Registrable domain, used for deduplication.
}

// SearchRecord is the stored trace of one discovery search.
type SearchRecord struct {
	ID          uuid.UUID // Unique identifier for the record.
	LeadName    string    // Company name the search was for.
	Query       string    // The query string actually sent.
	ResultCount int       // Number of results returned after filtering.
	SearchedAt  time.Time // When the search ran.
}

// GetType identifies the item on the async store channel.
func (record SearchRecord) GetType() string {
	return "search"
}
