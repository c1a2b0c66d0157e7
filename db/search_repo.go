package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
)

var _ domain.SearchRepository = (*Repository)(nil)

// dbSearch represents a search record as stored in the database.
type dbSearch struct {
	ID          uuid.UUID `db:"id"`
	LeadName    string    `db:"lead_name"`
	Query       string    `db:"query"`
	ResultCount int       `db:"result_count"`
	SearchedAt  time.Time `db:"searched_at"`
}

// InsertSearch records a completed search.
func (repo *Repository) InsertSearch(record *domain.SearchRecord) error {
	if record.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generating search id : %w", err)
		}
		record.ID = id
	}
	if record.SearchedAt.IsZero() {
		record.SearchedAt = time.Now()
	}

	dbs := &dbSearch{
		ID:          record.ID,
		LeadName:    record.LeadName,
		Query:       record.Query,
		ResultCount: record.ResultCount,
		SearchedAt:  record.SearchedAt,
	}
	query := `INSERT INTO searches (id, lead_name, query, result_count, searched_at)
	          VALUES (:id, :lead_name, :query, :result_count, :searched_at)`

	_, err := repo.dbConn.NamedExec(query, dbs)
	if err != nil {
		return fmt.Errorf("inserting search %s : %w", record.ID, err)
	}
	return nil
}

// GetSearches retrieves all recorded searches, most recent first.
func (repo *Repository) GetSearches() ([]*domain.SearchRecord, error) {
	var dbSearches []*dbSearch
	query := `SELECT * FROM searches ORDER BY searched_at DESC`

	err := repo.dbConn.Select(&dbSearches, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all searches : %w", err)
	}

	records := make([]*domain.SearchRecord, len(dbSearches))
	for i, dbs := range dbSearches {
		records[i] = &domain.SearchRecord{
			ID:          dbs.ID,
			LeadName:    dbs.LeadName,
			Query:       dbs.Query,
			ResultCount: dbs.ResultCount,
			SearchedAt:  dbs.SearchedAt,
		}
	}
	return records, nil
}
