package db

import (
	"encoding/json"
	"fmt"

	"github.com/kerem-ae/prospect/domain"
)

var _ domain.ConfigRepository = (*Repository)(nil)

// GetExcludedDomains implements the domain.ConfigRepository interface.
// It retrieves the domain patterns excluded from search results, which are
// stored in the 'app' table as a JSON string.
func (repo *Repository) GetExcludedDomains() ([]string, error) {
	var patternsString string
	query := `SELECT excluded_domains FROM app LIMIT 1`
	err := repo.dbConn.Get(&patternsString, query)

	if err != nil {
		return nil, fmt.Errorf("getting excluded domains: %w", err)
	}

	var patterns []string
	err = json.Unmarshal([]byte(patternsString), &patterns)

	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal excluded domains JSON: %w", err)
	}

	return patterns, nil
}

// SetExcludedDomains implements the domain.ConfigRepository interface.
// It marshals the provided patterns into a JSON string and updates the
// 'excluded_domains' column in the 'app' table.
func (repo *Repository) SetExcludedDomains(patterns []string) error {
	marshalled, err := json.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal excluded domains: %w", err)
	}

	query := `UPDATE app SET excluded_domains = ?`
	_, err = repo.dbConn.Exec(query, marshalled)

	if err != nil {
		return fmt.Errorf("failed to update excluded domains: %w", err)
	}
	return nil
}
