package domain

import "errors"

// ErrNotFound is returned by repositories when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ConfigRepository defines the interface for application-level values stored
// in the database rather than the config file.
type ConfigRepository interface {
	// GetExcludedDomains retrieves the domain patterns excluded from search
	// results, stored as JSON.
	GetExcludedDomains() ([]string, error)

	// SetExcludedDomains replaces the excluded domain patterns.
	SetExcludedDomains(patterns []string) error
}
