package domain

import (
	"time"

	"github.com/google/uuid"
)

// CompanyRepository defines the interface for persisting and retrieving
// company profiles extracted by the scraper.
type CompanyRepository interface {
	// InsertCompany saves a profile. Inserts are deduplicated by website URL:
	// when a profile with the same URL already exists, the existing record is
	// kept and its ID is returned.
	InsertCompany(company *CompanyProfile) (uuid.UUID, error)

	// GetCompany retrieves a profile by its ID.
	GetCompany(id uuid.UUID) (*CompanyProfile, error)

	// GetCompanyByURL retrieves a profile by its website URL.
	// Returns ErrNotFound when no profile matches.
	GetCompanyByURL(url string) (*CompanyProfile, error)

	// GetCompanies retrieves all stored profiles, most recent first.
	GetCompanies() ([]*CompanyProfile, error)
}

// CompanyProfile is the structured description of a company as extracted
// from its website. Optional fields are empty strings when the source page
// gave no signal for them.
type CompanyProfile struct {
	ID          uuid.UUID `json:"id"`              // Unique identifier for the profile.
	Name        string    `json:"name"`            // Official company name.
	Description string    `json:"description"`     // Detailed company description.
	Industry    string    `json:"industry"`        // Primary industry.
	Size        string    `json:"size"`            // Company size bracket (e.g. "11-50", "Enterprise").
	Location    string    `json:"location"`        // Headquarters location.
	Specialties []string  `json:"specialties"`     // Key specialties.
	Services    []string  `json:"services"`        // Services offered.
	Website     string    `json:"website"`         // Company website URL.
	Founded     string    `json:"founded"`         // Year founded, if known.
	Mission     string    `json:"mission"`         // Mission statement, if known.
	KeyPeople   []string  `json:"key_people"`      // Important roles/people ("Name (Role)").
	Goals       string    `json:"goals"`           // Stated goals or strategic interests.
	Stage       string    `json:"stage"`           // Startup, SME, Enterprise, Corporation.
	Budget      string    `json:"budget_estimate"` // Estimated budget or revenue range.
	AddedAt     time.Time `json:"added_at"`        // When the profile was first stored.
}
