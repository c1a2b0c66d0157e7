package db

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
)

var _ domain.CompanyRepository = (*Repository)(nil)

// dbCompany represents a company profile as stored in the database.
// Slice-valued fields use StringList so they round-trip as JSON columns.
type dbCompany struct {
	ID          uuid.UUID  `db:"id"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	Industry    string     `db:"industry"`
	Size        string     `db:"size"`
	Location    string     `db:"location"`
	Specialties StringList `db:"specialties"`
	Services    StringList `db:"services"`
	Website     string     `db:"website"`
	Founded     string     `db:"founded"`
	Mission     string     `db:"mission"`
	KeyPeople   StringList `db:"key_people"`
	Goals       string     `db:"goals"`
	Stage       string     `db:"stage"`
	Budget      string     `db:"budget"`
	Domain      string     `db:"domain"`
	AddedAt     time.Time  `db:"added_at"`
}

var companyDomainPattern = regexp.MustCompile(`https?://(?:www\.)?([^/]+)`)

// fromDomainCompany converts a domain.CompanyProfile into a dbCompany for insertion.
func fromDomainCompany(company *domain.CompanyProfile) *dbCompany {
	dbc := &dbCompany{
		ID:          company.ID,
		Name:        company.Name,
		Description: company.Description,
		Industry:    company.Industry,
		Size:        company.Size,
		Location:    company.Location,
		Specialties: StringList(company.Specialties),
		Services:    StringList(company.Services),
		Website:     company.Website,
		Founded:     company.Founded,
		Mission:     company.Mission,
		KeyPeople:   StringList(company.KeyPeople),
		Goals:       company.Goals,
		Stage:       company.Stage,
		Budget:      company.Budget,
		Domain:      company.Website,
		AddedAt:     company.AddedAt,
	}
	if match := companyDomainPattern.FindStringSubmatch(company.Website); match != nil {
		dbc.Domain = match[1]
	}
	return dbc
}

// toDomainCompany converts a dbCompany into a domain.CompanyProfile.
func toDomainCompany(dbc *dbCompany) *domain.CompanyProfile {
	return &domain.CompanyProfile{
		ID:          dbc.ID,
		Name:        dbc.Name,
		Description: dbc.Description,
		Industry:    dbc.Industry,
		Size:        dbc.Size,
		Location:    dbc.Location,
		Specialties: []string(dbc.Specialties),
		Services:    []string(dbc.Services),
		Website:     dbc.Website,
		Founded:     dbc.Founded,
		Mission:     dbc.Mission,
		KeyPeople:   []string(dbc.KeyPeople),
		Goals:       dbc.Goals,
		Stage:       dbc.Stage,
		Budget:      dbc.Budget,
		AddedAt:     dbc.AddedAt,
	}
}

// InsertCompany saves a profile, deduplicating by website URL. When a profile
// with the same URL exists, the stored record wins and its ID is returned.
func (repo *Repository) InsertCompany(company *domain.CompanyProfile) (uuid.UUID, error) {
	if company.Website != "" {
		existing, err := repo.GetCompanyByURL(company.Website)
		if err == nil {
			return existing.ID, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("checking for existing company : %w", err)
		}
	}

	if company.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return uuid.Nil, fmt.Errorf("generating company id : %w", err)
		}
		company.ID = id
	}
	if company.AddedAt.IsZero() {
		company.AddedAt = time.Now()
	}

	dbc := fromDomainCompany(company)
	query := `INSERT INTO companies (id, name, description, industry, size, location, specialties, services,
	                                 website, founded, mission, key_people, goals, stage, budget, domain, added_at)
	          VALUES (:id, :name, :description, :industry, :size, :location, :specialties, :services,
	                  :website, :founded, :mission, :key_people, :goals, :stage, :budget, :domain, :added_at)`

	_, err := repo.dbConn.NamedExec(query, dbc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting company %s : %w", company.Name, err)
	}
	return company.ID, nil
}

// GetCompany retrieves a profile by its ID.
func (repo *Repository) GetCompany(id uuid.UUID) (*domain.CompanyProfile, error) {
	var dbc dbCompany
	query := `SELECT * FROM companies WHERE id = ?`

	err := repo.dbConn.Get(&dbc, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching company %s : %w", id, err)
	}
	return toDomainCompany(&dbc), nil
}

// GetCompanyByURL retrieves a profile by its website URL.
func (repo *Repository) GetCompanyByURL(url string) (*domain.CompanyProfile, error) {
	var dbc dbCompany
	query := `SELECT * FROM companies WHERE website = ?`

	err := repo.dbConn.Get(&dbc, query, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching company by url %s : %w", url, err)
	}
	return toDomainCompany(&dbc), nil
}

// GetCompanies retrieves all stored profiles, most recent first.
func (repo *Repository) GetCompanies() ([]*domain.CompanyProfile, error) {
	var dbCompanies []*dbCompany
	query := `SELECT * FROM companies ORDER BY added_at DESC`

	err := repo.dbConn.Select(&dbCompanies, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all companies : %w", err)
	}

	companies := make([]*domain.CompanyProfile, len(dbCompanies))
	for i, dbc := range dbCompanies {
		companies[i] = toDomainCompany(dbc)
	}
	return companies, nil
}
