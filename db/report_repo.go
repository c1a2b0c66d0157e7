package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
)

var _ domain.ReportRepository = (*Repository)(nil)

// dbReport represents a match report as stored in the database. The two
// profiles are referenced by ID; the comparison and numeric summary are
// stored as JSON documents.
type dbReport struct {
	ID         uuid.UUID `db:"id"`
	SourceID   uuid.UUID `db:"source_id"`
	LeadID     uuid.UUID `db:"lead_id"`
	Comparison string    `db:"comparison"`
	Summary    string    `db:"summary"`
	SavedTo    string    `db:"saved_to"`
	CreatedAt  time.Time `db:"created_at"`
}

// dbReportSummary is the listing row joined against companies.
type dbReportSummary struct {
	ID         uuid.UUID `db:"id"`
	SourceName string    `db:"source_name"`
	LeadName   string    `db:"lead_name"`
	Summary    string    `db:"summary"`
	CreatedAt  time.Time `db:"created_at"`
}

// InsertReport saves a completed match report. Both referenced profiles must
// already be stored; foreign keys enforce this.
func (repo *Repository) InsertReport(report *domain.MatchReport) error {
	if report.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generating report id : %w", err)
		}
		report.ID = id
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	if report.SourceCompany == nil || report.LeadCompany == nil {
		return errors.New("report is missing a company profile")
	}

	comparison, err := json.Marshal(report.Comparison)
	if err != nil {
		return fmt.Errorf("marshalling comparison : %w", err)
	}
	summary, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("marshalling numeric summary : %w", err)
	}

	dbr := &dbReport{
		ID:         report.ID,
		SourceID:   report.SourceCompany.ID,
		LeadID:     report.LeadCompany.ID,
		Comparison: string(comparison),
		Summary:    string(summary),
		SavedTo:    report.SavedTo,
		CreatedAt:  report.CreatedAt,
	}
	query := `INSERT INTO reports (id, source_id, lead_id, comparison, summary, saved_to, created_at)
	          VALUES (:id, :source_id, :lead_id, :comparison, :summary, :saved_to, :created_at)`

	_, err = repo.dbConn.NamedExec(query, dbr)
	if err != nil {
		return fmt.Errorf("inserting report %s : %w", report.ID, err)
	}
	return nil
}

// GetReport retrieves a report by its ID, rehydrating both profiles.
func (repo *Repository) GetReport(id uuid.UUID) (*domain.MatchReport, error) {
	var dbr dbReport
	query := `SELECT * FROM reports WHERE id = ?`

	err := repo.dbConn.Get(&dbr, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching report %s : %w", id, err)
	}

	report := &domain.MatchReport{
		ID:        dbr.ID,
		SavedTo:   dbr.SavedTo,
		CreatedAt: dbr.CreatedAt,
	}
	if err := json.Unmarshal([]byte(dbr.Comparison), &report.Comparison); err != nil {
		return nil, fmt.Errorf("unmarshalling comparison for %s : %w", id, err)
	}
	if err := json.Unmarshal([]byte(dbr.Summary), &report.Summary); err != nil {
		return nil, fmt.Errorf("unmarshalling numeric summary for %s : %w", id, err)
	}

	if report.SourceCompany, err = repo.GetCompany(dbr.SourceID); err != nil {
		return nil, fmt.Errorf("fetching source company for report %s : %w", id, err)
	}
	if report.LeadCompany, err = repo.GetCompany(dbr.LeadID); err != nil {
		return nil, fmt.Errorf("fetching lead company for report %s : %w", id, err)
	}
	return report, nil
}

// GetReports retrieves summaries of all stored reports, most recent first.
func (repo *Repository) GetReports() ([]*domain.ReportSummary, error) {
	var dbSummaries []*dbReportSummary
	query := `SELECT r.id AS id, s.name AS source_name, l.name AS lead_name, r.summary AS summary, r.created_at AS created_at
	          FROM reports r
	          JOIN companies s ON s.id = r.source_id
	          JOIN companies l ON l.id = r.lead_id
	          ORDER BY r.created_at DESC`

	err := repo.dbConn.Select(&dbSummaries, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all reports : %w", err)
	}

	summaries := make([]*domain.ReportSummary, len(dbSummaries))
	for i, dbs := range dbSummaries {
		summary := &domain.ReportSummary{
			ID:         dbs.ID,
			SourceName: dbs.SourceName,
			LeadName:   dbs.LeadName,
			CreatedAt:  dbs.CreatedAt,
		}
		var numeric domain.NumericSummary
		if err := json.Unmarshal([]byte(dbs.Summary), &numeric); err == nil {
			summary.OverallScore = numeric.OverallScore
		}
		summaries[i] = summary
	}
	return summaries, nil
}
