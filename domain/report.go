package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportRepository defines the interface for persisting match reports.
type ReportRepository interface {
	// InsertReport saves a completed match report.
	InsertReport(report *MatchReport) error

	// GetReport retrieves a report by its ID.
	GetReport(id uuid.UUID) (*MatchReport, error)

	// GetReports retrieves summaries of all stored reports, most recent first.
	GetReports() ([]*ReportSummary, error)
}

// CategoryScore is one scored dimension of a comparison, with the model's
// explanation of how the score was reached.
type CategoryScore struct {
	Score       int    `json:"score"`       // 0-100.
	Explanation string `json:"explanation"` // How and why.
}

// Comparison is the detailed analysis of a source company against a lead.
type Comparison struct {
	MatchSummary    string                   `json:"match_summary"`
	MatchPercentage int                      `json:"business_match_percentage"`
	Alignment       map[string]string        `json:"company_alignment"`
	InterestsGoals  string                   `json:"key_interests_goals"`
	Similarities    []string                 `json:"similarities"`
	Differences     []string                 `json:"differences"`
	Categories      map[string]CategoryScore `json:"category_analysis"`
	Opportunity     string                   `json:"overall_opportunity"`
}

// NumericSummary condenses a Comparison into the per-category scores and the
// overall verdict.
type NumericSummary struct {
	Scores         map[string]int `json:"scores"`
	OverallScore   int            `json:"overall_score"`
	Recommendation string         `json:"recommendation"`
}

// MatchReport is the full output of one comparison run: both profiles, the
// detailed analysis, its numeric condensation, and where the text rendering
// was saved.
type MatchReport struct {
	ID            uuid.UUID       `json:"id"`
	SourceCompany *CompanyProfile `json:"source_company"`
	LeadCompany   *CompanyProfile `json:"lead_company"`
	Comparison    Comparison      `json:"comparison"`
	Summary       NumericSummary  `json:"numeric_summary"`
	SavedTo       string          `json:"saved_to,omitempty"` // Path of the exported text report.
	CreatedAt     time.Time       `json:"created_at"`
}

// ScoreCategories are the dimensions every comparison is scored on.
// The order is the rendering order of the text report.
var ScoreCategories = []string{
	"size_compatibility",
	"service_overlap",
	"specialty_match",
	"market_alignment",
	"technology_synergy",
}

// ReportSummary is a listing row for stored reports.
type ReportSummary struct {
	ID           uuid.UUID
	SourceName   string
	LeadName     string
	OverallScore int
	CreatedAt    time.Time
}
