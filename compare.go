package prospect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
	"github.com/kerem-ae/prospect/openrouter"
)

// ErrCompare is returned when the comparison analysis could not be produced.
var ErrCompare = errors.New("could not generate comparison")

// ComparisonEngine compares the user's company against a lead and produces a
// scored match report.
type ComparisonEngine struct {
	app *App
}

// NewComparisonEngine creates a comparison engine bound to the app's model
// client and repository.
func NewComparisonEngine(app *App) *ComparisonEngine {
	return &ComparisonEngine{app: app}
}

// CompareCompanies runs the model comparison of source against lead, derives
// the numeric summary, saves the text rendering under the reports directory,
// and persists the report.
func (engine *ComparisonEngine) CompareCompanies(ctx context.Context, source, lead *domain.CompanyProfile) (*domain.MatchReport, error) {
	comparison, err := engine.generateComparison(ctx, source, lead)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating report id : %w", err)
	}

	report := &domain.MatchReport{
		ID:            id,
		SourceCompany: source,
		LeadCompany:   lead,
		Comparison:    *comparison,
		Summary:       BuildNumericSummary(comparison),
		CreatedAt:     time.Now(),
	}

	if path, err := SaveReportToFile(report, engine.app.Config.ReportsPath()); err != nil {
		engine.app.WriteLog("WARN", fmt.Sprintf("saving report file : %s", err.Error()))
	} else {
		report.SavedTo = path
	}

	if engine.app.Repo != nil {
		if err := engine.app.Repo.InsertReport(report); err != nil {
			return nil, fmt.Errorf("storing report : %w", err)
		}
		engine.app.WriteLog("INFO", fmt.Sprintf("match report for %s vs %s : %d%%", source.Name, lead.Name, report.Summary.OverallScore), domain.LogWithReport(report.ID))
	}
	return report, nil
}

// generateComparison asks the model for the detailed analysis.
func (engine *ComparisonEngine) generateComparison(ctx context.Context, source, lead *domain.CompanyProfile) (*domain.Comparison, error) {
	if engine.app.LLM == nil {
		return nil, fmt.Errorf("%w : llm client is not configured", ErrCompare)
	}

	prompt := fmt.Sprintf(`Perform a comprehensive B2B business matching analysis.

USER COMPANY (My Company):
%s

LEAD COMPANY (Target):
%s

Analyze the alignment and provide a JSON response with the following structure.
Crucial: For every "explanation" field, you MUST explain HOW and WHY based on the data.

{
    "match_summary": "Brief executive summary of the business match opportunity",
    "business_match_percentage": <0-100 number>,
    "company_alignment": {
         "stage_comparison": "Compare stages (e.g. Startup vs Enterprise) and what it means",
         "size_compatibility": "Analyze if the size difference is a pro or con",
         "budget_fit": "Analyze if the lead likely has budget for user services"
    },
    "key_interests_goals": "Analysis of shared or complementary goals",
    "similarities": ["Sim 1", "Sim 2", ...],
    "differences": ["Diff 1", "Diff 2", ...],
    "category_analysis": {
        "size_compatibility": {"score": <0-100>, "explanation": "HOW and WHY?"},
        "service_overlap": {"score": <0-100>, "explanation": "HOW and WHY?"},
        "specialty_match": {"score": <0-100>, "explanation": "HOW and WHY?"},
        "market_alignment": {"score": <0-100>, "explanation": "HOW and WHY?"},
        "technology_synergy": {"score": <0-100>, "explanation": "HOW and WHY?"}
    },
    "overall_opportunity": "Final verdict on the partnership/sales opportunity"
}

Return ONLY valid JSON.`, profileSummary(source), profileSummary(lead))

	var comparison domain.Comparison
	err := engine.app.LLM.CompleteJSON(ctx, []openrouter.Message{
		{Role: "system", Content: "You are a strategic business consultant expert in B2B matching."},
		{Role: "user", Content: prompt},
	}, 0.2, 2500, &comparison)
	if err != nil {
		return nil, fmt.Errorf("%w : %w", ErrCompare, err)
	}
	return &comparison, nil
}

// profileSummary renders the prompt-facing view of a profile.
func profileSummary(profile *domain.CompanyProfile) string {
	return fmt.Sprintf(`- Name: %s
- Description: %s
- Industry: %s
- Size: %s
- Products/Services: %s
- Specialties: %s
- Goals: %s
- Stage: %s
- Budget Estimate: %s`,
		profile.Name,
		profile.Description,
		profile.Industry,
		profile.Size,
		strings.Join(profile.Services, ", "),
		strings.Join(profile.Specialties, ", "),
		orNA(profile.Goals),
		orNA(profile.Stage),
		orNA(profile.Budget),
	)
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}

// BuildNumericSummary condenses a comparison into the per-category scores
// and the overall verdict. Missing categories score zero.
func BuildNumericSummary(comparison *domain.Comparison) domain.NumericSummary {
	scores := make(map[string]int, len(domain.ScoreCategories))
	for _, category := range domain.ScoreCategories {
		scores[category] = comparison.Categories[category].Score
	}
	return domain.NumericSummary{
		Scores:         scores,
		OverallScore:   comparison.MatchPercentage,
		Recommendation: comparison.Opportunity,
	}
}
