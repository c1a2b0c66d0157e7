package prospect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kerem-ae/prospect/domain"
	"github.com/kerem-ae/prospect/webdoc"
)

// SaveReportToFile renders the report as text and writes it to a timestamped
// file under reportsDir, returning the file path.
func SaveReportToFile(report *domain.MatchReport, reportsDir string) (string, error) {
	if err := os.MkdirAll(reportsDir, 0700); err != nil {
		return "", fmt.Errorf("creating reports dir : %w", err)
	}

	now := time.Now()
	filename := fmt.Sprintf("business_match_report_%s.txt", now.Format("20060102_150405"))
	path := filepath.Join(reportsDir, filename)

	formatted := FormatReport(report, now)
	if err := os.WriteFile(path, []byte(formatted), 0600); err != nil {
		return "", fmt.Errorf("writing report file : %w", err)
	}
	return path, nil
}

// SaveReportJSON renders the report as indented JSON and writes it to a
// timestamped file under reportsDir, returning the file path.
func SaveReportJSON(report *domain.MatchReport, reportsDir string) (string, error) {
	if err := os.MkdirAll(reportsDir, 0700); err != nil {
		return "", fmt.Errorf("creating reports dir : %w", err)
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshalling report : %w", err)
	}
	formatted, err := webdoc.Prettify(raw)
	if err != nil || len(formatted) == 0 {
		formatted = raw
	}

	filename := fmt.Sprintf("business_match_report_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(reportsDir, filename)
	if err := os.WriteFile(path, formatted, 0600); err != nil {
		return "", fmt.Errorf("writing report file : %w", err)
	}
	return path, nil
}

// FormatReport renders a match report as readable text.
func FormatReport(report *domain.MatchReport, generatedAt time.Time) string {
	var b strings.Builder
	banner := strings.Repeat("=", 60)
	separator := strings.Repeat("-", 40)

	b.WriteString(banner + "\n")
	b.WriteString("    BUSINESS MATCH ANALYSIS REPORT\n")
	b.WriteString(banner + "\n\n")
	fmt.Fprintf(&b, "Generated On: %s\n\n", generatedAt.Format("2006-01-02 15:04:05"))

	if report.SourceCompany != nil {
		b.WriteString(separator + "\n")
		b.WriteString("SOURCE COMPANY PROFILE\n")
		b.WriteString(separator + "\n")
		b.WriteString(formatCompanyProfile(report.SourceCompany))
		b.WriteString("\n")
	}

	if report.LeadCompany != nil {
		b.WriteString(separator + "\n")
		b.WriteString("LEAD COMPANY PROFILE\n")
		b.WriteString(separator + "\n")
		b.WriteString(formatCompanyProfile(report.LeadCompany))
		b.WriteString("\n")
	}

	b.WriteString(separator + "\n")
	b.WriteString("COMPARATIVE ANALYSIS\n")
	b.WriteString(separator + "\n")
	b.WriteString(formatComparison(&report.Comparison))
	b.WriteString("\n")

	b.WriteString(separator + "\n")
	b.WriteString("NUMERIC SUMMARY\n")
	b.WriteString(separator + "\n")
	b.WriteString(formatNumericSummary(&report.Summary))
	b.WriteString("\n")

	b.WriteString(banner + "\n")
	b.WriteString("END OF REPORT\n")
	b.WriteString(banner + "\n")
	return b.String()
}

func formatCompanyProfile(profile *domain.CompanyProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "* Company Name: %s\n", orNA(profile.Name))
	fmt.Fprintf(&b, "* Description: %s\n", orNA(profile.Description))
	fmt.Fprintf(&b, "* Industry: %s\n", orNA(profile.Industry))
	fmt.Fprintf(&b, "* Size: %s\n", orNA(profile.Size))
	fmt.Fprintf(&b, "* Location: %s\n", orNA(profile.Location))

	if len(profile.Specialties) > 0 {
		b.WriteString("* Specialties:\n")
		for _, specialty := range profile.Specialties {
			fmt.Fprintf(&b, "    - %s\n", specialty)
		}
	}
	if len(profile.Services) > 0 {
		b.WriteString("* Services:\n")
		for _, service := range profile.Services {
			fmt.Fprintf(&b, "    - %s\n", service)
		}
	}
	return b.String()
}

func formatComparison(comparison *domain.Comparison) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\nMatch Summary: %s\n", orNA(comparison.MatchSummary))
	fmt.Fprintf(&b, "Business Match: %d%%\n\n", comparison.MatchPercentage)

	b.WriteString("Similarities:\n")
	for _, similarity := range comparison.Similarities {
		fmt.Fprintf(&b, "  + %s\n", similarity)
	}

	b.WriteString("\nDifferences:\n")
	for _, difference := range comparison.Differences {
		fmt.Fprintf(&b, "  - %s\n", difference)
	}

	b.WriteString("\nCategory Analysis:\n")
	for _, category := range domain.ScoreCategories {
		analysis, ok := comparison.Categories[category]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %s (%d%%): %s\n", category, analysis.Score, analysis.Explanation)
	}

	fmt.Fprintf(&b, "\nOverall Opportunity:\n%s\n", orNA(comparison.Opportunity))
	return b.String()
}

func formatNumericSummary(summary *domain.NumericSummary) string {
	var b strings.Builder
	divider := strings.Repeat("=", 30)

	b.WriteString("\nCategory Scores (0-100):\n")
	fmt.Fprintf(&b, "  * Size Compatibility:    %3d%%\n", summary.Scores["size_compatibility"])
	fmt.Fprintf(&b, "  * Service Overlap:       %3d%%\n", summary.Scores["service_overlap"])
	fmt.Fprintf(&b, "  * Specialty Match:       %3d%%\n", summary.Scores["specialty_match"])
	fmt.Fprintf(&b, "  * Market Alignment:      %3d%%\n", summary.Scores["market_alignment"])
	fmt.Fprintf(&b, "  * Technology Synergy:    %3d%%\n", summary.Scores["technology_synergy"])

	fmt.Fprintf(&b, "\n  %s\n", divider)
	fmt.Fprintf(&b, "  OVERALL MATCH SCORE:     %3d%%\n", summary.OverallScore)
	fmt.Fprintf(&b, "  %s\n", divider)

	fmt.Fprintf(&b, "\nRecommendation: %s\n", orNA(summary.Recommendation))
	return b.String()
}
