package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/spf13/cobra"

	"github.com/kerem-ae/prospect/domain"
)

func newVerifyCommand() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Drive the full workflow against a running server",
		Long: `Walk phases 1 through 5 against a running server with a known lead and
a fixed source company, reporting each phase's outcome. Exits non-zero
on the first failed phase.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(baseURL)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "http://127.0.0.1:5001", "Base URL of the running server")
	return cmd
}

// verifySourceCompany is the fixed profile the verification run compares the
// scraped lead against.
var verifySourceCompany = domain.CompanyProfile{
	Name:        "AI Startup Inc",
	Description: "We specialize in high-performance AI software optimization and custom CUDA kernels.",
	Industry:    "Artificial Intelligence",
	Size:        "11-50",
	Services:    []string{"AI Optimization", "CUDA Development", "ML Infrastructure"},
	Specialties: []string{"GPU Computing", "Efficiency"},
	Goals:       "Partner with hardware manufacturers to optimize our software stack.",
	Stage:       "Startup",
}

func runVerify(baseURL string) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("creating cookie jar : %w", err)
	}
	client := &http.Client{Jar: jar, Timeout: 5 * time.Minute}

	fmt.Println("Starting workflow verification...")

	fmt.Println("\n--- Phase 1: Set Lead ---")
	reply, err := postWorkflow(client, baseURL+"/api/phase1/set-lead", map[string]any{"name": "Nvidia"})
	if err != nil {
		return fmt.Errorf("phase 1 : %w", err)
	}
	fmt.Printf("Phase 1 success: %v\n", reply["message"])

	fmt.Println("\n--- Phase 2: Search ---")
	reply, err = postWorkflow(client, baseURL+"/api/phase2/search", nil)
	if err != nil {
		return fmt.Errorf("phase 2 : %w", err)
	}
	results, _ := dataField(reply, "results").([]any)
	fmt.Printf("Found %d URLs\n", len(results))
	if len(results) == 0 {
		return fmt.Errorf("phase 2 : no results found")
	}
	first, _ := results[0].(map[string]any)
	targetURL, _ := first["url"].(string)
	fmt.Printf("Selected URL: %s\n", targetURL)

	fmt.Println("\n--- Phase 3: Select URL ---")
	reply, err = postWorkflow(client, baseURL+"/api/phase3/select", map[string]any{"url": targetURL})
	if err != nil {
		return fmt.Errorf("phase 3 : %w", err)
	}
	fmt.Printf("Phase 3 success: %v\n", reply["message"])

	fmt.Println("\n--- Phase 4: Scrape Lead ---")
	fmt.Println("Scraping... (this may take a few seconds)")
	reply, err = postWorkflow(client, baseURL+"/api/phase4/scrape", nil)
	if err != nil {
		return fmt.Errorf("phase 4 : %w", err)
	}
	lead, _ := reply["data"].(map[string]any)
	fmt.Printf("Scraped lead: %v\n", lead["name"])
	fmt.Printf("Stage: %v\n", lead["stage"])
	fmt.Printf("Budget: %v\n", lead["budget_estimate"])

	fmt.Println("\n--- Phase 5: Compare ---")
	fmt.Println("Comparing with source company data...")
	reply, err = postWorkflow(client, baseURL+"/api/phase5/compare", map[string]any{"user_company": verifySourceCompany})
	if err != nil {
		return fmt.Errorf("phase 5 : %w", err)
	}

	report, _ := reply["data"].(map[string]any)
	summary, _ := report["numeric_summary"].(map[string]any)
	fmt.Println("\nComparison complete!")
	fmt.Printf("Match score: %v%%\n", summary["overall_score"])

	fmt.Println("\nChecking for explanations:")
	comparison, _ := report["comparison"].(map[string]any)
	categories, _ := comparison["category_analysis"].(map[string]any)
	for name, raw := range categories {
		details, _ := raw.(map[string]any)
		explanation, _ := details["explanation"].(string)
		if len(explanation) > 50 {
			explanation = explanation[:50] + "..."
		}
		fmt.Printf("- %s: %s\n", name, explanation)
	}
	return nil
}

// postWorkflow sends a JSON POST and decodes the response envelope. Any
// non-200 status is a failure carrying the server's response body.
func postWorkflow(client *http.Client, url string, body any) (map[string]any, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encoding request : %w", err)
		}
	}
	res, err := client.Post(url, "application/json", &buf)
	if err != nil {
		return nil, fmt.Errorf("doing request : %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response : %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d : %s", res.StatusCode, string(raw))
	}
	var reply map[string]any
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decoding response : %w", err)
	}
	return reply, nil
}

func dataField(reply map[string]any, key string) any {
	data, _ := reply["data"].(map[string]any)
	if data == nil {
		return nil
	}
	return data[key]
}
