package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kerem-ae/prospect"
	"github.com/kerem-ae/prospect/db"
	"github.com/kerem-ae/prospect/domain"
)

type fakeSearcher struct {
	results []domain.SearchResult
	err     error
}

func (fake *fakeSearcher) FindCompanyURL(ctx context.Context, companyName string, maxResults int) ([]domain.SearchResult, error) {
	return fake.results, fake.err
}

type fakeScraper struct {
	repo prospect.Repository
	err  error
}

func (fake *fakeScraper) ScrapeCompany(ctx context.Context, rawURL string) (*domain.CompanyProfile, error) {
	if fake.err != nil {
		return nil, fake.err
	}
	profile := &domain.CompanyProfile{
		Name:     "Scraped Co",
		Industry: "Technology",
		Stage:    "Enterprise",
		Website:  rawURL,
	}
	id, err := fake.repo.InsertCompany(profile)
	if err != nil {
		return nil, err
	}
	profile.ID = id
	return profile, nil
}

type fakeComparer struct {
	repo prospect.Repository
	err  error
}

func (fake *fakeComparer) CompareCompanies(ctx context.Context, source, lead *domain.CompanyProfile) (*domain.MatchReport, error) {
	if fake.err != nil {
		return nil, fake.err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	report := &domain.MatchReport{
		ID:            id,
		SourceCompany: source,
		LeadCompany:   lead,
		Comparison: domain.Comparison{
			MatchSummary:    "Strong fit",
			MatchPercentage: 82,
			Opportunity:     "Partner up",
		},
		Summary: domain.NumericSummary{
			Scores:         map[string]int{"service_overlap": 82},
			OverallScore:   82,
			Recommendation: "Partner up",
		},
		CreatedAt: time.Now(),
	}
	if err := fake.repo.InsertReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

func newTestServer(t *testing.T) (*Server, *fakeSearcher, *fakeScraper, *fakeComparer) {
	t.Helper()

	conn, err := db.New(filepath.Join(t.TempDir(), "prospect.db"))
	if err != nil {
		t.Fatalf("db.New() failed: %v", err)
	}
	repo := db.NewRepository(conn)

	app, err := prospect.New(prospect.WithRepo(repo))
	if err != nil {
		t.Fatalf("prospect.New() failed: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	go app.WriteToDB()
	app.Config.HomeDir = t.TempDir()

	server, err := New(app)
	if err != nil {
		t.Fatalf("server.New() failed: %v", err)
	}
	searcher := &fakeSearcher{results: []domain.SearchResult{
		{URL: "https://nvidia.com", Title: "NVIDIA", Snippet: "GPUs", Domain: "nvidia.com"},
	}}
	scraper := &fakeScraper{repo: repo}
	comparer := &fakeComparer{repo: repo}
	server.searcher = searcher
	server.scraper = scraper
	server.comparer = comparer
	return server, searcher, scraper, comparer
}

func newTestClient(t *testing.T, server *Server) (*http.Client, string) {
	t.Helper()
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() failed: %v", err)
	}
	return &http.Client{Jar: jar}, ts.URL
}

func postJSON(t *testing.T, client *http.Client, url, body string) (*http.Response, envelope) {
	t.Helper()
	res, err := client.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer res.Body.Close()
	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response from %s failed: %v", url, err)
	}
	return res, env
}

func getJSON(t *testing.T, client *http.Client, url string) (*http.Response, envelope) {
	t.Helper()
	res, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer res.Body.Close()
	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response from %s failed: %v", url, err)
	}
	return res, env
}

func TestWorkflow(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	client, base := newTestClient(t, server)

	res, env := postJSON(t, client, base+"/api/phase1/set-lead", `{"name":"Nvidia"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set-lead status = %d, want 200", res.StatusCode)
	}
	if env.Phase != 2 {
		t.Errorf("set-lead phase = %d, want 2", env.Phase)
	}

	res, env = postJSON(t, client, base+"/api/phase2/search", `{}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d, want 200", res.StatusCode)
	}
	data := env.Data.(map[string]any)
	results := data["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("search returned %d results, want 1", len(results))
	}
	first := results[0].(map[string]any)
	selected := first["url"].(string)

	res, env = postJSON(t, client, base+"/api/phase3/select", fmt.Sprintf(`{"url":%q}`, selected))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("select status = %d, want 200", res.StatusCode)
	}
	if env.Phase != 4 {
		t.Errorf("select phase = %d, want 4", env.Phase)
	}

	res, env = postJSON(t, client, base+"/api/phase4/scrape", `{}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("scrape status = %d, want 200", res.StatusCode)
	}
	profile := env.Data.(map[string]any)
	if profile["name"] != "Scraped Co" {
		t.Errorf("scraped profile name = %v, want Scraped Co", profile["name"])
	}
	if profile["budget_estimate"] == nil {
		t.Error("scraped profile is missing the budget_estimate key")
	}

	res, env = postJSON(t, client, base+"/api/phase5/compare", `{"user_company":{"name":"AI Startup Inc","industry":"Artificial Intelligence"}}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("compare status = %d, want 200", res.StatusCode)
	}
	if env.Phase != 6 {
		t.Errorf("compare phase = %d, want 6", env.Phase)
	}
	report := env.Data.(map[string]any)
	summary := report["numeric_summary"].(map[string]any)
	if summary["overall_score"].(float64) != 82 {
		t.Errorf("overall_score = %v, want 82", summary["overall_score"])
	}

	res, env = getJSON(t, client, base+"/api/export")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want 200", res.StatusCode)
	}
	exported := env.Data.(map[string]any)
	if exported["filepath"] == "" {
		t.Error("export returned no filepath")
	}

	res, env = getJSON(t, client, base+"/api/export?format=json")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("json export status = %d, want 200", res.StatusCode)
	}
	exported = env.Data.(map[string]any)
	jsonPath, _ := exported["filepath"].(string)
	if !strings.HasSuffix(jsonPath, ".json") {
		t.Errorf("json export filepath = %q, want a .json file", jsonPath)
	}
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("reading json export: %v", err)
	}
	if !json.Valid(raw) {
		t.Error("json export is not valid JSON")
	}

	res, _ = getJSON(t, client, base+"/api/export?format=pdf")
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", res.StatusCode)
	}
}

func TestPhaseOrderEnforced(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	client, base := newTestClient(t, server)

	cases := []struct {
		path    string
		body    string
		message string
	}{
		{"/api/phase2/search", `{}`, "Please complete Phase 1 first"},
		{"/api/phase3/select", `{"url":"https://nvidia.com"}`, "Please complete Phase 2 first"},
		{"/api/phase4/scrape", `{}`, "Please complete Phase 3 first"},
		{"/api/phase5/compare", `{}`, "Please complete Phase 4 first"},
	}
	for _, tc := range cases {
		res, env := postJSON(t, client, base+tc.path, tc.body)
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", tc.path, res.StatusCode)
		}
		if env.Message != tc.message {
			t.Errorf("%s message = %q, want %q", tc.path, env.Message, tc.message)
		}
	}
}

func TestSetLeadRequiresName(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	client, base := newTestClient(t, server)

	res, env := postJSON(t, client, base+"/api/phase1/set-lead", `{"name":"  "}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
	if env.Message != "Lead name is required" {
		t.Errorf("message = %q, want %q", env.Message, "Lead name is required")
	}
}

func TestResetClearsSession(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	client, base := newTestClient(t, server)

	postJSON(t, client, base+"/api/phase1/set-lead", `{"name":"Nvidia"}`)

	res, env := postJSON(t, client, base+"/api/reset", ``)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d, want 200", res.StatusCode)
	}
	if env.Phase != 1 {
		t.Errorf("reset phase = %d, want 1", env.Phase)
	}

	_, env = getJSON(t, client, base+"/api/status")
	if env.Phase != 1 {
		t.Errorf("status phase after reset = %d, want 1", env.Phase)
	}
	data := env.Data.(map[string]any)
	if data["lead_name"] != "" {
		t.Errorf("lead_name after reset = %v, want empty", data["lead_name"])
	}
}

func TestExportWithoutReport(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	client, base := newTestClient(t, server)

	res, env := getJSON(t, client, base+"/api/export")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
	if env.Message != "No report available" {
		t.Errorf("message = %q, want %q", env.Message, "No report available")
	}
}

func TestScrapeFailureMapsToBadRequest(t *testing.T) {
	server, _, scraper, _ := newTestServer(t)
	client, base := newTestClient(t, server)

	postJSON(t, client, base+"/api/phase1/set-lead", `{"name":"Nvidia"}`)
	postJSON(t, client, base+"/api/phase2/search", `{}`)
	postJSON(t, client, base+"/api/phase3/select", `{"url":"https://nvidia.com"}`)

	scraper.err = fmt.Errorf("fetching https://nvidia.com : %w", prospect.ErrFetch)
	res, _ := postJSON(t, client, base+"/api/phase4/scrape", `{}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestQuickMatch(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	client, base := newTestClient(t, server)

	res, env := postJSON(t, client, base+"/api/quick-match", `{"source_url":"acme.com","target_url":"nvidia.com"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	report := env.Data.(map[string]any)
	if report["comparison"] == nil {
		t.Error("quick-match report is missing the comparison")
	}

	res, env = postJSON(t, client, base+"/api/quick-match", `{"source_url":"acme.com"}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
	if env.Message != "Both source_url and target_url are required" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestHealth(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	client, base := newTestClient(t, server)

	res, err := client.Get(base + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decoding health response failed: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if body["config_valid"] != false {
		t.Errorf("config_valid = %v, want false with no API key", body["config_valid"])
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	client, base := newTestClient(t, server)

	req, err := http.NewRequest(http.MethodOptions, base+"/api/status", nil)
	if err != nil {
		t.Fatalf("building request failed: %v", err)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", res.StatusCode)
	}
	if res.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", res.Header.Get("Access-Control-Allow-Origin"))
	}
}
