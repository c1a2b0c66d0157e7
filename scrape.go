package prospect

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/kerem-ae/prospect/domain"
	"github.com/kerem-ae/prospect/openrouter"
	"github.com/kerem-ae/prospect/webdoc"
)

var (
	// ErrFetch is returned when the page could not be fetched. The HTTP
	// layer reports it as a client-side problem with the selected URL.
	ErrFetch = errors.New("could not fetch page content")

	// ErrNotHTML is returned when the fetched body is not an HTML document.
	ErrNotHTML = errors.New("page content is not html")

	// ErrExtract is returned when no usable profile could be extracted from
	// the page content.
	ErrExtract = errors.New("could not extract company information")
)

// pageContentLimit caps the text handed to the model per page.
const pageContentLimit = 20000

// Scraper fetches a company website and extracts a structured profile from
// its visible text.
type Scraper struct {
	app *App
}

// NewScraper creates a scraper bound to the app's client, extensions, and
// repository.
func NewScraper(app *App) *Scraper {
	return &Scraper{app: app}
}

// companyExtraction mirrors the JSON shape the extraction prompt asks for.
type companyExtraction struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Industry    string   `json:"industry"`
	Size        string   `json:"size"`
	Location    string   `json:"location"`
	Specialties []string `json:"specialties"`
	Services    []string `json:"services"`
	Website     string   `json:"website"`
	Founded     string   `json:"founded"`
	Mission     string   `json:"mission"`
	KeyPeople   []string `json:"key_people"`
	Goals       string   `json:"goals"`
	Stage       string   `json:"stage"`
	Budget      string   `json:"budget_estimate"`
}

// ScrapeCompany fetches the URL, extracts the page text, asks the model for
// a structured profile, runs the patch_profile hooks, and persists the
// result. The returned profile carries the store's ID, so scraping an
// already known URL yields the stored record's identity.
func (scraper *Scraper) ScrapeCompany(ctx context.Context, rawURL string) (*domain.CompanyProfile, error) {
	cleaned := CleanURL(rawURL)

	content, err := scraper.fetchPageContent(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	profile, err := scraper.extractProfile(ctx, cleaned, content)
	if err != nil {
		return nil, err
	}

	scraper.runPatchHooks(profile)

	if scraper.app.Repo != nil {
		id, err := scraper.app.Repo.InsertCompany(profile)
		if err != nil {
			return nil, fmt.Errorf("storing company profile : %w", err)
		}
		profile.ID = id
	}
	return profile, nil
}

// fetchPageContent fetches the URL and returns the visible page text, capped
// and optionally enriched with the text of an about page found through the
// site's sitemap.
func (scraper *Scraper) fetchPageContent(ctx context.Context, pageURL string) (string, error) {
	body, err := scraper.fetch(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("%w : %w", ErrFetch, err)
	}

	if !webdoc.IsHTML(body) {
		return "", fmt.Errorf("%w : %s", ErrNotHTML, pageURL)
	}

	text, err := webdoc.ExtractText(body)
	if err != nil {
		return "", fmt.Errorf("%w : %w", ErrExtract, err)
	}

	if about := scraper.aboutPageText(ctx, pageURL); about != "" {
		text = text + "\n" + about
	}
	return webdoc.Truncate(text, pageContentLimit), nil
}

// aboutPageText tries to enrich the profile source with the site's about or
// company page, located through /sitemap.xml. Everything here is best
// effort, a missing or malformed sitemap just means no enrichment.
func (scraper *Scraper) aboutPageText(ctx context.Context, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	sitemapURL := fmt.Sprintf("%s://%s/sitemap.xml", base.Scheme, base.Host)

	body, err := scraper.fetch(ctx, sitemapURL)
	if err != nil {
		return ""
	}
	urls, err := webdoc.ParseSitemap(body)
	if err != nil {
		return ""
	}
	aboutURL := webdoc.PickAboutURL(urls)
	if aboutURL == "" {
		return ""
	}

	aboutBody, err := scraper.fetch(ctx, aboutURL)
	if err != nil || !webdoc.IsHTML(aboutBody) {
		return ""
	}
	text, err := webdoc.ExtractText(aboutBody)
	if err != nil {
		return ""
	}
	return text
}

// fetch performs a single browser-headed GET and returns the decoded body.
func (scraper *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request : %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, br")

	res, err := scraper.app.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doing request : %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("server returned %s", res.Status)
	}
	return decodeBody(res)
}

// decodeBody reads the response body, reversing gzip or brotli content
// encoding. Setting Accept-Encoding by hand disables the transport's
// automatic gzip handling, so both codings are decoded here.
func decodeBody(res *http.Response) ([]byte, error) {
	switch res.Header.Get("Content-Encoding") {
	case "gzip":
		gzipReader, err := gzip.NewReader(res.Body)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzipReader.Close()

		decompressedBody, err := io.ReadAll(gzipReader)
		if err != nil {
			return nil, fmt.Errorf("reading gzip content: %w", err)
		}
		return decompressedBody, nil
	case "br":
		brotliReader := brotli.NewReader(res.Body)

		decompressedBody, err := io.ReadAll(brotliReader)
		if err != nil {
			return nil, fmt.Errorf("reading brotli content : %w", err)
		}
		return decompressedBody, nil
	default:
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("reading body : %w", err)
		}
		return body, nil
	}
}

// extractProfile asks the model for a structured profile of the page text.
func (scraper *Scraper) extractProfile(ctx context.Context, pageURL, content string) (*domain.CompanyProfile, error) {
	if scraper.app.LLM == nil {
		return nil, fmt.Errorf("%w : llm client is not configured", ErrExtract)
	}

	prompt := fmt.Sprintf(`Analyze the following webpage content and extract company information.
Return a JSON object with these exact fields:

{
    "name": "Company official name",
    "description": "Detailed company description (2-3 paragraphs)",
    "industry": "Primary industry",
    "size": "Company size (e.g., '1-10', '11-50', '50-200', 'Enterprise')",
    "location": "Headquarters location",
    "specialties": ["specialty1", "specialty2", ...],
    "services": ["service1", "service2", ...],
    "website": %q,
    "founded": "Year founded or null",
    "mission": "Mission statement or null",
    "key_people": ["Name (Role)", "Name (Role)", ...],
    "goals": "Key business goals or strategic interests mentioned",
    "stage": "Startup|SME|Enterprise|Corporation (Infer from size/history)",
    "budget_estimate": "Estimated revenue/budget range if mentioned (or 'Unknown')"
}

Infer information if not explicitly stated, but be realistic.

Website URL: %s

Page Content:
%s

Return ONLY valid JSON, no markdown or explanation.`, pageURL, pageURL, content)

	var extraction companyExtraction
	err := scraper.app.LLM.CompleteJSON(ctx, []openrouter.Message{
		{Role: "system", Content: "You are an expert business analyst. Extract company information from webpage content and return structured JSON."},
		{Role: "user", Content: prompt},
	}, 0.1, 2000, &extraction)
	if err != nil {
		return nil, fmt.Errorf("%w : %w", ErrExtract, err)
	}
	if extraction.Name == "" {
		return nil, fmt.Errorf("%w : model returned no company name", ErrExtract)
	}

	// Whatever the model claims, the profile belongs to the fetched URL.
	return &domain.CompanyProfile{
		Name:        extraction.Name,
		Description: extraction.Description,
		Industry:    extraction.Industry,
		Size:        extraction.Size,
		Location:    extraction.Location,
		Specialties: extraction.Specialties,
		Services:    extraction.Services,
		Website:     pageURL,
		Founded:     extraction.Founded,
		Mission:     extraction.Mission,
		KeyPeople:   extraction.KeyPeople,
		Goals:       extraction.Goals,
		Stage:       extraction.Stage,
		Budget:      extraction.Budget,
		AddedAt:     time.Now(),
	}, nil
}

// runPatchHooks lets every loaded extension with a patch_profile hook adjust
// the profile. Hook errors are logged and skipped.
func (scraper *Scraper) runPatchHooks(profile *domain.CompanyProfile) {
	for _, ext := range scraper.app.Extensions {
		if !ext.HasHook("patch_profile") {
			continue
		}
		if err := ext.PatchProfile(profile); err != nil {
			scraper.app.WriteLog("WARN", fmt.Sprintf("patch_profile in %s : %s", ext.Data.Name, err.Error()), domain.LogWithHook("patch_profile"))
		}
	}
}

// CleanURL trims the input and defaults the scheme to https.
func CleanURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	return rawURL
}
