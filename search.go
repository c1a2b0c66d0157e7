package prospect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
	"github.com/kerem-ae/prospect/openrouter"
	"golang.org/x/net/html"
)

// defaultSearchEndpoint is the DuckDuckGo HTML interface. Unlike the JSON
// API it carries full organic results and needs no credentials.
const defaultSearchEndpoint = "https://html.duckduckgo.com/html/"

// snippetLimit caps the preview text carried per result.
const snippetLimit = 300

var domainPattern = regexp.MustCompile(`https?://(?:www\.)?([^/]+)`)

// SearchEngine finds the official website of a named lead company. Results
// are deduplicated by domain, filtered through the scope and the
// filter_result extension hooks, and re-ranked by the model.
type SearchEngine struct {
	app      *App
	Endpoint string // Search endpoint, overridable for tests
}

// NewSearchEngine creates a search engine bound to the app's client, scope,
// and extensions.
func NewSearchEngine(app *App) *SearchEngine {
	return &SearchEngine{
		app:      app,
		Endpoint: defaultSearchEndpoint,
	}
}

// FindCompanyURL searches for the official website of the named company and
// returns up to maxResults candidates, best first. A failing search is
// logged and yields an empty result set rather than an error so the workflow
// can surface "no results" uniformly.
func (engine *SearchEngine) FindCompanyURL(ctx context.Context, companyName string, maxResults int) ([]domain.SearchResult, error) {
	query := fmt.Sprintf("%s official website", companyName)

	// Fetch more than needed, dedupe and filtering thin the list out.
	raw, err := engine.fetchResults(ctx, query)
	if err != nil {
		engine.app.WriteLog("WARN", fmt.Sprintf("searching for %s : %s", companyName, err.Error()))
		return []domain.SearchResult{}, nil
	}

	results := engine.formatResults(raw, maxResults)

	if len(results) > 0 {
		results = engine.rankByRelevance(ctx, results, companyName)
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	engine.recordSearch(companyName, query, len(results))
	return results, nil
}

// fetchResults posts the query to the HTML endpoint and parses the organic
// results out of the response document.
func (engine *SearchEngine) fetchResults(ctx context.Context, query string) ([]domain.SearchResult, error) {
	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, engine.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building search request : %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUserAgent)

	res, err := engine.app.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doing search request : %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned %s", res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response : %w", err)
	}
	return parseResultsPage(body)
}

// parseResultsPage extracts url/title/snippet triples from the DuckDuckGo
// HTML results markup. Result links carry the result__a class and redirect
// through /l/?uddg=<target>; snippets carry result__snippet.
func parseResultsPage(body []byte) ([]domain.SearchResult, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parsing results page : %w", err)
	}

	var results []domain.SearchResult
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			class := nodeAttr(node, "class")
			switch {
			case node.Data == "a" && strings.Contains(class, "result__a"):
				target := decodeRedirect(nodeAttr(node, "href"))
				if target != "" {
					results = append(results, domain.SearchResult{
						URL:   target,
						Title: strings.TrimSpace(nodeText(node)),
					})
				}
			case strings.Contains(class, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = strings.TrimSpace(nodeText(node))
				}
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return results, nil
}

// decodeRedirect unwraps the uddg redirect parameter when present and
// returns the real target URL.
func decodeRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" {
		return ""
	}
	return href
}

// formatResults dedupes by domain, drops out-of-scope candidates, runs the
// filter_result hooks, and caps the snippet length.
func (engine *SearchEngine) formatResults(raw []domain.SearchResult, maxResults int) []domain.SearchResult {
	formatted := make([]domain.SearchResult, 0, maxResults)
	seenDomains := make(map[string]bool)

	for _, result := range raw {
		resultDomain := ExtractDomain(result.URL)
		if seenDomains[resultDomain] {
			continue
		}
		seenDomains[resultDomain] = true

		if !engine.app.Scope.MatchesResult(resultDomain, result.URL) {
			continue
		}

		result.Domain = resultDomain
		if runes := []rune(result.Snippet); len(runes) > snippetLimit {
			result.Snippet = string(runes[:snippetLimit])
		}

		if !engine.runFilterHooks(result) {
			continue
		}

		formatted = append(formatted, result)
		if len(formatted) >= maxResults {
			break
		}
	}
	return formatted
}

// runFilterHooks asks every loaded extension with a filter_result hook
// whether to keep the result. Hook errors are logged and treated as keep so
// a broken script cannot empty the result list.
func (engine *SearchEngine) runFilterHooks(result domain.SearchResult) bool {
	for _, ext := range engine.app.Extensions {
		if !ext.HasHook("filter_result") {
			continue
		}
		keep, err := ext.FilterResult(result)
		if err != nil {
			engine.app.WriteLog("WARN", fmt.Sprintf("filter_result in %s : %s", ext.Data.Name, err.Error()), domain.LogWithHook("filter_result"))
			continue
		}
		if !keep {
			return false
		}
	}
	return true
}

// rankByRelevance asks the model to order the candidates by likelihood of
// being the official site. Any ranking failure falls back to the original
// order.
func (engine *SearchEngine) rankByRelevance(ctx context.Context, results []domain.SearchResult, companyName string) []domain.SearchResult {
	if engine.app.LLM == nil {
		return results
	}

	candidates, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return results
	}

	prompt := fmt.Sprintf(`Identify the official website for the company %q from the search results below.

Search Results:
%s

Rank them in order of likelihood (Most likely official site first).
Return a JSON array of URLs.
Example: ["https://official-site.com", "https://other-site.com"]

Return ONLY the valid JSON array.`, companyName, candidates)

	var rankedURLs []string
	err = engine.app.LLM.CompleteJSON(ctx, []openrouter.Message{
		{Role: "user", Content: prompt},
	}, 0.1, 500, &rankedURLs)
	if err != nil {
		engine.app.WriteLog("WARN", fmt.Sprintf("ranking results for %s : %s", companyName, err.Error()))
		return results
	}

	byURL := make(map[string]domain.SearchResult, len(results))
	for _, result := range results {
		byURL[result.URL] = result
	}

	ranked := make([]domain.SearchResult, 0, len(results))
	seen := make(map[string]bool)
	for _, rankedURL := range rankedURLs {
		if result, ok := byURL[rankedURL]; ok && !seen[rankedURL] {
			ranked = append(ranked, result)
			seen[rankedURL] = true
		}
	}
	// Any result the model dropped goes to the end, unreordered.
	for _, result := range results {
		if !seen[result.URL] {
			ranked = append(ranked, result)
		}
	}
	return ranked
}

// recordSearch queues the search trace for async persistence.
func (engine *SearchEngine) recordSearch(leadName, query string, resultCount int) {
	id, err := uuid.NewV7()
	if err != nil {
		return
	}
	engine.app.DBWriteChannel <- &domain.SearchRecord{
		ID:          id,
		LeadName:    leadName,
		Query:       query,
		ResultCount: resultCount,
		SearchedAt:  time.Now(),
	}
}

// ExtractDomain returns the registrable domain of a URL, with any www prefix
// stripped. The URL itself is returned when it does not look like one.
func ExtractDomain(rawURL string) string {
	match := domainPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return rawURL
	}
	return match[1]
}

// nodeAttr returns the value of the named attribute on an element node.
func nodeAttr(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// nodeText returns the concatenated text content of a node subtree.
func nodeText(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}
	var builder strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		builder.WriteString(nodeText(child))
	}
	return builder.String()
}
