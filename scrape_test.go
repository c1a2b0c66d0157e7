package prospect

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/kerem-ae/prospect/openrouter"
)

const companyPage = `<html><head><title>Acme</title><script>var x = 1;</script></head>
<body><nav>Home About</nav><main><h1>Acme Robotics</h1>
<p>We build industrial robot arms for small factories.</p></main>
<footer>Copyright Acme</footer></body></html>`

const extractionReply = `{
	"name": "Acme Robotics",
	"description": "Industrial robot arms for small factories.",
	"industry": "Robotics",
	"size": "11-50",
	"location": "Eindhoven, NL",
	"specialties": ["Robot arms"],
	"services": ["Automation consulting"],
	"website": "https://acme-robotics.example",
	"founded": "2015",
	"mission": "Automation for everyone",
	"key_people": ["Jan Smit (CEO)"],
	"goals": "Expand into logistics automation",
	"stage": "SME",
	"budget_estimate": "Unknown"
}`

func newScrapeTestApp(t *testing.T, llmContent string) (*App, *Scraper) {
	t.Helper()
	app, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { app.Close() })

	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": llmContent}},
			},
		}
		json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(llm.Close)
	app.LLM = openrouter.NewClient("test-key", "test-model")
	app.LLM.BaseURL = llm.URL

	return app, NewScraper(app)
}

func TestScrapeCompany(t *testing.T) {
	_, scraper := newScrapeTestApp(t, "```json\n"+extractionReply+"\n```")

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sitemap.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		io.WriteString(gz, companyPage)
		gz.Close()
	}))
	t.Cleanup(site.Close)

	profile, err := scraper.ScrapeCompany(context.Background(), site.URL)
	if err != nil {
		t.Fatalf("ScrapeCompany: %v", err)
	}
	if profile.Name != "Acme Robotics" {
		t.Errorf("Name = %q, want Acme Robotics", profile.Name)
	}
	if profile.Stage != "SME" {
		t.Errorf("Stage = %q, want SME", profile.Stage)
	}
	// The profile belongs to the fetched URL, not the model's claim.
	if profile.Website != site.URL {
		t.Errorf("Website = %q, want %q", profile.Website, site.URL)
	}
	if profile.AddedAt.IsZero() {
		t.Error("AddedAt should be set")
	}
}

func TestScrapeCompanyRejectsNonHTML(t *testing.T) {
	_, scraper := newScrapeTestApp(t, extractionReply)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"not":"html"}`)
	}))
	t.Cleanup(site.Close)

	_, err := scraper.ScrapeCompany(context.Background(), site.URL)
	if !errors.Is(err, ErrNotHTML) {
		t.Errorf("err = %v, want ErrNotHTML", err)
	}
}

func TestScrapeCompanyFetchFailure(t *testing.T) {
	_, scraper := newScrapeTestApp(t, extractionReply)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(site.Close)

	_, err := scraper.ScrapeCompany(context.Background(), site.URL)
	if !errors.Is(err, ErrFetch) {
		t.Errorf("err = %v, want ErrFetch", err)
	}
}

func TestScrapeCompanyExtractionWithoutName(t *testing.T) {
	_, scraper := newScrapeTestApp(t, `{"name": ""}`)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sitemap.xml" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, companyPage)
	}))
	t.Cleanup(site.Close)

	_, err := scraper.ScrapeCompany(context.Background(), site.URL)
	if !errors.Is(err, ErrExtract) {
		t.Errorf("err = %v, want ErrExtract", err)
	}
}

func TestScrapeCompanyUsesSitemapAboutPage(t *testing.T) {
	_, scraper := newScrapeTestApp(t, extractionReply)

	var aboutFetched bool
	mux := http.NewServeMux()
	site := httptest.NewServer(mux)
	t.Cleanup(site.Close)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, companyPage)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/</loc></url>
  <url><loc>%s/about</loc></url>
</urlset>`, site.URL, site.URL)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		aboutFetched = true
		fmt.Fprint(w, `<html><body><p>Founded in 2015 by Jan Smit.</p></body></html>`)
	})

	if _, err := scraper.ScrapeCompany(context.Background(), site.URL); err != nil {
		t.Fatalf("ScrapeCompany: %v", err)
	}
	if !aboutFetched {
		t.Error("the about page from the sitemap should have been fetched")
	}
}

func TestDecodeBodyBrotli(t *testing.T) {
	var buf strings.Builder
	writer := brotli.NewWriter(&buf)
	if _, err := io.WriteString(writer, companyPage); err != nil {
		t.Fatalf("compressing: %v", err)
	}
	writer.Close()

	res := &http.Response{
		Header: http.Header{"Content-Encoding": []string{"br"}},
		Body:   io.NopCloser(strings.NewReader(buf.String())),
	}
	body, err := decodeBody(res)
	if err != nil {
		t.Fatalf("decodeBody: %v", err)
	}
	if string(body) != companyPage {
		t.Errorf("decoded body does not round-trip")
	}
}

func TestCleanURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"nvidia.com", "https://nvidia.com"},
		{"  nvidia.com  ", "https://nvidia.com"},
		{"http://nvidia.com", "http://nvidia.com"},
		{"https://nvidia.com", "https://nvidia.com"},
	}
	for _, tc := range cases {
		if got := CleanURL(tc.in); got != tc.want {
			t.Errorf("CleanURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
