package webdoc

import (
	"strings"
	"testing"
)

func TestExtractTextSkipsChrome(t *testing.T) {
	page := []byte(`<html><head><title>Acme</title><style>body{color:red}</style></head>
	<body>
	<header>Site Header</header>
	<nav><a href="/">Home</a></nav>
	<script>console.log("tracking")</script>
	<main>
		<h1>Acme Robotics</h1>
		<p>We build   industrial robots.</p>
	</main>
	<footer>Copyright Acme</footer>
	</body></html>`)

	text, err := ExtractText(page)
	if err != nil {
		t.Fatalf("ExtractText() failed: %v", err)
	}

	for _, unwanted := range []string{"Site Header", "Home", "tracking", "Copyright"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("expected %q to be stripped, got:\n%s", unwanted, text)
		}
	}
	for _, wanted := range []string{"Acme Robotics", "We build   industrial robots."} {
		if !strings.Contains(text, wanted) {
			t.Errorf("expected %q in extracted text, got:\n%s", wanted, text)
		}
	}
	if strings.Contains(text, "\n\n") {
		t.Error("expected empty lines to be dropped")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{name: "within cap", text: "short", max: 100, want: "short"},
		{name: "cut at line boundary", text: "first line\nsecond line\nthird", max: 25, want: "first line\nsecond line"},
		{name: "single long line", text: "abcdefghij", max: 4, want: "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestPrettify(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		contains string
		empty    bool
	}{
		{name: "json", body: []byte(`{"b":1,"a":{"c":2}}`), contains: "\"c\": 2"},
		{name: "xml", body: []byte(`<root><child>value</child></root>`), contains: "<child>value</child>"},
		{name: "html", body: []byte(`<html><body><p>hello</p></body></html>`), contains: "<p>"},
		{name: "empty", body: []byte{}, empty: true},
		{name: "binary", body: []byte{0x00, 0x01, 0x02}, empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Prettify(tt.body)
			if err != nil {
				t.Fatalf("Prettify() failed: %v", err)
			}
			if tt.empty {
				if len(got) != 0 {
					t.Errorf("expected empty output, got %q", got)
				}
				return
			}
			if !strings.Contains(string(got), tt.contains) {
				t.Errorf("expected output to contain %q, got %q", tt.contains, got)
			}
		})
	}
}

func TestIsHTML(t *testing.T) {
	if !IsHTML([]byte(`<!DOCTYPE html><html><body>hi</body></html>`)) {
		t.Error("expected HTML document to be detected")
	}
	if IsHTML([]byte(`%PDF-1.4 fake pdf content`)) {
		t.Error("expected PDF content to be rejected")
	}
}

func TestParseSitemap(t *testing.T) {
	sitemap := []byte(`<?xml version="1.0" encoding="UTF-8"?>
	<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
		<url><loc>https://acme.example/</loc></url>
		<url><loc> https://acme.example/about-us </loc></url>
		<url><loc>https://acme.example/careers</loc></url>
	</urlset>`)

	urls, err := ParseSitemap(sitemap)
	if err != nil {
		t.Fatalf("ParseSitemap() failed: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected 3 urls, got %d", len(urls))
	}
	if urls[1] != "https://acme.example/about-us" {
		t.Errorf("expected trimmed loc, got %q", urls[1])
	}

	if _, err := ParseSitemap([]byte(`<html><body>not a sitemap</body></html>`)); err == nil {
		t.Error("expected error for non-sitemap root")
	}
}

func TestPickAboutURL(t *testing.T) {
	urls := []string{
		"https://acme.example/careers",
		"https://acme.example/about-us",
		"https://acme.example/company/history",
	}
	if got := PickAboutURL(urls); got != "https://acme.example/about-us" {
		t.Errorf("expected the about page, got %q", got)
	}
	if got := PickAboutURL([]string{"https://acme.example/pricing"}); got != "" {
		t.Errorf("expected no match, got %q", got)
	}
}
