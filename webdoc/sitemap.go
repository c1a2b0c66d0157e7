package webdoc

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// aboutPageHints mark URLs that typically describe the company itself.
// Ordered by preference.
var aboutPageHints = []string{
	"/about",
	"/company",
	"/who-we-are",
	"/our-story",
	"/mission",
}

// ParseSitemap extracts the location URLs from a sitemap.xml document.
// Both urlset and sitemapindex documents are handled; nested sitemaps are
// returned as URLs and left to the caller to fetch.
func ParseSitemap(body []byte) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap : %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("sitemap has no root element")
	}
	if root.Tag != "urlset" && root.Tag != "sitemapindex" {
		return nil, fmt.Errorf("unexpected sitemap root element %q", root.Tag)
	}

	var urls []string
	for _, entry := range root.ChildElements() {
		loc := entry.SelectElement("loc")
		if loc == nil {
			continue
		}
		if trimmed := strings.TrimSpace(loc.Text()); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls, nil
}

// PickAboutURL returns the sitemap URL most likely to describe the company,
// or an empty string when none of the URLs look like an about page.
func PickAboutURL(urls []string) string {
	for _, hint := range aboutPageHints {
		for _, u := range urls {
			if strings.Contains(strings.ToLower(u), hint) {
				return u
			}
		}
	}
	return ""
}
