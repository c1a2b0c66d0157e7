// Package webdoc handles the document bodies the application touches:
// extracting readable text from scraped HTML pages, parsing XML sitemaps for
// likely company pages, and prettifying stored JSON/XML/HTML payloads for
// export.
package webdoc
