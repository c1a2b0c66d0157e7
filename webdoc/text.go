package webdoc

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements are subtrees that carry no company information: scripts,
// styling, and page chrome.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"footer":   true,
	"header":   true,
}

// ExtractText parses an HTML document and returns its visible text, one
// trimmed line per text node, with empty lines dropped. Script, style, and
// page-chrome subtrees are skipped entirely.
func ExtractText(body []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parsing html : %w", err)
	}

	var lines []string
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skippedElements[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			for _, line := range strings.Split(node.Data, "\n") {
				if trimmed := strings.TrimSpace(line); trimmed != "" {
					lines = append(lines, trimmed)
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return strings.Join(lines, "\n"), nil
}

// Truncate caps text at max bytes without splitting a line in half.
// Text already within the cap is returned unchanged.
func Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	truncated := text[:max]
	if idx := strings.LastIndexByte(truncated, '\n'); idx > 0 {
		return truncated[:idx]
	}
	return truncated
}
