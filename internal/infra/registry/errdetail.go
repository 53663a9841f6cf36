package registry

import (
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
)

// Django debug pages wrap the interesting message in elements carrying the
// exception_value class.
var (
	exceptionValueRE = regexp.MustCompile(`(?s)<[a-zA-Z][^>]*class="[^"]*\bexception_value\b[^"]*"[^>]*>(.*?)</`)
	htmlTagRE        = regexp.MustCompile(`<[^>]*>`)
)

// Detail converts a registry error response into a human-readable message.
// Validation rejections arrive as JSON and pass through untouched; 5xx HTML
// error pages are scraped for their exception values; anything else falls back
// to the raw body or the standard status text.
func Detail(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	if status >= 500 && looksLikeHTML(text) {
		if scraped := scrapeExceptionValues(text); scraped != "" {
			return scraped
		}
		return fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	return text
}

func looksLikeHTML(text string) bool {
	head := strings.ToLower(text)
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html")
}

func scrapeExceptionValues(text string) string {
	matches := exceptionValueRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	parts := make([]string, 0, len(matches))
	for _, match := range matches {
		inner := htmlTagRE.ReplaceAllString(match[1], "")
		inner = strings.TrimSpace(html.UnescapeString(inner))
		if inner != "" {
			parts = append(parts, inner)
		}
	}
	return strings.Join(parts, "; ")
}
