package stub

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfToText returns the plain text of every page, joined by newlines.
func pdfToText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	parts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}
	return cleanText(strings.Join(parts, "\n")), nil
}

var (
	reSpaces  = regexp.MustCompile(`[ \t\x{00a0}\x{2000}-\x{200b}]+`)
	reBullets = regexp.MustCompile(`(?m)^\s*[•·●◦▪▫–—\-]+\s+`)
	reDashes  = regexp.MustCompile(`[‐‑‒–—−]`)
)

// cleanText normalizes line endings, dashes and bullets, drops blank lines
// and collapses runs of horizontal whitespace.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reDashes.ReplaceAllString(s, "-")
	s = reBullets.ReplaceAllString(s, "- ")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, reSpaces.ReplaceAllString(l, " "))
		}
	}
	return strings.Join(out, "\n")
}
