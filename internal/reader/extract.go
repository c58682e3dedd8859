// Package reader turns stored article HTML into plain text for matching
// and classification. It never fetches anything over the network; callers
// hand it the body they already have.
package reader

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
)

// ExtractText strips boilerplate from an HTML fragment and returns clean
// paragraph text. When readability cannot parse the input the raw text
// with tags removed is returned instead, so enrichment always has
// something to work with.
func ExtractText(html, pageURL string) string {
	trimmed := strings.TrimSpace(html)
	if trimmed == "" {
		return ""
	}
	if !strings.ContainsRune(trimmed, '<') {
		return CleanText(trimmed)
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = &url.URL{}
	}

	article, err := readability.FromReader(bytes.NewReader([]byte(trimmed)), parsedURL)
	if err != nil {
		return CleanText(stripTags(trimmed))
	}

	var renderedText bytes.Buffer
	if err := article.RenderText(&renderedText); err != nil {
		return CleanText(stripTags(trimmed))
	}

	text := CleanText(renderedText.String())
	if text == "" {
		text = CleanText(article.Excerpt())
	}
	if text == "" {
		text = CleanText(stripTags(trimmed))
	}
	return text
}

// CleanText normalizes line endings and collapses extra in-line whitespace.
func CleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(strings.TrimSpace(line)), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}

// stripTags drops everything between < and > without parsing. Block tags
// become newlines so CleanText keeps paragraph boundaries.
func stripTags(html string) string {
	var b strings.Builder
	b.Grow(len(html))
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte('\n')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
