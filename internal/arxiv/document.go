// Package arxiv searches the arXiv index and acquires paper text.
package arxiv

import (
	"regexp"
	"strings"
	"time"
)

// Document is a paper as returned by the arXiv API. ID is the arXiv identifier
// and stays stable for the lifetime of the process.
type Document struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Published       time.Time `json:"published"`
	Updated         time.Time `json:"updated"`
	Categories      []string  `json:"categories"`
	PrimaryCategory string    `json:"primary_category"`
	Abstract        string    `json:"abstract"`
	AbsURL          string    `json:"abs_url"`
	PDFURL          string    `json:"pdf_url"`
}

// AuthorLine lists up to limit authors and appends "et al." when more exist.
func (d Document) AuthorLine(limit int) string {
	if limit <= 0 || len(d.Authors) <= limit {
		return strings.Join(d.Authors, ", ")
	}
	return strings.Join(d.Authors[:limit], ", ") + " et al."
}

// PublishedDate formats the submission date as YYYY-MM-DD.
func (d Document) PublishedDate() string {
	if d.Published.IsZero() {
		return ""
	}
	return d.Published.Format("2006-01-02")
}

// CategoryNames maps the document's category codes to display names.
func (d Document) CategoryNames() []string {
	names := make([]string, 0, len(d.Categories))
	for _, code := range d.Categories {
		names = append(names, DisplayName(code))
	}
	return names
}

var (
	idRegexp             = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf|html)/([0-9a-z.\-/]+?)(?:\.pdf)?/?$`)
	bareIDRegexp         = regexp.MustCompile(`(?i)^[0-9a-z.\-/]+$`)
	extraneousWhitespace = regexp.MustCompile(`\s+`)
)

// ExtractIdentifier accepts abs/pdf/html URLs, "arXiv:" prefixed ids and bare ids.
func ExtractIdentifier(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if len(input) > 4 && strings.EqualFold(input[len(input)-4:], ".pdf") {
		input = input[:len(input)-4]
	}
	if matches := idRegexp.FindStringSubmatch(input); len(matches) > 1 {
		return matches[1]
	}
	if strings.Contains(input, "://") {
		return ""
	}
	if len(input) >= len("arxiv:") && strings.EqualFold(input[:len("arxiv:")], "arxiv:") {
		input = strings.TrimSpace(input[len("arxiv:"):])
	}
	if bareIDRegexp.MatchString(input) {
		return input
	}
	return ""
}

func normalizeWhitespace(s string) string {
	return extraneousWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
