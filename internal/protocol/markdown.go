package protocol

import (
	"regexp"
	"strings"
)

// Ticket is one implementation work item extracted from a changes section,
// written by the model as `**Title: <title>** - <description>`.
type Ticket struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Document is the structured view of the generated feature markdown.
type Document struct {
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	BackendChanges     []Ticket `json:"backend_changes"`
	FrontendChanges    []Ticket `json:"frontend_changes"`
}

const (
	headingDescription = "## Description"
	headingAcceptance  = "## Acceptance Criteria"
	headingBackend     = "## Backend Changes"
	headingFrontend    = "## Frontend Changes"
)

var ticketRe = regexp.MustCompile(`\*\*Title:\s*([^*]+)\*\*\s*-\s*(.+)`)

// ParseDocument extracts the known sections from generated feature
// markdown. Unknown headings close the current section and are otherwise
// ignored, so extra model-invented sections do not bleed into the
// recognized ones. Absent sections leave zero values.
func ParseDocument(markdown string) *Document {
	doc := &Document{}
	section := ""
	var buf []string

	flush := func() {
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = nil
		switch section {
		case headingDescription:
			doc.Description = body
		case headingAcceptance:
			for _, line := range strings.Split(body, "\n") {
				if item := cleanBullet(line); item != "" {
					doc.AcceptanceCriteria = append(doc.AcceptanceCriteria, item)
				}
			}
		case headingBackend:
			doc.BackendChanges = parseTickets(body)
		case headingFrontend:
			doc.FrontendChanges = parseTickets(body)
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") || strings.HasPrefix(trimmed, "# ") {
			flush()
			section = trimmed
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return doc
}

func parseTickets(body string) []Ticket {
	var out []Ticket
	for _, line := range strings.Split(body, "\n") {
		m := ticketRe.FindStringSubmatch(cleanBullet(line))
		if m == nil {
			continue
		}
		out = append(out, Ticket{
			Title:       strings.TrimSpace(m[1]),
			Description: strings.TrimSpace(m[2]),
		})
	}
	return out
}

// ExtractTitle finds the feature title in generated markdown, preferring
// a "# Feature:" heading, then the first "# " heading, then the first
// "## " heading. The second return is false when no heading qualifies;
// downstream code treats that as a validation failure rather than
// inventing a placeholder.
func ExtractTitle(markdown string) (string, bool) {
	firstH1, firstH2 := "", ""
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "# Feature:"):
			if t := strings.TrimSpace(strings.TrimPrefix(trimmed, "# Feature:")); t != "" {
				return t, true
			}
		case strings.HasPrefix(trimmed, "# ") && firstH1 == "":
			firstH1 = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		case strings.HasPrefix(trimmed, "## ") && firstH2 == "":
			firstH2 = strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
		}
	}
	if firstH1 != "" {
		return firstH1, true
	}
	if firstH2 != "" {
		return firstH2, true
	}
	return "", false
}
