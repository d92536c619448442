// Package export renders a session's feature specification as a
// standalone markdown document for download.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/specdraft/specdraft/internal/classify"
	"github.com/specdraft/specdraft/internal/protocol"
	"github.com/specdraft/specdraft/internal/question"
	"github.com/specdraft/specdraft/pkg/session"
)

// ContentTypeMarkdown is the MIME type of exported documents.
const ContentTypeMarkdown = "text/markdown"

// Export is a rendered document ready to be served as a file.
type Export struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// Markdown renders the session's latest document, progress, and question
// log as a single markdown file.
func Markdown(rec *session.Record) *Export {
	doc := protocol.ParseDocument(rec.Markdown)
	resolved, total := question.CountResolved(rec.Questions)

	title := rec.Title
	if title == "" {
		title = "Untitled Feature"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Session: %s  \n", rec.ID)
	if rec.FeatureType != "" {
		fmt.Fprintf(&b, "Category: %s  \n", classify.TypeDescription(rec.FeatureType))
	}
	fmt.Fprintf(&b, "Created: %s  \n", rec.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Updated: %s\n\n", rec.UpdatedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Description\n\n")
	if doc.Description != "" {
		b.WriteString(doc.Description)
	} else {
		b.WriteString("Feature is still being clarified.")
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "## Progress\n\n%d of %d questions resolved (%d%%)\n\n", resolved, total, progressPercentage(resolved, total))

	if len(doc.AcceptanceCriteria) > 0 {
		b.WriteString("## Acceptance Criteria\n\n")
		for _, item := range doc.AcceptanceCriteria {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		b.WriteString("\n")
	}

	writeTickets(&b, "## Backend Changes", doc.BackendChanges)
	writeTickets(&b, "## Frontend Changes", doc.FrontendChanges)

	if len(rec.Questions) > 0 {
		b.WriteString("## Question Log\n\n")
		for _, q := range rec.Questions {
			if q.Status == question.StatusAnswered && q.UserAnswer != "" {
				fmt.Fprintf(&b, "- [%s] %s\n  - Answer: %s\n", q.Status, q.Text, q.UserAnswer)
			} else {
				fmt.Fprintf(&b, "- [%s] %s\n", q.Status, q.Text)
			}
		}
	}

	return &Export{
		Content:     strings.TrimRight(b.String(), "\n") + "\n",
		Filename:    Filename(title, rec.ID),
		ContentType: ContentTypeMarkdown,
	}
}

func writeTickets(b *strings.Builder, heading string, tickets []protocol.Ticket) {
	if len(tickets) == 0 {
		return
	}
	b.WriteString(heading + "\n\n")
	for _, t := range tickets {
		fmt.Fprintf(b, "- **%s**: %s\n", t.Title, t.Description)
	}
	b.WriteString("\n")
}

func progressPercentage(resolved, total int) int {
	if total == 0 {
		return 0
	}
	return resolved * 100 / total
}

// Filename derives a download filename from the feature title and session
// ID, such as "user-registration-1a2b3c4d.md".
func Filename(title, sessionID string) string {
	slug := slugify(title)
	if slug == "" {
		slug = "feature"
	}
	suffix := sessionID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	if suffix == "" {
		return slug + ".md"
	}
	return slug + "-" + suffix + ".md"
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
