package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdraft/specdraft/internal/classify"
	"github.com/specdraft/specdraft/internal/question"
	"github.com/specdraft/specdraft/pkg/session"
)

const sampleMarkdown = `# Feature: User Registration

## Description
Allow new users to create accounts with email and password.

## Acceptance Criteria
- Users can register with a valid email
- Duplicate emails are rejected

## Backend Changes
- **Title: Registration endpoint** - Add POST /register with validation

## Frontend Changes
- **Title: Registration form** - Build form with inline validation
`

func sampleRecord() *session.Record {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	return &session.Record{
		ID:          "1a2b3c4d-5e6f-7081-92a3-b4c5d6e7f809",
		Title:       "User Registration",
		FeatureType: classify.TypeAuthentication,
		CreatedAt:   now,
		UpdatedAt:   now.Add(time.Hour),
		Markdown:    sampleMarkdown,
		Questions: []question.Question{
			{Text: "Should users verify their email address?", Status: question.StatusAnswered, UserAnswer: "Yes, via a link"},
			{Text: "Is social login needed?", Status: question.StatusDisregarded},
			{Text: "Should passwords have complexity rules?", Status: question.StatusPending},
		},
	}
}

func TestMarkdownExport(t *testing.T) {
	e := Markdown(sampleRecord())

	assert.Equal(t, ContentTypeMarkdown, e.ContentType)
	assert.Equal(t, "user-registration-1a2b3c4d.md", e.Filename)

	assert.Contains(t, e.Content, "# User Registration")
	assert.Contains(t, e.Content, "Category: User authentication and authorization features")
	assert.Contains(t, e.Content, "Allow new users to create accounts")
	assert.Contains(t, e.Content, "2 of 3 questions resolved (66%)")
	assert.Contains(t, e.Content, "- Users can register with a valid email")
	assert.Contains(t, e.Content, "**Registration endpoint**: Add POST /register with validation")
	assert.Contains(t, e.Content, "**Registration form**: Build form with inline validation")
	assert.Contains(t, e.Content, "- [answered] Should users verify their email address?")
	assert.Contains(t, e.Content, "Answer: Yes, via a link")
	assert.Contains(t, e.Content, "- [disregarded] Is social login needed?")
	assert.Contains(t, e.Content, "- [pending] Should passwords have complexity rules?")
}

func TestMarkdownExportSparseSession(t *testing.T) {
	rec := &session.Record{
		ID:        "short",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	e := Markdown(rec)

	assert.Contains(t, e.Content, "# Untitled Feature")
	assert.NotContains(t, e.Content, "Category:")
	assert.Contains(t, e.Content, "Feature is still being clarified.")
	assert.Contains(t, e.Content, "0 of 0 questions resolved (0%)")
	assert.NotContains(t, e.Content, "## Question Log")
	assert.Equal(t, "untitled-feature-short.md", e.Filename)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title     string
		sessionID string
		want      string
	}{
		{"User Registration", "1a2b3c4d5e6f", "user-registration-1a2b3c4d.md"},
		{"  Weird__Title!!  ", "abcd1234", "weird-title-abcd1234.md"},
		{"", "abcd1234", "feature-abcd1234.md"},
		{"Login", "", "login.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.title, tt.sessionID))
	}
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "two-factor-auth-2fa", slugify("Two-Factor Auth (2FA)"))
	require.Equal(t, "", slugify("!!!"))
}
