// Package question defines the clarifying-question model shared across the
// parsing, enrichment, and session layers, plus the lifecycle manager that
// reclassifies pending questions as a conversation progresses.
package question

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a clarifying question.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAnswered    Status = "answered"
	StatusDisregarded Status = "disregarded"
)

// ParseStatus converts a raw status token into a Status, tolerating case
// and surrounding quotes. Unknown tokens produce an error rather than a
// silent default.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.Trim(strings.TrimSpace(s), `"'`))) {
	case StatusPending:
		return StatusPending, nil
	case StatusAnswered:
		return StatusAnswered, nil
	case StatusDisregarded:
		return StatusDisregarded, nil
	}
	return "", fmt.Errorf("unknown question status %q", s)
}

// Valid reports whether s is one of the three defined states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAnswered, StatusDisregarded:
		return true
	}
	return false
}

// Resolved reports whether the question has left the pending state.
// Resolved questions never revert to pending.
func (s Status) Resolved() bool {
	return s == StatusAnswered || s == StatusDisregarded
}

// Question is a single clarifying question tracked within a session.
// UserAnswer is populated only when Status is StatusAnswered.
type Question struct {
	Text       string `json:"question" yaml:"question"`
	Status     Status `json:"status" yaml:"status"`
	UserAnswer string `json:"user_answer,omitempty" yaml:"user_answer,omitempty"`

	// Enrichment metadata attached per turn. Priority is one of the
	// prioritizer tiers; FeatureType is the session's detected type.
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
	FeatureType string `json:"feature_type,omitempty" yaml:"feature_type,omitempty"`
}

// New returns a pending question with the given text.
func New(text string) Question {
	return Question{Text: strings.TrimSpace(text), Status: StatusPending}
}

// NormalizeText lowercases and collapses interior whitespace so that two
// textual variants of the same question compare equal.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Pending filters qs down to the questions still awaiting an answer.
func Pending(qs []Question) []Question {
	var out []Question
	for _, q := range qs {
		if q.Status == StatusPending {
			out = append(out, q)
		}
	}
	return out
}

// CountResolved returns how many questions have been answered or
// disregarded, alongside the total. Used for progress reporting.
func CountResolved(qs []Question) (resolved, total int) {
	for _, q := range qs {
		if q.Status.Resolved() {
			resolved++
		}
	}
	return resolved, len(qs)
}
