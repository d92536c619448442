// Package session provides persistence for specification-drafting
// conversations. Each session holds the full conversation history, the
// current question list, and the latest generated document, stored as a
// single record so a turn either commits completely or not at all.
package session

import (
	"time"

	"github.com/specdraft/specdraft/internal/question"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the drafting agent.
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in the conversation history.
// Assistant turns additionally carry the document and question snapshot
// produced by that turn, so a session can be replayed without re-running
// the model.
type Turn struct {
	// Role indicates who authored the turn.
	Role Role `json:"role"`
	// Content is the user's message or the assistant's conversational reply.
	Content string `json:"content"`
	// Markdown is the specification document generated by an assistant turn.
	Markdown string `json:"markdown,omitempty"`
	// Questions is the question list as it stood after an assistant turn.
	Questions []question.Question `json:"questions,omitempty"`
	// Timestamp is when the turn was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// Record is the complete persisted state of a session.
type Record struct {
	// ID is the unique session identifier.
	ID string `json:"id"`
	// Title is extracted from the generated document's headings.
	Title string `json:"title"`
	// FeatureType is the classified feature category for the session.
	FeatureType string `json:"featureType,omitempty"`
	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is when the session was last committed.
	UpdatedAt time.Time `json:"updatedAt"`
	// History holds the conversation turns in order, oldest first.
	History []Turn `json:"history"`
	// Questions is the current question list for the session.
	Questions []question.Question `json:"questions"`
	// Markdown is the most recent generated document.
	Markdown string `json:"markdown,omitempty"`
}

// Metadata holds session summary information for listings, so callers can
// enumerate sessions without loading full histories.
type Metadata struct {
	// ID is the unique session identifier.
	ID string `json:"id"`
	// Title is the session title.
	Title string `json:"title"`
	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is when the session was last committed.
	UpdatedAt time.Time `json:"updatedAt"`
	// TurnCount is the number of conversation turns.
	TurnCount int `json:"turnCount"`
	// ResolvedQuestions counts questions that are answered or disregarded.
	ResolvedQuestions int `json:"resolvedQuestions"`
	// TotalQuestions counts all questions in the session.
	TotalQuestions int `json:"totalQuestions"`
}

// Meta derives listing metadata from a record.
func (r *Record) Meta() *Metadata {
	resolved, total := question.CountResolved(r.Questions)
	return &Metadata{
		ID:                r.ID,
		Title:             r.Title,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		TurnCount:         len(r.History),
		ResolvedQuestions: resolved,
		TotalQuestions:    total,
	}
}

// UserMessages returns the content of every user turn in order.
func (r *Record) UserMessages() []string {
	var msgs []string
	for _, t := range r.History {
		if t.Role == RoleUser {
			msgs = append(msgs, t.Content)
		}
	}
	return msgs
}

// Clone returns a deep copy of the record. Callers stage turn results on a
// clone and commit it only once the whole turn has succeeded.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.History = make([]Turn, len(r.History))
	for i, t := range r.History {
		cp.History[i] = t
		cp.History[i].Questions = append([]question.Question(nil), t.Questions...)
	}
	cp.Questions = append([]question.Question(nil), r.Questions...)
	return &cp
}
