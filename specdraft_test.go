package specdraft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/specdraft/specdraft/internal/agent"
	"github.com/specdraft/specdraft/internal/llm/provider"
	"github.com/specdraft/specdraft/internal/question"
	"github.com/specdraft/specdraft/pkg/config"
	"github.com/specdraft/specdraft/pkg/session"
)

const acceptVerdict = `SECURITY:
is_feature_request: true
confidence: 0.9
reasoning: feature request`

const loginTurn = `RESPONSE:
A login system, great. I captured the basics and have a few questions.

PENDING QUESTIONS:
- Will the system support multi-factor authentication?
- Do you need password complexity rules?

MARKDOWN:
# Feature: Login System

## Description
Let users sign in with email and password.

## Acceptance Criteria
- Users can log in with valid credentials

## Backend Changes
- **Title: Auth endpoint** - Add POST /login

## Frontend Changes
- **Title: Login form** - Build the login form`

func newTestAgent(t *testing.T, mock *provider.MockProvider, backend session.StorageBackend) *Agent {
	t.Helper()
	if backend == nil {
		backend = session.NewMemoryBackend()
	}
	a, err := New(config.Default(), mock, backend, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// seedSession stores a one-turn session so follow-up paths can be tested
// without replaying a first turn through the model.
func seedSession(t *testing.T, backend session.StorageBackend, id string, questions []question.Question) {
	t.Helper()
	now := time.Now().UTC()
	rec := &session.Record{
		ID:        id,
		Title:     "Login System",
		CreatedAt: now,
		UpdatedAt: now,
		Markdown:  "# Feature: Login System",
		Questions: questions,
		History: []session.Turn{
			{Role: session.RoleUser, Content: "I want a login system", Timestamp: now},
			{Role: session.RoleAssistant, Content: "Drafted.", Markdown: "# Feature: Login System", Questions: questions, Timestamp: now},
		},
	}
	require.NoError(t, backend.SaveSession(context.Background(), rec))
}

func TestProcessFeatureNewSession(t *testing.T) {
	mock := provider.NewMockProvider("mock").
		AddContent(acceptVerdict).
		AddContent(loginTurn)
	a := newTestAgent(t, mock, nil)

	result, err := a.ProcessFeature(context.Background(), "I want a login system", "")
	require.NoError(t, err)

	assert.Equal(t, "Login System", result.Title)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, question.Pending(result.Questions))
	assert.Equal(t, "authentication", result.Questions[0].FeatureType)

	// The committed record matches the returned result.
	rec, err := a.GetSession(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Login System", rec.Title)
	assert.Len(t, rec.History, 2)
	assert.Equal(t, len(result.Questions), len(rec.Questions))
}

func TestProcessFeatureNegativeFollowup(t *testing.T) {
	backend := session.NewMemoryBackend()
	seedSession(t, backend, "sess-1", []question.Question{
		question.New("Will the system support multi-factor authentication?"),
	})

	analysis := `QUESTIONS:
- question: "Will the system support multi-factor authentication?"
  status: answered
  user_answer: "No, we don't need 2FA"`

	followupTurn := `RESPONSE:
Understood, no multi-factor authentication.

PENDING QUESTIONS:

MARKDOWN:
# Feature: Login System

## Description
Let users sign in with email and password, without 2FA.`

	// Call order: security verdict, question analysis, conversational turn.
	// The context gate is skipped by the negative-answer fast path.
	mock := provider.NewMockProvider("mock").
		AddContent(acceptVerdict).
		AddContent(analysis).
		AddContent(followupTurn)
	a := newTestAgent(t, mock, backend)

	result, err := a.ProcessFeature(context.Background(), "No, we don't need 2FA", "sess-1")
	require.NoError(t, err)

	require.NotEmpty(t, result.Questions)
	mfa := result.Questions[0]
	assert.Equal(t, question.StatusAnswered, mfa.Status)
	assert.Equal(t, "No, we don't need 2FA", mfa.UserAnswer)
	assert.Equal(t, 1, result.AnsweredQuestions)
	assert.Len(t, mock.CompletionCalls, 3)
}

func TestProcessFeatureParseFailureLeavesSessionUntouched(t *testing.T) {
	backend := session.NewMemoryBackend()
	seedSession(t, backend, "sess-1", []question.Question{
		question.New("Will the system support multi-factor authentication?"),
	})

	contextOK := `CONTEXT:
is_contextually_relevant: true
reasoning: refines the login feature`

	mock := provider.NewMockProvider("mock").
		AddContent(acceptVerdict).
		AddContent(contextOK).
		AddContent("QUESTIONS:\n- question: \"Will the system support multi-factor authentication?\"\n  status: pending\n  user_answer: null").
		AddContent("free prose").
		AddContent("still free prose")
	a := newTestAgent(t, mock, backend)

	_, err := a.ProcessFeature(context.Background(), "Let's also support SSO", "sess-1")
	require.Error(t, err)
	assert.Equal(t, agent.KindParsingError, agent.KindOf(err))

	rec, getErr := a.GetSession(context.Background(), "sess-1")
	require.NoError(t, getErr)
	assert.Len(t, rec.History, 2)
	assert.Equal(t, question.StatusPending, rec.Questions[0].Status)
}

func TestProcessFeatureDropsDuplicateCandidates(t *testing.T) {
	backend := session.NewMemoryBackend()
	answered := question.Question{
		Text:       "Do you need password complexity rules?",
		Status:     question.StatusAnswered,
		UserAnswer: "Minimum 12 characters",
	}
	seedSession(t, backend, "sess-1", []question.Question{answered})

	contextOK := `CONTEXT:
is_contextually_relevant: true
reasoning: refines the login feature`

	duplicateTurn := `RESPONSE:
Noted, I refined the password section.

PENDING QUESTIONS:
- What password requirements should we implement?

MARKDOWN:
# Feature: Login System

## Description
Let users sign in with email and password.`

	// No questions are pending, so the analysis step makes no model call.
	mock := provider.NewMockProvider("mock").
		AddContent(acceptVerdict).
		AddContent(contextOK).
		AddContent(duplicateTurn)
	a := newTestAgent(t, mock, backend)

	result, err := a.ProcessFeature(context.Background(), "Passwords should expire yearly", "sess-1")
	require.NoError(t, err)

	// The candidate shares the password-complexity topic with an already
	// answered question, so it never reaches the question list.
	for _, q := range result.Questions {
		assert.NotEqual(t, "What password requirements should we implement?", q.Text)
	}
}

func TestProcessFeatureEmptyInput(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	backend := session.NewMemoryBackend()
	a := newTestAgent(t, mock, backend)

	_, err := a.ProcessFeature(context.Background(), "   ", "sess-new")
	require.Error(t, err)
	assert.Equal(t, agent.KindSecurityRejection, agent.KindOf(err))

	// The rejected message leaves no trace in the store.
	metas, listErr := backend.ListSessions(context.Background(), session.ListOptions{})
	require.NoError(t, listErr)
	assert.Empty(t, metas)
}

func TestDeleteSessionIdempotent(t *testing.T) {
	backend := session.NewMemoryBackend()
	seedSession(t, backend, "sess-1", nil)
	a := newTestAgent(t, provider.NewMockProvider("mock"), backend)

	existed, err := a.DeleteSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = a.DeleteSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestDeleteSessionReleasesLock(t *testing.T) {
	backend := session.NewMemoryBackend()
	seedSession(t, backend, "sess-1", nil)
	a := newTestAgent(t, provider.NewMockProvider("mock"), backend)

	unlock := a.lockSession("sess-1")
	unlock()
	assert.Len(t, a.locks, 1)

	_, err := a.DeleteSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, a.locks)
}

func TestProcessFeatureKeepsTitleAcrossTurns(t *testing.T) {
	backend := session.NewMemoryBackend()
	seedSession(t, backend, "sess-1", nil)

	contextOK := `CONTEXT:
is_contextually_relevant: true
reasoning: on topic`

	renamedTurn := `RESPONSE:
Updated the draft.

PENDING QUESTIONS:

MARKDOWN:
# Feature: Completely Different Name

## Description
Still the same feature.`

	mock := provider.NewMockProvider("mock").
		AddContent(acceptVerdict).
		AddContent(contextOK).
		AddContent(renamedTurn)
	a := newTestAgent(t, mock, backend)

	result, err := a.ProcessFeature(context.Background(), "Rename the heading please", "sess-1")
	require.NoError(t, err)
	// The session title is fixed on the first turn.
	assert.Equal(t, "Login System", result.Title)
}
