package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdraft/specdraft/internal/agent"
	"github.com/specdraft/specdraft/internal/llm/provider"
	"github.com/specdraft/specdraft/internal/question"
	"github.com/specdraft/specdraft/pkg/config"
	"github.com/specdraft/specdraft/pkg/session"
)

const wellFormedTurn = `RESPONSE:
I understand you want user registration. Let me capture the details.

PENDING QUESTIONS:
- Should users verify their email address?
- Should passwords have complexity rules?

MARKDOWN:
# Feature: User Registration

## Description
Allow new users to create accounts.

## Acceptance Criteria
- Users can register with email and password

## Backend Changes
- Add registration endpoint

## Frontend Changes
- Add registration form`

func newTestOrchestrator(p provider.Provider) *Orchestrator {
	cfg := config.Default()
	return New(p, cfg.Agents[config.AgentConversational], cfg.Agents[config.AgentQuestionAnalysis], nil)
}

func TestGenerateTurn(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddContent(wellFormedTurn)
	o := newTestOrchestrator(mock)

	turn, err := o.GenerateTurn(context.Background(), nil, "I need user registration")
	require.NoError(t, err)
	assert.Contains(t, turn.Response, "user registration")
	assert.Len(t, turn.Questions, 2)
	assert.Contains(t, turn.Markdown, "# Feature: User Registration")

	// System prompt, then the user input.
	require.Len(t, mock.CompletionCalls, 1)
	msgs := mock.CompletionCalls[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "I need user registration", msgs[1].Content)
}

func TestGenerateTurnReplaysHistory(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddContent(wellFormedTurn)
	o := newTestOrchestrator(mock)

	history := []session.Turn{
		{Role: session.RoleUser, Content: "I need user registration"},
		{
			Role:     session.RoleAssistant,
			Content:  "Got it, a few questions below.",
			Markdown: "# Feature: User Registration",
			Questions: []question.Question{
				question.New("Should users verify their email address?"),
				{Text: "Is social login needed?", Status: question.StatusAnswered, UserAnswer: "yes"},
			},
		},
	}

	_, err := o.GenerateTurn(context.Background(), history, "Email verification yes")
	require.NoError(t, err)

	msgs := mock.CompletionCalls[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "assistant", msgs[2].Role)
	// Replayed assistant turns use the sectioned output format and list
	// only still-pending questions.
	assert.Contains(t, msgs[2].Content, "RESPONSE:\nGot it, a few questions below.")
	assert.Contains(t, msgs[2].Content, "- Should users verify their email address?")
	assert.NotContains(t, msgs[2].Content, "Is social login needed?")
	assert.Contains(t, msgs[2].Content, "MARKDOWN:\n# Feature: User Registration")
}

func TestGenerateTurnRepairsMalformedOutput(t *testing.T) {
	mock := provider.NewMockProvider("mock").
		AddContent("Sure! Here are my thoughts about registration.").
		AddContent(wellFormedTurn)
	o := newTestOrchestrator(mock)

	turn, err := o.GenerateTurn(context.Background(), nil, "I need user registration")
	require.NoError(t, err)
	assert.Contains(t, turn.Markdown, "User Registration")

	require.Len(t, mock.CompletionCalls, 2)
	repair := mock.CompletionCalls[1].Messages
	last := repair[len(repair)-1].Content
	// The repair request embeds the output that failed to parse.
	assert.Contains(t, last, "exact format specified")
	assert.Contains(t, last, "Sure! Here are my thoughts about registration.")
}

func TestGenerateTurnFailsAfterSecondParseError(t *testing.T) {
	mock := provider.NewMockProvider("mock").
		AddContent("not the format").
		AddContent("still not the format")
	o := newTestOrchestrator(mock)

	_, err := o.GenerateTurn(context.Background(), nil, "I need user registration")
	require.Error(t, err)
	assert.Equal(t, agent.KindParsingError, agent.KindOf(err))
	assert.Len(t, mock.CompletionCalls, 2)
}

func TestGenerateTurnHonorsRetryBudget(t *testing.T) {
	cfg := config.Default()

	t.Run("extra attempts", func(t *testing.T) {
		mock := provider.NewMockProvider("mock").
			AddContent("not the format").
			AddContent("still not the format").
			AddContent(wellFormedTurn)
		conv := cfg.Agents[config.AgentConversational]
		conv.RetryAttempts = 2
		o := New(mock, conv, cfg.Agents[config.AgentQuestionAnalysis], nil)

		turn, err := o.GenerateTurn(context.Background(), nil, "I need user registration")
		require.NoError(t, err)
		assert.Contains(t, turn.Markdown, "User Registration")
		assert.Len(t, mock.CompletionCalls, 3)
	})

	t.Run("zero attempts", func(t *testing.T) {
		mock := provider.NewMockProvider("mock").AddContent("not the format")
		conv := cfg.Agents[config.AgentConversational]
		conv.RetryAttempts = 0
		o := New(mock, conv, cfg.Agents[config.AgentQuestionAnalysis], nil)

		_, err := o.GenerateTurn(context.Background(), nil, "I need user registration")
		require.Error(t, err)
		assert.Equal(t, agent.KindParsingError, agent.KindOf(err))
		assert.Len(t, mock.CompletionCalls, 1)
	})
}

func TestGenerateTurnBlankResponseGetsApology(t *testing.T) {
	blank := "RESPONSE:\n\nPENDING QUESTIONS:\n- Anything else?\n\nMARKDOWN:\n# Feature: X\n"
	mock := provider.NewMockProvider("mock").
		AddContent(blank).
		AddContent(blank)
	o := newTestOrchestrator(mock)

	turn, err := o.GenerateTurn(context.Background(), nil, "I need X")
	require.NoError(t, err)
	assert.Equal(t, blankResponseApology, turn.Response)
	assert.Contains(t, turn.Markdown, "# Feature: X")
	// One repair attempt before giving up on a conversational reply.
	assert.Len(t, mock.CompletionCalls, 2)
}

func TestGenerateTurnProviderFailure(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddError(errors.New("dial tcp: refused"))
	o := newTestOrchestrator(mock)

	_, err := o.GenerateTurn(context.Background(), nil, "I need X")
	require.Error(t, err)
	assert.Equal(t, agent.KindInternal, agent.KindOf(err))
}

func TestAnalyzeQuestions(t *testing.T) {
	analysis := `QUESTIONS:
- question: "Should users verify their email address?"
  status: answered
  user_answer: "Yes, verification required"
- question: "Should passwords have complexity rules?"
  status: pending
  user_answer: null`
	mock := provider.NewMockProvider("mock").AddContent(analysis)
	o := newTestOrchestrator(mock)

	pending := []question.Question{
		question.New("Should users verify their email address?"),
		question.New("Should passwords have complexity rules?"),
	}
	updates, err := o.AnalyzeQuestions(context.Background(), pending, "Yes, verification required")
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, question.StatusAnswered, updates[0].Status)
	assert.Equal(t, "Yes, verification required", updates[0].UserAnswer)
	assert.Equal(t, question.StatusPending, updates[1].Status)

	input := mock.CompletionCalls[0].Messages[1].Content
	assert.Contains(t, input, "PENDING QUESTIONS:")
	assert.Contains(t, input, "USER FOLLOW-UP:")
}

func TestAnalyzeQuestionsSkipsWithoutPending(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	o := newTestOrchestrator(mock)

	updates, err := o.AnalyzeQuestions(context.Background(), nil, "anything")
	require.NoError(t, err)
	assert.Nil(t, updates)
	assert.Empty(t, mock.CompletionCalls)
}

func TestAnalyzeQuestionsDegradesOnMissingBlock(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddContent("I could not decide.")
	o := newTestOrchestrator(mock)

	pending := []question.Question{question.New("Should users verify their email address?")}
	updates, err := o.AnalyzeQuestions(context.Background(), pending, "hmm")
	require.NoError(t, err)
	// No reclassification leaves every question in its prior state.
	assert.Nil(t, updates)
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
		wantErr  bool
	}{
		{"feature heading", "intro\n# Feature: User Registration\n", "User Registration", false},
		{"plain heading", "# Login Flow\n## Description", "Login Flow", false},
		{"secondary heading only", "## Overview\ntext", "Overview", false},
		{"no heading", "just text", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Title(tt.markdown)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, agent.KindValidationError, agent.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
