package gate

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
)

func testAgentConfig() config.AgentConfig {
	return config.Default().Agents[config.AgentSecurity]
}

func securityVerdict(accepted string, confidence string) string {
	return "SECURITY:\nis_feature_request: " + accepted + "\nconfidence: " + confidence + "\nreasoning: test verdict\n"
}

func TestSecurityGateAccepts(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddContent(securityVerdict("true", "0.95"))
	g := NewSecurityGate(mock, testAgentConfig(), nil)

	err := g.Check(context.Background(), "I need a user registration feature")
	require.NoError(t, err)
	require.Len(t, mock.CompletionCalls, 1)
	assert.Equal(t, "user", mock.CompletionCalls[0].Messages[1].Role)
}

func TestSecurityGateRejectionTiers(t *testing.T) {
	tests := []struct {
		name       string
		confidence string
		want       string
	}{
		{"high confidence", "0.9", rejectFirm},
		{"boundary high", "0.8", rejectFirm},
		{"medium confidence", "0.6", rejectLean},
		{"low confidence", "0.3", rejectSoft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := provider.NewMockProvider("mock").AddContent(securityVerdict("false", tt.confidence))
			g := NewSecurityGate(mock, testAgentConfig(), nil)

			err := g.Check(context.Background(), "what's the weather like?")
			require.Error(t, err)
			assert.Equal(t, agent.KindSecurityRejection, agent.KindOf(err))
			assert.Equal(t, tt.want, agent.UserMessage(err))
		})
	}
}

func TestSecurityGateRejectsEmptyInput(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	g := NewSecurityGate(mock, testAgentConfig(), nil)

	err := g.Check(context.Background(), "   \n\t ")
	require.Error(t, err)
	assert.Equal(t, agent.KindSecurityRejection, agent.KindOf(err))
	// Empty input never reaches the model.
	assert.Empty(t, mock.CompletionCalls)
}

func TestSecurityGateProviderFailure(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddError(errors.New("connection refused"))
	g := NewSecurityGate(mock, testAgentConfig(), nil)

	err := g.Check(context.Background(), "add export to CSV")
	require.Error(t, err)
	assert.Equal(t, agent.KindInternal, agent.KindOf(err))
}

func TestSecurityGateUnparseableVerdict(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddContent("I think this is fine.")
	g := NewSecurityGate(mock, testAgentConfig(), nil)

	err := g.Check(context.Background(), "add export to CSV")
	require.Error(t, err)
	assert.Equal(t, agent.KindInternal, agent.KindOf(err))
}

func contextVerdict(accepted string) string {
	return "CONTEXT:\nis_contextually_relevant: " + accepted + "\nreasoning: test verdict\n"
}

func pendingQuestions(texts ...string) []question.Question {
	qs := make([]question.Question, 0, len(texts))
	for _, text := range texts {
		qs = append(qs, question.New(text))
	}
	return qs
}

func TestContextGateAccepts(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddContent(contextVerdict("true"))
	g := NewContextGate(mock, testAgentConfig(), nil)

	pending := pendingQuestions("Should users verify their email address?")
	err := g.Check(context.Background(), pending, "Email verification should be required")
	require.NoError(t, err)
	require.Len(t, mock.CompletionCalls, 1)
	assert.Contains(t, mock.CompletionCalls[0].Messages[1].Content, "PENDING QUESTIONS:")
	assert.Contains(t, mock.CompletionCalls[0].Messages[1].Content, "Should users verify their email address?")
}

func TestContextGateRejects(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddContent(contextVerdict("false"))
	g := NewContextGate(mock, testAgentConfig(), nil)

	err := g.Check(context.Background(), nil, "what's a good pasta recipe?")
	require.Error(t, err)
	assert.Equal(t, agent.KindContextDeviation, agent.KindOf(err))
}

func TestContextGateNegativeAnswerFastPath(t *testing.T) {
	// No queued response: the fast path must not reach the model.
	mock := provider.NewMockProvider("mock")
	g := NewContextGate(mock, testAgentConfig(), nil)

	pending := pendingQuestions("Should passwords have complexity rules, such as minimum length?")
	err := g.Check(context.Background(), pending, "No, should passwords have complexity rules is overthinking it")
	require.NoError(t, err)
	assert.Empty(t, mock.CompletionCalls)
}

func TestContextGateNegativeAnswerByTopic(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	g := NewContextGate(mock, testAgentConfig(), nil)

	pending := pendingQuestions("Will the system support multi-factor authentication?")
	err := g.Check(context.Background(), pending, "No, we don't need 2FA")
	require.NoError(t, err)
	assert.Empty(t, mock.CompletionCalls)
}

func TestContextGateFastPathRequiresNegation(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddContent(contextVerdict("true"))
	g := NewContextGate(mock, testAgentConfig(), nil)

	pending := pendingQuestions("Should passwords have complexity rules, such as minimum length?")
	// Echoes the question but affirmatively, so the model is consulted.
	err := g.Check(context.Background(), pending, "Yes, should passwords have complexity rules? Definitely.")
	require.NoError(t, err)
	assert.Len(t, mock.CompletionCalls, 1)
}

func TestContextGateFastPathIgnoresResolvedQuestions(t *testing.T) {
	mock := provider.NewMockProvider("mock").AddContent(contextVerdict("false"))
	g := NewContextGate(mock, testAgentConfig(), nil)

	resolved := pendingQuestions("Should passwords have complexity rules, such as minimum length?")
	resolved[0].Status = question.StatusAnswered
	err := g.Check(context.Background(), resolved, "no, should passwords have complexity rules")
	require.Error(t, err)
	assert.Equal(t, agent.KindContextDeviation, agent.KindOf(err))
}

func TestLeadingClause(t *testing.T) {
	assert.Equal(t, "should passwords have complexity rules", leadingClause("Should passwords have complexity rules, such as minimum length?"))
	assert.Equal(t, "do you need social login", leadingClause("Do you need social login?"))
	assert.Equal(t, "plain text", leadingClause("Plain text"))
}
