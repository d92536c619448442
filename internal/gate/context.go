package gate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/specdraft/specdraft/internal/agent"
	"github.com/specdraft/specdraft/internal/dedupe"
	"github.com/specdraft/specdraft/internal/llm/provider"
	"github.com/specdraft/specdraft/internal/observability"
	"github.com/specdraft/specdraft/internal/protocol"
	"github.com/specdraft/specdraft/internal/question"
	"github.com/specdraft/specdraft/pkg/config"
)

const contextSystemPrompt = `You are a Context Agent responsible for evaluating whether a user's follow-up message belongs to the ongoing software feature discussion.

You will receive the pending clarifying questions from the session and the user's follow-up message. The follow-up is contextually relevant when it answers, refines, rejects, or extends any part of the feature being discussed, including the pending questions. It is not relevant when it switches to an unrelated topic, asks for general knowledge, or requests something other than feature clarification.

Respond in this exact format with no additional text before or after:

CONTEXT:
is_contextually_relevant: true or false
reasoning: brief explanation of your decision`

const contextRejectMessage = "That seems unrelated to the feature we're working on. Let's stay with the current feature, or delete the session to start a new one."

// negationTokens mark follow-ups that answer a pending yes/no question in
// the negative, such as "no password complexity rules needed".
var negationTokens = []string{"no", "not", "don't", "dont", "doesn't", "doesnt", "won't", "wont", "without", "never", "none"}

// ContextGate judges whether a follow-up message stays within the
// session's feature discussion.
type ContextGate struct {
	provider provider.Provider
	cfg      config.AgentConfig
	logger   *zap.Logger
}

// NewContextGate creates a context gate backed by the given provider.
func NewContextGate(p provider.Provider, cfg config.AgentConfig, logger *zap.Logger) *ContextGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextGate{provider: p, cfg: cfg, logger: logger}
}

// Check returns nil when the follow-up is contextually relevant and a
// context deviation error otherwise. Negative answers to pending yes/no
// questions are recognized locally without a model call.
func (g *ContextGate) Check(ctx context.Context, pending []question.Question, followup string) error {
	if answersNegatively(pending, followup) {
		g.logger.Debug("context gate fast path: negative answer to pending question")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "gate.context", map[string]any{
		"model":            g.cfg.Model,
		"pending_question": len(pending),
	})
	defer span.End()

	resp, err := g.provider.CreateCompletion(ctx, provider.CompletionRequest{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		Messages: []provider.Message{
			{Role: "system", Content: contextSystemPrompt},
			{Role: "user", Content: formatContextInput(pending, followup)},
		},
	})
	if err != nil {
		span.SetError(err)
		return agent.WrapError(agent.KindInternal, "Unable to evaluate the request right now. Please try again.", err)
	}

	verdict, err := protocol.ParseContextVerdict(resp.Content)
	if err != nil {
		span.SetError(err)
		g.logger.Error("unparseable context verdict",
			zap.String("raw_response", resp.Content),
			zap.Error(err))
		return agent.WrapError(agent.KindInternal, "Unable to evaluate the request right now. Please try again.", err)
	}

	span.SetAttribute("accepted", verdict.Accepted)

	if !verdict.Accepted {
		g.logger.Info("context gate rejected follow-up",
			zap.String("reasoning", verdict.Reasoning))
		return agent.NewError(agent.KindContextDeviation, contextRejectMessage)
	}
	return nil
}

// answersNegatively reports whether the follow-up looks like a negative
// answer to one of the pending questions: a negation token plus either the
// question's leading clause echoed in the follow-up, or a shared question
// topic (users rarely echo the clause when saying "no, we don't need 2FA").
func answersNegatively(pending []question.Question, followup string) bool {
	norm := question.NormalizeText(followup)
	if norm == "" || !containsNegation(norm) {
		return false
	}
	followupTopics := dedupe.Topics(followup)
	for _, q := range pending {
		if q.Status != question.StatusPending {
			continue
		}
		clause := leadingClause(q.Text)
		if clause != "" && strings.Contains(norm, clause) {
			return true
		}
		if sharesTopic(dedupe.Topics(q.Text), followupTopics) {
			return true
		}
	}
	return false
}

func sharesTopic(a, b map[string]bool) bool {
	for topic := range a {
		if b[topic] {
			return true
		}
	}
	return false
}

// leadingClause returns the normalized text of a question up to its first
// comma or question mark, which is the part users tend to echo back.
func leadingClause(text string) string {
	if i := strings.IndexAny(text, ",?"); i >= 0 {
		text = text[:i]
	}
	return question.NormalizeText(text)
}

func containsNegation(normalized string) bool {
	for _, word := range strings.Fields(normalized) {
		word = strings.Trim(word, ".,!?;:'\"")
		for _, tok := range negationTokens {
			if word == tok {
				return true
			}
		}
	}
	return false
}

func formatContextInput(pending []question.Question, followup string) string {
	var b strings.Builder
	b.WriteString("PENDING QUESTIONS:\n")
	for _, q := range pending {
		if q.Status != question.StatusPending {
			continue
		}
		fmt.Fprintf(&b, "- %s (status: %s)\n", q.Text, q.Status)
	}
	b.WriteString("\nUSER FOLLOW-UP:\n")
	b.WriteString(followup)
	return b.String()
}
