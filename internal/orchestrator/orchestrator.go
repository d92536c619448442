// Package orchestrator drives the drafting model: it assembles the
// conversation, requests a structured turn, repairs malformed output within
// a configured retry budget, and reclassifies pending questions against
// follow-ups.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/specdraft/specdraft/internal/agent"
	"github.com/specdraft/specdraft/internal/llm/provider"
	"github.com/specdraft/specdraft/internal/observability"
	"github.com/specdraft/specdraft/internal/protocol"
	"github.com/specdraft/specdraft/internal/question"
	"github.com/specdraft/specdraft/pkg/config"
	metrics "github.com/specdraft/specdraft/pkg/observability"
	"github.com/specdraft/specdraft/pkg/session"
)

const (
	parseFailureMessage = "The assistant produced an unreadable response. Please try again."
	providerDownMessage = "The assistant is unavailable right now. Please try again."

	// blankResponseApology stands in for a conversational reply when the
	// model returns an empty RESPONSE section twice in a row.
	blankResponseApology = "I'm sorry, I had trouble phrasing a reply. The document below reflects your latest input."
)

// Orchestrator runs the drafting and question-analysis model calls for a
// single turn. It holds no session state; callers pass the history in and
// persist the result themselves.
type Orchestrator struct {
	provider    provider.Provider
	convCfg     config.AgentConfig
	analysisCfg config.AgentConfig
	logger      *zap.Logger
}

// New creates an orchestrator using the conversational and
// question-analysis agent configurations.
func New(p provider.Provider, convCfg, analysisCfg config.AgentConfig, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		provider:    p,
		convCfg:     convCfg,
		analysisCfg: analysisCfg,
		logger:      logger,
	}
}

// GenerateTurn asks the model for a structured turn given the conversation
// so far plus the new user input. Malformed output gets repair attempts
// that embed the failed response, up to the configured RetryAttempts;
// failure past the budget surfaces as a parsing error. A turn that parses
// but has an empty RESPONSE section is repaired the same way and falls
// back to a fixed apology.
func (o *Orchestrator) GenerateTurn(ctx context.Context, history []session.Turn, input string) (*protocol.Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, o.convCfg.Timeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "orchestrator.generate", map[string]any{
		"model":        o.convCfg.Model,
		"history_size": len(history),
	})
	defer span.End()

	messages := o.buildMessages(history, input)

	raw, err := o.complete(ctx, o.convCfg, messages)
	if err != nil {
		span.SetError(err)
		return nil, agent.WrapError(agent.KindInternal, providerDownMessage, err)
	}

	turn, parseErr := parseUsableTurn(raw)
	for attempt := 1; parseErr != nil && attempt <= o.convCfg.RetryAttempts; attempt++ {
		o.logger.Warn("turn failed validation, repairing",
			zap.Int("attempt", attempt),
			zap.Error(parseErr),
			zap.String("raw_response", raw))
		span.SetAttribute("repaired", true)
		metrics.RecordParseRepair()

		raw, err = o.complete(ctx, o.convCfg, o.buildMessages(history, repairPrompt(raw)))
		if err != nil {
			span.SetError(err)
			return nil, agent.WrapError(agent.KindInternal, providerDownMessage, err)
		}
		turn, parseErr = parseUsableTurn(raw)
	}
	if parseErr == nil {
		return turn, nil
	}

	// A blank reply in otherwise well-formed output is recoverable; a
	// still-malformed document is not.
	if turn != nil {
		o.logger.Warn("turn still has blank response after repair, using apology")
		turn.Response = blankResponseApology
		return turn, nil
	}

	o.logger.Error("turn unparseable after repair",
		zap.Error(parseErr),
		zap.String("raw_response", raw))
	span.SetError(parseErr)
	return nil, agent.WrapError(agent.KindParsingError, parseFailureMessage, parseErr)
}

// parseUsableTurn parses raw model output and additionally rejects turns
// whose conversational reply is blank. When only the reply is blank, the
// parsed turn is returned alongside the error so callers can salvage it.
func parseUsableTurn(raw string) (*protocol.Turn, error) {
	turn, err := protocol.ParseTurn(raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(turn.Response) == "" {
		return turn, fmt.Errorf("model output has empty RESPONSE section")
	}
	return turn, nil
}

// AnalyzeQuestions asks the model which pending questions the follow-up
// answered or dismissed. A follow-up that mentions no questions yields no
// reclassifications, which leaves every question in its prior state.
func (o *Orchestrator) AnalyzeQuestions(ctx context.Context, pending []question.Question, followup string) ([]question.Reclassification, error) {
	if len(pending) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.analysisCfg.Timeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "orchestrator.analyze_questions", map[string]any{
		"model":   o.analysisCfg.Model,
		"pending": len(pending),
	})
	defer span.End()

	var b strings.Builder
	b.WriteString("PENDING QUESTIONS:\n")
	for _, q := range pending {
		fmt.Fprintf(&b, "- %s\n", q.Text)
	}
	b.WriteString("\nUSER FOLLOW-UP:\n")
	b.WriteString(followup)

	raw, err := o.complete(ctx, o.analysisCfg, []provider.Message{
		{Role: "system", Content: questionAnalysisSystemPrompt},
		{Role: "user", Content: b.String()},
	})
	if err != nil {
		span.SetError(err)
		return nil, agent.WrapError(agent.KindInternal, providerDownMessage, err)
	}

	updates, err := protocol.ParseQuestionBlock(raw)
	if err != nil {
		// Missing QUESTIONS block means nothing was reclassified. Questions
		// keep their prior state rather than failing the whole turn.
		o.logger.Warn("question analysis produced no usable block",
			zap.Error(err),
			zap.String("raw_response", raw))
		span.SetAttribute("degraded", true)
		return nil, nil
	}
	span.SetAttribute("reclassified", len(updates))
	return updates, nil
}

// Title derives the session title from a generated document. A document
// with no usable heading fails validation.
func Title(markdown string) (string, error) {
	title, ok := protocol.ExtractTitle(markdown)
	if !ok {
		return "", agent.NewError(agent.KindValidationError, "The generated document has no heading to use as a title. Please try again.")
	}
	return title, nil
}

func (o *Orchestrator) complete(ctx context.Context, cfg config.AgentConfig, messages []provider.Message) (string, error) {
	resp, err := o.provider.CreateCompletion(ctx, provider.CompletionRequest{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// buildMessages assembles the model conversation: system prompt, replayed
// history, then the new input. Assistant turns are replayed in the same
// sectioned format the model is asked to produce, so the transcript the
// model sees matches its own output contract.
func (o *Orchestrator) buildMessages(history []session.Turn, input string) []provider.Message {
	messages := make([]provider.Message, 0, len(history)+2)
	messages = append(messages, provider.Message{Role: "system", Content: conversationalSystemPrompt})
	for _, t := range history {
		switch t.Role {
		case session.RoleUser:
			messages = append(messages, provider.Message{Role: "user", Content: t.Content})
		case session.RoleAssistant:
			messages = append(messages, provider.Message{Role: "assistant", Content: renderAssistantTurn(t)})
		}
	}
	messages = append(messages, provider.Message{Role: "user", Content: input})
	return messages
}

func renderAssistantTurn(t session.Turn) string {
	var b strings.Builder
	b.WriteString("RESPONSE:\n")
	b.WriteString(t.Content)
	b.WriteString("\n\nPENDING QUESTIONS:\n")
	for _, q := range t.Questions {
		if q.Status == question.StatusPending {
			fmt.Fprintf(&b, "- %s\n", q.Text)
		}
	}
	b.WriteString("\nMARKDOWN:\n")
	b.WriteString(t.Markdown)
	return b.String()
}
