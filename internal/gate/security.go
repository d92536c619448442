// Package gate implements the checks that run before the drafting model is
// invoked: a security gate that filters out inputs that are not software
// feature requests, and a context gate that keeps follow-ups on topic.
package gate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/specdraft/specdraft/internal/agent"
	"github.com/specdraft/specdraft/internal/llm/provider"
	"github.com/specdraft/specdraft/internal/observability"
	"github.com/specdraft/specdraft/internal/protocol"
	"github.com/specdraft/specdraft/pkg/config"
)

const securitySystemPrompt = `You are a Security Agent responsible for evaluating whether user requests are related to software product features.

Your task is to analyze the user's input and determine if it's a feature request for a software product.

A feature request typically includes:
- Software functionality descriptions
- User interface improvements
- System enhancements
- New capabilities or tools
- Bug fixes or improvements
- Integration requirements
- Performance optimizations

General questions that are NOT feature requests include:
- Personal advice or opinions
- General knowledge questions
- Non-software related topics
- Academic questions
- Entertainment requests
- Personal problems

Respond in this exact format with no additional text before or after:

SECURITY:
is_feature_request: true or false
confidence: a number between 0.0 and 1.0
reasoning: brief explanation of your decision

Be strict but fair. When in doubt, lean towards accepting it as a feature request.`

// Rejection messages by verdict confidence. Higher confidence gets a firmer
// redirect; the accept/reject decision itself never depends on confidence.
const (
	rejectFirm = "I can only help with software feature requests, and this doesn't appear to be one. Please describe a software feature you'd like to define."
	rejectLean = "This doesn't look like a software feature request. Could you describe the feature you'd like to build?"
	rejectSoft = "I'm not sure this relates to a software feature. Could you rephrase it in terms of the feature you'd like to build?"

	rejectEmpty = "Please describe the software feature you'd like to work on."
)

const (
	firmConfidence = 0.8
	leanConfidence = 0.5
)

// SecurityGate judges whether raw input is a legitimate feature request.
// It sees only the utterance, never the session, so a rejection can happen
// before any session state exists.
type SecurityGate struct {
	provider provider.Provider
	cfg      config.AgentConfig
	logger   *zap.Logger
}

// NewSecurityGate creates a security gate backed by the given provider.
func NewSecurityGate(p provider.Provider, cfg config.AgentConfig, logger *zap.Logger) *SecurityGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecurityGate{provider: p, cfg: cfg, logger: logger}
}

// Check returns nil when the input is accepted as a feature request, and a
// security rejection error with a confidence-tiered message otherwise.
func (g *SecurityGate) Check(ctx context.Context, input string) error {
	if strings.TrimSpace(input) == "" {
		return agent.NewError(agent.KindSecurityRejection, rejectEmpty)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "gate.security", map[string]any{
		"model": g.cfg.Model,
	})
	defer span.End()

	resp, err := g.provider.CreateCompletion(ctx, provider.CompletionRequest{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		Messages: []provider.Message{
			{Role: "system", Content: securitySystemPrompt},
			{Role: "user", Content: input},
		},
	})
	if err != nil {
		span.SetError(err)
		return agent.WrapError(agent.KindInternal, "Unable to evaluate the request right now. Please try again.", err)
	}

	verdict, err := protocol.ParseSecurityVerdict(resp.Content)
	if err != nil {
		span.SetError(err)
		g.logger.Error("unparseable security verdict",
			zap.String("raw_response", resp.Content),
			zap.Error(err))
		return agent.WrapError(agent.KindInternal, "Unable to evaluate the request right now. Please try again.", err)
	}

	span.SetAttribute("accepted", verdict.Accepted)
	span.SetAttribute("confidence", verdict.Confidence)

	if !verdict.Accepted {
		g.logger.Info("security gate rejected input",
			zap.Float64("confidence", verdict.Confidence),
			zap.String("reasoning", verdict.Reasoning))
		return agent.NewError(agent.KindSecurityRejection, rejectionMessage(verdict.Confidence))
	}
	return nil
}

func rejectionMessage(confidence float64) string {
	switch {
	case confidence >= firmConfidence:
		return rejectFirm
	case confidence >= leanConfidence:
		return rejectLean
	default:
		return rejectSoft
	}
}
