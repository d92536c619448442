package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/specdraft/specdraft/internal/observability"
)

// InstrumentedProvider wraps a Provider with span-per-call tracing:
// model, latency, token usage, and errors all land on the span.
type InstrumentedProvider struct {
	provider Provider
}

// NewInstrumentedProvider wraps a provider with tracing. Double-wrapping
// returns the existing wrapper.
func NewInstrumentedProvider(p Provider) *InstrumentedProvider {
	if wrapped, ok := p.(*InstrumentedProvider); ok {
		return wrapped
	}
	return &InstrumentedProvider{provider: p}
}

// Name returns the underlying provider name
func (p *InstrumentedProvider) Name() string {
	return p.provider.Name()
}

// CreateCompletion creates a completion with automatic instrumentation
func (p *InstrumentedProvider) CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, span := observability.StartSpan(ctx, fmt.Sprintf("llm.%s.completion", p.provider.Name()), map[string]any{
		"llm.provider":       p.provider.Name(),
		"llm.model":          req.Model,
		"llm.temperature":    req.Temperature,
		"llm.max_tokens":     req.MaxTokens,
		"llm.messages_count": len(req.Messages),
	})
	defer span.End()

	start := time.Now()
	resp, err := p.provider.CreateCompletion(ctx, req)
	span.SetAttribute("llm.duration_ms", time.Since(start).Milliseconds())
	span.SetAttribute("llm.success", err == nil)

	if err != nil {
		span.SetError(err)
		return nil, err
	}

	span.SetAttribute("llm.usage.prompt_tokens", resp.Usage.PromptTokens)
	span.SetAttribute("llm.usage.completion_tokens", resp.Usage.CompletionTokens)
	span.SetAttribute("llm.usage.total_tokens", resp.Usage.TotalTokens)
	span.SetAttribute("llm.finish_reason", resp.FinishReason)
	return resp, nil
}
