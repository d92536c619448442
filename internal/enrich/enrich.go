// Package enrich turns the raw questions proposed by a model turn into
// the final ranked question set for the session. It composes the feature
// classifier, context analyzer, deduplicator, and prioritizer; the first
// two are independent reads over the same history snapshot and run
// concurrently.
package enrich

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/specdraft/specdraft/internal/classify"
	"github.com/specdraft/specdraft/internal/dedupe"
	"github.com/specdraft/specdraft/internal/insight"
	"github.com/specdraft/specdraft/internal/observability"
	"github.com/specdraft/specdraft/internal/prioritize"
	"github.com/specdraft/specdraft/internal/question"
)

// Input is the per-turn snapshot the pipeline works from.
type Input struct {
	SessionID string
	// UserMessages is every user-authored utterance in history order,
	// including the current one.
	UserMessages []string
	// Existing is the session's question set after lifecycle merging.
	Existing []question.Question
	// Candidates are the new questions proposed by the current turn.
	Candidates []string
}

// Output carries the enriched question set plus the signals that shaped
// it, for logging and response metadata.
type Output struct {
	Questions   []question.Question
	FeatureType classify.Result
	Insight     *insight.Insight
}

// Pipeline enriches turn questions. The zero value is not usable; create
// one with New. The feature-type cache is keyed by session id and must be
// invalidated when a session is deleted.
type Pipeline struct {
	mu    sync.Mutex
	cache map[string]cachedType
}

type cachedType struct {
	result   classify.Result
	messages int
}

// maxTemplateQuestions bounds how many canned questions seed an otherwise
// question-free first turn.
const maxTemplateQuestions = 3

func New() *Pipeline {
	return &Pipeline{cache: make(map[string]cachedType)}
}

// Enrich runs the full pipeline: classify and analyze concurrently,
// deduplicate the turn's candidates against the existing set, seed canned
// questions when an opening turn proposed none, synthesize up to three
// gap-filling questions, then rank everything and attach feature-type
// metadata.
func (p *Pipeline) Enrich(ctx context.Context, in Input) (*Output, error) {
	ctx, span := observability.StartSpan(ctx, "enrich.pipeline", map[string]any{
		"session_id": in.SessionID,
		"candidates": len(in.Candidates),
	})
	defer span.End()

	var (
		ftype classify.Result
		ins   *insight.Insight
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		ftype = p.classify(in.SessionID, in.UserMessages)
		return nil
	})
	g.Go(func() error {
		// Feature type steers only gap analysis; recompute it locally so
		// the two branches stay independent.
		local := classify.Classify(strings.Join(in.UserMessages, "\n"))
		ins = insight.Analyze(in.UserMessages, in.Existing, local.PrimaryType)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := dedupe.Filter(in.Candidates, in.Existing)

	// An under-specified first turn where the model asked nothing falls
	// back to the canned questions for the detected feature type.
	if len(candidates) == 0 && len(in.Existing) == 0 {
		templates := classify.QuestionTemplates(ftype.PrimaryType)
		if len(templates) > maxTemplateQuestions {
			templates = templates[:maxTemplateQuestions]
		}
		candidates = templates
	}

	gapFills := insight.ContextQuestions(ins, candidates)
	combined := append(append([]string{}, candidates...), dedupe.Filter(gapFills, in.Existing)...)

	span.SetAttribute("feature_type", ftype.PrimaryType)
	ranked := prioritize.Rank(combined, ftype.PrimaryType)

	questions := make([]question.Question, 0, len(ranked))
	for _, r := range ranked {
		q := question.New(r.Question)
		q.Priority = string(r.Tier)
		q.FeatureType = ftype.PrimaryType
		questions = append(questions, q)
	}

	return &Output{Questions: questions, FeatureType: ftype, Insight: ins}, nil
}

// classify computes the session's feature type over the accumulated user
// messages, caching per session. The cache entry records how many
// messages it saw, so a new turn recomputes while repeat calls within a
// turn reuse the cached result.
func (p *Pipeline) classify(sessionID string, userMessages []string) classify.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.cache[sessionID]; ok && cached.messages == len(userMessages) {
		return cached.result
	}
	result := classify.Classify(strings.Join(userMessages, "\n"))
	p.cache[sessionID] = cachedType{result: result, messages: len(userMessages)}
	return result
}

// Invalidate drops the cached feature type for a session. Called on
// session deletion.
func (p *Pipeline) Invalidate(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, sessionID)
}
