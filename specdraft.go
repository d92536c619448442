// Package specdraft is a conversational assistant that turns rough feature
// ideas into structured specification documents. Each turn is gated for
// legitimacy and relevance, sent to a drafting model, enriched with
// classified and prioritized clarifying questions, and committed to the
// session store as a whole; a failed turn leaves the session untouched.
package specdraft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/specdraft/specdraft/internal/agent"
	"github.com/specdraft/specdraft/internal/enrich"
	"github.com/specdraft/specdraft/internal/export"
	"github.com/specdraft/specdraft/internal/gate"
	"github.com/specdraft/specdraft/internal/llm/provider"
	"github.com/specdraft/specdraft/internal/orchestrator"
	"github.com/specdraft/specdraft/internal/question"
	"github.com/specdraft/specdraft/pkg/config"
	metrics "github.com/specdraft/specdraft/pkg/observability"
	"github.com/specdraft/specdraft/pkg/session"
)

// Result is the outcome of a successfully processed turn.
type Result struct {
	SessionID         string              `json:"session_id"`
	Title             string              `json:"title"`
	Response          string              `json:"response"`
	Markdown          string              `json:"markdown"`
	Questions         []question.Question `json:"questions"`
	AnsweredQuestions int                 `json:"answered_questions"`
	TotalQuestions    int                 `json:"total_questions"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// Agent is the top-level drafting service. It is safe for concurrent use;
// turns for the same session are serialized, turns for different sessions
// run in parallel.
type Agent struct {
	security *gate.SecurityGate
	context  *gate.ContextGate
	orch     *orchestrator.Orchestrator
	enricher *enrich.Pipeline
	sessions *session.Manager
	logger   *zap.Logger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New assembles an agent from a configuration, an LLM provider, and a
// session storage backend.
func New(cfg *config.Config, p provider.Provider, store session.StorageBackend, logger *zap.Logger) (*Agent, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if p == nil {
		return nil, errors.New("provider is required")
	}
	if store == nil {
		return nil, errors.New("storage backend is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Agent{
		security: gate.NewSecurityGate(p, cfg.Agents[config.AgentSecurity], logger.Named("security")),
		context:  gate.NewContextGate(p, cfg.Agents[config.AgentContext], logger.Named("context")),
		orch: orchestrator.New(p,
			cfg.Agents[config.AgentConversational],
			cfg.Agents[config.AgentQuestionAnalysis],
			logger.Named("orchestrator")),
		enricher: enrich.New(),
		sessions: session.NewManager(store, cfg.MaxHistoryLength),
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// ProcessFeature runs one conversational turn. An empty sessionID starts a
// new session; otherwise the turn continues (or, if the ID is unknown,
// starts) the identified session. On error the session store is unchanged.
func (a *Agent) ProcessFeature(ctx context.Context, feature, sessionID string) (result *Result, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(agent.KindOf(err))
		}
		metrics.RecordTurn(outcome, time.Since(start))
	}()

	// The security gate sees only the raw utterance; a rejected first
	// message never creates a session.
	if err := a.security.Check(ctx, feature); err != nil {
		if agent.KindOf(err) == agent.KindSecurityRejection {
			metrics.RecordGateRejection("security")
		}
		return nil, err
	}

	unlock := a.lockSession(sessionID)
	defer unlock()

	rec, err := a.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	isFollowup := len(rec.History) > 0
	if isFollowup {
		pending := question.Pending(rec.Questions)
		if err := a.context.Check(ctx, pending, feature); err != nil {
			if agent.KindOf(err) == agent.KindContextDeviation {
				metrics.RecordGateRejection("context")
			}
			return nil, err
		}

		updates, err := a.orch.AnalyzeQuestions(ctx, pending, feature)
		if err != nil {
			return nil, err
		}
		rec.Questions = question.Merge(rec.Questions, updates)
	}

	turn, err := a.orch.GenerateTurn(ctx, rec.History, feature)
	if err != nil {
		return nil, err
	}

	title := rec.Title
	if title == "" {
		if title, err = orchestrator.Title(turn.Markdown); err != nil {
			return nil, err
		}
	}

	userMessages := append(rec.UserMessages(), feature)
	out, err := a.enricher.Enrich(ctx, enrich.Input{
		SessionID:    rec.ID,
		UserMessages: userMessages,
		Existing:     rec.Questions,
		Candidates:   turn.Questions,
	})
	if err != nil {
		return nil, agent.WrapError(agent.KindInternal, "An internal error occurred. Please try again.", err)
	}

	final := append(append([]question.Question{}, rec.Questions...), out.Questions...)
	now := time.Now().UTC()

	rec.Title = title
	rec.FeatureType = out.FeatureType.PrimaryType
	rec.Questions = final
	rec.Markdown = turn.Markdown
	rec.History = append(rec.History,
		session.Turn{Role: session.RoleUser, Content: feature, Timestamp: now},
		session.Turn{
			Role:      session.RoleAssistant,
			Content:   turn.Response,
			Markdown:  turn.Markdown,
			Questions: final,
			Timestamp: now,
		},
	)

	if err := a.sessions.Commit(ctx, rec); err != nil {
		return nil, agent.WrapError(agent.KindInternal, "Failed to save the session. Please try again.", err)
	}

	resolved, total := question.CountResolved(final)
	metrics.RecordQuestionCount(total - resolved)

	a.logger.Info("turn processed",
		zap.String("session_id", rec.ID),
		zap.String("feature_type", rec.FeatureType),
		zap.Int("questions_total", total),
		zap.Int("questions_resolved", resolved),
		zap.Duration("duration", time.Since(start)))

	return &Result{
		SessionID:         rec.ID,
		Title:             rec.Title,
		Response:          turn.Response,
		Markdown:          turn.Markdown,
		Questions:         final,
		AnsweredQuestions: resolved,
		TotalQuestions:    total,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}, nil
}

// GetSession returns the stored record for a session.
// Returns session.ErrSessionNotFound if it doesn't exist.
func (a *Agent) GetSession(ctx context.Context, sessionID string) (*session.Record, error) {
	return a.sessions.Get(ctx, sessionID)
}

// ListSessions returns metadata for stored sessions, most recently
// updated first.
func (a *Agent) ListSessions(ctx context.Context, opts session.ListOptions) ([]*session.Metadata, error) {
	return a.sessions.List(ctx, opts)
}

// DeleteSession removes a session, reporting whether it existed.
func (a *Agent) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	unlock := a.lockSession(sessionID)
	defer unlock()

	existed, err := a.sessions.Delete(ctx, sessionID)
	if err != nil {
		return false, err
	}
	a.enricher.Invalidate(sessionID)
	a.forgetLock(sessionID)
	return existed, nil
}

// ExportSession renders the session's specification document for download.
// Returns session.ErrSessionNotFound if the session doesn't exist.
func (a *Agent) ExportSession(ctx context.Context, sessionID string) (*export.Export, error) {
	rec, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	metrics.RecordExport()
	return export.Markdown(rec), nil
}

// Close releases the underlying session store.
func (a *Agent) Close() error {
	return a.sessions.Close()
}

func (a *Agent) loadOrCreate(ctx context.Context, sessionID string) (*session.Record, error) {
	if sessionID == "" {
		return a.sessions.NewRecord(), nil
	}
	rec, err := a.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		// A caller-chosen ID starts a fresh session under that ID.
		rec := a.sessions.NewRecord()
		rec.ID = sessionID
		return rec, nil
	}
	if err != nil {
		return nil, agent.WrapError(agent.KindInternal, "Failed to load the session. Please try again.", fmt.Errorf("load session %s: %w", sessionID, err))
	}
	return rec, nil
}

// lockSession serializes turns per session. New sessions get fresh IDs,
// so an empty ID needs no serialization.
func (a *Agent) lockSession(sessionID string) func() {
	if sessionID == "" {
		return func() {}
	}
	a.lockMu.Lock()
	mu, ok := a.locks[sessionID]
	if !ok {
		mu = &sync.Mutex{}
		a.locks[sessionID] = mu
	}
	a.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// forgetLock drops a deleted session's mutex so the lock map does not
// grow with every session ever touched.
func (a *Agent) forgetLock(sessionID string) {
	a.lockMu.Lock()
	delete(a.locks, sessionID)
	a.lockMu.Unlock()
}
