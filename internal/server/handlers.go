package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/specdraft/specdraft"
	"github.com/specdraft/specdraft/internal/agent"
	"github.com/specdraft/specdraft/internal/protocol"
	"github.com/specdraft/specdraft/internal/question"
	"github.com/specdraft/specdraft/pkg/session"
)

// featureInput is the request body for feature processing.
type featureInput struct {
	SessionID string `json:"session_id,omitempty"`
	Feature   string `json:"feature"`
}

// exportInput is the request body for document export.
type exportInput struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format,omitempty"`
}

// apiError is the error half of every response envelope.
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type chatProgress struct {
	AnsweredQuestions int `json:"answered_questions"`
	TotalQuestions    int `json:"total_questions"`
}

type chatData struct {
	Response  string              `json:"response"`
	Questions []question.Question `json:"questions"`
	Progress  chatProgress        `json:"progress"`
}

type featureOverview struct {
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	ProgressPercentage int      `json:"progress_percentage"`
}

type ticketsData struct {
	Backend  []protocol.Ticket `json:"backend"`
	Frontend []protocol.Ticket `json:"frontend"`
}

type featureOutput struct {
	SessionID       string          `json:"session_id"`
	Title           string          `json:"title"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Chat            chatData        `json:"chat"`
	FeatureOverview featureOverview `json:"feature_overview"`
	Tickets         ticketsData     `json:"tickets"`
}

type envelope struct {
	Data  any       `json:"data"`
	Error *apiError `json:"error"`
}

func (s *Server) handleProcessFeature(w http.ResponseWriter, r *http.Request) {
	var input featureInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, string(agent.KindValidationError), "invalid request body")
		return
	}

	result, err := s.agent.ProcessFeature(r.Context(), input.Feature, input.SessionID)
	if err != nil {
		s.writeAgentError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{Data: buildFeatureOutput(result)})
}

// buildFeatureOutput shapes a turn result into the API response: the chat
// section plus an overview and tickets parsed out of the document.
func buildFeatureOutput(result *specdraft.Result) featureOutput {
	doc := protocol.ParseDocument(result.Markdown)

	percentage := 0
	if result.TotalQuestions > 0 {
		percentage = result.AnsweredQuestions * 100 / result.TotalQuestions
	}

	criteria := doc.AcceptanceCriteria
	if criteria == nil {
		criteria = []string{}
	}
	backend := doc.BackendChanges
	if backend == nil {
		backend = []protocol.Ticket{}
	}
	frontend := doc.FrontendChanges
	if frontend == nil {
		frontend = []protocol.Ticket{}
	}
	questions := result.Questions
	if questions == nil {
		questions = []question.Question{}
	}

	return featureOutput{
		SessionID: result.SessionID,
		Title:     result.Title,
		CreatedAt: result.CreatedAt,
		UpdatedAt: result.UpdatedAt,
		Chat: chatData{
			Response:  result.Response,
			Questions: questions,
			Progress: chatProgress{
				AnsweredQuestions: result.AnsweredQuestions,
				TotalQuestions:    result.TotalQuestions,
			},
		},
		FeatureOverview: featureOverview{
			Description:        doc.Description,
			AcceptanceCriteria: criteria,
			ProgressPercentage: percentage,
		},
		Tickets: ticketsData{Backend: backend, Frontend: frontend},
	}
}

func (s *Server) handleExportFeature(w http.ResponseWriter, r *http.Request) {
	var input exportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, string(agent.KindValidationError), "invalid request body")
		return
	}
	if input.Format != "" && input.Format != "markdown" {
		s.writeError(w, http.StatusBadRequest, string(agent.KindValidationError), "unsupported export format: "+input.Format)
		return
	}

	exported, err := s.agent.ExportSession(r.Context(), input.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "not_found", "Session "+input.SessionID+" not found")
			return
		}
		s.writeAgentError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{Data: exported})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	metas, err := s.agent.ListSessions(r.Context(), session.ListOptions{})
	if err != nil {
		s.writeAgentError(w, err)
		return
	}
	if metas == nil {
		metas = []*session.Metadata{}
	}
	s.writeJSON(w, http.StatusOK, envelope{Data: metas})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	rec, err := s.agent.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "not_found", "Session "+sessionID+" not found")
			return
		}
		s.writeAgentError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Data: rec})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	existed, err := s.agent.DeleteSession(r.Context(), sessionID)
	if err != nil {
		s.writeAgentError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Data: map[string]bool{"deleted": existed}})
}

// writeAgentError maps a turn failure to its HTTP status and envelope.
func (s *Server) writeAgentError(w http.ResponseWriter, err error) {
	kind := agent.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case agent.KindSecurityRejection, agent.KindContextDeviation, agent.KindParsingError, agent.KindValidationError:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeError(w, status, string(kind), agent.UserMessage(err))
}

func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string) {
	s.writeJSON(w, status, envelope{Error: &apiError{Type: errType, Message: message}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}
