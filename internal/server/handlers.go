package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/csheth/paperdistill/internal/arxiv"
	"github.com/csheth/paperdistill/internal/llm"
	"github.com/csheth/paperdistill/internal/session"
	"github.com/csheth/paperdistill/internal/summarize"
)

type searchRequest struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories"`
	MaxResults int      `json:"max_results"`
}

type selectRequest struct {
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
}

type abstractSummaryRequest struct {
	Percent *int `json:"percent"`
}

type abstractSummaryResponse struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	MinLength  int    `json:"min_length"`
	MaxLength  int    `json:"max_length"`
	Truncated  bool   `json:"truncated"`
}

type paperSummaryRequest struct {
	Paragraphs int    `json:"paragraphs"`
	Complexity string `json:"complexity"`
}

type questionRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, arxiv.Categories())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	s.logger.Debug("session created", zap.String("session_id", sess.ID()))
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": sess.ID()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	docs, err := sess.Search(r.Context(), req.Query, req.Categories, req.MaxResults)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if !s.decode(w, r, &req) {
		return
	}
	var (
		doc arxiv.Document
		err error
	)
	switch {
	case req.DocumentID != "":
		doc, err = sess.Select(req.DocumentID)
	case req.URL != "":
		doc, err = sess.Open(r.Context(), req.URL)
	default:
		s.respondError(w, http.StatusBadRequest, "document_id or url is required")
		return
	}
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAbstractSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req abstractSummaryRequest
	if !s.decode(w, r, &req) {
		return
	}
	var (
		summary session.AbstractSummary
		err     error
	)
	if req.Percent == nil {
		summary, err = sess.SummarizeAbstractDefault(r.Context())
	} else {
		summary, err = sess.SummarizeAbstract(r.Context(), *req.Percent)
	}
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, abstractSummaryResponse{
		DocumentID: summary.DocumentID,
		Text:       summary.Text,
		MinLength:  summary.Request.MinLength,
		MaxLength:  summary.Request.MaxLength,
		Truncated:  summary.Request.Truncated,
	})
}

func (s *Server) handlePaperSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req paperSummaryRequest
	if !s.decode(w, r, &req) {
		return
	}
	complexity, err := summarize.ParseComplexity(req.Complexity)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	text, err := sess.SummarizePaper(r.Context(), req.Paragraphs, complexity)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req questionRequest
	if !s.decode(w, r, &req) {
		return
	}
	answer, err := sess.Ask(r.Context(), req.Question)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

// decode reads a JSON body. An empty body leaves v at its zero value.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	switch {
	case status == statusClientClosedRequest:
		s.logger.Debug("client went away", zap.Error(err))
	case status >= http.StatusInternalServerError:
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

// statusClientClosedRequest is nginx's non-standard code for a client that
// disconnected before the response was ready.
const statusClientClosedRequest = 499

func statusFor(err error) int {
	switch {
	case errors.Is(err, summarize.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnknownDocument):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoDocument):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, llm.ErrBackendUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
