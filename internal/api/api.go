// Package api exposes the board over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/raphaelgruber/boardroom/internal/metrics"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/raphaelgruber/boardroom/internal/service"
)

// Board is the orchestrator surface served over HTTP.
// Implemented by *service.BoardService.
type Board interface {
	StartConversation(ctx context.Context, in service.StartInput) (*models.Conversation, error)
	SendMessage(ctx context.Context, in service.SendInput) (*models.TurnResult, error)
	EndConversation(ctx context.Context, id string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string, includeMessages bool) (*models.Conversation, error)
	ListConversations(ctx context.Context, initiatorID string) ([]models.Conversation, error)
	ListPersonas(ctx context.Context, activeOnly bool) ([]models.Persona, error)
	SetPersonaStatus(ctx context.Context, role, status string) error
}

// StartRequest is the body of POST /conversations.
type StartRequest struct {
	InitiatorID    string   `json:"initiator_id"`
	Topic          string   `json:"topic"`
	TopicLocalized *string  `json:"topic_localized,omitempty"`
	Type           string   `json:"type,omitempty"`
	Flags          []string `json:"flags,omitempty"`
}

// SendRequest is the body of POST /conversations/{id}/messages and the
// payload of a live "send" frame.
type SendRequest struct {
	AuthorID         string   `json:"author_id,omitempty"`
	Content          string   `json:"content"`
	TargetPersonaIDs []string `json:"target_persona_ids,omitempty"`
	CEOMode          string   `json:"ceo_mode,omitempty"`
	NewFlags         []string `json:"new_flags,omitempty"`
}

func (r SendRequest) input(conversationID string) service.SendInput {
	return service.SendInput{
		ConversationID:   conversationID,
		AuthorID:         r.AuthorID,
		Content:          r.Content,
		TargetPersonaIDs: r.TargetPersonaIDs,
		CEOMode:          r.CEOMode,
		NewFlags:         r.NewFlags,
	}
}

// StatusRequest is the body of PUT /personas/{role}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server serves the board API.
type Server struct {
	board   Board
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New creates an API server. collector may be nil.
func New(board Board, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{board: board, metrics: collector, logger: logger}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /conversations", s.handleStart)
	mux.HandleFunc("GET /conversations/{id}", s.handleGet)
	mux.HandleFunc("POST /conversations/{id}/messages", s.handleSend)
	mux.HandleFunc("POST /conversations/{id}/end", s.handleEnd)
	mux.HandleFunc("GET /conversations/{id}/live", s.handleLive)
	mux.HandleFunc("GET /users/{id}/conversations", s.handleListConversations)
	mux.HandleFunc("GET /personas", s.handleListPersonas)
	mux.HandleFunc("PUT /personas/{role}/status", s.handleSetStatus)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return LoggingMiddleware(s.logger)(mux)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if !s.decode(w, r, &req) {
		return
	}
	conv, err := s.board.StartConversation(r.Context(), service.StartInput{
		InitiatorID:    req.InitiatorID,
		Topic:          req.Topic,
		TopicLocalized: req.TopicLocalized,
		Type:           req.Type,
		Flags:          req.Flags,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	include, _ := strconv.ParseBool(r.URL.Query().Get("messages"))
	conv, err := s.board.GetConversation(r.Context(), r.PathValue("id"), include)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !s.decode(w, r, &req) {
		return
	}
	// A dropped connection must not abort persona calls already in flight.
	result, err := s.board.SendMessage(context.WithoutCancel(r.Context()), req.input(r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	conv, err := s.board.EndConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.board.ListConversations(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	active, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	personas, err := s.board.ListPersonas(r.Context(), active)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if personas == nil {
		personas = []models.Persona{}
	}
	writeJSON(w, http.StatusOK, personas)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.board.SetPersonaStatus(r.Context(), r.PathValue("role"), req.Status); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode body: %v", service.ErrInvalidInput, err))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// compile-time check
var _ Board = (*service.BoardService)(nil)

