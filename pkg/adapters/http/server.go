// Package http exposes a tick engine over HTTP with a chi router.
//
// Routes:
//
//	POST   /conversations/{id}/turns   process one user action
//	GET    /conversations              list conversation ids
//	GET    /conversations/{id}         current session
//	DELETE /conversations/{id}         reset the conversation
//	GET    /story                      story configuration
//	GET    /graph[?conversation=id]    Mermaid state graph
//	GET    /events                     session diffs (SSE)
//	GET    /health, /info, /metrics
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/tick"
	"github.com/aretw0/tick/internal/logging"
	"github.com/aretw0/tick/pkg/adapters/sender"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/aretw0/tick/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIVersion is reported by /info.
const APIVersion = "0.1.0"

// Engine defines the subset of *tick.Engine served over HTTP.
type Engine interface {
	ProcessWith(ctx context.Context, conversationID string, action domain.UserAction, s ports.Sender) (tick.Result, error)
	Session(ctx context.Context, conversationID string) (domain.Session, error)
	Sessions(ctx context.Context) ([]string, error)
	Reset(ctx context.Context, conversationID string) error
	Story() domain.Configuration
	Graph(s *domain.Session) string
}

// Compile-time check
var _ Engine = (*tick.Engine)(nil)

// TurnResponse is the body answered to a processed turn.
type TurnResponse struct {
	ConversationID string              `json:"conversation_id"`
	Messages       []sender.Message    `json:"messages"`
	Session        *domain.Session     `json:"session,omitempty"`
	Diff           *domain.SessionDiff `json:"diff,omitempty"`
	Finished       bool                `json:"finished"`
	Redirect       string              `json:"redirect,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Server serves one engine.
type Server struct {
	Engine  Engine
	Version string

	events   *Hub
	gatherer prometheus.Gatherer
	mirror   ports.Sender
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics serves the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMirror also delivers every turn's messages to m, e.g. a broker.
// A failed delivery fails the turn.
func WithMirror(m ports.Sender) Option {
	return func(s *Server) {
		s.mirror = m
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewServer creates a server for the engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Version: "dev",
		events:  NewHub(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Events returns the hub publishing session diffs.
func (s *Server) Events() *Hub {
	return s.events
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/story", s.GetStory)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", s.ListConversations)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetConversation)
			r.Delete("/", s.ResetConversation)
			r.Post("/turns", s.PostTurn)
		})
	})
	return r
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "tick-http",
		"version":     s.Version,
		"api_version": APIVersion,
		"story":       s.Engine.Story().ID,
	})
}

// GetStory handles the GET /story request.
func (s *Server) GetStory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Story())
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *domain.Session
	if id := r.URL.Query().Get("conversation"); id != "" {
		session, err := s.Engine.Session(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		overlay = &session
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, s.Engine.Graph(overlay))
}

// ListConversations handles the GET /conversations request.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"conversations": ids})
}

// GetConversation handles the GET /conversations/{id} request.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	session, err := s.Engine.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

// ResetConversation handles the DELETE /conversations/{id} request.
func (s *Server) ResetConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostTurn handles the POST /conversations/{id}/turns request.
func (s *Server) PostTurn(w http.ResponseWriter, r *http.Request) {
	var action domain.UserAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}
	if action.Name == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "action name is required", Kind: "bad_request"})
		return
	}

	id := chi.URLParam(r, "id")
	rec := sender.NewRecorder()
	var out ports.Sender = rec
	if s.mirror != nil {
		out = sender.Tee(rec, s.mirror)
	}
	res, err := s.Engine.ProcessWith(r.Context(), id, action, out)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := TurnResponse{
		ConversationID: id,
		Messages:       rec.Messages(),
		Finished:       res.Finished,
		Redirect:       res.Redirect,
	}
	if resp.Messages == nil {
		resp.Messages = []sender.Message{}
	}
	if res.Redirect == "" {
		resp.Session = &res.Session
		resp.Diff = res.Diff()
		s.events.Publish(resp.Diff)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	diffs, cancel := s.events.Subscribe(r.URL.Query().Get("conversation"))
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case diff, ok := <-diffs:
			if !ok {
				return
			}
			data, err := json.Marshal(diff)
			if err != nil {
				s.logger.Warn("failed to encode diff", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: diff\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "err", err)
	}
}

// writeError maps engine failures to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func classify(err error) (int, string) {
	var (
		retry      *domain.RetryExceededError
		handler    *domain.HandlerError
		transition *domain.TransitionError
		plan       *domain.UnplannableError
		repetition *domain.RepetitionError
		loop       *domain.LoopError
		invalid    *schema.ValidationError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &retry):
		return http.StatusConflict, "retry_exceeded"
	case errors.As(err, &repetition):
		return http.StatusConflict, "repetition"
	case errors.As(err, &handler):
		return http.StatusBadGateway, "handler"
	case errors.As(err, &transition):
		return http.StatusUnprocessableEntity, "transition"
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, "validation"
	case errors.As(err, &plan), errors.As(err, &loop):
		return http.StatusInternalServerError, "story"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	}
	return http.StatusInternalServerError, "internal"
}
