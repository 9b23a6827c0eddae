// Package mcp exposes a tick engine as a Model Context Protocol server, so that
// agents can drive conversations through tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tick"
	"github.com/aretw0/tick/internal/logging"
	"github.com/aretw0/tick/pkg/adapters/sender"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	StoryURI = "tick://story"
	GraphURI = "tick://graph"
)

// TurnResponse aligns with the HTTP adapter and provides a unified structure across adapters.
type TurnResponse struct {
	ConversationID string           `json:"conversation_id" jsonschema_description:"The conversation the turn belongs to"`
	Messages       []sender.Message `json:"messages" jsonschema_description:"Messages sent by the bot, in order"`
	Session        *domain.Session  `json:"session,omitempty" jsonschema_description:"The session after the turn"`
	Finished       bool             `json:"finished" jsonschema_description:"Indicates the conversation reached a final action"`
	Redirect       string           `json:"redirect,omitempty" jsonschema_description:"Story the conversation continues in"`
}

// ResetResponse is the result of reset_session.
type ResetResponse struct {
	ConversationID string `json:"conversation_id"`
	Reset          bool   `json:"reset"`
}

// Engine defines the interface required by the MCP server to interact with tick.
type Engine interface {
	ProcessWith(ctx context.Context, conversationID string, action domain.UserAction, s ports.Sender) (tick.Result, error)
	Session(ctx context.Context, conversationID string) (domain.Session, error)
	Reset(ctx context.Context, conversationID string) error
	Story() domain.Configuration
	Graph(s *domain.Session) string
}

// Server wraps the tick Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("tick-mcp", tick.Version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE, until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: process_turn
	turnTool := mcp.NewTool("process_turn",
		mcp.WithDescription("Process one user turn: the recognized intent (or fired trigger) with its extracted contexts."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("The conversation to advance")),
		mcp.WithString("intent", mcp.Required(), mcp.Description("Intent or trigger name")),
		mcp.WithBoolean("trigger", mcp.Description("Whether the name is a trigger rather than an intent")),
		mcp.WithString("contexts", mcp.Description("JSON object of context values (optional)")),
		mcp.WithString("entities", mcp.Description("JSON object of entity values keyed by role (optional)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(turnTool, mcp.NewStructuredToolHandler(s.handleProcessTurn))

	// TOOL: get_session
	sessionTool := mcp.NewTool("get_session",
		mcp.WithDescription("Get the current session of a conversation."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("The conversation id")),
		mcp.WithOutputSchema[domain.Session](),
	)
	s.mcpServer.AddTool(sessionTool, mcp.NewStructuredToolHandler(s.handleGetSession))

	// TOOL: reset_session
	resetTool := mcp.NewTool("reset_session",
		mcp.WithDescription("Delete a conversation so that its next turn starts from scratch."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("The conversation id")),
		mcp.WithOutputSchema[ResetResponse](),
	)
	s.mcpServer.AddTool(resetTool, mcp.NewStructuredToolHandler(s.handleResetSession))

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the story state graph as a Mermaid flowchart."),
		mcp.WithString("conversation_id", mcp.Description("Highlight the session of this conversation (optional)")),
	), s.handleGetGraph)
}

// Handler methods for structured tools

func (s *Server) handleProcessTurn(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	id, _ := args["conversation_id"].(string)
	name, _ := args["intent"].(string)
	if id == "" || name == "" {
		return TurnResponse{}, fmt.Errorf("conversation_id and intent are required")
	}

	action := domain.UserAction{Name: name}
	action.Trigger, _ = args["trigger"].(bool)
	var err error
	if action.Contexts, err = jsonObject(args, "contexts"); err != nil {
		return TurnResponse{}, err
	}
	if action.Entities, err = jsonObject(args, "entities"); err != nil {
		return TurnResponse{}, err
	}

	rec := sender.NewRecorder()
	res, err := s.engine.ProcessWith(ctx, id, action, rec)
	if err != nil {
		s.logger.Warn("MCP process_turn failed", "conversation_id", id, "err", err)
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
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
	}
	return resp, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Session, error) {
	id, _ := args["conversation_id"].(string)
	session, err := s.engine.Session(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session %q: %w", id, err)
	}
	return session, nil
}

func (s *Server) handleResetSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ResetResponse, error) {
	id, _ := args["conversation_id"].(string)
	if id == "" {
		return ResetResponse{}, fmt.Errorf("conversation_id is required")
	}
	if err := s.engine.Reset(ctx, id); err != nil {
		return ResetResponse{}, fmt.Errorf("reset %q: %w", id, err)
	}
	return ResetResponse{ConversationID: id, Reset: true}, nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var overlay *domain.Session
	if id := request.GetString("conversation_id", ""); id != "" {
		session, err := s.engine.Session(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get session %q: %v", id, err)), nil
		}
		overlay = &session
	}
	return mcp.NewToolResultText(s.engine.Graph(overlay)), nil
}

// jsonObject decodes an optional JSON object argument.
func jsonObject(args map[string]interface{}, key string) (map[string]any, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("%s must be a JSON object: %w", key, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a JSON object", key)
	}
}

func (s *Server) registerResources() {
	// EXPOSE: tick://story
	s.mcpServer.AddResource(mcp.NewResource(StoryURI, "Story Configuration",
		mcp.WithMIMEType("application/json"),
	), s.readStory)

	// EXPOSE: tick://graph
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Story State Graph",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), s.readGraph)
}

func (s *Server) readStory(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.engine.Story())
	if err != nil {
		return nil, fmt.Errorf("failed to encode story: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StoryURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "text/vnd.mermaid",
			Text:     s.engine.Graph(nil),
		},
	}, nil
}
