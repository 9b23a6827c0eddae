package tick

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/tick/internal/compiler"
	"github.com/aretw0/tick/internal/logging"
	"github.com/aretw0/tick/internal/presentation/graph"
	"github.com/aretw0/tick/internal/runtime"
	"github.com/aretw0/tick/pkg/adapters/memory"
	"github.com/aretw0/tick/pkg/adapters/sender"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/observability"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/aretw0/tick/pkg/registry"
	"github.com/aretw0/tick/pkg/schema"
	"github.com/aretw0/tick/pkg/session"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the high-level entry point for the tick library.
// It runs the turns of one story, persisting a session per conversation.
type Engine struct {
	story     *compiler.Story
	processor *runtime.Processor
	sessions  *session.Manager

	handlers   ports.HandlerRepository
	sender     ports.Sender
	store      ports.SessionStore
	locker     ports.DistributedLocker
	planner    runtime.Planner
	hooks      domain.LifecycleHooks
	tracer     trace.Tracer
	logger     *slog.Logger
	endingRule bool
	maxSteps   int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithHandlers sets the handler repository. Defaults to a registry holding
// the dev-tools provider.
func WithHandlers(repo ports.HandlerRepository) Option {
	return func(e *Engine) {
		e.handlers = repo
	}
}

// WithSender sets the sender used by Process. Defaults to discarding messages.
func WithSender(s ports.Sender) Option {
	return func(e *Engine) {
		e.sender = s
	}
}

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serializes the turns of a conversation across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithPlanner replaces the default planner.
func WithPlanner(p runtime.Planner) Option {
	return func(e *Engine) {
		e.planner = p
	}
}

// WithTracer opens a span per turn and per handler invocation.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithEndingRule declares that the host closes conversations with an ending story.
func WithEndingRule(exists bool) Option {
	return func(e *Engine) {
		e.endingRule = exists
	}
}

// WithMaxSteps bounds the actions executed in one turn.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// New compiles and validates the configuration and initializes an Engine.
// When the handler repository can list its handlers, every action handler is
// checked against it.
func New(cfg domain.Configuration, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.logger = eng.logger.With("story", cfg.ID)

	if eng.handlers == nil {
		reg, err := registry.NewRegistry(registry.DevTools())
		if err != nil {
			return nil, err
		}
		eng.handlers = reg
	}
	if eng.sender == nil {
		eng.sender = sender.Discard
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	var compileOpts []schema.Option
	if c, ok := eng.handlers.(ports.HandlerCatalog); ok {
		compileOpts = append(compileOpts, schema.WithHandlerCatalog(c))
	}
	story, err := compiler.Compile(cfg, compileOpts...)
	if err != nil {
		return nil, err
	}
	eng.story = story

	handlers, hooks := eng.handlers, eng.hooks
	if eng.tracer != nil {
		handlers = observability.TracedHandlers(handlers, eng.tracer)
		hooks = observability.ChainHooks(observability.TraceHooks(), hooks)
	}

	procOpts := []runtime.Option{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithEndingRule(eng.endingRule),
		runtime.WithMaxSteps(eng.maxSteps),
	}
	if eng.planner != nil {
		procOpts = append(procOpts, runtime.WithPlanner(eng.planner))
	}
	eng.processor = runtime.NewProcessor(story, handlers, eng.sender, procOpts...)

	sessOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessOpts...)

	return eng, nil
}

// Load reads the story from loader and initializes an Engine for it.
func Load(ctx context.Context, loader ports.ConfigurationLoader, storyID string, opts ...Option) (*Engine, error) {
	cfg, err := loader.Load(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story %q: %w", storyID, err)
	}
	return New(cfg, opts...)
}

// ParseFile reads a story configuration from a YAML or JSON file.
func ParseFile(path string) (domain.Configuration, error) {
	return compiler.NewParser().ParseFile(path)
}

// Result is the outcome of one turn of a conversation.
type Result struct {
	ConversationID string
	// Previous is the session the turn started from.
	Previous domain.Session
	// Session is the persisted session. It is empty when Redirect is set.
	Session  domain.Session
	Finished bool
	// Redirect names the story the conversation continues in. The conversation
	// has been removed from this engine's store.
	Redirect string
}

// Diff reports what the turn changed in the session.
func (r Result) Diff() *domain.SessionDiff {
	return domain.Diff(r.ConversationID, &r.Previous, r.Session)
}

// Process runs one turn of the conversation, delivering messages through the
// engine sender.
func (e *Engine) Process(ctx context.Context, conversationID string, action domain.UserAction) (Result, error) {
	return e.ProcessWith(ctx, conversationID, action, e.sender)
}

// ProcessWith runs one turn of the conversation delivering messages through s.
// Turns of one conversation run one at a time. A failed turn leaves the
// stored session untouched.
func (e *Engine) ProcessWith(ctx context.Context, conversationID string, action domain.UserAction, s ports.Sender) (res Result, err error) {
	ctx = domain.WithConversationID(ctx, conversationID)
	if e.tracer != nil {
		var span trace.Span
		ctx, span = observability.StartTurn(ctx, e.tracer, e.story.ID(), conversationID, action.Name)
		defer func() { observability.EndSpan(span, err) }()
	}

	res.ConversationID = conversationID
	err = e.sessions.Turn(ctx, conversationID, e.processor.NewSession(), func(ctx context.Context, current domain.Session) (domain.Session, bool, error) {
		res.Previous = current
		out, err := e.processor.ProcessWith(ctx, s, current, action)
		if err != nil {
			return domain.Session{}, false, err
		}
		res.Session, res.Finished, res.Redirect = out.Session, out.Finished, out.Redirect
		return out.Session, out.Redirect == "", nil
	})
	if err != nil {
		e.logger.Error("turn failed", "conversation_id", conversationID, "input", action.Name, "err", err)
		return Result{ConversationID: conversationID}, err
	}

	e.logger.Debug("turn processed",
		"conversation_id", conversationID,
		"input", action.Name,
		"state", res.Session.CurrentState,
		"finished", res.Finished,
		"redirect", res.Redirect,
	)
	return res, nil
}

// Session returns the stored session of the conversation.
func (e *Engine) Session(ctx context.Context, conversationID string) (domain.Session, error) {
	return e.sessions.Load(ctx, conversationID)
}

// Sessions lists the stored conversation ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Reset deletes the conversation: its next turn starts from scratch.
func (e *Engine) Reset(ctx context.Context, conversationID string) error {
	return e.sessions.Delete(ctx, conversationID)
}

// Story returns the configuration the engine runs.
func (e *Engine) Story() domain.Configuration {
	return e.story.Configuration()
}

// Graph renders the story state tree as a Mermaid flowchart, highlighting the
// session when one is given.
func (e *Engine) Graph(s *domain.Session) string {
	var overlay *graph.Overlay
	if s != nil {
		overlay = graph.SessionOverlay(*s)
	}
	return graph.GenerateMermaid(e.story, overlay)
}
