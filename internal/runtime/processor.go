// Package runtime implements the tick processor: it processes one user turn
// against a compiled story, driving the objective stack through the planner,
// the handler repository and the output sender.
package runtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/tick/internal/compiler"
	"github.com/aretw0/tick/internal/logging"
	"github.com/aretw0/tick/internal/planner"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
)

// DefaultMaxSteps bounds the number of actions executed in one turn chain.
const DefaultMaxSteps = 64

var errSelfTransition = errors.New("direct transition targets the current state")

// Planner computes the ordered actions leading to a target.
type Planner interface {
	Solve(story *compiler.Story, req planner.Request) ([]string, error)
}

// Result is the outcome of one processed turn.
type Result struct {
	// Session is the updated snapshot. It is empty when Redirect is set.
	Session domain.Session
	// Finished reports that a final action ended the conversation.
	Finished bool
	// Redirect names the story the conversation must continue in.
	Redirect string
}

// Processor runs turns of one compiled story. It holds no per-conversation
// state and can be shared across conversations.
type Processor struct {
	story    *compiler.Story
	handlers ports.HandlerRepository
	sender   ports.Sender
	planner  Planner
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	endingRule bool
	maxSteps   int
}

// Option configures the Processor.
type Option func(*Processor)

// WithPlanner replaces the default planner.
func WithPlanner(p Planner) Option {
	return func(pr *Processor) {
		pr.planner = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(pr *Processor) {
		pr.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(pr *Processor) {
		pr.hooks = hooks
	}
}

// WithEndingRule declares that the host closes conversations with an ending
// story: final actions then never close the turn themselves.
func WithEndingRule(exists bool) Option {
	return func(pr *Processor) {
		pr.endingRule = exists
	}
}

// WithMaxSteps bounds the actions executed in one turn chain.
func WithMaxSteps(n int) Option {
	return func(pr *Processor) {
		if n > 0 {
			pr.maxSteps = n
		}
	}
}

// NewProcessor creates a processor for the story.
func NewProcessor(story *compiler.Story, handlers ports.HandlerRepository, sender ports.Sender, opts ...Option) *Processor {
	p := &Processor{
		story:    story,
		handlers: handlers,
		sender:   sender,
		planner:  planner.NewSolver(),
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("story", story.ID())
	return p
}

// Story returns the compiled story the processor runs.
func (p *Processor) Story() *compiler.Story {
	return p.story
}

// NewSession creates the session of a new conversation on the default state.
func (p *Processor) NewSession() domain.Session {
	return domain.NewSession(p.story.Machine().Default())
}

// Process runs one user turn.
//
// Fatal errors (unplannable target, handler failure, exhausted retries, invalid
// transition) return no session: the caller keeps the previous snapshot.
func (p *Processor) Process(ctx context.Context, session domain.Session, action domain.UserAction) (Result, error) {
	return p.ProcessWith(ctx, p.sender, session, action)
}

// ProcessWith runs one user turn delivering messages through sender.
func (p *Processor) ProcessWith(ctx context.Context, sender ports.Sender, session domain.Session, action domain.UserAction) (Result, error) {
	if session.CurrentState == "" {
		session = session.WithState(p.story.Machine().Default())
	}

	p.emitTurnStart(ctx, action, session)
	t := &turn{Processor: p, sender: sender, ran: make(map[string]bool)}

	var (
		res Result
		err error
	)
	if !action.Trigger && p.story.IsUnknown(action.Name) {
		res, err = t.unknown(ctx, session)
	} else {
		res, err = t.resolve(ctx, session, action)
	}
	p.emitTurnEnd(ctx, action, res, err)

	if err != nil {
		p.logger.Debug("turn failed", "input", action.Name, "error", err)
		return Result{}, err
	}
	return res, nil
}

// turn holds the bookkeeping of one turn chain.
type turn struct {
	*Processor
	sender ports.Sender
	ran    map[string]bool
	steps  int
}
