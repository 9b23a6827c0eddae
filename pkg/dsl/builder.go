package dsl

import (
	"fmt"

	"github.com/aretw0/tick/internal/compiler"
	"github.com/aretw0/tick/pkg/adapters/memory"
	"github.com/aretw0/tick/pkg/domain"
)

// RootID is the id of the implicit root state.
const RootID = "root"

// Builder accumulates a story configuration.
type Builder struct {
	cfg     domain.Configuration
	root    *StateBuilder
	actions []*ActionBuilder
	unknown []*FallbackBuilder
}

// New creates a builder for the story id.
func New(id string) *Builder {
	b := &Builder{cfg: domain.Configuration{ID: id}}
	b.root = &StateBuilder{builder: b, state: domain.State{ID: RootID}}
	return b
}

// Name sets the display name of the story.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Description sets the description of the story.
func (b *Builder) Description(text string) *Builder {
	b.cfg.Description = text
	return b
}

// MainIntent sets the intent that starts the conversation.
func (b *Builder) MainIntent(name string) *Builder {
	b.cfg.MainIntent = name
	return b
}

// PrimaryIntents declares intents that may open a new objective.
func (b *Builder) PrimaryIntents(names ...string) *Builder {
	b.cfg.PrimaryIntents = append(b.cfg.PrimaryIntents, names...)
	return b
}

// SecondaryIntents declares intents that only answer the current action.
func (b *Builder) SecondaryIntents(names ...string) *Builder {
	b.cfg.SecondaryIntents = append(b.cfg.SecondaryIntents, names...)
	return b
}

// Triggers declares the trigger names.
func (b *Builder) Triggers(names ...string) *Builder {
	b.cfg.Triggers = append(b.cfg.Triggers, names...)
	return b
}

// Context declares a context accepting any value.
func (b *Builder) Context(name string) *Builder {
	b.cfg.Contexts = append(b.cfg.Contexts, domain.Context{Name: name})
	return b
}

// TypedContext declares a context whose values are checked against a type name.
func (b *Builder) TypedContext(name, typ string) *Builder {
	b.cfg.Contexts = append(b.cfg.Contexts, domain.Context{Name: name, Type: typ})
	return b
}

// EntityContext declares a context filled from the entity of the given role.
func (b *Builder) EntityContext(name, role string) *Builder {
	b.cfg.Contexts = append(b.cfg.Contexts, domain.Context{Name: name, EntityRole: role})
	return b
}

// IntentContexts makes the intent fill contexts while action is running.
// Successive calls for the same intent add associations.
func (b *Builder) IntentContexts(intent, action string, contexts ...string) *Builder {
	assoc := domain.Association{Action: action, Contexts: contexts}
	for i := range b.cfg.IntentsContexts {
		if b.cfg.IntentsContexts[i].Intent == intent {
			b.cfg.IntentsContexts[i].Associations = append(b.cfg.IntentsContexts[i].Associations, assoc)
			return b
		}
	}
	b.cfg.IntentsContexts = append(b.cfg.IntentsContexts, domain.IntentContexts{
		Intent:       intent,
		Associations: []domain.Association{assoc},
	})
	return b
}

// UnknownIntents declares intents handled as unknown.
func (b *Builder) UnknownIntents(names ...string) *Builder {
	b.cfg.Unknown.Intents = append(b.cfg.Unknown.Intents, names...)
	return b
}

// Fallback configures the answer to unknown intents while action is running.
func (b *Builder) Fallback(action string) *FallbackBuilder {
	f := &FallbackBuilder{answer: domain.UnknownAnswerConfig{Action: action}}
	b.unknown = append(b.unknown, f)
	return f
}

// RepetitionNb caps how many times a silent action may repeat in a turn.
func (b *Builder) RepetitionNb(n int) *Builder {
	b.cfg.Settings.RepetitionNb = n
	return b
}

// RedirectStory sets the story the conversation continues in once finished.
func (b *Builder) RedirectStory(id string) *Builder {
	b.cfg.Settings.RedirectStory = id
	return b
}

// Root returns the root state, e.g. to set its initial child.
func (b *Builder) Root() *StateBuilder {
	return b.root
}

// State declares a top-level state. Declaring an existing id returns it.
func (b *Builder) State(id string) *StateBuilder {
	return b.root.State(id)
}

// Configuration returns the configuration as declared so far, unchecked.
func (b *Builder) Configuration() domain.Configuration {
	cfg := b.cfg
	cfg.StateMachine = b.root.build()
	cfg.Actions = make([]domain.Action, 0, len(b.actions))
	for _, a := range b.actions {
		cfg.Actions = append(cfg.Actions, a.action)
	}
	cfg.Unknown.Answers = nil
	for _, f := range b.unknown {
		cfg.Unknown.Answers = append(cfg.Unknown.Answers, f.answer)
	}
	return cfg
}

// Build returns the configuration once it compiles.
func (b *Builder) Build() (domain.Configuration, error) {
	cfg := b.Configuration()
	if _, err := compiler.Compile(cfg); err != nil {
		return domain.Configuration{}, err
	}
	return cfg, nil
}

// MustBuild is Build panicking on error, for fixtures.
func (b *Builder) MustBuild() domain.Configuration {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Loader builds the stories into a memory loader.
func Loader(builders ...*Builder) (*memory.Loader, error) {
	configs := make([]domain.Configuration, 0, len(builders))
	for _, b := range builders {
		cfg, err := b.Build()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	loader, err := memory.NewLoader(configs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
