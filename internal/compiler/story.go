// Package compiler turns configuration documents into compiled stories: a
// validated state machine plus indexes over actions, contexts and fallbacks.
package compiler

import (
	"fmt"

	"github.com/aretw0/tick/internal/statemachine"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/schema"
)

// Story is an immutable compiled configuration. It is safe for concurrent use.
type Story struct {
	config  domain.Configuration
	machine *statemachine.Machine

	actions   map[string]domain.Action
	order     map[string]int
	producers map[string][]string
	unknown   map[string]domain.UnknownAnswerConfig
	types     map[string]schema.Type
}

// Compile builds the state machine and validates the configuration.
func Compile(cfg domain.Configuration, opts ...schema.Option) (*Story, error) {
	triggers := make(map[string]bool, len(cfg.Triggers))
	for _, t := range cfg.Triggers {
		triggers[t] = true
	}
	intents := make(map[string]bool)
	for _, i := range cfg.Intents() {
		intents[i] = true
	}
	classify := func(name string) (domain.EventKind, bool) {
		switch {
		case triggers[name]:
			return domain.EventTrigger, true
		case intents[name]:
			return domain.EventIntent, true
		}
		return 0, false
	}

	machine, err := statemachine.New(cfg.StateMachine, classify)
	if err != nil {
		return nil, fmt.Errorf("story %q: invalid state machine: %w", cfg.ID, err)
	}
	if err := schema.ValidateConfiguration(cfg, opts...); err != nil {
		return nil, fmt.Errorf("story %q: %w", cfg.ID, err)
	}
	types, err := schema.ContextTypes(cfg)
	if err != nil {
		return nil, fmt.Errorf("story %q: %w", cfg.ID, err)
	}

	s := &Story{
		config:    cfg,
		machine:   machine,
		actions:   make(map[string]domain.Action, len(cfg.Actions)),
		order:     make(map[string]int, len(cfg.Actions)),
		producers: make(map[string][]string),
		unknown:   make(map[string]domain.UnknownAnswerConfig, len(cfg.Unknown.Answers)),
		types:     types,
	}
	for i, a := range cfg.Actions {
		s.actions[a.Name] = a
		s.order[a.Name] = i
		for _, out := range a.OutputContextNames {
			s.producers[out] = append(s.producers[out], a.Name)
		}
	}
	for _, ans := range cfg.Unknown.Answers {
		s.unknown[ans.Action] = ans
	}
	return s, nil
}

// ID returns the story id.
func (s *Story) ID() string { return s.config.ID }

// Configuration returns the source document.
func (s *Story) Configuration() domain.Configuration { return s.config }

// Machine returns the compiled state tree.
func (s *Story) Machine() *statemachine.Machine { return s.machine }

// Action returns the action bound to the state.
func (s *Story) Action(name string) (domain.Action, bool) {
	a, ok := s.actions[name]
	return a, ok
}

// Actions returns the actions in declaration order.
func (s *Story) Actions() []domain.Action {
	return append([]domain.Action(nil), s.config.Actions...)
}

// ActionOrder returns the declaration index of the action, or -1.
func (s *Story) ActionOrder(name string) int {
	if i, ok := s.order[name]; ok {
		return i
	}
	return -1
}

// Producers returns the actions declaring the context as output, in declaration order.
func (s *Story) Producers(context string) []string {
	return s.producers[context]
}

// UnknownAnswer returns the fallback configured for the action.
func (s *Story) UnknownAnswer(action string) (domain.UnknownAnswerConfig, bool) {
	a, ok := s.unknown[action]
	return a, ok
}

// IsUnknown reports whether the intent is one of the unknown intents.
func (s *Story) IsUnknown(intent string) bool {
	return s.config.Unknown.IsUnknown(intent)
}

// Contexts returns the declared contexts.
func (s *Story) Contexts() []domain.Context { return s.config.Contexts }

// ContextTypes returns the declared context types.
func (s *Story) ContextTypes() map[string]schema.Type { return s.types }

// Associations returns the intent's context associations.
func (s *Story) Associations(intent string) []domain.Association {
	var out []domain.Association
	for _, ic := range s.config.IntentsContexts {
		if ic.Intent == intent {
			out = append(out, ic.Associations...)
		}
	}
	return out
}

// Settings returns the story settings.
func (s *Story) Settings() domain.StorySettings { return s.config.Settings }

// Debug reports whether debug messages are enabled.
func (s *Story) Debug() bool { return s.config.Debug }
