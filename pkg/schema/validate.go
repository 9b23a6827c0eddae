package schema

import (
	"fmt"
	"sort"

	"github.com/aretw0/tick/pkg/domain"
)

// HandlerCatalog reports whether a handler name can be invoked.
type HandlerCatalog interface {
	Has(handler string) bool
}

type options struct {
	catalog HandlerCatalog
}

// Option configures ValidateConfiguration.
type Option func(*options)

// WithHandlerCatalog checks every action handler against the catalog.
func WithHandlerCatalog(c HandlerCatalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// ValidateConfiguration checks the consistency of a story configuration.
// Every failure found is returned in one *AggregateError.
func ValidateConfiguration(cfg domain.Configuration, opts ...Option) error {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	v := newValidator(cfg)
	v.checkIntents()
	v.checkActions()
	v.checkHandlers(o.catalog)
	v.checkContextFlow()
	v.checkDeclaredContexts()
	v.checkIntentsContexts()
	v.checkUnknown()
	v.checkSettings()

	if len(v.errs) > 0 {
		return &AggregateError{Errors: v.errs}
	}
	return nil
}

// ContextTypes compiles the declared context types.
func ContextTypes(cfg domain.Configuration) (map[string]Type, error) {
	types := make(map[string]Type)
	var errs []error
	for _, c := range cfg.Contexts {
		if c.Type == "" {
			continue
		}
		t, err := ParseType(c.Type)
		if err != nil {
			errs = append(errs, &ValidationError{Key: "contexts[" + c.Name + "].type", Reason: err.Error()})
			continue
		}
		types[c.Name] = t
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return types, nil
}

type validator struct {
	cfg  domain.Configuration
	errs []error

	states      map[string]bool
	leaves      []string
	transitions map[string]bool
	actions     map[string]domain.Action
	contexts    map[string]bool
	secondary   map[string]bool
	triggers    map[string]bool
}

func newValidator(cfg domain.Configuration) *validator {
	v := &validator{
		cfg:         cfg,
		states:      make(map[string]bool),
		transitions: make(map[string]bool),
		actions:     make(map[string]domain.Action),
		contexts:    make(map[string]bool),
		secondary:   toSet(cfg.SecondaryIntents),
		triggers:    toSet(cfg.Triggers),
	}
	v.walk(cfg.StateMachine, true)
	for _, a := range cfg.Actions {
		if _, dup := v.actions[a.Name]; dup {
			v.fail("actions["+a.Name+"]", "duplicate action", nil)
			continue
		}
		v.actions[a.Name] = a
	}
	for _, c := range cfg.Contexts {
		if v.contexts[c.Name] {
			v.fail("contexts["+c.Name+"]", "duplicate context", nil)
		}
		v.contexts[c.Name] = true
	}
	return v
}

func (v *validator) walk(s domain.State, root bool) {
	v.states[s.ID] = true
	for name := range s.On {
		v.transitions[name] = true
	}
	if !s.IsGroup() && !root {
		v.leaves = append(v.leaves, s.ID)
	}
	for _, child := range s.States {
		v.walk(child, false)
	}
}

func (v *validator) fail(key, reason string, value any) {
	v.errs = append(v.errs, &ValidationError{Key: key, Reason: reason, Value: value})
}

// checkIntents ensures declared intents and triggers and transition names match.
func (v *validator) checkIntents() {
	intents := toSet(v.cfg.Intents())
	for _, name := range sortedKeys(intents) {
		if !v.transitions[name] {
			v.fail("intents["+name+"]", "intent is not used by any transition", nil)
		}
		if v.triggers[name] {
			v.fail("intents["+name+"]", "name is declared both as intent and trigger", nil)
		}
	}
	for _, name := range sortedKeys(v.triggers) {
		if !v.transitions[name] {
			v.fail("triggers["+name+"]", "trigger is not used by any transition", nil)
		}
	}
	for _, name := range sortedKeys(v.transitions) {
		if !intents[name] && !v.triggers[name] {
			v.fail("transitions["+name+"]", "transition is neither a declared intent nor a trigger", nil)
		}
	}
}

// checkActions ensures actions and states match one to one on leaves.
func (v *validator) checkActions() {
	for _, a := range v.cfg.Actions {
		key := "actions[" + a.Name + "]"
		if !v.states[a.Name] {
			v.fail(key, "action is not bound to any state", nil)
		}
		if a.Trigger != "" && !v.triggers[a.Trigger] {
			v.fail(key+".trigger", "trigger is not declared", a.Trigger)
		}
		if v.contexts[a.Name] {
			v.fail(key, "action name collides with a context name", nil)
		}
	}
	for _, leaf := range v.leaves {
		if _, ok := v.actions[leaf]; !ok {
			v.fail("states["+leaf+"]", "leaf state has no action", nil)
		}
	}
}

func (v *validator) checkHandlers(catalog HandlerCatalog) {
	if catalog == nil {
		return
	}
	for _, a := range v.cfg.Actions {
		if a.Handler != "" && !catalog.Has(a.Handler) {
			v.fail("actions["+a.Name+"].handler", "handler is not registered", a.Handler)
		}
	}
}

// checkContextFlow ensures every input has a producer and every output a consumer.
func (v *validator) checkContextFlow() {
	entityBound := make(map[string]bool)
	for _, c := range v.cfg.Contexts {
		if c.EntityRole != "" {
			entityBound[c.Name] = true
		}
	}
	intentBound := make(map[string]bool)
	for _, ic := range v.cfg.IntentsContexts {
		for _, as := range ic.Associations {
			for _, c := range as.Contexts {
				intentBound[c] = true
			}
		}
	}

	for _, a := range v.cfg.Actions {
		for _, in := range a.InputContextNames {
			if entityBound[in] || intentBound[in] || v.producedByOther(a.Name, in) {
				continue
			}
			v.fail("actions["+a.Name+"].input_context_names", "context is not produced by any other action or intent", in)
		}
		if a.Final {
			continue
		}
		for _, out := range a.OutputContextNames {
			if !v.consumedByOther(a.Name, out) {
				v.fail("actions["+a.Name+"].output_context_names", "context is not consumed by any other action", out)
			}
		}
	}
}

func (v *validator) producedByOther(action, context string) bool {
	for _, a := range v.cfg.Actions {
		if a.Name != action && a.Produces(context) {
			return true
		}
	}
	return false
}

func (v *validator) consumedByOther(action, context string) bool {
	for _, a := range v.cfg.Actions {
		if a.Name == action {
			continue
		}
		for _, in := range a.InputContextNames {
			if in == context {
				return true
			}
		}
	}
	return false
}

func (v *validator) checkDeclaredContexts() {
	for _, a := range v.cfg.Actions {
		for _, names := range [][]string{a.InputContextNames, a.OutputContextNames} {
			for _, c := range names {
				if !v.contexts[c] {
					v.fail("actions["+a.Name+"]", "context is not declared", c)
				}
			}
		}
	}
	if _, err := ContextTypes(v.cfg); err != nil {
		v.errs = append(v.errs, ValidationErrors(err)...)
	}
}

func (v *validator) checkIntentsContexts() {
	for _, ic := range v.cfg.IntentsContexts {
		key := "intents_contexts[" + ic.Intent + "]"
		if !v.secondary[ic.Intent] {
			v.fail(key, "intent is not a secondary intent", nil)
		}
		for _, as := range ic.Associations {
			if _, ok := v.actions[as.Action]; !ok {
				v.fail(key+".associations", "action is not declared", as.Action)
			}
			for _, c := range as.Contexts {
				if !v.contexts[c] {
					v.fail(key+".associations["+as.Action+"]", "context is not declared", c)
				}
			}
		}
	}
}

func (v *validator) checkUnknown() {
	seen := make(map[string]bool)
	for _, ans := range v.cfg.Unknown.Answers {
		key := "unknown.answers[" + ans.Action + "]"
		if seen[ans.Action] {
			v.fail(key, "duplicate unknown answer", nil)
		}
		seen[ans.Action] = true
		if _, ok := v.actions[ans.Action]; !ok {
			v.fail(key, "action is not declared", nil)
		}
		if ans.ExitAction != "" {
			if _, ok := v.actions[ans.ExitAction]; !ok {
				v.fail(key+".exit_action", "action is not declared", ans.ExitAction)
			}
		}
		if ans.RetryNb < 0 {
			v.fail(key+".retry_nb", "must not be negative", ans.RetryNb)
		}
		if ans.AnswerID == "" && ans.Text == "" {
			v.fail(key, "fallback has neither answer id nor text", nil)
		}
	}
}

func (v *validator) checkSettings() {
	if v.cfg.Settings.RepetitionNb < 0 {
		v.fail("settings.repetition_nb", "must not be negative", v.cfg.Settings.RepetitionNb)
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary renders a one-line outcome of a validation, used by the CLI.
func Summary(err error) string {
	errs := ValidationErrors(err)
	if errs == nil {
		if err == nil {
			return "ok"
		}
		return err.Error()
	}
	return fmt.Sprintf("%d problem(s)", len(errs))
}
