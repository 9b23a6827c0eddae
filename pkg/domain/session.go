package domain

import "maps"

// Session is the snapshot of one conversation between two turns.
// It is a value: every modifier returns a new Session and never shares the
// receiver's slices or maps, so a snapshot handed out stays valid forever.
type Session struct {
	// CurrentState is the id of the state the conversation stands on.
	CurrentState string `json:"current_state"`

	// RanHandlers lists the executed action names, oldest first.
	RanHandlers []string `json:"ran_handlers"`

	// Contexts holds the accumulated values. A nil value is an explicit absence.
	Contexts map[string]any `json:"contexts"`

	// Objectives is the stack of pending primary objectives, top last.
	Objectives []string `json:"objectives"`

	// Unknown tracks consecutive unknown intents for the same fallback.
	Unknown *UnknownHandlingStep `json:"unknown,omitempty"`

	// Handling tracks consecutive turns awaiting on the same action.
	Handling *HandlingStep `json:"handling,omitempty"`

	// Finished is set once a final action has run.
	Finished bool `json:"finished"`
}

// UnknownHandlingStep counts the unknown intents received in a row for one fallback.
type UnknownHandlingStep struct {
	Repeated int                 `json:"repeated"`
	Answer   UnknownAnswerConfig `json:"answer"`
}

// HandlingStep counts the turns ending on the same awaiting action.
type HandlingStep struct {
	Action   string `json:"action"`
	Repeated int    `json:"repeated"`
}

// NewSession creates the empty session of a conversation standing on state.
func NewSession(state string) Session {
	return Session{
		CurrentState: state,
		RanHandlers:  []string{},
		Contexts:     map[string]any{},
		Objectives:   []string{},
	}
}

// Clone returns a deep copy of the session bookkeeping.
// Context values are copied by reference; they are never mutated in place.
func (s Session) Clone() Session {
	out := s
	if s.RanHandlers != nil {
		out.RanHandlers = append(make([]string, 0, len(s.RanHandlers)), s.RanHandlers...)
	}
	if s.Objectives != nil {
		out.Objectives = append(make([]string, 0, len(s.Objectives)), s.Objectives...)
	}
	if s.Contexts != nil {
		out.Contexts = maps.Clone(s.Contexts)
	}
	if s.Unknown != nil {
		u := *s.Unknown
		out.Unknown = &u
	}
	if s.Handling != nil {
		h := *s.Handling
		out.Handling = &h
	}
	return out
}

// WithState returns a copy standing on state.
func (s Session) WithState(state string) Session {
	out := s.Clone()
	out.CurrentState = state
	return out
}

// WithContexts returns a copy with values merged into the contexts.
// Later values for the same name overwrite earlier ones.
func (s Session) WithContexts(values map[string]any) Session {
	out := s.Clone()
	if out.Contexts == nil {
		out.Contexts = make(map[string]any, len(values))
	}
	for k, v := range values {
		out.Contexts[k] = v
	}
	return out
}

// HasContext reports whether the context is set, including as an explicit absence.
func (s Session) HasContext(name string) bool {
	_, ok := s.Contexts[name]
	return ok
}

// WithRan returns a copy with the action appended to RanHandlers.
func (s Session) WithRan(action string) Session {
	out := s.Clone()
	out.RanHandlers = append(out.RanHandlers, action)
	return out
}

// LastRan returns the most recently executed action.
func (s Session) LastRan() (string, bool) {
	if len(s.RanHandlers) == 0 {
		return "", false
	}
	return s.RanHandlers[len(s.RanHandlers)-1], true
}

// TopObjective returns the pending objective on top of the stack.
func (s Session) TopObjective() (string, bool) {
	if len(s.Objectives) == 0 {
		return "", false
	}
	return s.Objectives[len(s.Objectives)-1], true
}

// PushObjective returns a copy with id on top of the objective stack.
// Pushing the id already on top is a no-op.
func (s Session) PushObjective(id string) Session {
	if top, ok := s.TopObjective(); ok && top == id {
		return s.Clone()
	}
	out := s.Clone()
	out.Objectives = append(out.Objectives, id)
	return out
}

// PopObjective returns a copy without the top objective.
func (s Session) PopObjective() Session {
	out := s.Clone()
	if len(out.Objectives) > 0 {
		out.Objectives = out.Objectives[:len(out.Objectives)-1]
	}
	return out
}

// WithUnknown returns a copy with the unknown handling step replaced (nil clears it).
func (s Session) WithUnknown(step *UnknownHandlingStep) Session {
	out := s.Clone()
	out.Unknown = nil
	if step != nil {
		u := *step
		out.Unknown = &u
	}
	return out
}

// WithHandling returns a copy with the handling step replaced (nil clears it).
func (s Session) WithHandling(step *HandlingStep) Session {
	out := s.Clone()
	out.Handling = nil
	if step != nil {
		h := *step
		out.Handling = &h
	}
	return out
}

// WithFinished returns a copy with the finished flag set.
func (s Session) WithFinished(finished bool) Session {
	out := s.Clone()
	out.Finished = finished
	return out
}
