package dsl

import "github.com/aretw0/tick/pkg/domain"

// StateBuilder configures a state and its children.
type StateBuilder struct {
	builder  *Builder
	state    domain.State
	children []*StateBuilder
}

// Initial sets the child entered when the state is targeted.
func (s *StateBuilder) Initial(id string) *StateBuilder {
	s.state.Initial = id
	return s
}

// On adds a transition on an intent or trigger. Target is "#ID" or "ID".
func (s *StateBuilder) On(event, target string) *StateBuilder {
	if s.state.On == nil {
		s.state.On = make(map[string]string)
	}
	s.state.On[event] = target
	return s
}

// State declares a child state. Declaring an existing id returns it.
func (s *StateBuilder) State(id string) *StateBuilder {
	for _, c := range s.children {
		if c.state.ID == id {
			return c
		}
	}
	c := &StateBuilder{builder: s.builder, state: domain.State{ID: id}}
	s.children = append(s.children, c)
	return c
}

// Action declares a leaf state and the action run on it.
func (s *StateBuilder) Action(name string) *ActionBuilder {
	leaf := s.State(name)
	for _, a := range s.builder.actions {
		if a.action.Name == name {
			return a
		}
	}
	a := &ActionBuilder{state: leaf, action: domain.Action{Name: name}}
	s.builder.actions = append(s.builder.actions, a)
	return a
}

func (s *StateBuilder) build() domain.State {
	out := s.state
	out.States = nil
	for _, c := range s.children {
		out.States = append(out.States, c.build())
	}
	return out
}

// ActionBuilder configures an action.
type ActionBuilder struct {
	state  *StateBuilder
	action domain.Action
}

// Describe sets the description of the action.
func (a *ActionBuilder) Describe(text string) *ActionBuilder {
	a.action.Description = text
	return a
}

// Answer sets the id of the answer sent when the action runs.
func (a *ActionBuilder) Answer(id string) *ActionBuilder {
	a.action.AnswerID = id
	return a
}

// Handler sets the handler invoked when the action runs, as "provider:name".
func (a *ActionBuilder) Handler(name string) *ActionBuilder {
	a.action.Handler = name
	return a
}

// Trigger sets the trigger fired once the action ran.
func (a *ActionBuilder) Trigger(name string) *ActionBuilder {
	a.action.Trigger = name
	return a
}

// Inputs adds contexts the action needs.
func (a *ActionBuilder) Inputs(names ...string) *ActionBuilder {
	a.action.InputContextNames = append(a.action.InputContextNames, names...)
	return a
}

// Outputs adds contexts the action produces.
func (a *ActionBuilder) Outputs(names ...string) *ActionBuilder {
	a.action.OutputContextNames = append(a.action.OutputContextNames, names...)
	return a
}

// Final marks the action as ending the conversation.
func (a *ActionBuilder) Final() *ActionBuilder {
	a.action.Final = true
	return a
}

// Repeatable lets the planner run the action again.
func (a *ActionBuilder) Repeatable() *ActionBuilder {
	a.action.Repeatable = true
	return a
}

// Redirect sets the story the conversation continues in after the action.
func (a *ActionBuilder) Redirect(story string) *ActionBuilder {
	a.action.TargetStory = story
	return a
}

// On adds a transition on the leaf state of the action.
func (a *ActionBuilder) On(event, target string) *ActionBuilder {
	a.state.On(event, target)
	return a
}

// FallbackBuilder configures the answer to unknown intents.
type FallbackBuilder struct {
	answer domain.UnknownAnswerConfig
}

// Answer sets the id of the fallback answer.
func (f *FallbackBuilder) Answer(id string) *FallbackBuilder {
	f.answer.AnswerID = id
	return f
}

// Text sets a literal fallback text.
func (f *FallbackBuilder) Text(text string) *FallbackBuilder {
	f.answer.Text = text
	return f
}

// Retry sets how many unknown intents are answered before exiting.
func (f *FallbackBuilder) Retry(n int) *FallbackBuilder {
	f.answer.RetryNb = n
	return f
}

// Exit sets the action run once the retries are exhausted.
func (f *FallbackBuilder) Exit(action string) *FallbackBuilder {
	f.answer.ExitAction = action
	return f
}
