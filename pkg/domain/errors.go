package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a conversation id cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrHandlerNotFound is returned when a handler name is not registered.
var ErrHandlerNotFound = errors.New("handler not found")

// ErrNoProducer is wrapped by UnplannableError when no action produces a required context.
var ErrNoProducer = errors.New("no producer for context")

// ErrLabelNotFound is returned by senders that cannot resolve a label id.
var ErrLabelNotFound = errors.New("label not found")

// ErrStoryNotFound is returned by loaders for an unknown story id.
var ErrStoryNotFound = errors.New("story not found")

// ErrStateNotFound is returned when a state id is not part of the state tree.
var ErrStateNotFound = errors.New("state not found")

// RetryExceededError is returned when unknown intents exhausted a fallback that
// has no exit action. The caller is expected to hand the conversation off.
type RetryExceededError struct {
	Action  string
	Retries int
}

func (e *RetryExceededError) Error() string {
	return fmt.Sprintf("unknown intent retries exceeded for action %q (max %d)", e.Action, e.Retries)
}

// UnplannableError is returned when the planner cannot satisfy a target's inputs.
type UnplannableError struct {
	Target  string
	Context string
	Err     error
}

func (e *UnplannableError) Error() string {
	return fmt.Sprintf("cannot plan %q: context %q: %v", e.Target, e.Context, e.Err)
}

func (e *UnplannableError) Unwrap() error {
	return e.Err
}

// HandlerError wraps a handler repository failure.
type HandlerError struct {
	Action  string
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %q of action %q failed: %v", e.Handler, e.Action, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// TransitionError is returned when an event leads nowhere from the current state.
type TransitionError struct {
	State string
	Event Event
	Err   error
}

func (e *TransitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no transition for %s from state %q: %v", e.Event, e.State, e.Err)
	}
	return fmt.Sprintf("no transition for %s from state %q", e.Event, e.State)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// RepetitionError is returned when an awaiting action was asked too many times
// and the story has no redirect story.
type RepetitionError struct {
	Action   string
	Repeated int
}

func (e *RepetitionError) Error() string {
	return fmt.Sprintf("action %q repeated %d times", e.Action, e.Repeated)
}

// LoopError is returned when a turn chain runs more steps than allowed.
type LoopError struct {
	Steps int
	Last  string
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("turn exceeded %d steps (last action %q)", e.Steps, e.Last)
}
