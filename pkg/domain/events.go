package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart     EventType = "turn_start"
	EventTurnEnd       EventType = "turn_end"
	EventActionEnter   EventType = "action_enter"
	EventActionLeave   EventType = "action_leave"
	EventHandlerCall   EventType = "handler_call"
	EventHandlerReturn EventType = "handler_return"
	EventUnknown       EventType = "unknown"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	StoryID   string    `json:"story_id"`
}

// TurnEvent marks the start or the end of a processed turn.
type TurnEvent struct {
	EventBase
	Input    string `json:"input"`
	State    string `json:"state"`
	Finished bool   `json:"finished,omitempty"`
	Err      error  `json:"-"`
}

// ActionEvent represents entry into or exit from an action.
type ActionEvent struct {
	EventBase
	Action    string `json:"action"`
	Objective string `json:"objective"`
	Silent    bool   `json:"silent,omitempty"`
}

// HandlerEvent represents a handler invocation.
type HandlerEvent struct {
	EventBase
	Action  string         `json:"action"`
	Handler string         `json:"handler"`
	Input   map[string]any `json:"input,omitempty"`
	Output  map[string]any `json:"output,omitempty"`
	IsError bool           `json:"is_error,omitempty"`
}

// UnknownEvent reports an unknown intent and the fallback it was matched with.
type UnknownEvent struct {
	EventBase
	Action   string `json:"action,omitempty"`
	Repeated int    `json:"repeated"`
	Exited   bool   `json:"exited,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurnStart     func(context.Context, *TurnEvent)
	OnTurnEnd       func(context.Context, *TurnEvent)
	OnActionEnter   func(context.Context, *ActionEvent)
	OnActionLeave   func(context.Context, *ActionEvent)
	OnHandlerCall   func(context.Context, *HandlerEvent)
	OnHandlerReturn func(context.Context, *HandlerEvent)
	OnUnknown       func(context.Context, *UnknownEvent)
}
