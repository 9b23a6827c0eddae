package domain

import "fmt"

// EventKind distinguishes what moves the state machine.
type EventKind int

const (
	// EventIntent is an intent recognized from user input.
	EventIntent EventKind = iota
	// EventTrigger is an event fired by an executed action.
	EventTrigger
)

func (k EventKind) String() string {
	switch k {
	case EventIntent:
		return "intent"
	case EventTrigger:
		return "trigger"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a typed transition key.
type Event struct {
	Kind EventKind
	Name string
}

// IntentEvent returns the event for a recognized intent.
func IntentEvent(name string) Event {
	return Event{Kind: EventIntent, Name: name}
}

// TriggerEvent returns the event for a fired trigger.
func TriggerEvent(name string) Event {
	return Event{Kind: EventTrigger, Name: name}
}

func (e Event) String() string {
	return e.Kind.String() + ":" + e.Name
}
