package domain

import (
	"reflect"
	"slices"
)

// SessionDiff represents the changes made to a session by one turn.
// It is serialized to JSON for clients that keep a local copy of the session.
type SessionDiff struct {
	ConversationID string `json:"conversation_id"`

	CurrentState *string `json:"current_state,omitempty"`

	// Contexts contains only changed or added keys. Removed keys are absent from
	// the new session and reported in Removed.
	Contexts map[string]any `json:"contexts,omitempty"`
	Removed  []string       `json:"removed,omitempty"`

	// Ran contains the action names appended to RanHandlers.
	Ran []string `json:"ran,omitempty"`

	// Objectives is the full stack when it changed.
	Objectives []string `json:"objectives,omitempty"`

	Finished *bool `json:"finished,omitempty"`
}

// Diff calculates the difference between two snapshots of a conversation.
// If old is nil, the diff describes the whole new session.
func Diff(conversationID string, old *Session, next Session) *SessionDiff {
	diff := &SessionDiff{ConversationID: conversationID}

	if old == nil || old.CurrentState != next.CurrentState {
		diff.CurrentState = &next.CurrentState
	}
	if old == nil || old.Finished != next.Finished {
		diff.Finished = &next.Finished
	}

	diff.Contexts, diff.Removed = diffContexts(old, next)
	diff.Ran = diffRan(old, next)

	if old == nil || !slices.Equal(old.Objectives, next.Objectives) {
		diff.Objectives = slices.Clone(next.Objectives)
		if diff.Objectives == nil {
			diff.Objectives = []string{}
		}
	}

	return diff
}

func diffContexts(old *Session, next Session) (map[string]any, []string) {
	delta := make(map[string]any)
	var removed []string

	if old == nil {
		for k, v := range next.Contexts {
			delta[k] = v
		}
	} else {
		for k, v := range next.Contexts {
			prev, ok := old.Contexts[k]
			if !ok || !reflect.DeepEqual(prev, v) {
				delta[k] = v
			}
		}
		for k := range old.Contexts {
			if _, ok := next.Contexts[k]; !ok {
				removed = append(removed, k)
			}
		}
		slices.Sort(removed)
	}

	if len(delta) == 0 {
		delta = nil
	}
	return delta, removed
}

// diffRan assumes RanHandlers is append-only; a rewritten history is reported whole.
func diffRan(old *Session, next Session) []string {
	if old == nil {
		return slices.Clone(next.RanHandlers)
	}
	n := len(old.RanHandlers)
	if len(next.RanHandlers) >= n && slices.Equal(old.RanHandlers, next.RanHandlers[:n]) {
		if len(next.RanHandlers) == n {
			return nil
		}
		return slices.Clone(next.RanHandlers[n:])
	}
	return slices.Clone(next.RanHandlers)
}

// IsEmpty checks if the diff contains any change.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentState == nil &&
		d.Finished == nil &&
		len(d.Contexts) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Ran) == 0 &&
		d.Objectives == nil
}
