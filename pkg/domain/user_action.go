package domain

// UserAction is the input of one turn: the recognized intent or fired trigger,
// with the context values extracted by the NLU.
type UserAction struct {
	Name string `json:"name"`

	// Trigger marks Name as a trigger rather than an intent.
	Trigger bool `json:"trigger,omitempty"`

	// Contexts are values keyed by context name.
	Contexts map[string]any `json:"contexts,omitempty"`

	// Entities are values keyed by entity role, mapped through Context.EntityRole.
	Entities map[string]any `json:"entities,omitempty"`
}

// Intent builds the user action for a recognized intent.
func Intent(name string, contexts map[string]any) UserAction {
	return UserAction{Name: name, Contexts: contexts}
}

// Trigger builds the user action for a fired trigger.
func Trigger(name string) UserAction {
	return UserAction{Name: name, Trigger: true}
}

// Event returns the typed transition key of the action.
func (a UserAction) Event() Event {
	if a.Trigger {
		return TriggerEvent(a.Name)
	}
	return IntentEvent(a.Name)
}
