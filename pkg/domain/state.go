package domain

import "strings"

// State is a node of the story state tree as written in the configuration document.
// A state holding child states is a group; its Initial child is entered when the
// group is the target of a transition.
type State struct {
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Initial is the id of the child entered when this group is targeted.
	Initial string `json:"initial,omitempty" yaml:"initial,omitempty" mapstructure:"initial"`

	// States are the nested states, in declaration order.
	States []State `json:"states,omitempty" yaml:"states,omitempty" mapstructure:"states"`

	// On maps an intent or trigger name to a target state reference ("#ID" or "ID").
	On map[string]string `json:"on,omitempty" yaml:"on,omitempty" mapstructure:"on"`
}

// IsGroup reports whether the state contains nested states.
func (s State) IsGroup() bool {
	return len(s.States) > 0
}

// TargetID strips the reference prefix from a transition target.
func TargetID(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), TargetPrefix)
}
