package statemachine

import (
	"fmt"

	"github.com/aretw0/tick/pkg/domain"
)

// Root returns the id of the root state.
func (m *Machine) Root() string {
	return m.root.ID
}

// Node returns the compiled state.
func (m *Machine) Node(id string) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Contains reports whether the state exists.
func (m *Machine) Contains(id string) bool {
	_, ok := m.nodes[id]
	return ok
}

// Default returns the state a new conversation stands on: the Global state when
// the story declares one, the root otherwise.
func (m *Machine) Default() string {
	if _, ok := m.nodes[domain.GlobalState]; ok {
		return domain.GlobalState
	}
	return m.root.ID
}

// Parent returns the id of the state's parent.
func (m *Machine) Parent(id string) (string, bool) {
	n, ok := m.nodes[id]
	if !ok || n.Parent == nil {
		return "", false
	}
	return n.Parent.ID, true
}

// Ancestors returns the ids of the state's ancestors, nearest first.
func (m *Machine) Ancestors(id string) []string {
	n, ok := m.nodes[id]
	if !ok {
		return nil
	}
	var out []string
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p.ID)
	}
	return out
}

// IsDescendant reports whether id is nested, at any depth, in ancestor.
func (m *Machine) IsDescendant(id, ancestor string) bool {
	n, ok := m.nodes[id]
	if !ok {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.ID == ancestor {
			return true
		}
	}
	return false
}

// Initial descends from the state through initial states down to a leaf, or to
// the first group that declares no initial state.
func (m *Machine) Initial(id string) (string, error) {
	n, ok := m.nodes[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrStateNotFound, id)
	}
	return initialLeaf(n).ID, nil
}

// Next follows the transition for ev from the state, bubbling up to the
// ancestors until one declares it. The target is resolved through Initial.
// direct is true when the transition is declared on the state itself.
func (m *Machine) Next(id string, ev domain.Event) (target string, direct bool, ok bool) {
	n, found := m.nodes[id]
	if !found {
		return "", false, false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if t, has := cur.transitions[ev]; has {
			return initialLeaf(t).ID, cur == n, true
		}
	}
	return "", false, false
}

// Leaves returns the states without nested states, in declaration order.
func (m *Machine) Leaves() []string {
	var out []string
	for _, n := range m.order {
		if n.IsLeaf() {
			out = append(out, n.ID)
		}
	}
	return out
}

// States returns every state id in declaration order.
func (m *Machine) States() []string {
	out := make([]string, len(m.order))
	for i, n := range m.order {
		out[i] = n.ID
	}
	return out
}

// Events returns every transition key declared in the tree.
func (m *Machine) Events() []domain.Event {
	return append([]domain.Event(nil), m.events...)
}

// Transitions returns the transitions declared on the state itself, keyed by event,
// with their literal target ids.
func (m *Machine) Transitions(id string) map[domain.Event]string {
	n, ok := m.nodes[id]
	if !ok {
		return nil
	}
	out := make(map[domain.Event]string, len(n.transitions))
	for ev, t := range n.transitions {
		out[ev] = t.ID
	}
	return out
}

// TriggerReachable reports whether the state is the target of a trigger
// transition, or nested in one.
func (m *Machine) TriggerReachable(id string) bool {
	return m.trigger[id]
}

// Order returns the declaration index of the state, or -1.
func (m *Machine) Order(id string) int {
	n, ok := m.nodes[id]
	if !ok {
		return -1
	}
	return n.Order
}
