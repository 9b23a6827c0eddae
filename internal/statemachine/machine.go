// Package statemachine compiles the state tree of a story into an explicit node
// tree with typed transition keys, and answers the navigation questions of the
// processor and the planner.
package statemachine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/tick/pkg/domain"
)

// DefaultRootID names the root state when the document leaves it anonymous.
const DefaultRootID = "root"

// Node is a compiled state.
type Node struct {
	ID       string
	Parent   *Node
	Children []*Node
	Initial  *Node

	// Order is the depth-first declaration index of the state.
	Order int
	Depth int

	transitions map[domain.Event]*Node
}

// IsLeaf reports whether the node has no nested states.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Classifier tells whether a transition name is an intent or a trigger.
// It returns false for names the story does not declare.
type Classifier func(name string) (domain.EventKind, bool)

// Machine is an immutable compiled state tree. It is safe for concurrent use.
type Machine struct {
	root    *Node
	nodes   map[string]*Node
	order   []*Node
	events  []domain.Event
	trigger map[string]bool
}

// New compiles the state tree. Duplicate ids, unknown initial states, unknown
// transition targets and undeclared transition names are all reported at once.
func New(root domain.State, classify Classifier) (*Machine, error) {
	if classify == nil {
		classify = func(string) (domain.EventKind, bool) { return domain.EventIntent, true }
	}
	if root.ID == "" {
		root.ID = DefaultRootID
	}

	m := &Machine{
		nodes:   make(map[string]*Node),
		trigger: make(map[string]bool),
	}

	var errs []error
	m.root = m.build(root, nil, 0, &errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	m.resolveInitials(root, &errs)
	m.resolveTransitions(root, classify, &errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(m.events, func(i, j int) bool {
		if m.events[i].Kind != m.events[j].Kind {
			return m.events[i].Kind < m.events[j].Kind
		}
		return m.events[i].Name < m.events[j].Name
	})
	return m, nil
}

func (m *Machine) build(s domain.State, parent *Node, depth int, errs *[]error) *Node {
	if s.ID == "" {
		*errs = append(*errs, fmt.Errorf("state without id under %q", parentID(parent)))
		return nil
	}
	if _, dup := m.nodes[s.ID]; dup {
		*errs = append(*errs, fmt.Errorf("duplicate state id %q", s.ID))
		return nil
	}

	n := &Node{
		ID:          s.ID,
		Parent:      parent,
		Order:       len(m.order),
		Depth:       depth,
		transitions: make(map[domain.Event]*Node),
	}
	m.nodes[s.ID] = n
	m.order = append(m.order, n)

	for _, child := range s.States {
		if c := m.build(child, n, depth+1, errs); c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

func (m *Machine) resolveInitials(s domain.State, errs *[]error) {
	n := m.nodes[s.ID]
	if s.Initial != "" {
		initial, ok := m.nodes[domain.TargetID(s.Initial)]
		if !ok || initial.Parent != n {
			*errs = append(*errs, fmt.Errorf("state %q: initial %q is not a nested state", s.ID, s.Initial))
		} else {
			n.Initial = initial
		}
	}
	for _, child := range s.States {
		m.resolveInitials(child, errs)
	}
}

func (m *Machine) resolveTransitions(s domain.State, classify Classifier, errs *[]error) {
	n := m.nodes[s.ID]

	names := make([]string, 0, len(s.On))
	for name := range s.On {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		kind, ok := classify(name)
		if !ok {
			*errs = append(*errs, fmt.Errorf("state %q: transition %q is neither a declared intent nor a trigger", s.ID, name))
			continue
		}
		ref := s.On[name]
		target, ok := m.nodes[domain.TargetID(ref)]
		if !ok {
			*errs = append(*errs, fmt.Errorf("state %q: transition %q targets unknown state %q", s.ID, name, ref))
			continue
		}
		if leaf := initialLeaf(target); !leaf.IsLeaf() {
			*errs = append(*errs, fmt.Errorf("state %q: transition %q targets group %q without initial state", s.ID, name, target.ID))
			continue
		}

		ev := domain.Event{Kind: kind, Name: name}
		n.transitions[ev] = target
		if !m.hasEvent(ev) {
			m.events = append(m.events, ev)
		}
		if kind == domain.EventTrigger {
			m.markTrigger(target)
		}
	}

	for _, child := range s.States {
		m.resolveTransitions(child, classify, errs)
	}
}

func (m *Machine) hasEvent(ev domain.Event) bool {
	for _, e := range m.events {
		if e == ev {
			return true
		}
	}
	return false
}

func (m *Machine) markTrigger(n *Node) {
	m.trigger[n.ID] = true
	for _, c := range n.Children {
		m.markTrigger(c)
	}
}

func initialLeaf(n *Node) *Node {
	for n.Initial != nil {
		n = n.Initial
	}
	return n
}

func parentID(n *Node) string {
	if n == nil {
		return "<root>"
	}
	return n.ID
}
