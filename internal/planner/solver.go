// Package planner computes the secondary objectives of a turn: the ordered
// actions whose outputs satisfy the inputs of a target action.
//
// The search is a backward chaining over the context dependency graph. It is a
// pure function of the compiled story and the request: identical inputs always
// yield the identical plan.
package planner

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/tick/internal/compiler"
	"github.com/aretw0/tick/pkg/domain"
)

// Request describes one planning problem.
type Request struct {
	// Current is the state the conversation stands on.
	Current string
	// Target is the primary objective.
	Target string
	// Contexts are the known contexts; only their presence matters.
	Contexts map[string]any
	// Ran lists actions that must not be planned again, unless repeatable.
	Ran []string
}

// Solver implements ports.Planner over compiled stories.
type Solver struct{}

// NewSolver creates a solver. It holds no state and is safe for concurrent use.
func NewSolver() *Solver {
	return &Solver{}
}

// Solve implements ports.Planner.
func (s *Solver) Solve(story *compiler.Story, req Request) ([]string, error) {
	return Solve(story, req)
}

// Solve returns the actions to run, in order, ending with the target.
// A target without action yields an empty plan. Producers are ranked by the
// number of steps they add, then in-branch before trigger-reachable, then by
// declaration order.
func Solve(story *compiler.Story, req Request) ([]string, error) {
	target, ok := story.Action(req.Target)
	if !ok {
		if !story.Machine().Contains(req.Target) {
			return nil, fmt.Errorf("%w: %q", domain.ErrStateNotFound, req.Target)
		}
		return []string{}, nil
	}
	// Standing on the target already: nothing to chain.
	if req.Current == req.Target {
		return []string{target.Name}, nil
	}

	sr := newSearch(story, req)
	known := make(map[string]bool, len(req.Contexts))
	for k := range req.Contexts {
		known[k] = true
	}

	p, _, err := sr.plan(target, known, map[string]bool{}, false)
	if err != nil {
		return nil, err
	}
	return p.steps, nil
}

type search struct {
	story    *compiler.Story
	target   string
	scope    map[string]bool
	excluded map[string]bool
	// memo holds producer subplans that did not depend on the search path,
	// keyed by action and known contexts. A nil entry is an unviable producer.
	memo map[string]*subplan
}

func newSearch(story *compiler.Story, req Request) *search {
	sr := &search{
		story:    story,
		target:   req.Target,
		scope:    make(map[string]bool),
		excluded: make(map[string]bool),
		memo:     make(map[string]*subplan),
	}
	for _, id := range story.Machine().Ancestors(req.Target) {
		sr.scope[id] = true
	}
	for _, name := range req.Ran {
		if a, ok := story.Action(name); ok && !a.Repeatable {
			sr.excluded[name] = true
		}
	}
	return sr
}

// subplan is a candidate chain with what it makes known.
type subplan struct {
	steps []string
	known map[string]bool
}

// crosses reports whether the chain runs an action of the path.
func (p *subplan) crosses(path map[string]bool) bool {
	if p == nil {
		return false
	}
	for _, step := range p.steps {
		if path[step] {
			return true
		}
	}
	return false
}

// inBranch reports whether the state is a sibling of the target or of one of
// its ancestors.
func (sr *search) inBranch(name string) bool {
	parent, ok := sr.story.Machine().Parent(name)
	return ok && sr.scope[parent]
}

func (sr *search) visible(name string) bool {
	return sr.inBranch(name) || sr.story.Machine().TriggerReachable(name)
}

// plan chains the producers of the action's missing inputs, then the action.
// In strict mode an input without eligible producer makes the action unviable;
// otherwise the input is skipped and the best partial plan is returned.
// cut reports that a producer was skipped because it is already on the path.
func (sr *search) plan(a domain.Action, known, path map[string]bool, strict bool) (p *subplan, cut bool, err error) {
	path = with(path, a.Name)
	out := &subplan{known: clone(known)}

	for _, in := range a.InputContextNames {
		if out.known[in] {
			continue
		}

		best, candidates, inCut := sr.bestProducer(a.Name, in, out, path)
		cut = cut || inCut
		if best != nil {
			for _, step := range best.steps {
				if !contains(out.steps, step) {
					out.steps = append(out.steps, step)
				}
			}
			for k := range best.known {
				out.known[k] = true
			}
			continue
		}

		if strict {
			return nil, cut, nil
		}
		if candidates == 0 {
			return nil, cut, &domain.UnplannableError{Target: a.Name, Context: in, Err: domain.ErrNoProducer}
		}
	}

	out.steps = append(out.steps, a.Name)
	for _, c := range a.OutputContextNames {
		out.known[c] = true
	}
	return out, cut, nil
}

// bestProducer evaluates every eligible producer of the context. candidates
// counts the visible producers, eligible or not.
func (sr *search) bestProducer(consumer, context string, acc *subplan, path map[string]bool) (best *subplan, candidates int, cut bool) {
	var (
		bestCost   int
		bestBranch bool
	)

	for _, name := range sr.story.Producers(context) {
		if name == consumer || !sr.visible(name) {
			continue
		}
		candidates++
		if sr.excluded[name] {
			continue
		}
		if path[name] {
			cut = true
			continue
		}
		sub, subCut := sr.producerPlan(name, acc.known, path)
		cut = cut || subCut
		if sub == nil {
			continue
		}

		cost := 0
		for _, step := range sub.steps {
			if !contains(acc.steps, step) {
				cost++
			}
		}
		branch := sr.inBranch(name)

		// Producers come in declaration order: a later one only wins when strictly better.
		if best == nil || cost < bestCost || (cost == bestCost && branch && !bestBranch) {
			best, bestCost, bestBranch = sub, cost, branch
		}
	}
	return best, candidates, cut
}

// producerPlan plans a producer strictly, reusing the memoized subplan when it
// does not run an action of the current path.
func (sr *search) producerPlan(name string, known, path map[string]bool) (*subplan, bool) {
	key := memoKey(name, known)
	if sub, ok := sr.memo[key]; ok && !sub.crosses(path) {
		return sub, false
	}
	producer, _ := sr.story.Action(name)
	sub, cut, _ := sr.plan(producer, known, path, true)
	if !cut {
		sr.memo[key] = sub
	}
	return sub, cut
}

func memoKey(name string, known map[string]bool) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, k := range slices.Sorted(maps.Keys(known)) {
		sb.WriteByte(0)
		sb.WriteString(k)
	}
	return sb.String()
}

func with(set map[string]bool, key string) map[string]bool {
	out := clone(set)
	out[key] = true
	return out
}

func clone(set map[string]bool) map[string]bool {
	out := make(map[string]bool, len(set)+1)
	for k, v := range set {
		out[k] = v
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
