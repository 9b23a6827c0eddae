package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/tick/internal/planner"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/schema"
)

// resolve handles a recognized intent or trigger.
func (t *turn) resolve(ctx context.Context, session domain.Session, action domain.UserAction) (Result, error) {
	session, err := t.applyContexts(session, action)
	if err != nil {
		return Result{}, err
	}

	objective, err := t.primaryObjective(session, action.Event())
	if err != nil {
		return Result{}, err
	}
	t.logger.Debug("primary objective", "input", action.Name, "objective", objective)
	session = session.PushObjective(objective)

	res, err := t.drive(ctx, session)
	if err != nil {
		return Result{}, err
	}
	if res.Redirect == "" {
		res.Session = res.Session.WithUnknown(nil)
	}
	return res, nil
}

// applyContexts merges the values carried by the user action: explicit
// contexts, entities mapped by role, then the contexts answered by the intent.
func (t *turn) applyContexts(session domain.Session, action domain.UserAction) (domain.Session, error) {
	updates := make(map[string]any, len(action.Contexts))
	for k, v := range action.Contexts {
		updates[k] = v
	}
	for _, c := range t.story.Contexts() {
		if c.EntityRole == "" {
			continue
		}
		if v, ok := action.Entities[c.EntityRole]; ok {
			updates[c.Name] = v
		}
	}
	if err := schema.ValidateValues(t.story.ContextTypes(), updates); err != nil {
		return domain.Session{}, fmt.Errorf("invalid user action %q: %w", action.Name, err)
	}

	if !action.Trigger {
		if last, ok := session.LastRan(); ok {
			for _, as := range t.story.Associations(action.Name) {
				if as.Action != last {
					continue
				}
				for _, c := range as.Contexts {
					if _, set := updates[c]; !set {
						updates[c] = nil
					}
				}
			}
		}
	}

	if len(updates) == 0 {
		return session, nil
	}
	return session.WithContexts(updates), nil
}

// primaryObjective follows the transition table from the current state, then
// from the pending objective, then falls back on the pending objective itself.
func (t *turn) primaryObjective(session domain.Session, ev domain.Event) (string, error) {
	m := t.story.Machine()
	current := session.CurrentState

	if target, direct, ok := m.Next(current, ev); ok {
		if direct && target == current {
			return "", &domain.TransitionError{State: current, Event: ev, Err: errSelfTransition}
		}
		return target, nil
	}

	if top, ok := session.TopObjective(); ok {
		if target, _, ok := m.Next(top, ev); ok {
			return target, nil
		}
		return top, nil
	}

	if _, ok := t.story.Action(current); ok {
		return current, nil
	}
	return "", &domain.TransitionError{State: current, Event: ev}
}

// drive runs the objective stack until an action awaits user input, a final
// action ends the conversation or the stack is empty.
func (t *turn) drive(ctx context.Context, session domain.Session) (Result, error) {
	for {
		target, ok := session.TopObjective()
		if !ok {
			return Result{Session: session.WithFinished(false)}, nil
		}

		plan, err := t.planner.Solve(t.story, planner.Request{
			Current:  session.CurrentState,
			Target:   target,
			Contexts: session.Contexts,
			Ran:      session.RanHandlers,
		})
		if err != nil {
			return Result{}, err
		}
		t.logger.Debug("secondary objectives", "objective", target, "plan", plan)

		restart := false
		for _, name := range plan {
			a, _ := t.story.Action(name)
			if t.ran[name] && !a.Repeatable {
				continue
			}

			t.steps++
			if t.steps > t.maxSteps {
				return Result{}, &domain.LoopError{Steps: t.maxSteps, Last: name}
			}

			next, redirect, err := t.guardRepetition(session, name)
			if err != nil {
				return Result{}, err
			}
			if redirect != "" {
				return Result{Redirect: redirect}, nil
			}
			session = next

			session, err = t.execute(ctx, session, a, target)
			if err != nil {
				return Result{}, err
			}

			if a.TargetStory != "" {
				t.logger.Debug("redirect", "action", a.Name, "story", a.TargetStory)
				return Result{Redirect: a.TargetStory}, nil
			}

			if name == target {
				session = session.PopObjective()
			}

			if a.Trigger != "" {
				ev := domain.TriggerEvent(a.Trigger)
				next, _, ok := t.story.Machine().Next(session.CurrentState, ev)
				if !ok {
					return Result{}, &domain.TransitionError{State: session.CurrentState, Event: ev}
				}
				t.logger.Debug("trigger", "action", a.Name, "trigger", a.Trigger, "objective", next)
				session = session.PushObjective(next)
				restart = true
				break
			}

			if a.Final {
				return Result{Session: session.WithFinished(true), Finished: true}, nil
			}
			if a.Handler == "" {
				// Waits for the user.
				return Result{Session: session.WithFinished(false)}, nil
			}
		}
		if restart {
			continue
		}

		// The target was skipped or has no action: it is done for this turn.
		if top, ok := session.TopObjective(); ok && top == target {
			session = session.PopObjective()
		}
	}
}

// guardRepetition counts the consecutive rounds executing the same action.
func (t *turn) guardRepetition(session domain.Session, action string) (domain.Session, string, error) {
	h := session.Handling
	if h == nil || h.Action != action {
		return session.WithHandling(&domain.HandlingStep{Action: action, Repeated: 1}), "", nil
	}

	settings := t.story.Settings()
	if h.Repeated > settings.Repetitions() {
		t.logger.Debug("action repeated too many times", "action", action, "repeated", h.Repeated)
		if settings.RedirectStory == "" {
			return domain.Session{}, "", &domain.RepetitionError{Action: action, Repeated: h.Repeated}
		}
		return domain.Session{}, settings.RedirectStory, nil
	}
	return session.WithHandling(&domain.HandlingStep{Action: action, Repeated: h.Repeated + 1}), "", nil
}
