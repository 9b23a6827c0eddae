package runtime

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/tick/pkg/domain"
)

// debugSeparator closes a debugged turn.
const debugSeparator = "---"

// execute runs one action: answer delivery, handler invocation and bookkeeping.
// Handler outputs are merged only when the invocation succeeds.
func (t *turn) execute(ctx context.Context, session domain.Session, a domain.Action, objective string) (domain.Session, error) {
	t.emitActionEnter(ctx, a, objective)
	debug := t.story.Debug()
	closing := t.endingRule && a.Final

	if debug {
		if err := t.sender.SendPlainText(ctx, debugMessage(a, "INPUT", session.Contexts), false); err != nil {
			return domain.Session{}, err
		}
	}

	if a.AnswerID != "" {
		end := !(a.IsSilent() || closing || debug)
		if err := t.sender.SendByID(ctx, a.AnswerID, end); err != nil {
			return domain.Session{}, fmt.Errorf("send answer %q of action %q: %w", a.AnswerID, a.Name, err)
		}
	} else if a.Final && !closing && !debug {
		if err := t.sender.End(ctx); err != nil {
			return domain.Session{}, err
		}
	}

	if a.Handler != "" {
		input := maps.Clone(session.Contexts)
		if input == nil {
			input = map[string]any{}
		}
		t.emitHandlerCall(ctx, a, input)
		t.logger.Debug("invoke handler", "action", a.Name, "handler", a.Handler)

		output, err := t.handlers.Invoke(ctx, a.Handler, input)
		t.emitHandlerReturn(ctx, a, input, output, err)
		if err != nil {
			return domain.Session{}, &domain.HandlerError{Action: a.Name, Handler: a.Handler, Err: err}
		}
		if len(output) > 0 {
			session = session.WithContexts(output)
		}
	}

	session = session.WithRan(a.Name).WithState(a.Name)
	t.ran[a.Name] = true

	if debug {
		if err := t.sender.SendPlainText(ctx, debugMessage(a, "OUTPUT", session.Contexts), false); err != nil {
			return domain.Session{}, err
		}
		if !a.IsSilent() {
			if err := t.sender.SendPlainText(ctx, debugSeparator, !closing); err != nil {
				return domain.Session{}, err
			}
		}
	}

	t.emitActionLeave(ctx, a, objective)
	return session, nil
}

// debugMessage renders the contexts around an action, keys sorted.
func debugMessage(a domain.Action, kind string, contexts map[string]any) string {
	parts := make([]string, 0, len(contexts))
	for _, k := range slices.Sorted(maps.Keys(contexts)) {
		v := contexts[k]
		if v == nil {
			parts = append(parts, k+" : null")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s : %v", k, v))
	}
	return fmt.Sprintf("[DEBUG] %s : %s CONTEXTS [ %s ]", a.Name, kind, strings.Join(parts, " | "))
}
