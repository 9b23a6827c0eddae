package runtime

import (
	"context"

	"github.com/aretw0/tick/pkg/domain"
)

// unknown handles an intent that could not be classified. The fallback is the
// one of the most recently executed action that declares one.
func (t *turn) unknown(ctx context.Context, session domain.Session) (Result, error) {
	answer, ok := t.nearestAnswer(session)
	if !ok {
		t.logger.Debug("unknown intent without fallback")
		t.emitUnknown(ctx, "", 0, false)
		return Result{Session: session}, nil
	}

	repeated := 1
	if session.Unknown != nil && session.Unknown.Answer.Action == answer.Action {
		repeated = session.Unknown.Repeated + 1
	}
	t.logger.Debug("unknown intent", "action", answer.Action, "repeated", repeated, "max", answer.RetryNb)

	if repeated > answer.RetryNb {
		if answer.ExitAction == "" {
			t.emitUnknown(ctx, answer.Action, repeated, false)
			return Result{}, &domain.RetryExceededError{Action: answer.Action, Retries: answer.RetryNb}
		}
		t.emitUnknown(ctx, answer.Action, repeated, true)
		session = session.WithUnknown(nil).PushObjective(answer.ExitAction)
		return t.drive(ctx, session)
	}

	if answer.AnswerID != "" {
		if err := t.sender.SendByID(ctx, answer.AnswerID, true); err != nil {
			return Result{}, err
		}
	} else if err := t.sender.SendPlainText(ctx, answer.Text, true); err != nil {
		return Result{}, err
	}

	t.emitUnknown(ctx, answer.Action, repeated, false)
	session = session.WithUnknown(&domain.UnknownHandlingStep{Repeated: repeated, Answer: answer})
	return Result{Session: session}, nil
}

// nearestAnswer scans the executed actions from newest to oldest.
func (t *turn) nearestAnswer(session domain.Session) (domain.UnknownAnswerConfig, bool) {
	for i := len(session.RanHandlers) - 1; i >= 0; i-- {
		if answer, ok := t.story.UnknownAnswer(session.RanHandlers[i]); ok {
			return answer, true
		}
	}
	return domain.UnknownAnswerConfig{}, false
}
