package runtime

import (
	"context"
	"time"

	"github.com/aretw0/tick/pkg/domain"
)

func (p *Processor) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, StoryID: p.story.ID()}
}

func (p *Processor) emitTurnStart(ctx context.Context, action domain.UserAction, session domain.Session) {
	if p.hooks.OnTurnStart != nil {
		p.hooks.OnTurnStart(ctx, &domain.TurnEvent{
			EventBase: p.base(domain.EventTurnStart),
			Input:     action.Name,
			State:     session.CurrentState,
		})
	}
}

func (p *Processor) emitTurnEnd(ctx context.Context, action domain.UserAction, res Result, err error) {
	if p.hooks.OnTurnEnd != nil {
		p.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
			EventBase: p.base(domain.EventTurnEnd),
			Input:     action.Name,
			State:     res.Session.CurrentState,
			Finished:  res.Finished,
			Err:       err,
		})
	}
}

func (p *Processor) emitActionEnter(ctx context.Context, a domain.Action, objective string) {
	if p.hooks.OnActionEnter != nil {
		p.hooks.OnActionEnter(ctx, &domain.ActionEvent{
			EventBase: p.base(domain.EventActionEnter),
			Action:    a.Name,
			Objective: objective,
			Silent:    a.IsSilent(),
		})
	}
}

func (p *Processor) emitActionLeave(ctx context.Context, a domain.Action, objective string) {
	if p.hooks.OnActionLeave != nil {
		p.hooks.OnActionLeave(ctx, &domain.ActionEvent{
			EventBase: p.base(domain.EventActionLeave),
			Action:    a.Name,
			Objective: objective,
			Silent:    a.IsSilent(),
		})
	}
}

func (p *Processor) emitHandlerCall(ctx context.Context, a domain.Action, input map[string]any) {
	if p.hooks.OnHandlerCall != nil {
		p.hooks.OnHandlerCall(ctx, &domain.HandlerEvent{
			EventBase: p.base(domain.EventHandlerCall),
			Action:    a.Name,
			Handler:   a.Handler,
			Input:     input,
		})
	}
}

func (p *Processor) emitHandlerReturn(ctx context.Context, a domain.Action, input, output map[string]any, err error) {
	if p.hooks.OnHandlerReturn != nil {
		p.hooks.OnHandlerReturn(ctx, &domain.HandlerEvent{
			EventBase: p.base(domain.EventHandlerReturn),
			Action:    a.Name,
			Handler:   a.Handler,
			Input:     input,
			Output:    output,
			IsError:   err != nil,
		})
	}
}

func (p *Processor) emitUnknown(ctx context.Context, action string, repeated int, exited bool) {
	if p.hooks.OnUnknown != nil {
		p.hooks.OnUnknown(ctx, &domain.UnknownEvent{
			EventBase: p.base(domain.EventUnknown),
			Action:    action,
			Repeated:  repeated,
			Exited:    exited,
		})
	}
}
