package observability

import (
	"context"

	"github.com/aretw0/tick/pkg/domain"
)

// ChainHooks combines several sets of hooks. Callbacks fire in argument order.
func ChainHooks(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnTurnStart = chain(out.OnTurnStart, h.OnTurnStart)
		out.OnTurnEnd = chain(out.OnTurnEnd, h.OnTurnEnd)
		out.OnActionEnter = chain(out.OnActionEnter, h.OnActionEnter)
		out.OnActionLeave = chain(out.OnActionLeave, h.OnActionLeave)
		out.OnHandlerCall = chain(out.OnHandlerCall, h.OnHandlerCall)
		out.OnHandlerReturn = chain(out.OnHandlerReturn, h.OnHandlerReturn)
		out.OnUnknown = chain(out.OnUnknown, h.OnUnknown)
	}
	return out
}

func chain[E any](first, next func(context.Context, E)) func(context.Context, E) {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}
