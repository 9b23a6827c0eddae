package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Type: t, StoryID: "game"}
}

func TestChainHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnTurnStart: func(context.Context, *domain.TurnEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnTurnStart: func(context.Context, *domain.TurnEvent) { calls = append(calls, "b") },
		OnUnknown:   func(context.Context, *domain.UnknownEvent) { calls = append(calls, "unknown") },
	}

	h := ChainHooks(a, domain.LifecycleHooks{}, b)
	h.OnTurnStart(context.Background(), &domain.TurnEvent{})
	h.OnUnknown(context.Background(), &domain.UnknownEvent{})

	assert.Equal(t, []string{"a", "b", "unknown"}, calls)
	assert.Nil(t, h.OnActionLeave)
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := m.Hooks()
	ctx := context.Background()

	h.OnTurnEnd(ctx, &domain.TurnEvent{EventBase: base(domain.EventTurnEnd)})
	h.OnTurnEnd(ctx, &domain.TurnEvent{EventBase: base(domain.EventTurnEnd), Finished: true})
	h.OnTurnEnd(ctx, &domain.TurnEvent{EventBase: base(domain.EventTurnEnd), Err: errors.New("boom")})
	h.OnActionEnter(ctx, &domain.ActionEvent{EventBase: base(domain.EventActionEnter), Action: "ASK"})
	h.OnActionEnter(ctx, &domain.ActionEvent{EventBase: base(domain.EventActionEnter), Action: "ASK"})
	h.OnHandlerReturn(ctx, &domain.HandlerEvent{EventBase: base(domain.EventHandlerReturn), Handler: "dev-tools:do_nothing"})
	h.OnUnknown(ctx, &domain.UnknownEvent{EventBase: base(domain.EventUnknown), Exited: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("game", OutcomeOngoing)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("game", OutcomeFinished)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("game", OutcomeError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Actions.WithLabelValues("game", "ASK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandlerCalls.WithLabelValues("dev-tools:do_nothing", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unknown.WithLabelValues("game", "true")))

	// Registered collectors are gathered.
	n, err := testutil.GatherAndCount(reg, "tick_turns_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMetrics_InstrumentHandlers(t *testing.T) {
	m := NewMetrics(nil)
	reg, err := registry.NewRegistry(registry.DevTools())
	require.NoError(t, err)

	repo := m.InstrumentHandlers(reg)
	_, err = repo.Invoke(context.Background(), "dev-tools:do_nothing", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(m.HandlerDuration))
	assert.True(t, hasHandler(repo, "dev-tools:set_context_1"))
	assert.False(t, hasHandler(repo, "dev-tools:nope"))
}

func TestTracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := tp.Tracer(TracerName)

	reg, err := registry.NewRegistry(registry.DevTools())
	require.NoError(t, err)
	repo := TracedHandlers(reg, tracer)
	hooks := TraceHooks()

	ctx, span := StartTurn(context.Background(), tracer, "game", "conv-1", "start")
	hooks.OnActionEnter(ctx, &domain.ActionEvent{EventBase: base(domain.EventActionEnter), Action: "ASK", Objective: "ASK"})
	_, err = repo.Invoke(ctx, "dev-tools:do_nothing", nil)
	require.NoError(t, err)
	_, err = repo.Invoke(ctx, "dev-tools:missing", nil)
	require.Error(t, err)
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{EventBase: base(domain.EventTurnEnd), State: "ASK"})
	EndSpan(span, nil)

	spans := sr.Ended()
	require.Len(t, spans, 3)

	ok, failed, turn := spans[0], spans[1], spans[2]
	assert.Equal(t, SpanHandler, ok.Name())
	assert.Equal(t, codes.Unset, ok.Status().Code)
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Equal(t, turn.SpanContext().SpanID(), ok.Parent().SpanID())

	assert.Equal(t, SpanTurn, turn.Name())
	require.Len(t, turn.Events(), 1)
	assert.Equal(t, string(domain.EventActionEnter), turn.Events()[0].Name)
	assert.Contains(t, turn.Attributes(), AttrState.String("ASK"))
	assert.Contains(t, turn.Attributes(), AttrConversation.String("conv-1"))
}

func TestNewStdoutProvider(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewStdoutProvider(&buf)
	require.NoError(t, err)

	_, span := tp.Tracer(TracerName).Start(context.Background(), SpanTurn)
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), SpanTurn)
}
