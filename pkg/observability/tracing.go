package observability

import (
	"context"
	"io"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of the engine spans.
const TracerName = "github.com/aretw0/tick"

// Span and attribute names.
const (
	SpanTurn    = "tick.turn"
	SpanHandler = "tick.handler"

	AttrConversation = attribute.Key("tick.conversation_id")
	AttrStory        = attribute.Key("tick.story_id")
	AttrInput        = attribute.Key("tick.input")
	AttrState        = attribute.Key("tick.state")
	AttrAction       = attribute.Key("tick.action")
	AttrHandler      = attribute.Key("tick.handler")
	AttrFinished     = attribute.Key("tick.finished")
)

// StartTurn opens the span of one turn.
func StartTurn(ctx context.Context, tracer trace.Tracer, storyID, conversationID, input string) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanTurn, trace.WithAttributes(
		AttrStory.String(storyID),
		AttrConversation.String(conversationID),
		AttrInput.String(input),
	))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TraceHooks returns hooks adding the turn progress as events of the span
// carried by the context.
func TraceHooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionEnter: func(ctx context.Context, e *domain.ActionEvent) {
			trace.SpanFromContext(ctx).AddEvent(string(e.Type), trace.WithAttributes(
				AttrAction.String(e.Action),
				attribute.String("tick.objective", e.Objective),
			))
		},
		OnUnknown: func(ctx context.Context, e *domain.UnknownEvent) {
			trace.SpanFromContext(ctx).AddEvent(string(e.Type), trace.WithAttributes(
				AttrAction.String(e.Action),
				attribute.Int("tick.repeated", e.Repeated),
				attribute.Bool("tick.exited", e.Exited),
			))
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			trace.SpanFromContext(ctx).SetAttributes(
				AttrState.String(e.State),
				AttrFinished.Bool(e.Finished),
			)
		},
	}
}

// TracedHandlers wraps repo so that every invocation runs in its own span.
func TracedHandlers(repo ports.HandlerRepository, tracer trace.Tracer) ports.HandlerRepository {
	return &tracedHandlers{next: repo, tracer: tracer}
}

type tracedHandlers struct {
	next   ports.HandlerRepository
	tracer trace.Tracer
}

func (t *tracedHandlers) Invoke(ctx context.Context, handler string, contexts map[string]any) (map[string]any, error) {
	ctx, span := t.tracer.Start(ctx, SpanHandler, trace.WithAttributes(AttrHandler.String(handler)))
	out, err := t.next.Invoke(ctx, handler, contexts)
	EndSpan(span, err)
	return out, err
}

func (t *tracedHandlers) Has(handler string) bool {
	return hasHandler(t.next, handler)
}

// NewStdoutProvider creates a tracer provider printing spans to w.
func NewStdoutProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp)), nil
}
