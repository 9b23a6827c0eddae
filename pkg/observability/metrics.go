package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Turn outcomes used as label values.
const (
	OutcomeFinished = "finished"
	OutcomeOngoing  = "ongoing"
	OutcomeError    = "error"
)

// Metrics holds the engine collectors.
type Metrics struct {
	Turns           *prometheus.CounterVec
	Actions         *prometheus.CounterVec
	HandlerCalls    *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	Unknown         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tick_turns_total",
			Help: "Total number of processed turns",
		}, []string{"story", "outcome"}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tick_actions_total",
			Help: "Total number of executed actions",
		}, []string{"story", "action"}),
		HandlerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tick_handler_calls_total",
			Help: "Total number of handler invocations",
		}, []string{"handler", "error"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tick_handler_duration_seconds",
			Help:    "Duration of handler invocations",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"}),
		Unknown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tick_unknown_intents_total",
			Help: "Total number of unknown intents received",
		}, []string{"story", "exited"}),
	}
	if reg != nil {
		reg.MustRegister(m.Turns, m.Actions, m.HandlerCalls, m.HandlerDuration, m.Unknown)
	}
	return m
}

// Hooks returns lifecycle hooks feeding the counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			outcome := OutcomeOngoing
			switch {
			case e.Err != nil:
				outcome = OutcomeError
			case e.Finished:
				outcome = OutcomeFinished
			}
			m.Turns.WithLabelValues(e.StoryID, outcome).Inc()
		},
		OnActionEnter: func(_ context.Context, e *domain.ActionEvent) {
			m.Actions.WithLabelValues(e.StoryID, e.Action).Inc()
		},
		OnHandlerReturn: func(_ context.Context, e *domain.HandlerEvent) {
			m.HandlerCalls.WithLabelValues(e.Handler, strconv.FormatBool(e.IsError)).Inc()
		},
		OnUnknown: func(_ context.Context, e *domain.UnknownEvent) {
			m.Unknown.WithLabelValues(e.StoryID, strconv.FormatBool(e.Exited)).Inc()
		},
	}
}

// InstrumentHandlers wraps repo to observe the duration of every invocation.
func (m *Metrics) InstrumentHandlers(repo ports.HandlerRepository) ports.HandlerRepository {
	return &timedHandlers{next: repo, duration: m.HandlerDuration}
}

type timedHandlers struct {
	next     ports.HandlerRepository
	duration *prometheus.HistogramVec
}

func (t *timedHandlers) Invoke(ctx context.Context, handler string, contexts map[string]any) (map[string]any, error) {
	start := time.Now()
	out, err := t.next.Invoke(ctx, handler, contexts)
	t.duration.WithLabelValues(handler).Observe(time.Since(start).Seconds())
	return out, err
}

func (t *timedHandlers) Has(handler string) bool {
	return hasHandler(t.next, handler)
}

func hasHandler(repo ports.HandlerRepository, handler string) bool {
	if c, ok := repo.(ports.HandlerCatalog); ok {
		return c.Has(handler)
	}
	return true
}
