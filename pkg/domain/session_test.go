package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ModifiersDoNotAlias(t *testing.T) {
	base := NewSession("Global").
		WithContexts(map[string]any{"A": "1"}).
		WithRan("GREET").
		PushObjective("GOAL")

	next := base.WithContexts(map[string]any{"B": "2"}).WithRan("ASK").PopObjective()

	assert.Equal(t, map[string]any{"A": "1"}, base.Contexts)
	assert.Equal(t, []string{"GREET"}, base.RanHandlers)
	assert.Equal(t, []string{"GOAL"}, base.Objectives)

	assert.Equal(t, map[string]any{"A": "1", "B": "2"}, next.Contexts)
	assert.Equal(t, []string{"GREET", "ASK"}, next.RanHandlers)
	assert.Empty(t, next.Objectives)
}

func TestSession_WithContexts_Idempotent(t *testing.T) {
	values := map[string]any{"A": "1", "B": nil}
	once := NewSession("Global").WithContexts(values)
	twice := once.WithContexts(values)

	assert.Equal(t, once, twice)
	assert.True(t, twice.HasContext("B"), "explicit absence is still a known context")
}

func TestSession_WithContexts_LaterWins(t *testing.T) {
	s := NewSession("Global").
		WithContexts(map[string]any{"A": "old"}).
		WithContexts(map[string]any{"A": "new"})
	assert.Equal(t, "new", s.Contexts["A"])
}

func TestSession_PushObjective_NotOnTop(t *testing.T) {
	s := NewSession("Global").PushObjective("A").PushObjective("A").PushObjective("B").PushObjective("A")
	assert.Equal(t, []string{"A", "B", "A"}, s.Objectives)

	top, ok := s.TopObjective()
	require.True(t, ok)
	assert.Equal(t, "A", top)

	empty := NewSession("Global").PopObjective()
	_, ok = empty.TopObjective()
	assert.False(t, ok)
}

func TestSession_Steps(t *testing.T) {
	step := &UnknownHandlingStep{Repeated: 1, Answer: UnknownAnswerConfig{Action: "ASK", RetryNb: 2}}
	s := NewSession("Global").WithUnknown(step)
	step.Repeated = 5

	require.NotNil(t, s.Unknown)
	assert.Equal(t, 1, s.Unknown.Repeated, "session keeps its own copy")

	cleared := s.WithUnknown(nil)
	assert.Nil(t, cleared.Unknown)
	assert.NotNil(t, s.Unknown)

	h := s.WithHandling(&HandlingStep{Action: "ASK", Repeated: 1})
	c := h.Clone()
	c.Handling.Repeated = 3
	assert.Equal(t, 1, h.Handling.Repeated)
}

func TestSession_LastRan(t *testing.T) {
	_, ok := NewSession("Global").LastRan()
	assert.False(t, ok)

	last, ok := NewSession("Global").WithRan("A").WithRan("B").LastRan()
	require.True(t, ok)
	assert.Equal(t, "B", last)
}

func TestUnknownConfiguration_IsUnknown(t *testing.T) {
	assert.True(t, UnknownConfiguration{}.IsUnknown(UnknownIntent))
	assert.False(t, UnknownConfiguration{}.IsUnknown("greet"))

	custom := UnknownConfiguration{Intents: []string{"fallback", "noise"}}
	assert.True(t, custom.IsUnknown("noise"))
	assert.False(t, custom.IsUnknown(UnknownIntent))
}

func TestTargetID(t *testing.T) {
	assert.Equal(t, "GROUP", TargetID("#GROUP"))
	assert.Equal(t, "GROUP", TargetID("GROUP"))
	assert.Equal(t, "GROUP", TargetID(" #GROUP "))
}
