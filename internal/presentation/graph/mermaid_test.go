package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/tick/internal/compiler"
	"github.com/aretw0/tick/internal/presentation/graph"
	"github.com/aretw0/tick/internal/testutils"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, cfg domain.Configuration) *compiler.Story {
	t.Helper()
	story, err := compiler.Compile(cfg)
	require.NoError(t, err)
	return story
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		cfg      domain.Configuration
		contains []string
	}{
		{
			name: "Groups Become Subgraphs",
			cfg:  testutils.GameConfiguration(),
			contains: []string{
				"graph TD\n",
				"    subgraph Global[\"Global\"]\n",
				"        subgraph GROUP[\"GROUP\"]\n",
				"        end\n",
			},
		},
		{
			name: "Leaf Shapes",
			cfg:  testutils.GameConfiguration(),
			contains: []string{
				"BONJOUR_HUMAIN[[\"BONJOUR_HUMAIN <br/> Bonjour\"]]",
				"TIC_TAC_TOE[/\"TIC_TAC_TOE <br/> TicTacToe\"/]",
				"AU_REVOIR_HUMAIN([\"AU_REVOIR_HUMAIN <br/> AuRevoir\"])",
			},
		},
		{
			name: "Intent Transitions",
			cfg:  testutils.GameConfiguration(),
			contains: []string{
				"    GROUP -- \"non\" --> AU_REVOIR_HUMAIN\n",
				"    GROUP -- \"oui\" --> AU_REVOIR_HUMAIN\n",
				"    Global -- \"bonjourRobot\" -->",
			},
		},
		{
			name: "Trigger Transitions",
			cfg:  testutils.TriggerConfiguration(),
			contains: []string{
				"    Global -. \"⚡ jump\" .->",
				"    Global -- \"start\" -->",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(compile(t, tt.cfg), nil)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			assert.NotContains(t, got, "classDef")
		})
	}
}

func TestGenerateMermaid_Deterministic(t *testing.T) {
	story := compile(t, testutils.GameConfiguration())
	first := graph.GenerateMermaid(story, nil)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, graph.GenerateMermaid(story, nil))
	}
}

func TestGenerateMermaid_TargetStory(t *testing.T) {
	cfg := testutils.FlatConfiguration()
	cfg.Actions[3].TargetStory = "support"
	got := graph.GenerateMermaid(compile(t, cfg), nil)

	assert.Contains(t, got, "story_support[(\"support\")]")
	assert.Contains(t, got, "HELP ==> story_support")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	story := compile(t, testutils.GameConfiguration())
	session := testutils.GameSessionAfterGreeting()
	session.RanHandlers = append(session.RanHandlers, "REMOVED_STATE", "BONJOUR_HUMAIN")

	got := graph.GenerateMermaid(story, graph.SessionOverlay(session))

	assert.Contains(t, got, "classDef visited")
	assert.Contains(t, got, "class TIC_TAC_TOE current;")
	assert.NotContains(t, got, "class TIC_TAC_TOE visited;")
	assert.NotContains(t, got, "REMOVED_STATE")
	assert.Equal(t, 1, strings.Count(got, "class BONJOUR_HUMAIN visited;"))
	assert.Contains(t, got, "class VEUX_TU_JOUER visited;")
}
