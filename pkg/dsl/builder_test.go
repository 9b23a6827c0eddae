package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/tick/internal/testutils"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameBuilder() *Builder {
	b := New("game").
		Name("Tic tac toe").
		MainIntent("bonjourRobot").
		SecondaryIntents("oui", "non")
	b.Root().Initial("Global")

	group := b.State("Global").
		On("bonjourRobot", "#GROUP").
		State("GROUP").
		Initial("AU_REVOIR_HUMAIN").
		On("oui", "#AU_REVOIR_HUMAIN").
		On("non", "#AU_REVOIR_HUMAIN")

	group.Action("BONJOUR_HUMAIN").Answer(testutils.AnswerBonjour).
		Handler("dev-tools:set_context_1").Outputs("DEV_CONTEXT_1")
	group.Action("VEUX_TU_JOUER").Answer(testutils.AnswerVeuxTuJouer).
		Handler("dev-tools:set_context_2").Inputs("DEV_CONTEXT_1").Outputs("DEV_CONTEXT_2")
	group.Action("TIC_TAC_TOE").Answer(testutils.AnswerTicTacToe).
		Inputs("DEV_CONTEXT_2").Outputs("JE_VEUX_JOUER", "JE_NE_VEUX_PAS_JOUER")
	group.Action("TANT_PIS").Answer(testutils.AnswerTantPis).
		Handler("dev-tools:set_context_3").Inputs("JE_NE_VEUX_PAS_JOUER").Outputs("DEV_CONTEXT_3")
	group.Action("TANT_MIEUX").Answer(testutils.AnswerTantMieux).
		Handler("dev-tools:set_context_3").Inputs("JE_VEUX_JOUER").Outputs("DEV_CONTEXT_3")
	group.Action("AU_REVOIR_HUMAIN").Answer(testutils.AnswerAuRevoir).
		Inputs("DEV_CONTEXT_3").Final()

	b.Context("DEV_CONTEXT_1").
		Context("DEV_CONTEXT_2").
		Context("DEV_CONTEXT_3").
		Context("JE_VEUX_JOUER").
		Context("JE_NE_VEUX_PAS_JOUER").
		IntentContexts("oui", "TIC_TAC_TOE", "JE_VEUX_JOUER").
		IntentContexts("non", "TIC_TAC_TOE", "JE_NE_VEUX_PAS_JOUER")
	b.Fallback("TIC_TAC_TOE").Answer(testutils.AnswerPardon).Retry(2)
	return b
}

func TestBuilder_Game(t *testing.T) {
	cfg, err := gameBuilder().Build()
	require.NoError(t, err)
	assert.Equal(t, testutils.GameConfiguration(), cfg)
}

func TestBuilder_Redeclaration(t *testing.T) {
	b := New("flat").MainIntent("ask")
	global := b.State("Global").On("ask", "#ASK")
	global.Action("ASK").Answer("Ask")
	global.Action("ASK").Final()
	assert.Same(t, global, b.State("Global"))

	cfg := b.Configuration()
	require.Len(t, cfg.Actions, 1)
	assert.Equal(t, domain.Action{Name: "ASK", AnswerID: "Ask", Final: true}, cfg.Actions[0])
	require.Len(t, cfg.StateMachine.States, 1)
	assert.Equal(t, []domain.State{{ID: "ASK"}}, cfg.StateMachine.States[0].States)
}

func TestBuilder_Options(t *testing.T) {
	b := New("opts").
		MainIntent("go").
		PrimaryIntents("save").
		Triggers("jump").
		UnknownIntents("blah").
		RepetitionNb(3).
		RedirectStory("next").
		TypedContext("AGE", "int").
		EntityContext("CITY", "location").
		IntentContexts("go", "A", "AGE").
		IntentContexts("go", "B", "CITY")
	b.State("Global").On("go", "#A").On("save", "#A").On("jump", "#B")
	b.State("Global").Action("A").Trigger("jump").Inputs("AGE").Describe("first")
	b.State("Global").Action("B").Repeatable().Redirect("other").On("go", "#A")
	b.Fallback("A").Text("Sorry?").Exit("B")

	cfg := b.Configuration()
	assert.Equal(t, []domain.Context{{Name: "AGE", Type: "int"}, {Name: "CITY", EntityRole: "location"}}, cfg.Contexts)
	require.Len(t, cfg.IntentsContexts, 1)
	assert.Len(t, cfg.IntentsContexts[0].Associations, 2)
	assert.Equal(t, domain.StorySettings{RepetitionNb: 3, RedirectStory: "next"}, cfg.Settings)
	assert.Equal(t, []string{"blah"}, cfg.Unknown.Intents)
	assert.Equal(t, []domain.UnknownAnswerConfig{{Action: "A", Text: "Sorry?", ExitAction: "B"}}, cfg.Unknown.Answers)
	assert.Equal(t, "jump", cfg.Actions[0].Trigger)
	assert.Equal(t, "first", cfg.Actions[0].Description)
	assert.True(t, cfg.Actions[1].Repeatable)
	assert.Equal(t, "other", cfg.Actions[1].TargetStory)
	assert.Equal(t, map[string]string{"go": "#A"}, cfg.StateMachine.States[0].States[1].On)
}

func brokenBuilder() *Builder {
	b := New("broken").MainIntent("go")
	b.State("Global").On("go", "#NOWHERE")
	b.State("Global").Action("A")
	return b
}

func TestBuilder_BuildRejectsInvalidStory(t *testing.T) {
	b := brokenBuilder()
	_, err := b.Build()
	assert.ErrorContains(t, err, "targets unknown state")
	assert.Panics(t, func() { b.MustBuild() })
}

func TestLoader(t *testing.T) {
	loader, err := Loader(gameBuilder())
	require.NoError(t, err)

	cfg, err := loader.Load(context.Background(), "game")
	require.NoError(t, err)
	assert.Equal(t, "bonjourRobot", cfg.MainIntent)

	_, err = Loader(gameBuilder(), brokenBuilder())
	assert.Error(t, err)
}
