// Package testutils holds story fixtures shared by the engine tests.
package testutils

import "github.com/aretw0/tick/pkg/domain"

// Labels of the game story answers.
const (
	AnswerBonjour     = "Bonjour"
	AnswerVeuxTuJouer = "VeuxTuJouer"
	AnswerTicTacToe   = "TicTacToe"
	AnswerTantPis     = "TantPis"
	AnswerTantMieux   = "TantMieux"
	AnswerAuRevoir    = "AuRevoir"
	AnswerPardon      = "Pardon"
)

// GameLabels resolves the game story answer ids.
func GameLabels() map[string]string {
	return map[string]string{
		AnswerBonjour:     "Bonjour humain !",
		AnswerVeuxTuJouer: "Veux-tu jouer ?",
		AnswerTicTacToe:   "Tic tac toe, oui ou non ?",
		AnswerTantPis:     "Tant pis.",
		AnswerTantMieux:   "Tant mieux !",
		AnswerAuRevoir:    "Au revoir humain.",
		AnswerPardon:      "Pardon, je n'ai pas compris.",
	}
}

// GameConfiguration returns a small story: the bot greets, asks to play, then says
// goodbye once the user answered. Handlers come from the dev-tools provider.
func GameConfiguration() domain.Configuration {
	leaf := func(id string) domain.State { return domain.State{ID: id} }
	return domain.Configuration{
		ID:               "game",
		Name:             "Tic tac toe",
		MainIntent:       "bonjourRobot",
		SecondaryIntents: []string{"oui", "non"},
		StateMachine: domain.State{
			ID:      "root",
			Initial: "Global",
			States: []domain.State{{
				ID: "Global",
				On: map[string]string{"bonjourRobot": "#GROUP"},
				States: []domain.State{{
					ID:      "GROUP",
					Initial: "AU_REVOIR_HUMAIN",
					On: map[string]string{
						"oui": "#AU_REVOIR_HUMAIN",
						"non": "#AU_REVOIR_HUMAIN",
					},
					States: []domain.State{
						leaf("BONJOUR_HUMAIN"),
						leaf("VEUX_TU_JOUER"),
						leaf("TIC_TAC_TOE"),
						leaf("TANT_PIS"),
						leaf("TANT_MIEUX"),
						leaf("AU_REVOIR_HUMAIN"),
					},
				}},
			}},
		},
		Contexts: []domain.Context{
			{Name: "DEV_CONTEXT_1"},
			{Name: "DEV_CONTEXT_2"},
			{Name: "DEV_CONTEXT_3"},
			{Name: "JE_VEUX_JOUER"},
			{Name: "JE_NE_VEUX_PAS_JOUER"},
		},
		Actions: []domain.Action{
			{
				Name:               "BONJOUR_HUMAIN",
				AnswerID:           AnswerBonjour,
				Handler:            "dev-tools:set_context_1",
				OutputContextNames: []string{"DEV_CONTEXT_1"},
			},
			{
				Name:               "VEUX_TU_JOUER",
				AnswerID:           AnswerVeuxTuJouer,
				Handler:            "dev-tools:set_context_2",
				InputContextNames:  []string{"DEV_CONTEXT_1"},
				OutputContextNames: []string{"DEV_CONTEXT_2"},
			},
			{
				Name:               "TIC_TAC_TOE",
				AnswerID:           AnswerTicTacToe,
				InputContextNames:  []string{"DEV_CONTEXT_2"},
				OutputContextNames: []string{"JE_VEUX_JOUER", "JE_NE_VEUX_PAS_JOUER"},
			},
			{
				Name:               "TANT_PIS",
				AnswerID:           AnswerTantPis,
				Handler:            "dev-tools:set_context_3",
				InputContextNames:  []string{"JE_NE_VEUX_PAS_JOUER"},
				OutputContextNames: []string{"DEV_CONTEXT_3"},
			},
			{
				Name:               "TANT_MIEUX",
				AnswerID:           AnswerTantMieux,
				Handler:            "dev-tools:set_context_3",
				InputContextNames:  []string{"JE_VEUX_JOUER"},
				OutputContextNames: []string{"DEV_CONTEXT_3"},
			},
			{
				Name:              "AU_REVOIR_HUMAIN",
				AnswerID:          AnswerAuRevoir,
				InputContextNames: []string{"DEV_CONTEXT_3"},
				Final:             true,
			},
		},
		IntentsContexts: []domain.IntentContexts{
			{Intent: "oui", Associations: []domain.Association{{Action: "TIC_TAC_TOE", Contexts: []string{"JE_VEUX_JOUER"}}}},
			{Intent: "non", Associations: []domain.Association{{Action: "TIC_TAC_TOE", Contexts: []string{"JE_NE_VEUX_PAS_JOUER"}}}},
		},
		Unknown: domain.UnknownConfiguration{
			Answers: []domain.UnknownAnswerConfig{{Action: "TIC_TAC_TOE", AnswerID: AnswerPardon, RetryNb: 2}},
		},
	}
}

// GameSessionAfterGreeting is the session the game story stands on once the bot
// asked to play.
func GameSessionAfterGreeting() domain.Session {
	return domain.Session{
		CurrentState: "TIC_TAC_TOE",
		RanHandlers:  []string{"BONJOUR_HUMAIN", "VEUX_TU_JOUER", "TIC_TAC_TOE"},
		Contexts:     map[string]any{"DEV_CONTEXT_1": nil, "DEV_CONTEXT_2": nil},
		Objectives:   []string{"AU_REVOIR_HUMAIN"},
		Handling:     &domain.HandlingStep{Action: "TIC_TAC_TOE", Repeated: 1},
	}
}

// TriggerConfiguration returns a story whose first action fires a trigger that
// jumps to another branch, where a silent step prepares the final action.
func TriggerConfiguration() domain.Configuration {
	return domain.Configuration{
		ID:         "jump",
		MainIntent: "start",
		Triggers:   []string{"jump"},
		StateMachine: domain.State{
			ID: "root",
			States: []domain.State{{
				ID: "Global",
				On: map[string]string{"start": "#BRANCH_A", "jump": "#BRANCH_B"},
				States: []domain.State{
					{
						ID:      "BRANCH_A",
						Initial: "A_START",
						States:  []domain.State{{ID: "A_START"}},
					},
					{
						ID:      "BRANCH_B",
						Initial: "B_TARGET",
						States:  []domain.State{{ID: "B_PREP"}, {ID: "B_TARGET"}},
					},
				},
			}},
		},
		Contexts: []domain.Context{{Name: "DEV_CONTEXT_1"}},
		Actions: []domain.Action{
			{Name: "A_START", Handler: "dev-tools:do_nothing", Trigger: "jump"},
			{Name: "B_PREP", Handler: "dev-tools:set_context_1", OutputContextNames: []string{"DEV_CONTEXT_1"}},
			{Name: "B_TARGET", AnswerID: "Done", InputContextNames: []string{"DEV_CONTEXT_1"}, Final: true},
		},
	}
}

// FlatConfiguration returns a single-level story with independent actions:
// ASK waits for the user, SAVE runs a handler, BYE needs what SAVE produces and
// ends the conversation, HELP can serve as exit of the fallback on ASK.
func FlatConfiguration() domain.Configuration {
	return domain.Configuration{
		ID:             "flat",
		MainIntent:     "ask",
		PrimaryIntents: []string{"save", "bye"},
		StateMachine: domain.State{
			ID: "root",
			States: []domain.State{{
				ID: "Global",
				On: map[string]string{"ask": "#ASK", "save": "#SAVE", "bye": "#BYE"},
				States: []domain.State{
					{ID: "ASK"}, {ID: "SAVE"}, {ID: "BYE"}, {ID: "HELP"},
				},
			}},
		},
		Contexts: []domain.Context{{Name: "DEV_CONTEXT_1"}},
		Actions: []domain.Action{
			{Name: "ASK", AnswerID: "Ask"},
			{Name: "SAVE", AnswerID: "Saved", Handler: "dev-tools:set_context_1", OutputContextNames: []string{"DEV_CONTEXT_1"}},
			{Name: "BYE", AnswerID: "Bye", InputContextNames: []string{"DEV_CONTEXT_1"}, Final: true},
			{Name: "HELP", AnswerID: "Help", Final: true},
		},
		Unknown: domain.UnknownConfiguration{
			Answers: []domain.UnknownAnswerConfig{{Action: "ASK", Text: "Sorry?", RetryNb: 2}},
		},
	}
}
