package statemachine

import (
	"testing"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameTree() domain.State {
	leaf := func(id string) domain.State { return domain.State{ID: id} }
	return domain.State{
		ID:      "root",
		Initial: "Global",
		States: []domain.State{{
			ID: "Global",
			On: map[string]string{"bonjourRobot": "#GROUP", "wakeUp": "#HIDDEN"},
			States: []domain.State{
				{
					ID:      "GROUP",
					Initial: "AU_REVOIR_HUMAIN",
					On:      map[string]string{"oui": "#AU_REVOIR_HUMAIN", "non": "#AU_REVOIR_HUMAIN"},
					States: []domain.State{
						leaf("BONJOUR_HUMAIN"),
						leaf("VEUX_TU_JOUER"),
						leaf("TIC_TAC_TOE"),
						leaf("TANT_PIS"),
						leaf("TANT_MIEUX"),
						leaf("AU_REVOIR_HUMAIN"),
					},
				},
				leaf("HIDDEN"),
			},
		}},
	}
}

func classify(name string) (domain.EventKind, bool) {
	switch name {
	case "bonjourRobot", "oui", "non":
		return domain.EventIntent, true
	case "wakeUp":
		return domain.EventTrigger, true
	}
	return 0, false
}

func TestNew_Navigation(t *testing.T) {
	m, err := New(gameTree(), classify)
	require.NoError(t, err)

	assert.Equal(t, "root", m.Root())
	assert.Equal(t, "Global", m.Default())

	initial, err := m.Initial("GROUP")
	require.NoError(t, err)
	assert.Equal(t, "AU_REVOIR_HUMAIN", initial)

	initial, err = m.Initial("root")
	require.NoError(t, err)
	assert.Equal(t, "Global", initial, "descent stops at a group without initial")

	_, err = m.Initial("NOPE")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	parent, ok := m.Parent("TANT_PIS")
	require.True(t, ok)
	assert.Equal(t, "GROUP", parent)
	_, ok = m.Parent("root")
	assert.False(t, ok)

	assert.Equal(t, []string{"GROUP", "Global", "root"}, m.Ancestors("TANT_PIS"))
	assert.True(t, m.IsDescendant("TANT_PIS", "Global"))
	assert.False(t, m.IsDescendant("Global", "TANT_PIS"))

	assert.Equal(t, []string{
		"BONJOUR_HUMAIN", "VEUX_TU_JOUER", "TIC_TAC_TOE", "TANT_PIS", "TANT_MIEUX", "AU_REVOIR_HUMAIN", "HIDDEN",
	}, m.Leaves())
	assert.Equal(t, 0, m.Order("root"))
	assert.Equal(t, -1, m.Order("NOPE"))
}

func TestMachine_Next(t *testing.T) {
	m, err := New(gameTree(), classify)
	require.NoError(t, err)

	tests := []struct {
		name       string
		from       string
		event      domain.Event
		wantTarget string
		wantDirect bool
		wantOK     bool
	}{
		{"Declared On State", "Global", domain.IntentEvent("bonjourRobot"), "AU_REVOIR_HUMAIN", true, true},
		{"Bubbles To Parent", "TIC_TAC_TOE", domain.IntentEvent("oui"), "AU_REVOIR_HUMAIN", false, true},
		{"Bubbles To Global", "TANT_PIS", domain.IntentEvent("bonjourRobot"), "AU_REVOIR_HUMAIN", false, true},
		{"Trigger Key", "TANT_PIS", domain.TriggerEvent("wakeUp"), "HIDDEN", false, true},
		{"Kind Matters", "TANT_PIS", domain.IntentEvent("wakeUp"), "", false, false},
		{"Not Below Current", "Global", domain.IntentEvent("oui"), "", false, false},
		{"Unknown State", "NOPE", domain.IntentEvent("oui"), "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, direct, ok := m.Next(tt.from, tt.event)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTarget, target)
			assert.Equal(t, tt.wantDirect, direct)
		})
	}
}

func TestMachine_TriggerReachable(t *testing.T) {
	m, err := New(gameTree(), classify)
	require.NoError(t, err)

	assert.True(t, m.TriggerReachable("HIDDEN"))
	assert.False(t, m.TriggerReachable("TANT_PIS"))
	assert.Equal(t, []domain.Event{
		domain.IntentEvent("bonjourRobot"),
		domain.IntentEvent("non"),
		domain.IntentEvent("oui"),
		domain.TriggerEvent("wakeUp"),
	}, m.Events())
	assert.Equal(t, map[domain.Event]string{
		domain.IntentEvent("oui"): "AU_REVOIR_HUMAIN",
		domain.IntentEvent("non"): "AU_REVOIR_HUMAIN",
	}, m.Transitions("GROUP"))
}

func TestNew_RejectsInvalidTrees(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.State)
		wantErr string
	}{
		{
			name:    "Unknown Target",
			mutate:  func(s *domain.State) { s.States[0].On["bonjourRobot"] = "#MISSING" },
			wantErr: `targets unknown state "#MISSING"`,
		},
		{
			name:    "Duplicate Id",
			mutate:  func(s *domain.State) { s.States[0].States[1].ID = "GROUP" },
			wantErr: `duplicate state id "GROUP"`,
		},
		{
			name:    "Initial Not Nested",
			mutate:  func(s *domain.State) { s.States[0].States[0].Initial = "HIDDEN" },
			wantErr: `initial "HIDDEN" is not a nested state`,
		},
		{
			name:    "Undeclared Event",
			mutate:  func(s *domain.State) { s.States[0].On["dance"] = "#HIDDEN" },
			wantErr: `transition "dance" is neither a declared intent nor a trigger`,
		},
		{
			name:    "Group Without Initial",
			mutate:  func(s *domain.State) { s.States[0].States[0].Initial = "" },
			wantErr: `targets group "GROUP" without initial state`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := gameTree()
			tt.mutate(&tree)
			_, err := New(tree, classify)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_DefaultsRootId(t *testing.T) {
	m, err := New(domain.State{States: []domain.State{{ID: "ONLY"}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRootID, m.Root())
	assert.Equal(t, DefaultRootID, m.Default())
}
