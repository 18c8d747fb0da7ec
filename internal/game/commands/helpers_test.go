package commands

import (
	"testing"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	testHolomem = &rules.CardDefinition{
		CardID: "hSD01-004",
		Name:   "AZKi",
		Abilities: []rules.AbilityDefinition{
			{AbilityID: "draw_card", Name: "Map", RulesText: "Draw a card."},
		},
	}
	testVanilla = &rules.CardDefinition{CardID: "hSD01-009", Name: "Hoshimachi Suisei"}
)

// newTestState gives each player a hand of handSize cards (ids 1..) and one
// life card, and places backSize cards (ids 51..) on player 1's BackStage.
func newTestState(t *testing.T, handSize, backSize int) *rules.GameState {
	t.Helper()
	state, err := rules.NewGameState(1, 5, rules.NewPlayer(1, "AZKi"), rules.NewPlayer(2, "Suisei"))
	require.NoError(t, err)

	for _, id := range state.PlayerIDs() {
		var hand []rules.CardInstance
		for i := 1; i <= handSize; i++ {
			def := testVanilla
			if i == 1 {
				def = testHolomem
			}
			hand = append(hand, rules.CardInstance{ID: rules.CardInstanceID(i), Owner: id, Definition: def})
		}
		state, err = state.WithZone(rules.NewZone(id, rules.ZoneHand, hand...))
		require.NoError(t, err)
		state, err = state.WithZone(rules.NewZone(id, rules.ZoneLifeArea, rules.CardInstance{ID: 100, Owner: id, Definition: testVanilla}))
		require.NoError(t, err)
	}

	var back []rules.CardInstance
	for i := 1; i <= backSize; i++ {
		back = append(back, rules.CardInstance{ID: rules.CardInstanceID(50 + i), Owner: 1, Definition: testVanilla})
	}
	state, err = state.WithZone(rules.NewZone(1, rules.ZoneBackStage, back...))
	require.NoError(t, err)
	return state
}

func resolveAll(state *rules.GameState, e rules.Event) (*rules.GameState, error) {
	return state.WithEventResolved(e), nil
}

func newTestBus(t *testing.T, apply rules.ApplyEventFunc) *CommandBus {
	t.Helper()
	if apply == nil {
		apply = resolveAll
	}
	timing, err := rules.NewCheckTimingEngine(nil, apply, 16, zaptest.NewLogger(t))
	require.NoError(t, err)
	return NewCommandBus(timing, zaptest.NewLogger(t))
}
