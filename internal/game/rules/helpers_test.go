package rules

import "testing"

var (
	testHolomem = &CardDefinition{
		CardID:    "hSD01-003",
		Name:      "Tokino Sora",
		RulesText: "Debut holomem.",
		Abilities: []AbilityDefinition{{AbilityID: "draw_card", Name: "Wave", RulesText: "Draw a card."}},
	}
	testCheer = &CardDefinition{CardID: "hY01-001", Name: "White Cheer"}
)

// newTestState builds a two player match. Each player gets deckSize holomem
// cards (ids 1..deckSize) and lifeSize cheer cards (ids 101..) in LifeArea.
func newTestState(t *testing.T, deckSize, lifeSize int) *GameState {
	t.Helper()
	state, err := NewGameState(1, 42, NewPlayer(1, "Sora"), NewPlayer(2, "Roboco"))
	if err != nil {
		t.Fatalf("new game state: %v", err)
	}
	for _, id := range state.PlayerIDs() {
		var deck, life []CardInstance
		for i := 1; i <= deckSize; i++ {
			deck = append(deck, mustCard(t, CardInstanceID(i), id, testHolomem))
		}
		for i := 1; i <= lifeSize; i++ {
			life = append(life, mustCard(t, CardInstanceID(100+i), id, testCheer))
		}
		state = mustState(t)(state.WithZone(NewZone(id, ZoneDeck, deck...)))
		state = mustState(t)(state.WithZone(NewZone(id, ZoneLifeArea, life...)))
	}
	return state
}

func mustCard(t *testing.T, id CardInstanceID, owner PlayerID, def *CardDefinition) CardInstance {
	t.Helper()
	card, err := NewCardInstance(id, owner, def)
	if err != nil {
		t.Fatalf("new card instance: %v", err)
	}
	return card
}

func mustState(t *testing.T) func(*GameState, error) *GameState {
	return func(s *GameState, err error) *GameState {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return s
	}
}

// applyLossOnly executes GameLost events and records every event as resolved.
func applyLossOnly(state *GameState, e Event) (*GameState, error) {
	next := state
	if e.Kind == EventGameLost {
		var err error
		next, err = next.WithPlayerLost(e.Player, e.Reason)
		if err != nil {
			return nil, err
		}
	}
	return next.WithEventResolved(e), nil
}

func newTestTiming(t *testing.T) *CheckTimingEngine {
	t.Helper()
	engine, err := NewCheckTimingEngine(nil, applyLossOnly, 0, nil)
	if err != nil {
		t.Fatalf("new check timing engine: %v", err)
	}
	return engine
}
