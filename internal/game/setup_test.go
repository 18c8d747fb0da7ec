package game

import (
	"testing"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitialState(t *testing.T) {
	state := newTestInitialState(t, cardPlain, 20, 5)

	assert.Equal(t, 1, state.TurnNumber())
	assert.Equal(t, rules.PhaseStart, state.Phase())
	assert.Equal(t, rules.PlayerID(1), state.ActivePlayer())
	assert.Zero(t, state.PendingCount())
	assert.Zero(t, state.ResolvedCount())

	for _, id := range state.PlayerIDs() {
		deck, _ := state.Zone(id, rules.ZoneDeck)
		hand, _ := state.Zone(id, rules.ZoneHand)
		cheer, _ := state.Zone(id, rules.ZoneCheerDeck)

		assert.Equal(t, 20-DefaultOpeningHand, deck.Len())
		assert.Equal(t, DefaultOpeningHand, hand.Len())
		assert.Equal(t, 5, state.LifeTotal(id))
		assert.Equal(t, 3, cheer.Len())
	}
}

func TestNewInitialStateAssignsIDsPerOwner(t *testing.T) {
	state := newTestInitialState(t, cardPlain, 4, 1)

	for _, id := range state.PlayerIDs() {
		seen := map[rules.CardInstanceID]bool{}
		for _, zt := range rules.AllZoneTypes() {
			zone, _ := state.Zone(id, zt)
			for _, card := range zone.Cards() {
				assert.Equal(t, id, card.Owner)
				seen[card.ID] = true
			}
		}
		// 4 deck cards then 4 cheer cards
		require.Len(t, seen, 8)
		for i := 1; i <= 8; i++ {
			assert.True(t, seen[rules.CardInstanceID(i)], "player %d missing card %d", id, i)
		}
	}
}

func TestNewInitialStateIsDeterministic(t *testing.T) {
	setup := newTestSetup(cardPlain, 30, 5)
	setup.Players[0].Deck[3] = cardSora
	setup.Players[0].Deck[17] = cardAZKi

	a, err := NewInitialState(setup, newTestCards())
	require.NoError(t, err)
	b, err := NewInitialState(setup, newTestCards())
	require.NoError(t, err)

	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.Equal(t, ComputeChecksum(a.Snapshot()), ComputeChecksum(b.Snapshot()))
}

func TestNewInitialStateDefaults(t *testing.T) {
	setup := newTestSetup(cardPlain, 10, 0)
	setup.Players[0].CheerDeck = repeatCard(cardCheer, DefaultStartingLife)
	setup.Players[1].CheerDeck = repeatCard(cardCheer, DefaultStartingLife)
	setup.StartingPlayer = rules.NoPlayer
	setup.OpeningHand = -1

	state, err := NewInitialState(setup, newTestCards())
	require.NoError(t, err)

	assert.Equal(t, rules.PlayerID(1), state.ActivePlayer())
	assert.Equal(t, DefaultStartingLife, state.LifeTotal(2))
	hand, _ := state.Zone(2, rules.ZoneHand)
	assert.Zero(t, hand.Len())
}

func TestNewInitialStateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MatchSetup)
		cards  CardLookup
	}{
		{
			name:   "unknown card",
			mutate: func(s *MatchSetup) { s.Players[1].Deck[0] = "missing" },
			cards:  newTestCards(),
		},
		{
			name:   "short cheer deck",
			mutate: func(s *MatchSetup) { s.Players[0].CheerDeck = s.Players[0].CheerDeck[:2] },
			cards:  newTestCards(),
		},
		{
			name:   "duplicate player",
			mutate: func(s *MatchSetup) { s.Players[1].ID = 1 },
			cards:  newTestCards(),
		},
		{
			name:   "unknown starting player",
			mutate: func(s *MatchSetup) { s.StartingPlayer = 9 },
			cards:  newTestCards(),
		},
		{
			name:   "no card lookup",
			mutate: func(*MatchSetup) {},
			cards:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup := newTestSetup(cardPlain, 10, 5)
			tt.mutate(&setup)
			_, err := NewInitialState(setup, tt.cards)
			assert.Error(t, err)
		})
	}
}
