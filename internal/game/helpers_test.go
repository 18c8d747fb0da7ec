package game

import (
	"context"
	"sync"
	"testing"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	cardSora  = "hSD01-001"
	cardAZKi  = "hSD01-004"
	cardMumei = "hBP01-052"
	cardPlain = "hSD01-009"
	cardCheer = "hY01-001"
)

// testCards is a CardLookup over a fixed set of definitions.
type testCards map[string]*rules.CardDefinition

func (c testCards) Card(id string) (*rules.CardDefinition, bool) {
	def, ok := c[id]
	return def, ok
}

func newTestCards() testCards {
	return testCards{
		cardSora: {
			CardID: cardSora, Name: "Tokino Sora",
			Abilities: []rules.AbilityDefinition{{AbilityID: AbilityDealDamage, Name: "Dream Live"}},
		},
		cardAZKi: {
			CardID: cardAZKi, Name: "AZKi",
			Abilities: []rules.AbilityDefinition{{AbilityID: AbilityDrawCard, Name: "Map"}},
		},
		cardMumei: {
			CardID: cardMumei, Name: "Nanashi Mumei",
			Abilities: []rules.AbilityDefinition{
				{AbilityID: AbilityArchiveSelf, Name: "Forgotten"},
				{AbilityID: "unregistered_ability", Name: "Unknown"},
			},
		},
		cardPlain: {CardID: cardPlain, Name: "Hoshimachi Suisei"},
		cardCheer: {CardID: cardCheer, Name: "White Cheer"},
	}
}

func repeatCard(id string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = id
	}
	return out
}

// newTestSetup builds a two player setup where every deck card is deckCard.
func newTestSetup(deckCard string, deckSize, life int) MatchSetup {
	return MatchSetup{
		Players: []PlayerSetup{
			{ID: 1, Name: "Sora", Deck: repeatCard(deckCard, deckSize), CheerDeck: repeatCard(cardCheer, life+3)},
			{ID: 2, Name: "Suisei", Deck: repeatCard(deckCard, deckSize), CheerDeck: repeatCard(cardCheer, life+3)},
		},
		StartingPlayer: 1,
		Seed:           42,
		StartingLife:   life,
	}
}

func newTestInitialState(t *testing.T, deckCard string, deckSize, life int) *rules.GameState {
	t.Helper()
	state, err := NewInitialState(newTestSetup(deckCard, deckSize, life), newTestCards())
	require.NoError(t, err)
	return state
}

func newTestMatch(t *testing.T, initial *rules.GameState, opts MatchOptions) *Match {
	t.Helper()
	match, err := NewMatch("match-1", initial, opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return match
}

// advanceTo advances a started match until it reaches phase.
func advanceTo(t *testing.T, match *Match, phase rules.Phase) {
	t.Helper()
	for i := 0; i < 12 && match.State().Phase() != phase; i++ {
		_, err := match.Advance(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, phase, match.State().Phase())
}

func handTop(t *testing.T, state *rules.GameState, player rules.PlayerID) rules.CardInstance {
	t.Helper()
	hand, ok := state.Zone(player, rules.ZoneHand)
	require.True(t, ok)
	card, ok := hand.Top()
	require.True(t, ok, "hand of player %d is empty", player)
	return card
}

type sinkCall struct {
	matchID  string
	firstSeq int
	events   []rules.Event
}

type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
	err   error
}

func (s *recordingSink) AppendEvents(_ context.Context, matchID string, firstSeq int, events []rules.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sinkCall{matchID: matchID, firstSeq: firstSeq, events: events})
	return s.err
}

func (s *recordingSink) all() []sinkCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkCall(nil), s.calls...)
}
