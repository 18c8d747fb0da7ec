package server

import (
	"testing"

	"github.com/holoocg/holo-server-go/internal/catalog"
	"github.com/holoocg/holo-server-go/internal/game"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	cardSora  = "hSD01-001"
	cardCheer = "hY01-001"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		&rules.CardDefinition{
			CardID: cardSora, Name: "Tokino Sora",
			Abilities: []rules.AbilityDefinition{{AbilityID: game.AbilityDealDamage, Name: "Dream Live"}},
		},
		&rules.CardDefinition{CardID: cardCheer, Name: "White Cheer"},
	)
	require.NoError(t, err)
	return c
}

func newTestService(t *testing.T) *MatchService {
	t.Helper()
	logger := zaptest.NewLogger(t)
	mgr := game.NewManager(newTestCatalog(t), game.MatchOptions{}, logger)
	return NewMatchService(mgr, 2, 3, logger)
}

func repeat(id string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = id
	}
	return out
}

func testCreateRequest() CreateMatchRequest {
	return CreateMatchRequest{
		Players: []PlayerRequest{
			{ID: 1, Name: "Sora", Deck: repeat(cardSora, 10), CheerDeck: repeat(cardCheer, 4)},
			{ID: 2, Name: "Suisei", Deck: repeat(cardSora, 10), CheerDeck: repeat(cardCheer, 4)},
		},
		StartingPlayer: 1,
		Seed:           7,
	}
}

// handTop returns the top card of a player's hand in view.
func handTop(t *testing.T, view MatchView, player rules.PlayerID) CardView {
	t.Helper()
	hand, ok := view.Zone(player, rules.ZoneHand)
	require.True(t, ok)
	require.NotEmpty(t, hand.Cards)
	return hand.Cards[len(hand.Cards)-1]
}
