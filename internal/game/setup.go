package game

import (
	"fmt"
	"slices"

	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// Defaults applied by MatchSetup.withDefaults.
const (
	DefaultStartingLife = 5
	DefaultOpeningHand  = 7
)

// CardLookup resolves card ids from content to definitions.
type CardLookup interface {
	Card(cardID string) (*rules.CardDefinition, bool)
}

// PlayerSetup describes one player's entry into a match.
type PlayerSetup struct {
	ID        rules.PlayerID
	Name      string
	Deck      []string
	CheerDeck []string
}

// MatchSetup describes how to build the initial state of a match.
type MatchSetup struct {
	Players        []PlayerSetup
	StartingPlayer rules.PlayerID
	Seed           uint64
	// StartingLife cheer cards go to the LifeArea. Zero uses the default.
	StartingLife int
	// OpeningHand cards are drawn. Zero uses the default, negative draws none.
	OpeningHand int
}

func (s MatchSetup) withDefaults() MatchSetup {
	if s.StartingLife <= 0 {
		s.StartingLife = DefaultStartingLife
	}
	if s.OpeningHand < 0 {
		s.OpeningHand = 0
	} else if s.OpeningHand == 0 {
		s.OpeningHand = DefaultOpeningHand
	}
	if s.StartingPlayer == rules.NoPlayer && len(s.Players) > 0 {
		ids := make([]rules.PlayerID, 0, len(s.Players))
		for _, p := range s.Players {
			ids = append(ids, p.ID)
		}
		s.StartingPlayer = slices.Min(ids)
	}
	return s
}

// NewInitialState builds the state a match starts from. Card instance ids are
// assigned per owner in deck order, then cheer deck order, starting at 1.
// Both decks are shuffled with the match seed, the opening hand is drawn and
// StartingLife cheer cards are placed in the LifeArea. Setup moves enqueue
// no events.
func NewInitialState(setup MatchSetup, cards CardLookup) (*rules.GameState, error) {
	setup = setup.withDefaults()
	if cards == nil {
		return nil, fmt.Errorf("match setup: no card lookup")
	}

	players := make([]rules.PlayerInstance, 0, len(setup.Players))
	for _, p := range setup.Players {
		players = append(players, rules.NewPlayer(p.ID, p.Name))
	}
	state, err := rules.NewGameState(setup.StartingPlayer, setup.Seed, players...)
	if err != nil {
		return nil, fmt.Errorf("match setup: %w", err)
	}

	ordered := slices.Clone(setup.Players)
	slices.SortFunc(ordered, func(a, b PlayerSetup) int { return int(a.ID) - int(b.ID) })

	for _, p := range ordered {
		state, err = setupPlayer(state, p, setup, cards)
		if err != nil {
			return nil, fmt.Errorf("match setup: player %d: %w", p.ID, err)
		}
	}
	return state, nil
}

func setupPlayer(state *rules.GameState, p PlayerSetup, setup MatchSetup, cards CardLookup) (*rules.GameState, error) {
	if len(p.CheerDeck) < setup.StartingLife {
		return nil, fmt.Errorf("cheer deck has %d cards, need %d for life", len(p.CheerDeck), setup.StartingLife)
	}

	next := rules.CardInstanceID(1)
	build := func(ids []string) ([]rules.CardInstance, error) {
		out := make([]rules.CardInstance, 0, len(ids))
		for _, cardID := range ids {
			def, ok := cards.Card(cardID)
			if !ok {
				return nil, fmt.Errorf("unknown card %q", cardID)
			}
			card, err := rules.NewCardInstance(next, p.ID, def)
			if err != nil {
				return nil, err
			}
			next++
			out = append(out, card)
		}
		return out, nil
	}

	deck, err := build(p.Deck)
	if err != nil {
		return nil, fmt.Errorf("deck: %w", err)
	}
	cheer, err := build(p.CheerDeck)
	if err != nil {
		return nil, fmt.Errorf("cheer deck: %w", err)
	}

	if state, err = state.WithZone(rules.NewZone(p.ID, rules.ZoneDeck, deck...)); err != nil {
		return nil, err
	}
	if state, err = state.WithZone(rules.NewZone(p.ID, rules.ZoneCheerDeck, cheer...)); err != nil {
		return nil, err
	}
	if state, err = state.ShuffleZone(p.ID, rules.ZoneDeck); err != nil {
		return nil, err
	}
	if state, err = state.ShuffleZone(p.ID, rules.ZoneCheerDeck); err != nil {
		return nil, err
	}

	if state, err = moveTopCards(state, p.ID, rules.ZoneDeck, rules.ZoneHand, min(setup.OpeningHand, len(deck))); err != nil {
		return nil, err
	}
	return moveTopCards(state, p.ID, rules.ZoneCheerDeck, rules.ZoneLifeArea, setup.StartingLife)
}

func moveTopCards(state *rules.GameState, player rules.PlayerID, from, to rules.ZoneType, count int) (*rules.GameState, error) {
	for i := 0; i < count; i++ {
		zone, _ := state.Zone(player, from)
		top, ok := zone.Top()
		if !ok {
			return nil, fmt.Errorf("%s ran out after %d of %d cards", from, i, count)
		}
		var err error
		state, err = state.WithCardMoved(player, top.ID, from, to, rules.PlacementTop)
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}
