package server

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/holoocg/holo-server-go/internal/game"
	"github.com/holoocg/holo-server-go/internal/game/commands"
	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// ErrBadRequest marks malformed client requests.
var ErrBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// Command types accepted in CommandRequest.
const (
	CommandPlayCard        = "play_card"
	CommandActivateAbility = "activate_ability"
)

// CommandRequest is a client command before validation.
type CommandRequest struct {
	CommandType          string `json:"command_type"`
	PlayerID             int    `json:"player_id"`
	CardInstanceID       int    `json:"card_instance_id,omitempty"`
	Destination          string `json:"destination,omitempty"`
	SourceCardInstanceID int    `json:"source_card_instance_id,omitempty"`
	AbilityIndex         int    `json:"ability_index,omitempty"`
}

// ToCommand maps a request to its engine command. Only the shape of the
// request is checked here; game legality is decided by the command itself.
func ToCommand(req CommandRequest) (commands.Command, error) {
	if req.PlayerID <= 0 {
		return nil, badRequest("player_id must be positive")
	}
	player := rules.PlayerID(req.PlayerID)

	switch strings.ToLower(strings.TrimSpace(req.CommandType)) {
	case CommandPlayCard:
		if req.CardInstanceID <= 0 {
			return nil, badRequest("card_instance_id must be positive")
		}
		dest, err := commands.ParseDestination(req.Destination)
		if err != nil {
			return nil, badRequest("%v", err)
		}
		return commands.NewPlayCardCommand(player, rules.CardInstanceID(req.CardInstanceID), dest), nil
	case CommandActivateAbility:
		if req.SourceCardInstanceID <= 0 {
			return nil, badRequest("source_card_instance_id must be positive")
		}
		if req.AbilityIndex < 0 {
			return nil, badRequest("ability_index must not be negative")
		}
		return commands.NewActivateAbilityCommand(player, rules.CardInstanceID(req.SourceCardInstanceID), req.AbilityIndex), nil
	default:
		return nil, badRequest("unknown command_type %q", req.CommandType)
	}
}

// CreateMatchRequest asks for a new match.
type CreateMatchRequest struct {
	Players        []PlayerRequest `json:"players"`
	StartingPlayer int             `json:"starting_player,omitempty"`
	// Seed of the match generator. Zero picks a random seed.
	Seed uint64 `json:"seed,omitempty"`
}

// PlayerRequest is one seat of a CreateMatchRequest.
type PlayerRequest struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Deck      []string `json:"deck"`
	CheerDeck []string `json:"cheer_deck"`
}

// ToSetup maps a request to a match setup using the engine defaults.
func (req CreateMatchRequest) ToSetup(startingLife, openingHand int) (game.MatchSetup, error) {
	if len(req.Players) < 2 {
		return game.MatchSetup{}, badRequest("at least two players are required")
	}
	setup := game.MatchSetup{
		StartingPlayer: rules.PlayerID(req.StartingPlayer),
		Seed:           req.Seed,
		StartingLife:   startingLife,
		OpeningHand:    openingHand,
	}
	if openingHand == 0 {
		setup.OpeningHand = -1
	}
	for _, p := range req.Players {
		if p.ID <= 0 {
			return game.MatchSetup{}, badRequest("player id must be positive")
		}
		if len(p.Deck) == 0 {
			return game.MatchSetup{}, badRequest("player %d has an empty deck", p.ID)
		}
		setup.Players = append(setup.Players, game.PlayerSetup{
			ID:        rules.PlayerID(p.ID),
			Name:      p.Name,
			Deck:      p.Deck,
			CheerDeck: p.CheerDeck,
		})
	}
	if setup.Seed == 0 {
		seed, err := newSeed()
		if err != nil {
			return game.MatchSetup{}, err
		}
		setup.Seed = seed
	}
	return setup, nil
}

func newSeed() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("generate seed: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
