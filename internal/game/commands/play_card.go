package commands

import (
	"fmt"
	"strings"

	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// BackStageCapacity is the most cards a BackStage may hold.
const BackStageCapacity = 5

// Destination is where a played card goes.
type Destination int

const (
	DestinationCenterStage Destination = iota
	DestinationBackStage
)

var destinationNames = map[Destination]string{
	DestinationCenterStage: "center",
	DestinationBackStage:   "back",
}

func (d Destination) String() string {
	if name, ok := destinationNames[d]; ok {
		return name
	}
	return fmt.Sprintf("destination_%d", int(d))
}

// ParseDestination accepts "center" or "back" in any case.
func ParseDestination(s string) (Destination, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range destinationNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown play destination %q", s)
}

// ZoneType returns the zone the destination names.
func (d Destination) ZoneType() (rules.ZoneType, bool) {
	switch d {
	case DestinationCenterStage:
		return rules.ZoneCenterStage, true
	case DestinationBackStage:
		return rules.ZoneBackStage, true
	default:
		return 0, false
	}
}

// PlayCardCommand plays a card from its owner's Hand onto the stage.
type PlayCardCommand struct {
	player      rules.PlayerID
	card        rules.CardInstanceID
	destination Destination
}

// NewPlayCardCommand creates a play command.
func NewPlayCardCommand(player rules.PlayerID, card rules.CardInstanceID, destination Destination) *PlayCardCommand {
	return &PlayCardCommand{player: player, card: card, destination: destination}
}

// Name returns "play_card"
func (c *PlayCardCommand) Name() string { return "play_card" }

// Player returns the acting player
func (c *PlayCardCommand) Player() rules.PlayerID { return c.player }

// Card returns the card being played
func (c *PlayCardCommand) Card() rules.CardInstanceID { return c.card }

// Destination returns where the card goes
func (c *PlayCardCommand) Destination() Destination { return c.destination }

// Validate checks ownership, location and destination capacity.
func (c *PlayCardCommand) Validate(state *rules.GameState) ValidationResult {
	if !state.HasPlayer(c.player) {
		return Fail("Unknown player id %d.", c.player)
	}
	_, from, ok := state.FindCard(c.player, c.card)
	if !ok {
		return Fail("Card instance %d was not found for player %d.", c.card, c.player)
	}
	if from != rules.ZoneHand {
		return Fail("Card instance %d is not in Hand (currently in %s).", c.card, from)
	}

	to, ok := c.destination.ZoneType()
	if !ok {
		return Fail("Unknown destination %s.", c.destination)
	}
	zone, ok := state.Zone(c.player, to)
	if !ok {
		return Fail("Missing zone for destination %s.", to)
	}
	if to == rules.ZoneCenterStage && !zone.IsEmpty() {
		return Fail("CenterStage is already occupied.")
	}
	if to == rules.ZoneBackStage && zone.Len() >= BackStageCapacity {
		return Fail("BackStage is full (max %d).", BackStageCapacity)
	}
	return Ok()
}

// Execute moves the card on top of the destination and enqueues the move.
func (c *PlayCardCommand) Execute(state *rules.GameState) (*rules.GameState, error) {
	if v := c.Validate(state); !v.Valid {
		return nil, contractViolation(c, v.Reason)
	}
	to, _ := c.destination.ZoneType()

	next, err := state.WithCardMoved(c.player, c.card, rules.ZoneHand, to, rules.PlacementTop)
	if err != nil {
		return nil, fmt.Errorf("play card %d: %w", c.card, err)
	}
	return next.WithEventAdded(rules.NewZoneChangeEvent(c.player, c.card, rules.ZoneHand, to, rules.PlacementTop)), nil
}
