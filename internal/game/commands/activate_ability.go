package commands

import (
	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// ActivateAbilityCommand activates an ability printed on one of the player's
// cards.
type ActivateAbilityCommand struct {
	player       rules.PlayerID
	source       rules.CardInstanceID
	abilityIndex int
}

// NewActivateAbilityCommand creates an activation command.
func NewActivateAbilityCommand(player rules.PlayerID, source rules.CardInstanceID, abilityIndex int) *ActivateAbilityCommand {
	return &ActivateAbilityCommand{player: player, source: source, abilityIndex: abilityIndex}
}

// Name returns "activate_ability"
func (c *ActivateAbilityCommand) Name() string { return "activate_ability" }

// Player returns the acting player
func (c *ActivateAbilityCommand) Player() rules.PlayerID { return c.player }

// Source returns the card whose ability is activated
func (c *ActivateAbilityCommand) Source() rules.CardInstanceID { return c.source }

// AbilityIndex returns the index into the card's abilities
func (c *ActivateAbilityCommand) AbilityIndex() int { return c.abilityIndex }

// Validate checks that the player owns the source and the ability exists.
func (c *ActivateAbilityCommand) Validate(state *rules.GameState) ValidationResult {
	if !state.HasPlayer(c.player) {
		return Fail("Unknown player id %d.", c.player)
	}
	card, _, ok := state.FindCard(c.player, c.source)
	if !ok {
		return Fail("Source card instance %d was not found for player %d.", c.source, c.player)
	}
	if _, ok := card.Ability(c.abilityIndex); !ok {
		return Fail("Ability index %d is out of range for card '%s'.", c.abilityIndex, card.Name())
	}
	return Ok()
}

// Execute enqueues the activation. Resolution happens during stabilization.
func (c *ActivateAbilityCommand) Execute(state *rules.GameState) (*rules.GameState, error) {
	if v := c.Validate(state); !v.Valid {
		return nil, contractViolation(c, v.Reason)
	}
	return state.WithEventAdded(rules.NewAbilityActivatedEvent(c.player, c.source, c.abilityIndex)), nil
}
