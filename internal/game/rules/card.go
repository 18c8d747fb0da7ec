package rules

import "fmt"

// CardInstanceID identifies a card instance. Ids are unique per owner.
type CardInstanceID int

// NoCard is the zero CardInstanceID.
const NoCard CardInstanceID = 0

// AbilityDefinition is one activatable ability printed on a card.
type AbilityDefinition struct {
	AbilityID string
	Name      string
	RulesText string
}

// CardDefinition is static card content. Definitions are shared between
// instances and must not be modified after loading.
type CardDefinition struct {
	CardID    string
	Name      string
	RulesText string
	Abilities []AbilityDefinition
}

// CardInstance is one physical card in a match.
type CardInstance struct {
	ID         CardInstanceID
	Owner      PlayerID
	Definition *CardDefinition
}

// NewCardInstance binds a definition to an owner under the given id.
func NewCardInstance(id CardInstanceID, owner PlayerID, def *CardDefinition) (CardInstance, error) {
	if def == nil {
		return CardInstance{}, fmt.Errorf("card instance %d: nil definition", id)
	}
	if id == NoCard {
		return CardInstance{}, fmt.Errorf("card instance id must be non-zero")
	}
	return CardInstance{ID: id, Owner: owner, Definition: def}, nil
}

// Name returns the printed name.
func (c CardInstance) Name() string {
	if c.Definition == nil {
		return ""
	}
	return c.Definition.Name
}

// Abilities returns the card's abilities in printed order.
func (c CardInstance) Abilities() []AbilityDefinition {
	if c.Definition == nil {
		return nil
	}
	return c.Definition.Abilities
}

// Ability returns the ability at index, if any.
func (c CardInstance) Ability(index int) (AbilityDefinition, bool) {
	abilities := c.Abilities()
	if index < 0 || index >= len(abilities) {
		return AbilityDefinition{}, false
	}
	return abilities[index], true
}

func (c CardInstance) String() string {
	return fmt.Sprintf("%s#%d", c.Name(), c.ID)
}
