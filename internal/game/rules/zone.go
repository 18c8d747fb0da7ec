package rules

import (
	"fmt"
	"strings"
)

// ZoneType enumerates the zones every player owns.
type ZoneType int

const (
	ZoneDeck ZoneType = iota
	ZoneHand
	ZoneCenterStage
	ZoneBackStage
	ZoneArchive
	ZoneCheerDeck
	ZoneResolution
	ZoneHoloPower
	ZoneLifeArea
)

var zoneTypeNames = map[ZoneType]string{
	ZoneDeck:        "DECK",
	ZoneHand:        "HAND",
	ZoneCenterStage: "CENTER_STAGE",
	ZoneBackStage:   "BACK_STAGE",
	ZoneArchive:     "ARCHIVE",
	ZoneCheerDeck:   "CHEER_DECK",
	ZoneResolution:  "RESOLUTION_ZONE",
	ZoneHoloPower:   "HOLO_POWER_AREA",
	ZoneLifeArea:    "LIFE_AREA",
}

func (z ZoneType) String() string {
	if name, ok := zoneTypeNames[z]; ok {
		return name
	}
	return fmt.Sprintf("ZONE_%d", int(z))
}

// AllZoneTypes returns every zone type in declaration order.
func AllZoneTypes() []ZoneType {
	return []ZoneType{
		ZoneDeck,
		ZoneHand,
		ZoneCenterStage,
		ZoneBackStage,
		ZoneArchive,
		ZoneCheerDeck,
		ZoneResolution,
		ZoneHoloPower,
		ZoneLifeArea,
	}
}

// ParseZoneType resolves a zone type from its String form.
func ParseZoneType(s string) (ZoneType, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for zt, n := range zoneTypeNames {
		if n == name {
			return zt, true
		}
	}
	return 0, false
}

// ZoneID addresses one zone: the owning player and the zone type.
type ZoneID struct {
	Player PlayerID
	Type   ZoneType
}

func (id ZoneID) String() string {
	return fmt.Sprintf("P%d:%s", id.Player, id.Type)
}

// Placement says where a moved card lands in the destination zone.
type Placement int

const (
	PlacementTop Placement = iota
	PlacementBottom
	PlacementShuffleInto
)

var placementNames = map[Placement]string{
	PlacementTop:         "TOP",
	PlacementBottom:      "BOTTOM",
	PlacementShuffleInto: "SHUFFLE_INTO",
}

func (p Placement) String() string {
	if name, ok := placementNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PLACEMENT_%d", int(p))
}

// ParsePlacement resolves a placement from its String form.
func ParsePlacement(s string) (Placement, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for p, n := range placementNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// ZoneInstance is an ordered pile of cards. Index 0 is the bottom and the last
// card is the top. Values are immutable: every operation returns a new zone.
type ZoneInstance struct {
	owner    PlayerID
	zoneType ZoneType
	cards    []CardInstance
}

// NewZone creates a zone holding cards bottom to top.
func NewZone(owner PlayerID, zoneType ZoneType, cards ...CardInstance) ZoneInstance {
	return ZoneInstance{owner: owner, zoneType: zoneType, cards: append([]CardInstance(nil), cards...)}
}

// Owner returns the owning player.
func (z ZoneInstance) Owner() PlayerID { return z.owner }

// Type returns the zone type.
func (z ZoneInstance) Type() ZoneType { return z.zoneType }

// ID returns the zone's address.
func (z ZoneInstance) ID() ZoneID { return ZoneID{Player: z.owner, Type: z.zoneType} }

// Len returns the number of cards.
func (z ZoneInstance) Len() int { return len(z.cards) }

// IsEmpty reports whether the zone has no cards.
func (z ZoneInstance) IsEmpty() bool { return len(z.cards) == 0 }

// Cards returns a copy of the cards, bottom to top.
func (z ZoneInstance) Cards() []CardInstance {
	return append([]CardInstance(nil), z.cards...)
}

// Top returns the top card.
func (z ZoneInstance) Top() (CardInstance, bool) {
	if len(z.cards) == 0 {
		return CardInstance{}, false
	}
	return z.cards[len(z.cards)-1], true
}

// Find returns the card with the given id.
func (z ZoneInstance) Find(id CardInstanceID) (CardInstance, bool) {
	if i := z.indexOf(id); i >= 0 {
		return z.cards[i], true
	}
	return CardInstance{}, false
}

// Contains reports whether a card with the given id is in the zone.
func (z ZoneInstance) Contains(id CardInstanceID) bool {
	return z.indexOf(id) >= 0
}

func (z ZoneInstance) indexOf(id CardInstanceID) int {
	for i, c := range z.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (z ZoneInstance) withCards(cards []CardInstance) ZoneInstance {
	return ZoneInstance{owner: z.owner, zoneType: z.zoneType, cards: cards}
}

// WithCardAddedToTop returns a zone with card placed on top.
func (z ZoneInstance) WithCardAddedToTop(card CardInstance) ZoneInstance {
	cards := make([]CardInstance, 0, len(z.cards)+1)
	cards = append(cards, z.cards...)
	return z.withCards(append(cards, card))
}

// WithCardAddedToBottom returns a zone with card placed at the bottom.
func (z ZoneInstance) WithCardAddedToBottom(card CardInstance) ZoneInstance {
	cards := make([]CardInstance, 0, len(z.cards)+1)
	cards = append(cards, card)
	return z.withCards(append(cards, z.cards...))
}

// WithCardRemoved returns a zone without the card with the given id. The bool
// is false, and the zone unchanged, when the card is not present.
func (z ZoneInstance) WithCardRemoved(id CardInstanceID) (ZoneInstance, bool) {
	i := z.indexOf(id)
	if i < 0 {
		return z, false
	}
	cards := make([]CardInstance, 0, len(z.cards)-1)
	cards = append(cards, z.cards[:i]...)
	cards = append(cards, z.cards[i+1:]...)
	return z.withCards(cards), true
}

// WithTopCardRemoved returns a zone without its top card, and that card.
func (z ZoneInstance) WithTopCardRemoved() (ZoneInstance, CardInstance, bool) {
	top, ok := z.Top()
	if !ok {
		return z, CardInstance{}, false
	}
	return z.withCards(append([]CardInstance(nil), z.cards[:len(z.cards)-1]...)), top, true
}

// WithCardShuffledIn adds card and shuffles the whole zone with rng.
func (z ZoneInstance) WithCardShuffledIn(card CardInstance, rng RandomSource) ZoneInstance {
	return z.WithCardAddedToTop(card).Shuffled(rng)
}

// Shuffled returns the zone's cards in a Fisher-Yates permutation drawn from rng.
func (z ZoneInstance) Shuffled(rng RandomSource) ZoneInstance {
	cards := z.Cards()
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return z.withCards(cards)
}

// WithCardPlaced adds card according to placement.
func (z ZoneInstance) WithCardPlaced(card CardInstance, placement Placement, rng RandomSource) (ZoneInstance, error) {
	switch placement {
	case PlacementTop:
		return z.WithCardAddedToTop(card), nil
	case PlacementBottom:
		return z.WithCardAddedToBottom(card), nil
	case PlacementShuffleInto:
		if rng == nil {
			return z, fmt.Errorf("%w: shuffle-insert into %s without a random source", ErrContractViolation, z.ID())
		}
		return z.WithCardShuffledIn(card, rng), nil
	default:
		return z, fmt.Errorf("%w: unknown placement %s", ErrContractViolation, placement)
	}
}
