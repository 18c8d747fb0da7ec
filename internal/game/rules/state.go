package rules

import (
	"fmt"
	"maps"
	"slices"
)

// Loss reasons recorded by the built-in rules.
const (
	LossReasonLifeEmpty = "Life is 0 (Life Area is empty)."
	LossReasonDeckOut   = "Tried to draw from an empty deck."
)

// GameState is the complete state of one match. A *GameState is never
// modified after it is returned: every transition builds a new state and
// shares untouched storage with its predecessor. A transition that changes
// nothing returns its receiver, so pointer equality means "unchanged".
type GameState struct {
	turnNumber   int
	phase        Phase
	activePlayer PlayerID
	players      map[PlayerID]PlayerInstance
	zones        map[ZoneID]ZoneInstance
	pending      []Event
	resolved     []Event
	rngState     uint64
}

// NewGameState creates a match at turn 1, Start phase, with one empty zone of
// every type for every player.
func NewGameState(startingPlayer PlayerID, seed uint64, players ...PlayerInstance) (*GameState, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("new game state: no players")
	}
	s := &GameState{
		turnNumber:   1,
		phase:        PhaseStart,
		activePlayer: startingPlayer,
		players:      make(map[PlayerID]PlayerInstance, len(players)),
		zones:        make(map[ZoneID]ZoneInstance, len(players)*len(zoneTypeNames)),
		rngState:     NewXorshift(seed).State(),
	}
	for _, p := range players {
		if p.ID <= NoPlayer {
			return nil, fmt.Errorf("new game state: player id %d must be positive", p.ID)
		}
		if _, dup := s.players[p.ID]; dup {
			return nil, fmt.Errorf("new game state: duplicate player id %d", p.ID)
		}
		s.players[p.ID] = p
		for _, zt := range AllZoneTypes() {
			s.zones[ZoneID{Player: p.ID, Type: zt}] = NewZone(p.ID, zt)
		}
	}
	if _, ok := s.players[startingPlayer]; !ok {
		return nil, fmt.Errorf("new game state: starting player %d: %w", startingPlayer, ErrUnknownPlayer)
	}
	return s, nil
}

func (s *GameState) clone() *GameState {
	next := *s
	return &next
}

// TurnNumber returns the 1-based turn number.
func (s *GameState) TurnNumber() int { return s.turnNumber }

// Phase returns the current phase.
func (s *GameState) Phase() Phase { return s.phase }

// ActivePlayer returns the player whose turn it is.
func (s *GameState) ActivePlayer() PlayerID { return s.activePlayer }

// RandomState returns the generator state used for the next shuffle.
func (s *GameState) RandomState() uint64 { return s.rngState }

// PlayerIDs returns registered player ids in ascending order.
func (s *GameState) PlayerIDs() []PlayerID {
	ids := make([]PlayerID, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Players returns all players ordered by id.
func (s *GameState) Players() []PlayerInstance {
	out := make([]PlayerInstance, 0, len(s.players))
	for _, id := range s.PlayerIDs() {
		out = append(out, s.players[id])
	}
	return out
}

// Player returns the player with the given id.
func (s *GameState) Player(id PlayerID) (PlayerInstance, bool) {
	p, ok := s.players[id]
	return p, ok
}

// HasPlayer reports whether id is registered.
func (s *GameState) HasPlayer(id PlayerID) bool {
	_, ok := s.players[id]
	return ok
}

// Zone returns the zone of the given type owned by player.
func (s *GameState) Zone(player PlayerID, zoneType ZoneType) (ZoneInstance, bool) {
	z, ok := s.zones[ZoneID{Player: player, Type: zoneType}]
	return z, ok
}

func (s *GameState) requireZone(player PlayerID, zoneType ZoneType) (ZoneInstance, error) {
	z, ok := s.Zone(player, zoneType)
	if !ok {
		return ZoneInstance{}, Fatal(fmt.Errorf("%w: %s", ErrMissingZone, ZoneID{Player: player, Type: zoneType}))
	}
	return z, nil
}

// LifeTotal returns the number of cards in the player's LifeArea.
func (s *GameState) LifeTotal(player PlayerID) int {
	z, ok := s.Zone(player, ZoneLifeArea)
	if !ok {
		return 0
	}
	return z.Len()
}

// FindCard locates a card among the zones owned by owner.
func (s *GameState) FindCard(owner PlayerID, id CardInstanceID) (CardInstance, ZoneType, bool) {
	for _, zt := range AllZoneTypes() {
		z, ok := s.Zone(owner, zt)
		if !ok {
			continue
		}
		if card, found := z.Find(id); found {
			return card, zt, true
		}
	}
	return CardInstance{}, 0, false
}

// NextPlayerAfter returns the registered id following current in ascending
// order, wrapping to the lowest id. An unregistered current yields the lowest.
func (s *GameState) NextPlayerAfter(current PlayerID) PlayerID {
	ids := s.PlayerIDs()
	if len(ids) == 0 {
		return NoPlayer
	}
	if !s.HasPlayer(current) {
		return ids[0]
	}
	for _, id := range ids {
		if id > current {
			return id
		}
	}
	return ids[0]
}

// PendingEvents returns a copy of the pending events, oldest first.
func (s *GameState) PendingEvents() []Event {
	return cloneEvents(s.pending)
}

// PendingCount returns the number of pending events.
func (s *GameState) PendingCount() int { return len(s.pending) }

// HasPendingEvent reports whether any pending event satisfies match.
func (s *GameState) HasPendingEvent(match func(Event) bool) bool {
	return slices.ContainsFunc(s.pending, match)
}

// ResolvedEvents returns a copy of the resolved-event log in application order.
func (s *GameState) ResolvedEvents() []Event {
	return cloneEvents(s.resolved)
}

// ResolvedCount returns the length of the resolved-event log.
func (s *GameState) ResolvedCount() int { return len(s.resolved) }

// ResolvedSince returns resolved events from index from onward.
func (s *GameState) ResolvedSince(from int) []Event {
	if from < 0 {
		from = 0
	}
	if from >= len(s.resolved) {
		return nil
	}
	return cloneEvents(s.resolved[from:])
}

// IsOver reports whether some player has lost and at most one remains.
func (s *GameState) IsOver() bool {
	lost, alive := 0, 0
	for _, p := range s.players {
		if p.Lost {
			lost++
		} else {
			alive++
		}
	}
	return lost > 0 && alive <= 1
}

// Winner returns the sole remaining player of a finished match.
func (s *GameState) Winner() (PlayerID, bool) {
	if !s.IsOver() {
		return NoPlayer, false
	}
	for _, id := range s.PlayerIDs() {
		if !s.players[id].Lost {
			return id, true
		}
	}
	return NoPlayer, false
}

// WithTurnNumber returns a state at turn n.
func (s *GameState) WithTurnNumber(n int) *GameState {
	if n == s.turnNumber {
		return s
	}
	next := s.clone()
	next.turnNumber = n
	return next
}

// WithPhase returns a state in phase p.
func (s *GameState) WithPhase(p Phase) *GameState {
	if p == s.phase {
		return s
	}
	next := s.clone()
	next.phase = p
	return next
}

// WithActivePlayer returns a state where id is the active player.
func (s *GameState) WithActivePlayer(id PlayerID) (*GameState, error) {
	if !s.HasPlayer(id) {
		return nil, fmt.Errorf("set active player %d: %w", id, ErrUnknownPlayer)
	}
	if id == s.activePlayer {
		return s, nil
	}
	next := s.clone()
	next.activePlayer = id
	return next, nil
}

// WithPlayer replaces a registered player's record.
func (s *GameState) WithPlayer(p PlayerInstance) (*GameState, error) {
	current, ok := s.players[p.ID]
	if !ok {
		return nil, fmt.Errorf("update player %d: %w", p.ID, ErrUnknownPlayer)
	}
	if current == p {
		return s, nil
	}
	next := s.clone()
	next.players = maps.Clone(s.players)
	next.players[p.ID] = p
	return next, nil
}

// WithPlayerLost marks player as lost. A player who already lost is unchanged.
func (s *GameState) WithPlayerLost(player PlayerID, reason string) (*GameState, error) {
	p, ok := s.players[player]
	if !ok {
		return nil, Fatal(fmt.Errorf("mark player %d lost: %w", player, ErrUnknownPlayer))
	}
	if p.Lost {
		return s, nil
	}
	return s.WithPlayer(p.WithLoss(reason))
}

// WithZone replaces an existing zone. Card instance ids stay unique across
// the owner's zones; a duplicate is a fatal contract violation.
func (s *GameState) WithZone(z ZoneInstance) (*GameState, error) {
	if _, ok := s.zones[z.ID()]; !ok {
		return nil, Fatal(fmt.Errorf("%w: %s", ErrMissingZone, z.ID()))
	}
	if err := s.checkUniqueCards(z); err != nil {
		return nil, err
	}
	return s.withZones(z), nil
}

// checkUniqueCards fails when z holds a card id twice or an id its owner
// already holds in another zone.
func (s *GameState) checkUniqueCards(z ZoneInstance) error {
	ids := make(map[CardInstanceID]bool, len(z.cards))
	for _, c := range z.cards {
		if ids[c.ID] {
			return Fatal(fmt.Errorf("%w: card %d appears twice in %s", ErrContractViolation, c.ID, z.ID()))
		}
		ids[c.ID] = true
	}
	for _, zt := range AllZoneTypes() {
		if zt == z.zoneType {
			continue
		}
		other, ok := s.zones[ZoneID{Player: z.owner, Type: zt}]
		if !ok {
			continue
		}
		for _, c := range other.cards {
			if ids[c.ID] {
				return Fatal(fmt.Errorf("%w: card %d placed in %s is already in %s", ErrContractViolation, c.ID, z.ID(), other.ID()))
			}
		}
	}
	return nil
}

func (s *GameState) withZones(zones ...ZoneInstance) *GameState {
	next := s.clone()
	next.zones = maps.Clone(s.zones)
	for _, z := range zones {
		next.zones[z.ID()] = z
	}
	return next
}

// WithEventAdded appends e to the pending events.
func (s *GameState) WithEventAdded(e Event) *GameState {
	next := s.clone()
	next.pending = append(cloneEvents(s.pending), e.Clone())
	return next
}

// WithEventsCleared returns a state with no pending events.
func (s *GameState) WithEventsCleared() *GameState {
	if len(s.pending) == 0 {
		return s
	}
	next := s.clone()
	next.pending = nil
	return next
}

// DequeueEvent removes the oldest pending event. ok is false when nothing is
// pending, in which case the receiver is returned.
func (s *GameState) DequeueEvent() (Event, *GameState, bool) {
	if len(s.pending) == 0 {
		return Event{}, s, false
	}
	next := s.clone()
	next.pending = cloneEvents(s.pending[1:])
	if len(next.pending) == 0 {
		next.pending = nil
	}
	return s.pending[0].Clone(), next, true
}

// WithEventResolved appends e to the resolved-event log.
func (s *GameState) WithEventResolved(e Event) *GameState {
	next := s.clone()
	next.resolved = append(cloneEvents(s.resolved), e.Clone())
	return next
}

// WithCardMoved moves a card between two of player's zones. No event is
// recorded; callers that need one enqueue it themselves.
func (s *GameState) WithCardMoved(player PlayerID, card CardInstanceID, from, to ZoneType, placement Placement) (*GameState, error) {
	src, err := s.requireZone(player, from)
	if err != nil {
		return nil, err
	}
	dst, err := s.requireZone(player, to)
	if err != nil {
		return nil, err
	}
	moving, ok := src.Find(card)
	if !ok {
		return nil, Fatal(fmt.Errorf("move card %d from %s: %w", card, src.ID(), ErrCardNotFound))
	}
	src, _ = src.WithCardRemoved(card)
	if src.Contains(card) {
		return nil, Fatal(fmt.Errorf("move card %d from %s: %w: card appears twice", card, src.ID(), ErrContractViolation))
	}
	if from == to {
		dst = src
	}
	for _, zt := range AllZoneTypes() {
		if zt == from {
			continue
		}
		if other, ok := s.zones[ZoneID{Player: player, Type: zt}]; ok && other.Contains(card) {
			return nil, Fatal(fmt.Errorf("move card %d to %s: %w: card is also in %s", card, dst.ID(), ErrContractViolation, other.ID()))
		}
	}

	rng := NewXorshift(s.rngState)
	dst, err = dst.WithCardPlaced(moving, placement, rng)
	if err != nil {
		return nil, Fatal(err)
	}
	next := s.withZones(src, dst)
	next.rngState = rng.State()
	return next, nil
}

// DrawCard moves the top card of player's Deck onto their Hand and enqueues
// Draw and ZoneChange records. Drawing from an empty Deck instead enqueues a
// loss for player.
func (s *GameState) DrawCard(player PlayerID) (*GameState, error) {
	if !s.HasPlayer(player) {
		return nil, Fatal(fmt.Errorf("draw for player %d: %w", player, ErrUnknownPlayer))
	}
	deck, err := s.requireZone(player, ZoneDeck)
	if err != nil {
		return nil, err
	}
	hand, err := s.requireZone(player, ZoneHand)
	if err != nil {
		return nil, err
	}

	deck, card, ok := deck.WithTopCardRemoved()
	if !ok {
		return s.WithEventAdded(NewGameLostEvent(player, LossReasonDeckOut)), nil
	}
	next := s.withZones(deck, hand.WithCardAddedToTop(card))
	next = next.WithEventAdded(NewDrawEvent(player, card.ID))
	return next.WithEventAdded(NewZoneChangeEvent(player, card.ID, ZoneDeck, ZoneHand, PlacementTop)), nil
}

// SendToArchive moves card from wherever its owner holds it to the top of
// the owner's Archive and enqueues a ZoneChange record. A card already in the
// Archive is left where it is.
func (s *GameState) SendToArchive(card CardInstance) (*GameState, error) {
	_, from, ok := s.FindCard(card.Owner, card.ID)
	if !ok {
		return nil, Fatal(fmt.Errorf("archive card %d of player %d: %w", card.ID, card.Owner, ErrCardNotFound))
	}
	if from == ZoneArchive {
		return s, nil
	}
	next, err := s.WithCardMoved(card.Owner, card.ID, from, ZoneArchive, PlacementTop)
	if err != nil {
		return nil, err
	}
	return next.WithEventAdded(NewZoneChangeEvent(card.Owner, card.ID, from, ZoneArchive, PlacementTop)), nil
}

// ShuffleZone shuffles one of player's zones with the match generator.
func (s *GameState) ShuffleZone(player PlayerID, zoneType ZoneType) (*GameState, error) {
	z, err := s.requireZone(player, zoneType)
	if err != nil {
		return nil, err
	}
	rng := NewXorshift(s.rngState)
	next := s.withZones(z.Shuffled(rng))
	next.rngState = rng.State()
	return next, nil
}

func cloneEvents(events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}
