package rules

// Snapshot is a detached, read-only view of a GameState for clients, replay
// and persistence. It shares no storage with the state it was built from.
type Snapshot struct {
	TurnNumber     int
	Phase          Phase
	ActivePlayer   PlayerID
	RandomState    uint64
	Players        []PlayerSnapshot
	Zones          []ZoneSnapshot
	PendingEvents  []Event
	ResolvedEvents []Event
}

// PlayerSnapshot is one player as seen in a Snapshot.
type PlayerSnapshot struct {
	ID         PlayerID
	Name       string
	Life       int
	Lost       bool
	LossReason string
}

// ZoneSnapshot is one zone as seen in a Snapshot. Cards are bottom to top.
type ZoneSnapshot struct {
	Owner PlayerID
	Type  ZoneType
	Cards []CardSnapshot
}

// CardSnapshot identifies a card and its content.
type CardSnapshot struct {
	ID     CardInstanceID
	Owner  PlayerID
	CardID string
	Name   string
}

// Snapshot builds a deep copy of the observable state. Players are ordered
// by id and each player's zones follow AllZoneTypes order.
func (s *GameState) Snapshot() Snapshot {
	snap := Snapshot{
		TurnNumber:     s.turnNumber,
		Phase:          s.phase,
		ActivePlayer:   s.activePlayer,
		RandomState:    s.rngState,
		PendingEvents:  cloneEvents(s.pending),
		ResolvedEvents: cloneEvents(s.resolved),
	}
	for _, id := range s.PlayerIDs() {
		p := s.players[id]
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:         p.ID,
			Name:       p.Name,
			Life:       s.LifeTotal(id),
			Lost:       p.Lost,
			LossReason: p.LossReason,
		})
		for _, zt := range AllZoneTypes() {
			z, ok := s.Zone(id, zt)
			if !ok {
				continue
			}
			zs := ZoneSnapshot{Owner: id, Type: zt}
			for _, c := range z.cards {
				cs := CardSnapshot{ID: c.ID, Owner: c.Owner}
				if c.Definition != nil {
					cs.CardID = c.Definition.CardID
					cs.Name = c.Definition.Name
				}
				zs.Cards = append(zs.Cards, cs)
			}
			snap.Zones = append(snap.Zones, zs)
		}
	}
	return snap
}

// Player returns the snapshot of player id.
func (s Snapshot) Player(id PlayerID) (PlayerSnapshot, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}

// Zone returns the snapshot of one zone.
func (s Snapshot) Zone(owner PlayerID, zoneType ZoneType) (ZoneSnapshot, bool) {
	for _, z := range s.Zones {
		if z.Owner == owner && z.Type == zoneType {
			return z, true
		}
	}
	return ZoneSnapshot{}, false
}
