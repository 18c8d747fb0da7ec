package server

import (
	"github.com/holoocg/holo-server-go/internal/game"
	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// MatchView is the JSON form of a match snapshot sent to clients.
type MatchView struct {
	MatchID        string             `json:"match_id"`
	Status         string             `json:"status"`
	Turn           int                `json:"turn"`
	Phase          string             `json:"phase"`
	ActivePlayer   int                `json:"active_player"`
	Winner         int                `json:"winner,omitempty"`
	Players        []PlayerView       `json:"players"`
	Zones          []ZoneView         `json:"zones"`
	PendingEvents  []game.EventRecord `json:"pending_events"`
	ResolvedEvents []game.EventRecord `json:"resolved_events"`
	Checksum       string             `json:"checksum"`
}

// PlayerView is one player in a MatchView.
type PlayerView struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Life       int    `json:"life"`
	Lost       bool   `json:"lost"`
	LossReason string `json:"loss_reason,omitempty"`
}

// ZoneView is one zone in a MatchView. Cards are bottom to top.
type ZoneView struct {
	Owner int        `json:"owner"`
	Zone  string     `json:"zone"`
	Cards []CardView `json:"cards"`
}

// CardView is one card in a ZoneView.
type CardView struct {
	InstanceID int    `json:"instance_id"`
	CardID     string `json:"card_id"`
	Name       string `json:"name"`
}

// NewMatchView renders the current state of match.
func NewMatchView(match *game.Match) MatchView {
	state := match.State()
	snap := state.Snapshot()

	view := MatchView{
		MatchID:        match.ID(),
		Status:         match.Status().String(),
		Turn:           snap.TurnNumber,
		Phase:          snap.Phase.String(),
		ActivePlayer:   int(snap.ActivePlayer),
		Players:        make([]PlayerView, 0, len(snap.Players)),
		Zones:          make([]ZoneView, 0, len(snap.Zones)),
		PendingEvents:  game.NewEventRecords("", 0, snap.PendingEvents),
		ResolvedEvents: game.NewEventRecords(match.ID(), 0, snap.ResolvedEvents),
		Checksum:       game.ComputeChecksum(snap).Hash,
	}
	if winner, ok := state.Winner(); ok {
		view.Winner = int(winner)
	}
	for _, p := range snap.Players {
		view.Players = append(view.Players, PlayerView{
			ID:         int(p.ID),
			Name:       p.Name,
			Life:       p.Life,
			Lost:       p.Lost,
			LossReason: p.LossReason,
		})
	}
	for _, z := range snap.Zones {
		zv := ZoneView{Owner: int(z.Owner), Zone: z.Type.String(), Cards: make([]CardView, 0, len(z.Cards))}
		for _, c := range z.Cards {
			zv.Cards = append(zv.Cards, CardView{InstanceID: int(c.ID), CardID: c.CardID, Name: c.Name})
		}
		view.Zones = append(view.Zones, zv)
	}
	return view
}

// Zone returns the zone of owner with the given name.
func (v MatchView) Zone(owner rules.PlayerID, zone rules.ZoneType) (ZoneView, bool) {
	for _, z := range v.Zones {
		if z.Owner == int(owner) && z.Zone == zone.String() {
			return z, true
		}
	}
	return ZoneView{}, false
}
