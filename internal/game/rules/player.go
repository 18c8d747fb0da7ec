package rules

import "strings"

// PlayerID identifies a player within a match. Registered ids are positive;
// NoPlayer marks an absent player reference.
type PlayerID int

// NoPlayer is the zero PlayerID.
const NoPlayer PlayerID = 0

// PlayerInstance holds per-player match data. Life is not stored here: it is
// the card count of the player's LifeArea (see GameState.LifeTotal).
type PlayerInstance struct {
	ID         PlayerID
	Name       string
	Lost       bool
	LossReason string
}

// NewPlayer creates a player that has not lost.
func NewPlayer(id PlayerID, name string) PlayerInstance {
	return PlayerInstance{ID: id, Name: strings.TrimSpace(name)}
}

// WithLoss returns a copy of the player marked as having lost.
func (p PlayerInstance) WithLoss(reason string) PlayerInstance {
	p.Lost = true
	p.LossReason = reason
	return p
}
