package rules

// StateCheck inspects one player who has not lost and returns the state with
// any resulting events enqueued. A check must not enqueue an event that is
// already pending, so that running it twice in a row adds nothing.
type StateCheck func(state *GameState, player PlayerInstance) *GameState

// StateBasedRules evaluates the continuous rules that hold regardless of what
// is happening. Apply is pure.
type StateBasedRules struct {
	checks []StateCheck
}

// NewStateBasedRules builds a rule set. Without checks the built-in
// LifeAreaEmpty check is used.
func NewStateBasedRules(checks ...StateCheck) *StateBasedRules {
	if len(checks) == 0 {
		checks = []StateCheck{LifeAreaEmpty}
	}
	return &StateBasedRules{checks: append([]StateCheck(nil), checks...)}
}

// Apply runs every check against every player in ascending id order. Players
// who have already lost are skipped. The receiver state is returned when no
// check enqueued anything.
func (r *StateBasedRules) Apply(state *GameState) *GameState {
	next := state
	for _, id := range state.PlayerIDs() {
		for _, check := range r.checks {
			player, _ := next.Player(id)
			if player.Lost {
				break
			}
			next = check(next, player)
		}
	}
	return next
}

// LifeAreaEmpty enqueues a loss for a player whose LifeArea has no cards,
// unless a loss for that player is already pending. A player without a
// LifeArea zone is ignored.
func LifeAreaEmpty(state *GameState, player PlayerInstance) *GameState {
	life, ok := state.Zone(player.ID, ZoneLifeArea)
	if !ok || !life.IsEmpty() {
		return state
	}
	if HasPendingLoss(state, player.ID) {
		return state
	}
	return state.WithEventAdded(NewGameLostEvent(player.ID, LossReasonLifeEmpty))
}

// HasPendingLoss reports whether a loss event for player is pending.
func HasPendingLoss(state *GameState, player PlayerID) bool {
	return state.HasPendingEvent(func(e Event) bool {
		return e.Kind == EventGameLost && e.Player == player
	})
}
