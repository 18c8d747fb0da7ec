package rules

import "testing"

func TestPhaseSequence(t *testing.T) {
	expected := []Phase{PhaseDraw, PhaseCheer, PhaseMain, PhasePerformance, PhaseEnd, PhaseStart}
	phase := PhaseStart
	for i, want := range expected {
		next, wrapped := NextPhase(phase)
		if next != want {
			t.Fatalf("step %d: expected %s, got %s", i, want, next)
		}
		if wrapped != (want == PhaseStart) {
			t.Fatalf("step %d: unexpected wrap flag %v", i, wrapped)
		}
		phase = next
	}
}

func TestIsPlayerActionWindow(t *testing.T) {
	windows := map[Phase]bool{
		PhaseStart:       false,
		PhaseDraw:        false,
		PhaseCheer:       true,
		PhaseMain:        true,
		PhasePerformance: true,
		PhaseEnd:         false,
	}
	for phase, want := range windows {
		if got := IsPlayerActionWindow(phase); got != want {
			t.Fatalf("%s: expected %v, got %v", phase, want, got)
		}
	}
}

func TestAdvanceIntoDrawPhaseDrawsForActivePlayer(t *testing.T) {
	controller := NewTurnPhaseController(newTestTiming(t), nil)
	state := newTestState(t, 3, 1)

	next, err := controller.Advance(state)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.Phase() != PhaseDraw {
		t.Fatalf("expected draw phase, got %s", next.Phase())
	}
	hand, _ := next.Zone(1, ZoneHand)
	if hand.Len() != 1 {
		t.Fatalf("expected active player to draw, hand has %d", hand.Len())
	}
	other, _ := next.Zone(2, ZoneHand)
	if other.Len() != 0 {
		t.Fatalf("non-active player should not draw")
	}
	if next.PendingCount() != 0 {
		t.Fatalf("expected stabilized state")
	}
}

func TestAdvanceWrapsTurnAndRotatesActivePlayer(t *testing.T) {
	controller := NewTurnPhaseController(newTestTiming(t), nil)
	state := newTestState(t, 5, 1)

	for i := 0; i < 5; i++ {
		var err error
		state, err = controller.Advance(state)
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if state.TurnNumber() != 1 || state.ActivePlayer() != 1 {
			t.Fatalf("expected to remain on turn 1 for player 1 at step %d", i)
		}
	}
	if state.Phase() != PhaseEnd {
		t.Fatalf("expected end phase, got %s", state.Phase())
	}

	state, err := controller.Advance(state)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if state.Phase() != PhaseStart || state.TurnNumber() != 2 || state.ActivePlayer() != 2 {
		t.Fatalf("expected turn 2 start for player 2, got turn=%d phase=%s active=%d",
			state.TurnNumber(), state.Phase(), state.ActivePlayer())
	}
}

func TestDrawPhaseDeckOutLoses(t *testing.T) {
	controller := NewTurnPhaseController(newTestTiming(t), nil)
	state := newTestState(t, 0, 1)

	next, err := controller.Advance(state)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	p, _ := next.Player(1)
	if !p.Lost || p.LossReason != LossReasonDeckOut {
		t.Fatalf("expected deck-out loss, got %+v", p)
	}
	if winner, ok := next.Winner(); !ok || winner != 2 {
		t.Fatalf("expected player 2 to win")
	}
}

func TestEnterNonDrawPhaseHasNoAutomaticAction(t *testing.T) {
	controller := NewTurnPhaseController(newTestTiming(t), nil)
	state := newTestState(t, 3, 1).WithPhase(PhaseMain)
	next, err := controller.EnterCurrentPhase(state)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if next != state {
		t.Fatalf("expected unchanged state")
	}
}
