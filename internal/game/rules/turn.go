package rules

import (
	"fmt"

	"go.uber.org/zap"
)

// Phase is one phase of a turn.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseDraw
	PhaseCheer
	PhaseMain
	PhasePerformance
	PhaseEnd
)

var phaseNames = map[Phase]string{
	PhaseStart:       "START",
	PhaseDraw:        "DRAW",
	PhaseCheer:       "CHEER",
	PhaseMain:        "MAIN",
	PhasePerformance: "PERFORMANCE",
	PhaseEnd:         "END",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// turnSequence is the fixed phase order of every turn.
var turnSequence = []Phase{
	PhaseStart,
	PhaseDraw,
	PhaseCheer,
	PhaseMain,
	PhasePerformance,
	PhaseEnd,
}

// NextPhase returns the phase after p and whether advancing wraps to a new turn.
func NextPhase(p Phase) (Phase, bool) {
	for i, phase := range turnSequence {
		if phase != p {
			continue
		}
		if i == len(turnSequence)-1 {
			return turnSequence[0], true
		}
		return turnSequence[i+1], false
	}
	return PhaseStart, true
}

// IsPlayerActionWindow reports whether players may submit commands in p.
func IsPlayerActionWindow(p Phase) bool {
	switch p {
	case PhaseCheer, PhaseMain, PhasePerformance:
		return true
	default:
		return false
	}
}

// TurnPhaseController advances the turn structure and performs each phase's
// automatic actions, stabilizing after each one.
type TurnPhaseController struct {
	timing *CheckTimingEngine
	logger *zap.Logger
}

// NewTurnPhaseController creates a controller that stabilizes with timing.
func NewTurnPhaseController(timing *CheckTimingEngine, logger *zap.Logger) *TurnPhaseController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnPhaseController{timing: timing, logger: logger}
}

// EnterCurrentPhase performs the automatic action of the state's current
// phase and stabilizes. Only the Draw phase has one: the active player draws.
func (c *TurnPhaseController) EnterCurrentPhase(state *GameState) (*GameState, error) {
	if state == nil {
		return nil, Fatalf("enter phase: %w: nil state", ErrContractViolation)
	}
	next := state
	if state.Phase() == PhaseDraw {
		drawn, err := state.DrawCard(state.ActivePlayer())
		if err != nil {
			return nil, fmt.Errorf("enter %s phase: %w", state.Phase(), err)
		}
		next = drawn
	}

	c.logger.Debug("entered phase",
		zap.Int("turn", next.TurnNumber()),
		zap.String("phase", next.Phase().String()),
		zap.Int("active_player", int(next.ActivePlayer())))

	return c.timing.Run(next, 0)
}

// Advance moves to the next phase and enters it. Leaving the End phase
// starts a new turn for the next player in ascending id order.
func (c *TurnPhaseController) Advance(state *GameState) (*GameState, error) {
	if state == nil {
		return nil, Fatalf("advance phase: %w: nil state", ErrContractViolation)
	}
	phase, wrapped := NextPhase(state.Phase())
	next := state.WithPhase(phase)
	if wrapped {
		var err error
		next, err = next.WithTurnNumber(state.TurnNumber()+1).WithActivePlayer(state.NextPlayerAfter(state.ActivePlayer()))
		if err != nil {
			return nil, Fatal(fmt.Errorf("advance phase: %w", err))
		}
		c.logger.Debug("started turn",
			zap.Int("turn", next.TurnNumber()),
			zap.Int("active_player", int(next.ActivePlayer())))
	}
	return c.EnterCurrentPhase(next)
}

// IsPlayerActionWindow reports whether players may act in phase.
func (c *TurnPhaseController) IsPlayerActionWindow(phase Phase) bool {
	return IsPlayerActionWindow(phase)
}
