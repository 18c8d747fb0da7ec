package commands

import (
	"fmt"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// CommandBus runs the validate, execute, stabilize protocol. It keeps no
// state between calls; callers serialize submissions per match.
type CommandBus struct {
	timing *rules.CheckTimingEngine
	logger *zap.Logger
}

// NewCommandBus creates a bus that stabilizes with timing.
func NewCommandBus(timing *rules.CheckTimingEngine, logger *zap.Logger) *CommandBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandBus{timing: timing, logger: logger}
}

// Process validates cmd and, if valid, executes and stabilizes it. Invalid
// commands are rejected with the input state. Errors are always fatal and
// mean no state transition happened.
func (b *CommandBus) Process(state *rules.GameState, cmd Command) (Result, error) {
	if state == nil || cmd == nil {
		return Result{}, rules.Fatalf("process command: %w: nil state or command", rules.ErrContractViolation)
	}

	validation := cmd.Validate(state)
	if !validation.Valid {
		b.logger.Warn("command rejected",
			zap.String("command", cmd.Name()),
			zap.Int("player_id", int(cmd.Player())),
			zap.String("reason", validation.Reason))
		return Rejected(state, validation.Reason), nil
	}

	executed, err := cmd.Execute(state)
	if err != nil {
		return Result{}, rules.Fatal(fmt.Errorf("%s: execute: %w", cmd.Name(), err))
	}

	stable, err := b.timing.Run(executed, 0)
	if err != nil {
		return Result{}, rules.Fatal(fmt.Errorf("%s: stabilize: %w", cmd.Name(), err))
	}

	b.logger.Debug("command accepted",
		zap.String("command", cmd.Name()),
		zap.Int("player_id", int(cmd.Player())),
		zap.Int("resolved_events", stable.ResolvedCount()-state.ResolvedCount()))
	return Accepted(stable), nil
}
