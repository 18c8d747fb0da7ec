// Package commands implements player commands and the bus that validates,
// executes and stabilizes them.
package commands

import (
	"fmt"

	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// Command is a player request against the game state.
type Command interface {
	// Name identifies the command type in logs.
	Name() string

	// Player is the player submitting the command.
	Player() rules.PlayerID

	// Validate checks the command against state without changing it.
	Validate(state *rules.GameState) ValidationResult

	// Execute applies the command. It must only be called when Validate
	// succeeds on the same state; otherwise it returns a fatal error.
	Execute(state *rules.GameState) (*rules.GameState, error)
}

// ValidationResult is the outcome of Command.Validate.
type ValidationResult struct {
	Valid  bool
	Reason string
}

// Ok is a successful validation.
func Ok() ValidationResult {
	return ValidationResult{Valid: true}
}

// Fail is a failed validation with a human-readable reason.
func Fail(format string, args ...any) ValidationResult {
	return ValidationResult{Reason: fmt.Sprintf(format, args...)}
}

// Result is the outcome of CommandBus.Process.
type Result struct {
	Accepted bool
	Reason   string
	// State is the stabilized state when accepted, and the untouched input
	// state when rejected.
	State *rules.GameState
}

// Accepted wraps a stabilized state.
func Accepted(state *rules.GameState) Result {
	return Result{Accepted: true, State: state}
}

// Rejected reports why a command was refused.
func Rejected(state *rules.GameState, reason string) Result {
	return Result{Reason: reason, State: state}
}

// contractViolation is returned by Execute on a command that does not validate.
func contractViolation(cmd Command, reason string) error {
	return rules.Fatalf("%s: %w: executed without passing validation: %s", cmd.Name(), rules.ErrContractViolation, reason)
}
