package rules

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultMaxIterations bounds one stabilization run.
const DefaultMaxIterations = 256

// ApplyEventFunc executes one dequeued event against the state. It is the
// only place where consequences of events are produced.
type ApplyEventFunc func(state *GameState, event Event) (*GameState, error)

// CheckTimingEngine drives the state to a fixed point: state-based rules are
// applied, then one pending event is executed, until neither produces a
// change.
type CheckTimingEngine struct {
	rules         *StateBasedRules
	apply         ApplyEventFunc
	maxIterations int
	logger        *zap.Logger
}

// NewCheckTimingEngine creates an engine. A nil rule set uses the built-in
// checks; maxIterations <= 0 uses DefaultMaxIterations.
func NewCheckTimingEngine(sbr *StateBasedRules, apply ApplyEventFunc, maxIterations int, logger *zap.Logger) (*CheckTimingEngine, error) {
	if apply == nil {
		return nil, fmt.Errorf("check timing engine: nil event application policy")
	}
	if sbr == nil {
		sbr = NewStateBasedRules()
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckTimingEngine{
		rules:         sbr,
		apply:         apply,
		maxIterations: maxIterations,
		logger:        logger,
	}, nil
}

// MaxIterations returns the configured default bound.
func (e *CheckTimingEngine) MaxIterations() int {
	return e.maxIterations
}

// Run stabilizes state. maxIterations <= 0 uses the engine's bound. If the
// bound is exhausted a fatal ErrNotStabilized is returned and no state.
func (e *CheckTimingEngine) Run(state *GameState, maxIterations int) (*GameState, error) {
	if state == nil {
		return nil, Fatalf("check timing: %w: nil state", ErrContractViolation)
	}
	if maxIterations <= 0 {
		maxIterations = e.maxIterations
	}

	current := state
	for i := 0; i < maxIterations; i++ {
		afterRules := e.rules.Apply(current)

		event, dequeued, ok := afterRules.DequeueEvent()
		if !ok {
			if afterRules == current {
				e.logger.Debug("check timing stabilized",
					zap.Int("iterations", i+1),
					zap.Int("resolved", current.ResolvedCount()))
				return current, nil
			}
			current = afterRules
			continue
		}

		next, err := e.apply(dequeued, event)
		if err != nil {
			return nil, Fatal(fmt.Errorf("check timing: apply %s: %w", event, err))
		}
		e.logger.Debug("check timing applied event",
			zap.Int("iteration", i+1),
			zap.String("event", event.String()),
			zap.Int("pending", next.PendingCount()))
		current = next
	}

	e.logger.Error("check timing hit iteration limit",
		zap.Int("iterations", maxIterations),
		zap.Int("pending", current.PendingCount()))
	return nil, Fatal(fmt.Errorf("%w after %d iterations", ErrNotStabilized, maxIterations))
}
