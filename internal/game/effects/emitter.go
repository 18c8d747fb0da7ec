package effects

import (
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// RulesEventEmitter commits events to the pending list after replacement.
// It does not run state-based rules or resolve anything further.
type RulesEventEmitter struct {
	engine *ReplacementEngine
	logger *zap.Logger
}

// NewRulesEventEmitter creates an emitter over engine.
func NewRulesEventEmitter(engine *ReplacementEngine, logger *zap.Logger) *RulesEventEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulesEventEmitter{engine: engine, logger: logger}
}

// EmitEvent replaces event and enqueues the result. A prevented event leaves
// state untouched and the receiver state is returned. The enqueued event
// carries the keys applied here, so the same effects are not applied again
// when it is dequeued.
func (em *RulesEventEmitter) EmitEvent(state *rules.GameState, event rules.Event, choose ChoicePolicy, applyOptional OptionalPolicy) (*rules.GameState, error) {
	result, err := em.engine.Apply(state, event, choose, applyOptional)
	if err != nil {
		return nil, err
	}
	if result.Prevented {
		em.logger.Debug("emitted event prevented",
			zap.String("event", event.String()),
			zap.Strings("applied", result.AppliedKeys))
		return state, nil
	}
	return state.WithEventAdded(result.Final), nil
}
