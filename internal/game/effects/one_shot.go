package effects

import (
	"strings"

	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// EmitFunc commits a consequence event through replacement.
type EmitFunc func(state *rules.GameState, event rules.Event) (*rules.GameState, error)

// Activation describes the ability being resolved.
type Activation struct {
	Controller   rules.PlayerID
	Source       rules.CardInstance
	AbilityIndex int
	Ability      rules.AbilityDefinition
}

// ResolveFunc performs the effect of an ability.
type ResolveFunc func(state *rules.GameState, activation Activation, emit EmitFunc) (*rules.GameState, error)

// OneShotEffect is an effect that happens once when an ability resolves.
type OneShotEffect struct {
	name    string
	resolve ResolveFunc
}

// NewOneShotEffect names a resolve function.
func NewOneShotEffect(name string, resolve ResolveFunc) *OneShotEffect {
	return &OneShotEffect{name: strings.TrimSpace(name), resolve: resolve}
}

// Name returns the debug name
func (e *OneShotEffect) Name() string {
	return e.name
}

// Resolve applies the effect. An effect without a function changes nothing.
func (e *OneShotEffect) Resolve(state *rules.GameState, activation Activation, emit EmitFunc) (*rules.GameState, error) {
	if e.resolve == nil {
		return state, nil
	}
	return e.resolve(state, activation, emit)
}
