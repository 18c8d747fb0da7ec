package game

import (
	"fmt"

	"github.com/holoocg/holo-server-go/internal/game/effects"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Resolver is the event application policy used by matches. Every dequeued
// event is run through replacement and, unless prevented, executed and
// appended to the resolved-event log.
type Resolver struct {
	replacement   *effects.ReplacementEngine
	emitter       *effects.RulesEventEmitter
	abilities     *AbilityRegistry
	choose        effects.ChoicePolicy
	applyOptional effects.OptionalPolicy
	logger        *zap.Logger
}

// NewResolver creates a resolver. Nil policies use the replacement defaults.
func NewResolver(
	replacement *effects.ReplacementEngine,
	abilities *AbilityRegistry,
	choose effects.ChoicePolicy,
	applyOptional effects.OptionalPolicy,
	logger *zap.Logger,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if abilities == nil {
		abilities = DefaultAbilityRegistry()
	}
	return &Resolver{
		replacement:   replacement,
		emitter:       effects.NewRulesEventEmitter(replacement, logger),
		abilities:     abilities,
		choose:        choose,
		applyOptional: applyOptional,
		logger:        logger,
	}
}

// Apply implements rules.ApplyEventFunc.
func (r *Resolver) Apply(state *rules.GameState, event rules.Event) (*rules.GameState, error) {
	result, err := r.replacement.Apply(state, event, r.choose, r.applyOptional)
	if err != nil {
		return nil, err
	}
	if result.Prevented {
		r.logger.Debug("event prevented",
			zap.String("event", event.String()),
			zap.Strings("applied", result.AppliedKeys))
		return state, nil
	}

	final := result.Final
	next, err := r.execute(state, final)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", final, err)
	}
	return next.WithEventResolved(final), nil
}

// Emit commits a consequence event through the emitter.
func (r *Resolver) Emit(state *rules.GameState, event rules.Event) (*rules.GameState, error) {
	return r.emitter.EmitEvent(state, event, r.choose, r.applyOptional)
}

func (r *Resolver) execute(state *rules.GameState, event rules.Event) (*rules.GameState, error) {
	switch event.Kind {
	case rules.EventDraw, rules.EventZoneChange:
		return state, nil
	case rules.EventDamage:
		return r.executeDamage(state, event)
	case rules.EventGameLost:
		r.logger.Info("player lost",
			zap.Int("player_id", int(event.Player)),
			zap.String("reason", event.Reason))
		return state.WithPlayerLost(event.Player, event.Reason)
	case rules.EventAbilityActivated:
		return r.executeAbility(state, event)
	default:
		return nil, rules.Fatalf("%w: unknown event kind %q", rules.ErrContractViolation, event.Kind)
	}
}

// executeDamage moves one LifeArea card to the Archive per point of damage.
func (r *Resolver) executeDamage(state *rules.GameState, event rules.Event) (*rules.GameState, error) {
	next := state
	for i := 0; i < event.Amount; i++ {
		life, ok := next.Zone(event.Player, rules.ZoneLifeArea)
		if !ok {
			return nil, rules.Fatal(fmt.Errorf("%w: %s", rules.ErrMissingZone, rules.ZoneID{Player: event.Player, Type: rules.ZoneLifeArea}))
		}
		top, ok := life.Top()
		if !ok {
			break
		}
		moved, err := next.WithCardMoved(event.Player, top.ID, rules.ZoneLifeArea, rules.ZoneArchive, rules.PlacementTop)
		if err != nil {
			return nil, err
		}
		next, err = r.Emit(moved, rules.NewZoneChangeEvent(event.Player, top.ID, rules.ZoneLifeArea, rules.ZoneArchive, rules.PlacementTop))
		if err != nil {
			return nil, err
		}
	}
	return next, nil
}

func (r *Resolver) executeAbility(state *rules.GameState, event rules.Event) (*rules.GameState, error) {
	source, _, ok := state.FindCard(event.Player, event.SourceCard)
	if !ok {
		r.logger.Debug("ability source no longer present",
			zap.Int("player_id", int(event.Player)),
			zap.Int("card_instance_id", int(event.SourceCard)))
		return state, nil
	}
	ability, ok := source.Ability(event.AbilityIndex)
	if !ok {
		return nil, rules.Fatalf("%w: ability index %d out of range for %s", rules.ErrContractViolation, event.AbilityIndex, source)
	}
	effect, ok := r.abilities.Lookup(ability.AbilityID)
	if !ok {
		r.logger.Debug("no effect registered for ability",
			zap.String("ability_id", ability.AbilityID),
			zap.String("card", source.String()))
		return state, nil
	}

	r.logger.Debug("resolving ability",
		zap.String("ability_id", ability.AbilityID),
		zap.String("effect", effect.Name()),
		zap.String("card", source.String()))
	return effect.Resolve(state, effects.Activation{
		Controller:   event.Player,
		Source:       source,
		AbilityIndex: event.AbilityIndex,
		Ability:      ability,
	}, r.Emit)
}
