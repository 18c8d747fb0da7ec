package effects

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// ReplacementEffect watches for events of some categories and transforms
// them before they happen.
//
// An effect gets one opportunity per event: once its key has been applied to
// an event, including anything that event was replaced into, it is not
// considered for that event again. Implementations must be pure.
type ReplacementEffect interface {
	// Key is a stable identity, e.g. card instance plus ability.
	Key() string

	// Priority orders effects when no choice policy is given. Higher first.
	Priority() int

	// IsOptional reports whether the controller may decline the effect.
	IsOptional() bool

	// OrderingController returns the player who orders this effect for the
	// event. ok is false when the effect declares none, in which case the
	// active player orders it.
	OrderingController(state *rules.GameState, event rules.Event) (rules.PlayerID, bool)

	// ChecksCategory is the cheap first filter on the event category.
	ChecksCategory(category rules.EventCategory) bool

	// AppliesTo reports whether the effect applies to this event in state.
	AppliesTo(state *rules.GameState, event rules.Event) bool

	// Replace returns the transformed event. prevented is true when the
	// event does not happen at all.
	Replace(state *rules.GameState, event rules.Event) (replaced rules.Event, prevented bool)
}

// EffectKey derives a stable key for an effect from its source and a name.
// The same inputs always give the same key across processes.
func EffectKey(sourceID, name string) string {
	seed := fmt.Sprintf("%s|replacement|%s", strings.TrimSpace(sourceID), strings.TrimSpace(name))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// BaseReplacementEffect provides the identity part of an effect.
type BaseReplacementEffect struct {
	key        string
	priority   int
	optional   bool
	controller rules.PlayerID
	categories []rules.EventCategory
}

// NewBaseReplacementEffect creates the shared part of an effect. controller
// may be rules.NoPlayer to defer ordering to the active player.
func NewBaseReplacementEffect(key string, priority int, optional bool, controller rules.PlayerID, categories ...rules.EventCategory) *BaseReplacementEffect {
	return &BaseReplacementEffect{
		key:        strings.TrimSpace(key),
		priority:   priority,
		optional:   optional,
		controller: controller,
		categories: append([]rules.EventCategory(nil), categories...),
	}
}

// Key returns the stable key
func (e *BaseReplacementEffect) Key() string {
	return e.key
}

// Priority returns the default ordering priority
func (e *BaseReplacementEffect) Priority() int {
	return e.priority
}

// IsOptional returns whether the effect may be declined
func (e *BaseReplacementEffect) IsOptional() bool {
	return e.optional
}

// OrderingController returns the declared controller, if any
func (e *BaseReplacementEffect) OrderingController(*rules.GameState, rules.Event) (rules.PlayerID, bool) {
	return e.controller, e.controller != rules.NoPlayer
}

// ChecksCategory reports whether the effect watches category
func (e *BaseReplacementEffect) ChecksCategory(category rules.EventCategory) bool {
	return slices.Contains(e.categories, category)
}

// DamagePreventionEffect prevents damage dealt to a player.
// Example: "Prevent the next 2 damage that would be dealt to you"
type DamagePreventionEffect struct {
	*BaseReplacementEffect
	target rules.PlayerID       // NoPlayer = any player
	source rules.CardInstanceID // NoCard = any source
	amount int                  // 0 = all
}

// NewDamagePreventionEffect creates a damage prevention effect.
func NewDamagePreventionEffect(key string, priority int, controller, target rules.PlayerID, source rules.CardInstanceID, amount int) *DamagePreventionEffect {
	return &DamagePreventionEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(key, priority, false, controller, rules.CategoryDamage),
		target:                target,
		source:                source,
		amount:                amount,
	}
}

// AppliesTo checks target and source filters
func (e *DamagePreventionEffect) AppliesTo(_ *rules.GameState, event rules.Event) bool {
	if event.Kind != rules.EventDamage {
		return false
	}
	if e.target != rules.NoPlayer && event.Player != e.target {
		return false
	}
	return e.source == rules.NoCard || event.SourceCard == e.source
}

// Replace prevents all damage, or reduces it by the effect's amount
func (e *DamagePreventionEffect) Replace(_ *rules.GameState, event rules.Event) (rules.Event, bool) {
	if e.amount == 0 || event.Amount <= e.amount {
		event.Amount = 0
		return event, true
	}
	event.Amount -= e.amount
	return event, false
}

// DamageModifierEffect adds a fixed delta to damage dealt to a player.
// Example: "Damage dealt to your opponent's holomem is increased by 10"
type DamageModifierEffect struct {
	*BaseReplacementEffect
	target rules.PlayerID
	delta  int
}

// NewDamageModifierEffect creates a damage modifier. A result at or below
// zero prevents the damage.
func NewDamageModifierEffect(key string, priority int, optional bool, controller, target rules.PlayerID, delta int) *DamageModifierEffect {
	return &DamageModifierEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(key, priority, optional, controller, rules.CategoryDamage),
		target:                target,
		delta:                 delta,
	}
}

// AppliesTo checks the target filter
func (e *DamageModifierEffect) AppliesTo(_ *rules.GameState, event rules.Event) bool {
	return event.Kind == rules.EventDamage && (e.target == rules.NoPlayer || event.Player == e.target)
}

// Replace adds the delta
func (e *DamageModifierEffect) Replace(_ *rules.GameState, event rules.Event) (rules.Event, bool) {
	event.Amount += e.delta
	if event.Amount <= 0 {
		event.Amount = 0
		return event, true
	}
	return event, false
}

// DoubleDamageEffect doubles damage dealt to a player.
type DoubleDamageEffect struct {
	*BaseReplacementEffect
	target rules.PlayerID
}

// NewDoubleDamageEffect creates a doubling effect.
func NewDoubleDamageEffect(key string, priority int, controller, target rules.PlayerID) *DoubleDamageEffect {
	return &DoubleDamageEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(key, priority, false, controller, rules.CategoryDamage),
		target:                target,
	}
}

// AppliesTo checks the target filter
func (e *DoubleDamageEffect) AppliesTo(_ *rules.GameState, event rules.Event) bool {
	return event.Kind == rules.EventDamage && (e.target == rules.NoPlayer || event.Player == e.target)
}

// Replace doubles the amount
func (e *DoubleDamageEffect) Replace(_ *rules.GameState, event rules.Event) (rules.Event, bool) {
	event.Amount *= 2
	return event, false
}

// LossPreventionEffect stops a player from losing the game.
type LossPreventionEffect struct {
	*BaseReplacementEffect
	player rules.PlayerID
}

// NewLossPreventionEffect creates an effect that prevents player's losses.
func NewLossPreventionEffect(key string, priority int, optional bool, player rules.PlayerID) *LossPreventionEffect {
	return &LossPreventionEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(key, priority, optional, player, rules.CategoryLoss),
		player:                player,
	}
}

// AppliesTo matches losses of the protected player
func (e *LossPreventionEffect) AppliesTo(_ *rules.GameState, event rules.Event) bool {
	return event.Kind == rules.EventGameLost && event.Player == e.player
}

// Replace prevents the loss
func (e *LossPreventionEffect) Replace(_ *rules.GameState, event rules.Event) (rules.Event, bool) {
	return event, true
}

// FuncReplacementEffect adapts plain functions to ReplacementEffect. Card
// scripts use it for one-off effects.
type FuncReplacementEffect struct {
	*BaseReplacementEffect
	applies func(*rules.GameState, rules.Event) bool
	replace func(*rules.GameState, rules.Event) (rules.Event, bool)
}

// NewFuncReplacementEffect wraps applies and replace. A nil applies matches
// every event of the effect's categories.
func NewFuncReplacementEffect(
	base *BaseReplacementEffect,
	applies func(*rules.GameState, rules.Event) bool,
	replace func(*rules.GameState, rules.Event) (rules.Event, bool),
) *FuncReplacementEffect {
	return &FuncReplacementEffect{BaseReplacementEffect: base, applies: applies, replace: replace}
}

// AppliesTo calls the wrapped predicate
func (e *FuncReplacementEffect) AppliesTo(state *rules.GameState, event rules.Event) bool {
	if e.applies == nil {
		return true
	}
	return e.applies(state, event)
}

// Replace calls the wrapped transform
func (e *FuncReplacementEffect) Replace(state *rules.GameState, event rules.Event) (rules.Event, bool) {
	if e.replace == nil {
		return event, false
	}
	return e.replace(state, event)
}
