package game

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/holoocg/holo-server-go/internal/game/effects"
	"github.com/holoocg/holo-server-go/internal/game/rules"
)

// Stock ability ids understood by DefaultAbilityRegistry.
const (
	AbilityDrawCard    = "draw_card"
	AbilityDealDamage  = "deal_damage"
	AbilityArchiveSelf = "archive_self"
)

// AbilityRegistry maps ability ids from card content to their effects.
type AbilityRegistry struct {
	mu      sync.RWMutex
	effects map[string]*effects.OneShotEffect
}

// NewAbilityRegistry creates an empty registry.
func NewAbilityRegistry() *AbilityRegistry {
	return &AbilityRegistry{effects: make(map[string]*effects.OneShotEffect)}
}

// DefaultAbilityRegistry returns a registry holding the stock abilities.
func DefaultAbilityRegistry() *AbilityRegistry {
	r := NewAbilityRegistry()
	r.mustRegister(AbilityDrawCard, effects.NewOneShotEffect("draw one card", resolveDrawCard))
	r.mustRegister(AbilityDealDamage, effects.NewOneShotEffect("deal 1 damage to each opponent", resolveDealDamage))
	r.mustRegister(AbilityArchiveSelf, effects.NewOneShotEffect("archive this card", resolveArchiveSelf))
	return r
}

// Register binds abilityID to effect.
func (r *AbilityRegistry) Register(abilityID string, effect *effects.OneShotEffect) error {
	id := strings.TrimSpace(abilityID)
	if id == "" {
		return fmt.Errorf("ability id is required")
	}
	if effect == nil {
		return fmt.Errorf("ability %s: nil effect", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.effects[id]; exists {
		return fmt.Errorf("ability %s already registered", id)
	}
	r.effects[id] = effect
	return nil
}

func (r *AbilityRegistry) mustRegister(abilityID string, effect *effects.OneShotEffect) {
	if err := r.Register(abilityID, effect); err != nil {
		panic(err)
	}
}

// Lookup returns the effect registered for abilityID.
func (r *AbilityRegistry) Lookup(abilityID string) (*effects.OneShotEffect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	effect, ok := r.effects[strings.TrimSpace(abilityID)]
	return effect, ok
}

// IDs returns the registered ability ids in sorted order.
func (r *AbilityRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.effects))
	for id := range r.effects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func resolveDrawCard(state *rules.GameState, a effects.Activation, _ effects.EmitFunc) (*rules.GameState, error) {
	return state.DrawCard(a.Controller)
}

func resolveDealDamage(state *rules.GameState, a effects.Activation, emit effects.EmitFunc) (*rules.GameState, error) {
	next := state
	for _, p := range state.Players() {
		if p.ID == a.Controller || p.Lost {
			continue
		}
		var err error
		next, err = emit(next, rules.NewDamageEvent(p.ID, 1, a.Source.ID))
		if err != nil {
			return nil, err
		}
	}
	return next, nil
}

func resolveArchiveSelf(state *rules.GameState, a effects.Activation, _ effects.EmitFunc) (*rules.GameState, error) {
	card, _, ok := state.FindCard(a.Source.Owner, a.Source.ID)
	if !ok {
		return state, nil
	}
	return state.SendToArchive(card)
}
