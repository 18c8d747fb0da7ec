package effects

import (
	"fmt"
	"slices"
	"strings"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// ChoicePolicy picks which of the candidates the controller applies next.
// Returning ok=false aborts the chain with the current event as final. The
// returned effect must be one of candidates.
type ChoicePolicy func(controller rules.PlayerID, current rules.Event, candidates []ReplacementEffect) (chosen ReplacementEffect, ok bool)

// OptionalPolicy decides whether the controller applies an optional effect.
type OptionalPolicy func(controller rules.PlayerID, current rules.Event, effect ReplacementEffect) bool

// ReplacementResult is the outcome of one replacement chain.
type ReplacementResult struct {
	Original rules.Event
	// Final is the event that happens. It is meaningless when Prevented.
	Final     rules.Event
	Prevented bool
	// AppliedKeys lists the effects used in this chain, in order, including
	// declined optional effects.
	AppliedKeys []string
}

// ReplacementEngine runs replacement chains over a fixed set of effects.
// It holds no mutable state, so one engine may serve any number of matches.
type ReplacementEngine struct {
	effects    []ReplacementEffect
	categories map[rules.EventCategory]bool
	logger     *zap.Logger
}

// NewReplacementEngine creates an engine over effects, replacing only events
// of the given categories. Nil categories enables every category.
func NewReplacementEngine(effects []ReplacementEffect, categories []rules.EventCategory, logger *zap.Logger) (*ReplacementEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if categories == nil {
		categories = rules.AllEventCategories()
	}

	seen := make(map[string]bool, len(effects))
	for i, effect := range effects {
		if effect == nil {
			return nil, fmt.Errorf("replacement effect %d is nil", i)
		}
		key := strings.TrimSpace(effect.Key())
		if key == "" {
			return nil, fmt.Errorf("replacement effect %d has an empty key", i)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate replacement effect key %q", key)
		}
		seen[key] = true
	}

	enabled := make(map[rules.EventCategory]bool, len(categories))
	for _, c := range categories {
		enabled[c] = true
	}

	return &ReplacementEngine{
		effects:    append([]ReplacementEffect(nil), effects...),
		categories: enabled,
		logger:     logger,
	}, nil
}

// Effects returns the registered effects
func (re *ReplacementEngine) Effects() []ReplacementEffect {
	return append([]ReplacementEffect(nil), re.effects...)
}

// IsEnabled reports whether events of category are replaced
func (re *ReplacementEngine) IsEnabled(category rules.EventCategory) bool {
	return re.categories[category]
}

// Apply runs the replacement chain for event. Keys already recorded on the
// event count as applied. Nil policies use the defaults: highest priority
// then ascending key, and always apply optional effects.
func (re *ReplacementEngine) Apply(state *rules.GameState, event rules.Event, choose ChoicePolicy, applyOptional OptionalPolicy) (ReplacementResult, error) {
	result := ReplacementResult{Original: event, Final: event}
	if state == nil {
		return result, rules.Fatalf("replacement: %w: nil state", rules.ErrContractViolation)
	}
	if !re.IsEnabled(event.Category()) {
		return result, nil
	}

	applied := make(map[string]bool, len(event.Applied))
	for _, key := range event.Applied {
		applied[key] = true
	}
	current := event

	for {
		if !re.IsEnabled(current.Category()) {
			break
		}

		applicable := re.findApplicable(state, current, applied)
		if len(applicable) == 0 {
			break
		}

		controller, candidates := re.orderingCandidates(state, current, applicable)

		var chosen ReplacementEffect
		if choose != nil {
			pick, ok := choose(controller, current, candidates)
			if !ok || pick == nil {
				re.logger.Debug("replacement chain aborted by choice policy",
					zap.String("event", current.String()),
					zap.Int("controller", int(controller)))
				break
			}
			i := slices.IndexFunc(candidates, func(c ReplacementEffect) bool { return c.Key() == pick.Key() })
			if i < 0 {
				return result, rules.Fatalf("replacement: %w: choice policy returned effect %q outside the candidate set",
					rules.ErrContractViolation, pick.Key())
			}
			chosen = candidates[i]
		} else {
			chosen = highestPriority(candidates)
		}

		key := chosen.Key()
		applied[key] = true
		result.AppliedKeys = append(result.AppliedKeys, key)

		if chosen.IsOptional() && applyOptional != nil && !applyOptional(controller, current, chosen) {
			re.logger.Debug("optional replacement effect declined",
				zap.String("effect_key", key),
				zap.Int("controller", int(controller)))
			continue
		}

		replaced, prevented := chosen.Replace(state, current)
		re.logger.Debug("applied replacement effect",
			zap.String("effect_key", key),
			zap.String("event", current.String()),
			zap.Bool("prevented", prevented))

		if prevented {
			result.Prevented = true
			result.Final = current.WithApplied(result.AppliedKeys...)
			return result, nil
		}
		current = replaced
	}

	result.Final = current.WithApplied(result.AppliedKeys...)
	return result, nil
}

// findApplicable returns effects that are not yet applied and apply to event.
func (re *ReplacementEngine) findApplicable(state *rules.GameState, event rules.Event, applied map[string]bool) []ReplacementEffect {
	applicable := make([]ReplacementEffect, 0)
	for _, effect := range re.effects {
		if applied[effect.Key()] {
			continue
		}
		if !effect.ChecksCategory(event.Category()) {
			continue
		}
		if !effect.AppliesTo(state, event) {
			continue
		}
		applicable = append(applicable, effect)
	}
	return applicable
}

// orderingCandidates walks controllers in APNAP order and returns the first
// controller with at least one applicable effect, together with its effects.
// Effects without a declared controller belong to the active player.
func (re *ReplacementEngine) orderingCandidates(state *rules.GameState, event rules.Event, applicable []ReplacementEffect) (rules.PlayerID, []ReplacementEffect) {
	active := state.ActivePlayer()
	byController := make(map[rules.PlayerID][]ReplacementEffect)
	for _, effect := range applicable {
		controller, ok := effect.OrderingController(state, event)
		if !ok {
			controller = active
		}
		byController[controller] = append(byController[controller], effect)
	}

	for _, controller := range apnapOrder(state, byController) {
		if candidates := byController[controller]; len(candidates) > 0 {
			return controller, candidates
		}
	}
	// unreachable: applicable is non-empty
	return active, applicable
}

// apnapOrder is the active player, then the other registered players in
// ascending order, then any controllers not registered in the match.
func apnapOrder(state *rules.GameState, byController map[rules.PlayerID][]ReplacementEffect) []rules.PlayerID {
	active := state.ActivePlayer()
	order := []rules.PlayerID{active}
	for _, id := range state.PlayerIDs() {
		if id != active {
			order = append(order, id)
		}
	}
	var strays []rules.PlayerID
	for id := range byController {
		if !slices.Contains(order, id) {
			strays = append(strays, id)
		}
	}
	slices.Sort(strays)
	return append(order, strays...)
}

// highestPriority picks the highest priority effect, ties broken by key.
func highestPriority(candidates []ReplacementEffect) ReplacementEffect {
	best := candidates[0]
	for _, effect := range candidates[1:] {
		if effect.Priority() > best.Priority() ||
			(effect.Priority() == best.Priority() && effect.Key() < best.Key()) {
			best = effect
		}
	}
	return best
}
