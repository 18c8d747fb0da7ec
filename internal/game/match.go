package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/holoocg/holo-server-go/internal/game/commands"
	"github.com/holoocg/holo-server-go/internal/game/effects"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Match lifecycle errors. They are not fatal: the match is unaffected.
var (
	ErrMatchNotStarted     = errors.New("match has not started")
	ErrMatchAlreadyStarted = errors.New("match already started")
	ErrMatchOver           = errors.New("match is over")
)

// MatchStatus represents the lifecycle of a match.
type MatchStatus int

const (
	MatchStatusWaiting MatchStatus = iota
	MatchStatusInProgress
	MatchStatusFinished
)

func (s MatchStatus) String() string {
	switch s {
	case MatchStatusWaiting:
		return "WAITING"
	case MatchStatusInProgress:
		return "IN_PROGRESS"
	case MatchStatusFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// EventSink receives resolved events after every committed transition.
// firstSeq is the position of events[0] in the match's resolved-event log.
type EventSink interface {
	AppendEvents(ctx context.Context, matchID string, firstSeq int, events []rules.Event) error
}

// MatchOptions wires the engine components of a match.
type MatchOptions struct {
	MaxIterations         int
	ReplacementEffects    []effects.ReplacementEffect
	ReplacementCategories []rules.EventCategory
	Abilities             *AbilityRegistry
	ChoicePolicy          effects.ChoicePolicy
	OptionalPolicy        effects.OptionalPolicy
	Sink                  EventSink
	Recorder              *ReplayRecorder
}

// Match owns the authoritative state of one game and is its single writer.
// All transitions are serialized by mu. Resolved events are published to
// the event bus after mu is released, in commit order, so listeners may read
// the match.
type Match struct {
	id       string
	logger   *zap.Logger
	bus      *commands.CommandBus
	turns    *rules.TurnPhaseController
	events   *rules.EventBus
	sink     EventSink
	recorder *ReplayRecorder

	mu       sync.Mutex
	state    *rules.GameState
	status   MatchStatus
	outbox   [][]rules.Event
	draining bool
}

// NewMatch wires the engine around initial.
func NewMatch(id string, initial *rules.GameState, opts MatchOptions, logger *zap.Logger) (*Match, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("match id is required")
	}
	if initial == nil {
		return nil, fmt.Errorf("match %s: nil initial state", id)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("match_id", id))

	replacement, err := effects.NewReplacementEngine(opts.ReplacementEffects, opts.ReplacementCategories, logger)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, err)
	}
	resolver := NewResolver(replacement, opts.Abilities, opts.ChoicePolicy, opts.OptionalPolicy, logger)
	timing, err := rules.NewCheckTimingEngine(rules.NewStateBasedRules(), resolver.Apply, opts.MaxIterations, logger)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, err)
	}

	return &Match{
		id:       id,
		logger:   logger,
		bus:      commands.NewCommandBus(timing, logger),
		turns:    rules.NewTurnPhaseController(timing, logger),
		events:   rules.NewEventBus(),
		sink:     opts.Sink,
		recorder: opts.Recorder,
		state:    initial,
		status:   MatchStatusWaiting,
	}, nil
}

// ID returns the match id
func (m *Match) ID() string {
	return m.id
}

// State returns the current authoritative state
func (m *Match) State() *rules.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a detached view of the current state
func (m *Match) Snapshot() rules.Snapshot {
	return m.State().Snapshot()
}

// Status returns the lifecycle status
func (m *Match) Status() MatchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Events returns the bus on which resolved events are published. Listeners
// run without the match lock held.
func (m *Match) Events() *rules.EventBus {
	return m.events
}

// Start enters the first phase of the first turn.
func (m *Match) Start(ctx context.Context) error {
	defer m.flush()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != MatchStatusWaiting {
		return ErrMatchAlreadyStarted
	}
	next, err := m.turns.EnterCurrentPhase(m.state)
	if err != nil {
		return m.fail("start", err)
	}
	m.status = MatchStatusInProgress
	m.logger.Info("match started",
		zap.Int("starting_player", int(next.ActivePlayer())),
		zap.Ints("players", playerInts(next.PlayerIDs())))
	m.commit(ctx, next)
	return nil
}

// Submit runs cmd through the command bus. Commands are only accepted from
// the active player during an action window of a running match.
func (m *Match) Submit(ctx context.Context, cmd commands.Command) (commands.Result, error) {
	if cmd == nil {
		return commands.Result{}, rules.Fatalf("submit: %w: nil command", rules.ErrContractViolation)
	}

	defer m.flush()
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.state
	if reason := m.submissionBlocked(state, cmd); reason != "" {
		m.logger.Warn("command refused",
			zap.String("command", cmd.Name()),
			zap.Int("player_id", int(cmd.Player())),
			zap.String("reason", reason))
		return commands.Rejected(state, reason), nil
	}

	result, err := m.bus.Process(state, cmd)
	if err != nil {
		return commands.Result{}, m.fail(cmd.Name(), err)
	}
	if result.Accepted {
		m.commit(ctx, result.State)
	}
	return result, nil
}

func (m *Match) submissionBlocked(state *rules.GameState, cmd commands.Command) string {
	switch {
	case m.status == MatchStatusWaiting:
		return "Match has not started."
	case m.status == MatchStatusFinished:
		return "Match is over."
	case !rules.IsPlayerActionWindow(state.Phase()):
		return fmt.Sprintf("Commands are not accepted during the %s phase.", state.Phase())
	case cmd.Player() != state.ActivePlayer():
		return fmt.Sprintf("Player %d is not the active player.", cmd.Player())
	default:
		return ""
	}
}

// Advance moves the match to its next phase.
func (m *Match) Advance(ctx context.Context) (*rules.GameState, error) {
	defer m.flush()
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case MatchStatusWaiting:
		return nil, ErrMatchNotStarted
	case MatchStatusFinished:
		return nil, ErrMatchOver
	}

	next, err := m.turns.Advance(m.state)
	if err != nil {
		return nil, m.fail("advance", err)
	}
	m.commit(ctx, next)
	return next, nil
}

// commit installs next as the authoritative state and forwards what was
// resolved since the previous state. The batch is queued for flush. Must be
// called with mu held.
func (m *Match) commit(ctx context.Context, next *rules.GameState) {
	prev := m.state
	m.state = next

	firstSeq := prev.ResolvedCount()
	resolved := next.ResolvedSince(firstSeq)
	if len(resolved) > 0 {
		m.outbox = append(m.outbox, resolved)
	}

	if m.sink != nil && len(resolved) > 0 {
		if err := m.sink.AppendEvents(ctx, m.id, firstSeq, resolved); err != nil {
			m.logger.Error("failed to persist resolved events",
				zap.Int("first_seq", firstSeq),
				zap.Int("count", len(resolved)),
				zap.Error(err))
		}
	}
	if m.recorder != nil {
		snapshot := next.Snapshot()
		m.recorder.RecordState(m.id, &snapshot)
	}

	if next.IsOver() && m.status != MatchStatusFinished {
		m.status = MatchStatusFinished
		winner, ok := next.Winner()
		m.logger.Info("match finished",
			zap.Bool("has_winner", ok),
			zap.Int("winner", int(winner)),
			zap.Int("turn", next.TurnNumber()))
	}
}

// flush publishes queued batches with mu released. One caller drains at a
// time; a transition made by a listener is queued and published by the
// caller already draining.
func (m *Match) flush() {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	for len(m.outbox) > 0 {
		batch := m.outbox[0]
		m.outbox = m.outbox[1:]
		m.mu.Unlock()
		m.events.PublishBatch(batch)
		m.mu.Lock()
	}
	m.draining = false
	m.mu.Unlock()
}

// fail logs a failed transition. The state is left as it was.
func (m *Match) fail(op string, err error) error {
	if rules.IsFatal(err) {
		m.logger.Error("transition aborted",
			zap.String("op", op),
			zap.Int("turn", m.state.TurnNumber()),
			zap.String("phase", m.state.Phase().String()),
			zap.Error(err))
	}
	return fmt.Errorf("match %s: %s: %w", m.id, op, err)
}

func playerInts(ids []rules.PlayerID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
