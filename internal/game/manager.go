package game

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// ResolvedObserver receives every resolved event of a match with its
// position in the match's resolved-event log.
type ResolvedObserver func(matchID string, seq int, event rules.Event)

// Manager tracks the matches hosted by this process.
type Manager struct {
	matches   map[string]*Match
	observers []ResolvedObserver
	mu        sync.RWMutex
	cards     CardLookup
	opts      MatchOptions
	logger    *zap.Logger
}

// NewManager creates a manager that builds matches from cards with opts.
func NewManager(cards CardLookup, opts MatchOptions, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		matches: make(map[string]*Match),
		cards:   cards,
		opts:    opts,
		logger:  logger,
	}
}

// Observe registers obs for every match created afterwards. Observers see
// each match's events from the first one, in order.
func (m *Manager) Observe(obs ResolvedObserver) {
	if obs == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, obs)
}

// CreateMatch builds and starts a new match.
func (m *Manager) CreateMatch(ctx context.Context, setup MatchSetup) (*Match, error) {
	initial, err := NewInitialState(setup, m.cards)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	rec := m.opts.Recorder
	if rec != nil {
		rec.StartRecording(id)
	}
	match, err := NewMatch(id, initial, m.opts, m.logger)
	if err != nil {
		if rec != nil {
			rec.ClearReplay(id)
		}
		return nil, err
	}

	m.mu.RLock()
	observers := slices.Clone(m.observers)
	m.mu.RUnlock()
	for _, obs := range observers {
		seq := 0
		match.Events().Subscribe(func(e rules.Event) {
			obs(id, seq, e)
			seq++
		})
	}

	if err := match.Start(ctx); err != nil {
		if rec != nil {
			rec.ClearReplay(id)
		}
		return nil, err
	}

	m.mu.Lock()
	m.matches[id] = match
	m.mu.Unlock()

	m.logger.Info("match created",
		zap.String("match_id", id),
		zap.Int("players", len(setup.Players)),
		zap.Uint64("seed", setup.Seed))
	return match, nil
}

// GetMatch returns a match by id.
func (m *Manager) GetMatch(matchID string) (*Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[matchID]
	return match, ok
}

// RemoveMatch drops a match. A recorded replay is saved to disk first.
func (m *Manager) RemoveMatch(matchID string) error {
	m.mu.Lock()
	_, ok := m.matches[matchID]
	delete(m.matches, matchID)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("match %s not found", matchID)
	}
	if rec := m.opts.Recorder; rec != nil {
		if _, recorded := rec.GetReplay(matchID); recorded {
			if err := rec.SaveReplay(matchID); err != nil {
				m.logger.Warn("failed to save replay",
					zap.String("match_id", matchID),
					zap.Error(err))
			}
		}
	}
	m.logger.Info("match removed", zap.String("match_id", matchID))
	return nil
}

// MatchIDs returns the ids of all hosted matches in sorted order.
func (m *Manager) MatchIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.matches))
	for id := range m.matches {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ActiveMatchCount returns the number of matches still in progress.
func (m *Manager) ActiveMatchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, match := range m.matches {
		if match.Status() == MatchStatusInProgress {
			count++
		}
	}
	return count
}
