package server

import (
	"context"
	"fmt"

	"github.com/holoocg/holo-server-go/internal/game"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// MatchService is the transport-independent front of the match manager.
type MatchService struct {
	manager      *game.Manager
	startingLife int
	openingHand  int
	logger       *zap.Logger
}

// NewMatchService creates a service. startingLife and openingHand apply to
// every match it creates.
func NewMatchService(manager *game.Manager, startingLife, openingHand int, logger *zap.Logger) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchService{
		manager:      manager,
		startingLife: startingLife,
		openingHand:  openingHand,
		logger:       logger,
	}
}

// ObserveResolved forwards the resolved events of every match created
// afterwards to obs.
func (s *MatchService) ObserveResolved(obs game.ResolvedObserver) {
	s.manager.Observe(obs)
}

// CreateMatch builds and starts a match.
func (s *MatchService) CreateMatch(ctx context.Context, req CreateMatchRequest) (MatchView, error) {
	setup, err := req.ToSetup(s.startingLife, s.openingHand)
	if err != nil {
		return MatchView{}, err
	}
	match, err := s.manager.CreateMatch(ctx, setup)
	if err != nil {
		// anything short of an engine failure is a bad deck or seat list
		if rules.IsFatal(err) {
			return MatchView{}, err
		}
		return MatchView{}, badRequest("%v", err)
	}
	return NewMatchView(match), nil
}

// Submit runs a command. A rejected command returns a *RejectionError
// together with the unchanged view.
func (s *MatchService) Submit(ctx context.Context, matchID string, req CommandRequest) (MatchView, error) {
	match, err := s.match(matchID)
	if err != nil {
		return MatchView{}, err
	}
	cmd, err := ToCommand(req)
	if err != nil {
		return MatchView{}, err
	}

	result, err := match.Submit(ctx, cmd)
	if err != nil {
		return MatchView{}, err
	}
	view := NewMatchView(match)
	if !result.Accepted {
		return view, &RejectionError{Reason: result.Reason}
	}
	return view, nil
}

// Advance moves a match to its next phase.
func (s *MatchService) Advance(ctx context.Context, matchID string) (MatchView, error) {
	match, err := s.match(matchID)
	if err != nil {
		return MatchView{}, err
	}
	if _, err := match.Advance(ctx); err != nil {
		return MatchView{}, err
	}
	return NewMatchView(match), nil
}

// State returns the current view of a match.
func (s *MatchService) State(matchID string) (MatchView, error) {
	match, err := s.match(matchID)
	if err != nil {
		return MatchView{}, err
	}
	return NewMatchView(match), nil
}

// Remove drops a finished or abandoned match.
func (s *MatchService) Remove(matchID string) error {
	if _, err := s.match(matchID); err != nil {
		return err
	}
	return s.manager.RemoveMatch(matchID)
}

// ActiveMatches returns the number of matches in progress
func (s *MatchService) ActiveMatches() int {
	return s.manager.ActiveMatchCount()
}

func (s *MatchService) match(matchID string) (*game.Match, error) {
	if matchID == "" {
		return nil, badRequest("match_id is required")
	}
	match, ok := s.manager.GetMatch(matchID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return match, nil
}
