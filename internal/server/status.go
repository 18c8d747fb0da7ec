package server

import (
	"errors"
	"fmt"

	"github.com/holoocg/holo-server-go/internal/game"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrMatchNotFound is returned for unknown match ids.
var ErrMatchNotFound = errors.New("match not found")

// RejectionError carries the reason a command was rejected.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("command rejected: %s", e.Reason)
}

// StatusFromError maps engine and request errors to gRPC status errors.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var rejection *RejectionError
	switch {
	case rules.IsFatal(err):
		return status.Error(codes.Internal, err.Error())
	case errors.As(err, &rejection):
		return status.Error(codes.FailedPrecondition, rejection.Reason)
	case errors.Is(err, ErrMatchNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, game.ErrMatchNotStarted),
		errors.Is(err, game.ErrMatchAlreadyStarted),
		errors.Is(err, game.ErrMatchOver):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}
