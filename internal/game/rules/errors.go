package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that mean the engine itself is broken rather
// than that a player asked for something illegal.
var (
	// ErrMissingZone is returned when a (player, zone type) pair has no zone.
	ErrMissingZone = errors.New("missing zone")
	// ErrUnknownPlayer is returned when an operation names an unregistered player.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrCardNotFound is returned when a card instance is not where it was expected.
	ErrCardNotFound = errors.New("card instance not found")
	// ErrContractViolation is returned when a caller breaks a documented precondition.
	ErrContractViolation = errors.New("contract violation")
	// ErrNotStabilized is returned when check timing exhausts its iteration bound.
	ErrNotStabilized = errors.New("check timing did not stabilize")
)

// fatal is implemented by errors that must abort the current transition.
type fatal interface {
	Fatal() bool
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }
func (e *fatalError) Fatal() bool   { return true }

// Fatal marks err as fatal. A nil error stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	if IsFatal(err) {
		return err
	}
	return &fatalError{err: err}
}

// Fatalf formats an error and marks it fatal.
func Fatalf(format string, args ...any) error {
	return Fatal(fmt.Errorf(format, args...))
}

// IsFatal reports whether any error in err's chain is marked fatal.
func IsFatal(err error) bool {
	var f fatal
	if errors.As(err, &f) {
		return f.Fatal()
	}
	return false
}
