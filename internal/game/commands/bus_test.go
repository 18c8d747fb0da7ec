package commands

import (
	"errors"
	"testing"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBus_StabilizationFailureIsFatal(t *testing.T) {
	loop := func(state *rules.GameState, e rules.Event) (*rules.GameState, error) {
		return state.WithEventAdded(e), nil
	}
	state := newTestState(t, 1, 0)

	result, err := newTestBus(t, loop).Process(state, NewPlayCardCommand(1, 1, DestinationCenterStage))
	require.Error(t, err)
	assert.True(t, rules.IsFatal(err))
	assert.True(t, errors.Is(err, rules.ErrNotStabilized))
	assert.Nil(t, result.State)
}

func TestCommandBus_NilInputsAreFatal(t *testing.T) {
	bus := newTestBus(t, nil)
	_, err := bus.Process(nil, NewPlayCardCommand(1, 1, DestinationCenterStage))
	assert.True(t, rules.IsFatal(err))

	_, err = bus.Process(newTestState(t, 1, 0), nil)
	assert.True(t, rules.IsFatal(err))
}

func TestCommandBus_AcceptedStateIsStable(t *testing.T) {
	state := newTestState(t, 1, 0)
	bus := newTestBus(t, nil)
	result, err := bus.Process(state, NewPlayCardCommand(1, 1, DestinationBackStage))
	require.NoError(t, err)
	require.True(t, result.Accepted)

	timing, err := rules.NewCheckTimingEngine(nil, resolveAll, 0, nil)
	require.NoError(t, err)
	again, err := timing.Run(result.State, 0)
	require.NoError(t, err)
	assert.Same(t, result.State, again)
}
