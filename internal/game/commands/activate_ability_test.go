package commands

import (
	"errors"
	"testing"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateAbility_EnqueuesActivation(t *testing.T) {
	state := newTestState(t, 1, 0)
	result, err := newTestBus(t, nil).Process(state, NewActivateAbilityCommand(1, 1, 0))
	require.NoError(t, err)
	require.True(t, result.Accepted, result.Reason)

	resolved := result.State.ResolvedEvents()
	require.Len(t, resolved, 1)
	assert.Equal(t, rules.EventAbilityActivated, resolved[0].Kind)
	assert.Equal(t, rules.PlayerID(1), resolved[0].Player)
	assert.Equal(t, rules.CardInstanceID(1), resolved[0].SourceCard)
	assert.Equal(t, 0, resolved[0].AbilityIndex)
}

func TestActivateAbility_Rejections(t *testing.T) {
	state := newTestState(t, 2, 0)
	bus := newTestBus(t, nil)

	tests := []struct {
		name    string
		command *ActivateAbilityCommand
		reason  string
	}{
		{"unknown player", NewActivateAbilityCommand(3, 1, 0), "Unknown player id 3."},
		{"not owned", NewActivateAbilityCommand(1, 77, 0), "Source card instance 77 was not found for player 1."},
		{"index too high", NewActivateAbilityCommand(1, 1, 1), "Ability index 1 is out of range for card 'AZKi'."},
		{"negative index", NewActivateAbilityCommand(1, 1, -1), "Ability index -1 is out of range for card 'AZKi'."},
		{"no abilities", NewActivateAbilityCommand(2, 2, 0), "Ability index 0 is out of range for card 'Hoshimachi Suisei'."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := bus.Process(state, tt.command)
			require.NoError(t, err)
			assert.False(t, result.Accepted)
			assert.Equal(t, tt.reason, result.Reason)
			assert.Same(t, state, result.State)
		})
	}
}

func TestActivateAbility_ExecuteWithoutValidationIsFatal(t *testing.T) {
	_, err := NewActivateAbilityCommand(1, 1, 5).Execute(newTestState(t, 1, 0))
	assert.True(t, rules.IsFatal(err))
	assert.True(t, errors.Is(err, rules.ErrContractViolation))
}
