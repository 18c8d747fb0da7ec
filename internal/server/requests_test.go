package server

import (
	"testing"

	"github.com/holoocg/holo-server-go/internal/game/commands"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCommand(t *testing.T) {
	cmd, err := ToCommand(CommandRequest{CommandType: "play_card", PlayerID: 1, CardInstanceID: 4, Destination: "Back"})
	require.NoError(t, err)
	play, ok := cmd.(*commands.PlayCardCommand)
	require.True(t, ok)
	assert.Equal(t, rules.PlayerID(1), play.Player())
	assert.Equal(t, rules.CardInstanceID(4), play.Card())
	assert.Equal(t, commands.DestinationBackStage, play.Destination())

	cmd, err = ToCommand(CommandRequest{CommandType: "ACTIVATE_ABILITY", PlayerID: 2, SourceCardInstanceID: 9, AbilityIndex: 1})
	require.NoError(t, err)
	activate, ok := cmd.(*commands.ActivateAbilityCommand)
	require.True(t, ok)
	assert.Equal(t, rules.PlayerID(2), activate.Player())
	assert.Equal(t, rules.CardInstanceID(9), activate.Source())
	assert.Equal(t, 1, activate.AbilityIndex())
}

func TestToCommandBadRequests(t *testing.T) {
	tests := map[string]CommandRequest{
		"no player":      {CommandType: "play_card", CardInstanceID: 1, Destination: "center"},
		"no card":        {CommandType: "play_card", PlayerID: 1, Destination: "center"},
		"bad dest":       {CommandType: "play_card", PlayerID: 1, CardInstanceID: 1, Destination: "archive"},
		"no source":      {CommandType: "activate_ability", PlayerID: 1},
		"negative index": {CommandType: "activate_ability", PlayerID: 1, SourceCardInstanceID: 1, AbilityIndex: -1},
		"unknown type":   {CommandType: "mulligan", PlayerID: 1},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ToCommand(req)
			assert.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestCreateMatchRequestToSetup(t *testing.T) {
	setup, err := testCreateRequest().ToSetup(5, 7)
	require.NoError(t, err)
	assert.Len(t, setup.Players, 2)
	assert.Equal(t, uint64(7), setup.Seed)
	assert.Equal(t, 5, setup.StartingLife)
	assert.Equal(t, 7, setup.OpeningHand)

	req := testCreateRequest()
	req.Seed = 0
	setup, err = req.ToSetup(5, 0)
	require.NoError(t, err)
	assert.NotZero(t, setup.Seed)
	assert.Equal(t, -1, setup.OpeningHand)

	req = testCreateRequest()
	req.Players = req.Players[:1]
	_, err = req.ToSetup(5, 7)
	assert.ErrorIs(t, err, ErrBadRequest)

	req = testCreateRequest()
	req.Players[1].Deck = nil
	_, err = req.ToSetup(5, 7)
	assert.ErrorIs(t, err, ErrBadRequest)
}
