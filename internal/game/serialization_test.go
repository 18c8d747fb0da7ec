package game

import (
	"testing"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChecksumDeterministic(t *testing.T) {
	a := newTestInitialState(t, cardSora, 10, 5).Snapshot()
	b := newTestInitialState(t, cardSora, 10, 5).Snapshot()

	ca := ComputeChecksum(a)
	assert.Len(t, ca.Hash, 64)
	assert.Equal(t, ChecksumVersion, ca.Version)
	assert.Equal(t, ca, ComputeChecksum(b))
}

func TestComputeChecksumSensitivity(t *testing.T) {
	base := newTestInitialState(t, cardSora, 10, 5)
	reference := ComputeChecksum(base.Snapshot()).Hash

	tests := []struct {
		name  string
		state func(t *testing.T) *rules.GameState
	}{
		{"phase", func(*testing.T) *rules.GameState { return base.WithPhase(rules.PhaseMain) }},
		{"turn", func(*testing.T) *rules.GameState { return base.WithTurnNumber(4) }},
		{"pending event", func(*testing.T) *rules.GameState {
			return base.WithEventAdded(rules.NewDamageEvent(2, 1, rules.NoCard))
		}},
		{"applied key", func(*testing.T) *rules.GameState {
			return base.WithEventAdded(rules.NewDamageEvent(2, 1, rules.NoCard).WithApplied("shield"))
		}},
		{"card moved", func(t *testing.T) *rules.GameState {
			card := handTop(t, base, 1)
			next, err := base.WithCardMoved(1, card.ID, rules.ZoneHand, rules.ZoneArchive, rules.PlacementTop)
			require.NoError(t, err)
			return next
		}},
	}

	seen := map[string]string{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := ComputeChecksum(tt.state(t).Snapshot()).Hash
			assert.NotEqual(t, reference, hash)
			for other, h := range seen {
				assert.NotEqual(t, h, hash, "collides with %s", other)
			}
			seen[tt.name] = hash
		})
	}
}

func TestVerifyChecksum(t *testing.T) {
	snapshot := newTestInitialState(t, cardSora, 10, 5).Snapshot()
	sum := ComputeChecksum(snapshot)

	ok, err := VerifyChecksum(snapshot, sum)
	require.NoError(t, err)
	assert.True(t, ok)

	snapshot.TurnNumber++
	ok, err = VerifyChecksum(snapshot, sum)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyChecksum(snapshot, SnapshotChecksum{Hash: sum.Hash, Version: 7})
	assert.Error(t, err)
}

func TestSerializationRoundtrip(t *testing.T) {
	state := newTestInitialState(t, cardSora, 10, 5)
	state = state.WithEventAdded(rules.NewZoneChangeEvent(1, 3, rules.ZoneHand, rules.ZoneBackStage, rules.PlacementTop).WithApplied("a", "b"))
	snapshot := state.Snapshot()

	require.NoError(t, ValidateSerializationRoundtrip(snapshot))

	data, err := SerializeSnapshot(snapshot)
	require.NoError(t, err)
	decoded, err := DeserializeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, decoded.Zones, len(snapshot.Zones))
	for i := range snapshot.Zones {
		assert.Equal(t, len(snapshot.Zones[i].Cards), len(decoded.Zones[i].Cards))
	}
	assert.Equal(t, []string{"a", "b"}, decoded.PendingEvents[0].Applied)
}

func TestDeserializeSnapshotGarbage(t *testing.T) {
	_, err := DeserializeSnapshot([]byte("not gob"))
	assert.Error(t, err)
}
