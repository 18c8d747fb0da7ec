package game

import (
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"golang.org/x/crypto/blake2b"
)

// ChecksumVersion identifies the canonical layout hashed by ComputeChecksum.
const ChecksumVersion = 1

// SnapshotChecksum is a deterministic digest of a snapshot. Two engines that
// ran the same match from the same seed produce equal checksums at every step.
type SnapshotChecksum struct {
	Hash    string
	Version int
}

// ComputeChecksum hashes the canonical representation of snapshot.
func ComputeChecksum(snapshot rules.Snapshot) SnapshotChecksum {
	sum := blake2b.Sum256([]byte(canonicalSnapshot(snapshot)))
	return SnapshotChecksum{
		Hash:    hex.EncodeToString(sum[:]),
		Version: ChecksumVersion,
	}
}

// VerifyChecksum reports whether snapshot hashes to expected.
func VerifyChecksum(snapshot rules.Snapshot, expected SnapshotChecksum) (bool, error) {
	if expected.Version != ChecksumVersion {
		return false, fmt.Errorf("unsupported checksum version: %d", expected.Version)
	}
	return ComputeChecksum(snapshot).Hash == expected.Hash, nil
}

// canonicalSnapshot writes every observable field in a fixed order. Players
// and zones are already ordered by Snapshot.
func canonicalSnapshot(s rules.Snapshot) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "GAME:%d|%s|%d|%d\n", s.TurnNumber, s.Phase, s.ActivePlayer, s.RandomState)
	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%d|%t|%s\n", p.ID, p.Name, p.Life, p.Lost, p.LossReason)
	}
	for _, z := range s.Zones {
		fmt.Fprintf(&buf, "ZONE:%d|%s|%d\n", z.Owner, z.Type, len(z.Cards))
		for _, c := range z.Cards {
			fmt.Fprintf(&buf, "  CARD:%d|%d|%s\n", c.ID, c.Owner, c.CardID)
		}
	}
	for i, e := range s.PendingEvents {
		fmt.Fprintf(&buf, "PENDING:%d|%s\n", i, canonicalEvent(e))
	}
	for i, e := range s.ResolvedEvents {
		fmt.Fprintf(&buf, "RESOLVED:%d|%s\n", i, canonicalEvent(e))
	}
	return buf.String()
}

func canonicalEvent(e rules.Event) string {
	return fmt.Sprintf("%s|%d|%d|%s|%s|%s|%d|%d|%d|%s|%s",
		e.Kind, e.Player, e.Card, e.From, e.To, e.Placement,
		e.Amount, e.SourceCard, e.AbilityIndex, e.Reason,
		strings.Join(e.Applied, ","))
}

// SerializeSnapshot encodes snapshot with gob.
func SerializeSnapshot(snapshot rules.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeSnapshot decodes a snapshot written by SerializeSnapshot.
func DeserializeSnapshot(data []byte) (rules.Snapshot, error) {
	var snapshot rules.Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snapshot); err != nil {
		return rules.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// ValidateSerializationRoundtrip encodes and decodes snapshot and compares
// checksums of both sides.
func ValidateSerializationRoundtrip(snapshot rules.Snapshot) error {
	before := ComputeChecksum(snapshot)

	data, err := SerializeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	decoded, err := DeserializeSnapshot(data)
	if err != nil {
		return fmt.Errorf("deserialization failed: %w", err)
	}

	after := ComputeChecksum(decoded)
	if before.Hash != after.Hash {
		return fmt.Errorf("checksum mismatch after roundtrip: %s != %s", before.Hash, after.Hash)
	}
	return nil
}
