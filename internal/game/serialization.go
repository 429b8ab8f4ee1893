package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/notation"
)

// SerializationChecksum is a deterministic checksum of a snapshot. Two
// snapshots of the same position have the same hash regardless of when they
// were taken.
type SerializationChecksum struct {
	Hash      string // SHA-256 of the deterministic representation
	Timestamp string // when the snapshot was taken
	Version   int
}

// ComputeChecksum hashes the snapshot, ignoring timestamps and move IDs.
func (snap *Snapshot) ComputeChecksum() (*SerializationChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(snap.deterministicRepresentation())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: snap.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:   snap.Version,
	}, nil
}

func (snap *Snapshot) deterministicRepresentation() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%s|%d|%s|%s|%s|%s\n",
		snap.GameID,
		snap.Status,
		snap.Turn,
		snap.TurnNumber,
		snap.Winner,
		snap.VictoryCondition,
		snap.EndReason,
		snap.DrawOffer,
	)
	if snap.Dice != nil {
		fmt.Fprintf(&buf, "DICE:%s%d|%s\n", snap.Dice.Letter, snap.Dice.Number, snap.Dice.Color)
	}

	// Cells are written in board order whatever order the snapshot lists them.
	cells := make(map[board.Coord]CellSnapshot, len(snap.Cells))
	for _, cs := range snap.Cells {
		cells[cs.Cell] = cs
	}
	for _, c := range board.All() {
		cs, ok := cells[c]
		if !ok {
			continue
		}
		switch {
		case cs.Hole:
			fmt.Fprintf(&buf, "HOLE:%s\n", c)
		case cs.Card != nil:
			fmt.Fprintf(&buf, "CELL:%s|%s|%s\n", c, notation.FormatCard(*cs.Card), cs.Owner)
		}
	}

	// Hand order matters: the opening card is the first one.
	for _, color := range board.Colors {
		for _, ps := range snap.Players {
			if ps.Color != color {
				continue
			}
			hand := make([]string, len(ps.Hand))
			for i, c := range ps.Hand {
				hand[i] = notation.FormatCard(c)
			}
			fmt.Fprintf(&buf, "PLAYER:%s|%d|%s\n", color, ps.Remaining.Milliseconds(), strings.Join(hand, ","))
		}
	}

	for _, mv := range snap.Moves {
		fmt.Fprintf(&buf, "MOVE:%d|%s|%s|%t\n", mv.Turn, mv.Player, notation.Format(mv), mv.Setup)
	}

	return buf.String()
}

// VerifyChecksum reports whether snap still matches expected.
func (snap *Snapshot) VerifyChecksum(expected *SerializationChecksum) (bool, error) {
	computed, err := snap.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// SerializeToBytes gob-encodes the snapshot.
func (snap *Snapshot) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a snapshot produced by SerializeToBytes.
func DeserializeFromBytes(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// ValidateSerializationRoundtrip checks that snap survives gob encoding by
// comparing checksums before and after.
func ValidateSerializationRoundtrip(snap *Snapshot) error {
	original, err := snap.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}
	data, err := snap.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	decoded, err := DeserializeFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	roundtrip, err := decoded.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute deserialized checksum: %w", err)
	}
	if original.Hash != roundtrip.Hash {
		return fmt.Errorf("checksum mismatch: original=%s, deserialized=%s", original.Hash, roundtrip.Hash)
	}
	return nil
}
