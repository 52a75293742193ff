package merkle

import (
	"fmt"
	"sort"

	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// Encoding selects the bridge and checkpoint serialization of a tree. The
// serialized form does not describe itself, so the caller decides.
type Encoding int

const (
	// EncodingLegacy: auth-fragment bridges (v1) and checkpoints without ids
	// (v2). This is what ZecWallet Lite writes for its Orchard witnesses.
	EncodingLegacy Encoding = iota
	// EncodingModern: flagged explicit bridges (v2) and checkpoints with ids (v3).
	EncodingModern
)

// SerV2 is the flag byte that precedes each bridge in the modern encoding.
const SerV2 = 2

func (e Encoding) String() string {
	switch e {
	case EncodingLegacy:
		return "legacy"
	case EncodingModern:
		return "modern"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding maps a configuration value to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "legacy", "v1", "":
		return EncodingLegacy, nil
	case "modern", "v2":
		return EncodingModern, nil
	default:
		return 0, fmt.Errorf("unknown tree encoding %q", s)
	}
}

// Checkpoint records the tree state at a block boundary.
type Checkpoint struct {
	ID         uint64
	BridgesLen uint64
	Marked     []Position
	Forgotten  []Position
}

// BridgeTree is a decoded bridge tree.
type BridgeTree struct {
	Version        uint64
	PriorBridges   []*MerkleBridge
	Current        *MerkleBridge
	Saved          map[Position]uint64
	Checkpoints    []*Checkpoint
	MaxCheckpoints uint64
}

// Position returns the position of the most recently appended leaf.
func (t *BridgeTree) Position() (Position, bool) {
	if t.Current != nil {
		return t.Current.Frontier.Position, true
	}
	if n := len(t.PriorBridges); n > 0 {
		return t.PriorBridges[n-1].Frontier.Position, true
	}
	return 0, false
}

// MarkedPositions returns the saved leaf positions in ascending order.
func (t *BridgeTree) MarkedPositions() []Position {
	out := make([]Position, 0, len(t.Saved))
	for p := range t.Saved {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReadTree decodes a bridge tree in the given encoding and checks it for
// consistency.
func ReadTree(r *wire.Reader, enc Encoding) (*BridgeTree, error) {
	readBridge, readCheckpoint := legacyReaders()
	if enc == EncodingModern {
		readBridge, readCheckpoint = modernReaders()
	}

	version, err := r.ReadU64()
	if err != nil {
		return nil, wire.WithField(err, "version")
	}

	prior, err := wire.ReadVector(r, readBridge)
	if err != nil {
		return nil, wire.WithField(err, "prior_bridges")
	}
	current, err := wire.ReadOptional(r, readBridge)
	if err != nil {
		return nil, wire.WithField(err, "current_bridge")
	}

	type savedEntry struct {
		pos   Position
		index uint64
	}
	saved, err := wire.ReadVector(r, func(r *wire.Reader) (savedEntry, error) {
		pos, err := readPosition(r)
		if err != nil {
			return savedEntry{}, err
		}
		index, err := r.ReadU64()
		return savedEntry{pos, index}, err
	})
	if err != nil {
		return nil, wire.WithField(err, "saved")
	}

	var checkpoints []*Checkpoint
	n, err := r.ReadCompactSize()
	if err != nil {
		return nil, wire.WithField(err, "checkpoints")
	}
	for i := uint64(0); i < n; i++ {
		c, err := readCheckpoint(r, i)
		if err != nil {
			return nil, wire.WithField(wire.WithIndex(err, int(i)), "checkpoints")
		}
		checkpoints = append(checkpoints, c)
	}

	maxCheckpoints, err := r.ReadU64()
	if err != nil {
		return nil, wire.WithField(err, "max_checkpoints")
	}

	t := &BridgeTree{
		Version:        version,
		PriorBridges:   prior,
		Saved:          make(map[Position]uint64, len(saved)),
		Checkpoints:    checkpoints,
		MaxCheckpoints: maxCheckpoints,
	}
	if current != nil {
		t.Current = *current
	}
	for _, s := range saved {
		t.Saved[s.pos] = s.index
	}

	if err := t.checkConsistency(); err != nil {
		return nil, r.Fail(wire.KindConsistency, "%v", err)
	}
	return t, nil
}

type bridgeReader func(*wire.Reader) (*MerkleBridge, error)
type checkpointReader func(r *wire.Reader, seq uint64) (*Checkpoint, error)

func legacyReaders() (bridgeReader, checkpointReader) {
	return readBridgeV1, readCheckpointV2
}

func modernReaders() (bridgeReader, checkpointReader) {
	flagged := func(r *wire.Reader) (*MerkleBridge, error) {
		flag, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		if flag != SerV2 {
			return nil, r.Fail(wire.KindInvalidTag, "bridge encoding flag %d, want %d", flag, SerV2)
		}
		return readBridgeV2(r)
	}
	return flagged, readCheckpointV3
}

// readCheckpointV2 reads a checkpoint without an identifier; the sequence
// number within the checkpoint list stands in for it.
func readCheckpointV2(r *wire.Reader, seq uint64) (*Checkpoint, error) {
	bridgesLen, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	// legacy is_marked flag
	if _, err := r.ReadU8(); err != nil {
		return nil, err
	}
	marked, err := wire.ReadVector(r, readPosition)
	if err != nil {
		return nil, wire.WithField(err, "marked")
	}
	forgotten, err := wire.ReadVector(r, func(r *wire.Reader) (Position, error) {
		pos, err := readPosition(r)
		if err != nil {
			return 0, err
		}
		_, err = r.ReadU64()
		return pos, err
	})
	if err != nil {
		return nil, wire.WithField(err, "forgotten")
	}

	return &Checkpoint{ID: seq, BridgesLen: bridgesLen, Marked: marked, Forgotten: forgotten}, nil
}

func readCheckpointV3(r *wire.Reader, _ uint64) (*Checkpoint, error) {
	id, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	bridgesLen, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	marked, err := wire.ReadVector(r, readPosition)
	if err != nil {
		return nil, wire.WithField(err, "marked")
	}
	forgotten, err := wire.ReadVector(r, readPosition)
	if err != nil {
		return nil, wire.WithField(err, "forgotten")
	}

	return &Checkpoint{ID: uint64(id), BridgesLen: bridgesLen, Marked: marked, Forgotten: forgotten}, nil
}

func (t *BridgeTree) checkConsistency() error {
	for pos, i := range t.Saved {
		if i >= uint64(len(t.PriorBridges)) {
			return fmt.Errorf("saved position %d refers to bridge %d of %d", pos, i, len(t.PriorBridges))
		}
		if found := t.PriorBridges[i].Frontier.Position; found != pos {
			return fmt.Errorf("saved position %d does not match bridge %d at %d", pos, i, found)
		}
	}

	if uint64(len(t.Checkpoints)) > t.MaxCheckpoints {
		return fmt.Errorf("%d checkpoints exceed maximum %d", len(t.Checkpoints), t.MaxCheckpoints)
	}
	for _, c := range t.Checkpoints {
		if c.BridgesLen > uint64(len(t.PriorBridges)) {
			return fmt.Errorf("checkpoint %d covers %d bridges of %d", c.ID, c.BridgesLen, len(t.PriorBridges))
		}
	}

	for i := 1; i < len(t.PriorBridges); i++ {
		if !t.PriorBridges[i].FollowsFrom(t.PriorBridges[i-1]) {
			return fmt.Errorf("bridge %d does not follow bridge %d", i, i-1)
		}
	}
	if n := len(t.PriorBridges); n > 0 && t.Current != nil {
		if !t.Current.FollowsFrom(t.PriorBridges[n-1]) {
			return fmt.Errorf("current bridge does not follow bridge %d", n-1)
		}
	}
	return nil
}

// WriteTree serializes a tree in the modern encoding.
func WriteTree(w *wire.Writer, t *BridgeTree) {
	w.WriteU64(t.Version)

	writeFlagged := func(w *wire.Writer, b *MerkleBridge) {
		w.WriteU8(SerV2)
		writeBridgeV2(w, b)
	}
	wire.WriteVector(w, t.PriorBridges, writeFlagged)
	if t.Current == nil {
		w.WriteU8(0)
	} else {
		w.WriteU8(1)
		writeFlagged(w, t.Current)
	}

	positions := t.MarkedPositions()
	w.WriteCompactSize(uint64(len(positions)))
	for _, p := range positions {
		writePosition(w, p)
		w.WriteU64(t.Saved[p])
	}

	wire.WriteVector(w, t.Checkpoints, func(w *wire.Writer, c *Checkpoint) {
		w.WriteU32(uint32(c.ID))
		w.WriteU64(c.BridgesLen)
		wire.WriteVector(w, c.Marked, writePosition)
		wire.WriteVector(w, c.Forgotten, writePosition)
	})
	w.WriteU64(t.MaxCheckpoints)
}

func sortedAddresses(m map[Address]Hash) []Address {
	out := make([]Address, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Index < out[j].Index
	})
	return out
}
