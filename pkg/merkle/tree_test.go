package merkle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

func h(b byte) Hash {
	var out Hash
	for i := range out {
		out[i] = b
	}
	return out
}

func pos(p uint64) *Position {
	v := Position(p)
	return &v
}

type legacyFragment struct {
	outer, inner Position
	alts         uint64
	values       []Hash
}

// writeLegacyBridge encodes a v1 bridge: prior position, auth fragments and
// a frontier with the leaf in "left" and no right sibling.
func writeLegacyBridge(w *wire.Writer, prior *Position, frags []legacyFragment, f NonEmptyFrontier) {
	wire.WriteOptional(w, prior, writePosition)
	wire.WriteVector(w, frags, func(w *wire.Writer, fr legacyFragment) {
		writePosition(w, fr.outer)
		writePosition(w, fr.inner)
		w.WriteU64(fr.alts)
		wire.WriteVector(w, fr.values, writeHash)
	})
	writeFrontierV1(w, f)
}

type legacyCheckpoint struct {
	bridgesLen uint64
	marked     []Position
	forgotten  []Position
}

func writeLegacyCheckpoint(w *wire.Writer, c legacyCheckpoint) {
	w.WriteU64(c.bridgesLen)
	w.WriteU8(0)
	wire.WriteVector(w, c.marked, writePosition)
	wire.WriteVector(w, c.forgotten, func(w *wire.Writer, p Position) {
		writePosition(w, p)
		w.WriteU64(99)
	})
}

func frontierAt5() NonEmptyFrontier {
	return NonEmptyFrontier{Position: 5, Leaf: h(5), Ommers: []Hash{h(0xa), h(0xb)}}
}

// legacyTree builds a one-bridge legacy tree. The fragment tracks position 4
// with one observed ommer.
func legacyTree(frag legacyFragment, saved map[Position]uint64, cps []legacyCheckpoint, max uint64) []byte {
	w := wire.NewWriter()
	w.WriteU64(0)
	w.WriteCompactSize(1)
	writeLegacyBridge(w, nil, []legacyFragment{frag}, frontierAt5())
	w.WriteU8(0) // no current bridge

	w.WriteCompactSize(uint64(len(saved)))
	for p, i := range saved {
		writePosition(w, p)
		w.WriteU64(i)
	}
	wire.WriteVector(w, cps, writeLegacyCheckpoint)
	w.WriteU64(max)
	return w.Bytes()
}

func goodFragment() legacyFragment {
	return legacyFragment{outer: 4, inner: 4, alts: 1, values: []Hash{h(0xee)}}
}

func TestLevelsRequired(t *testing.T) {
	assert.Len(t, levelsRequired(0), 64)

	levels := levelsRequired(5)
	require.True(t, len(levels) > 3)
	assert.Equal(t, []uint8{1, 3, 4}, levels[:3])
	assert.Len(t, levels, 62)

	assert.Empty(t, levelsRequired(Position(^uint64(0))))
}

func TestAddress(t *testing.T) {
	a := AddressAbove(2, 13) // 13 >> 2 = 3
	assert.Equal(t, Address{Level: 2, Index: 3}, a)
	assert.Equal(t, Address{Level: 2, Index: 2}, a.Sibling())

	assert.True(t, a.Contains(Address{Level: 0, Index: 12}))
	assert.True(t, a.Contains(Address{Level: 1, Index: 7}))
	assert.False(t, a.Contains(Address{Level: 0, Index: 16}))
	assert.False(t, a.Contains(a))
	assert.Equal(t, "2/3", a.String())
}

func TestReadLegacyTree(t *testing.T) {
	data := legacyTree(
		goodFragment(),
		map[Position]uint64{5: 0},
		[]legacyCheckpoint{{bridgesLen: 1, marked: []Position{5}, forgotten: []Position{3}}},
		10,
	)

	r := wire.NewReader(data)
	tree, err := ReadTree(r, EncodingLegacy)
	require.NoError(t, err)
	assert.Equal(t, len(data), r.Offset())

	require.Len(t, tree.PriorBridges, 1)
	assert.Nil(t, tree.Current)
	b := tree.PriorBridges[0]
	assert.Nil(t, b.PriorPosition)
	assert.Equal(t, []Address{{Level: 1, Index: 2}}, b.Tracking)
	assert.Equal(t, map[Address]Hash{{Level: 0, Index: 5}: h(0xee)}, b.Ommers)
	assert.Equal(t, frontierAt5(), b.Frontier)

	assert.Equal(t, map[Position]uint64{5: 0}, tree.Saved)
	require.Len(t, tree.Checkpoints, 1)
	cp := tree.Checkpoints[0]
	assert.Equal(t, uint64(0), cp.ID)
	assert.Equal(t, uint64(1), cp.BridgesLen)
	assert.Equal(t, []Position{5}, cp.Marked)
	assert.Equal(t, []Position{3}, cp.Forgotten)
	assert.Equal(t, uint64(10), tree.MaxCheckpoints)

	p, ok := tree.Position()
	assert.True(t, ok)
	assert.Equal(t, Position(5), p)
}

func TestAuthFragmentPositionMismatch(t *testing.T) {
	frag := goodFragment()
	frag.outer = 6

	_, err := ReadTree(wire.NewReader(legacyTree(frag, nil, nil, 10)), EncodingLegacy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wire.ErrConsistency), "got %v", err)

	var e *wire.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "prior_bridges[0].auth_fragments[0]", e.Op)
}

func TestAuthFragmentTooManyValues(t *testing.T) {
	frag := goodFragment()
	frag.values = []Hash{h(1), h(2)}

	_, err := ReadTree(wire.NewReader(legacyTree(frag, nil, nil, 10)), EncodingLegacy)
	assert.True(t, errors.Is(err, wire.ErrConsistency), "got %v", err)
}

func TestFrontierOmmerCount(t *testing.T) {
	w := wire.NewWriter()
	writePosition(w, 5)
	writeHash(w, h(1))
	w.WriteU8(0)
	wire.WriteVector(w, []Hash{h(2)}, writeHash)

	_, err := readFrontierV1(wire.NewReader(w.Bytes()))
	assert.True(t, errors.Is(err, wire.ErrConsistency), "got %v", err)
}

func TestFrontierRightLeaf(t *testing.T) {
	w := wire.NewWriter()
	writePosition(w, 1)
	writeHash(w, h(1))
	wire.WriteOptional(w, &Hash{2}, writeHash)
	wire.WriteVector(w, []Hash{}, writeHash)

	f, err := readFrontierV1(wire.NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, Hash{2}, f.Leaf)
	assert.Equal(t, []Hash{h(1)}, f.Ommers)
}

func TestTreeConsistencyChecks(t *testing.T) {
	cases := map[string][]byte{
		"saved index out of range": legacyTree(goodFragment(), map[Position]uint64{5: 1}, nil, 10),
		"saved position mismatch":  legacyTree(goodFragment(), map[Position]uint64{4: 0}, nil, 10),
		"too many checkpoints": legacyTree(goodFragment(), nil,
			[]legacyCheckpoint{{bridgesLen: 1}, {bridgesLen: 1}}, 1),
		"checkpoint beyond bridges": legacyTree(goodFragment(), nil,
			[]legacyCheckpoint{{bridgesLen: 2}}, 10),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTree(wire.NewReader(data), EncodingLegacy)
			assert.True(t, errors.Is(err, wire.ErrConsistency), "got %v", err)
		})
	}
}

func modernTree() *BridgeTree {
	first := &MerkleBridge{
		Tracking: []Address{{Level: 1, Index: 2}},
		Ommers:   map[Address]Hash{{Level: 0, Index: 5}: h(0xee)},
		Frontier: frontierAt5(),
	}
	second := &MerkleBridge{
		PriorPosition: pos(5),
		Tracking:      []Address{{Level: 3, Index: 0}},
		Ommers: map[Address]Hash{
			{Level: 0, Index: 7}: h(7),
			{Level: 1, Index: 2}: h(2),
		},
		Frontier: NonEmptyFrontier{Position: 7, Leaf: h(7), Ommers: []Hash{h(6), h(0xc), h(0xd)}},
	}
	return &BridgeTree{
		Version:        3,
		PriorBridges:   []*MerkleBridge{first},
		Current:        second,
		Saved:          map[Position]uint64{5: 0},
		Checkpoints:    []*Checkpoint{{ID: 1000, BridgesLen: 1, Marked: []Position{5}, Forgotten: []Position{}}},
		MaxCheckpoints: 100,
	}
}

func TestModernTreeRoundTrip(t *testing.T) {
	want := modernTree()

	w := wire.NewWriter()
	WriteTree(w, want)

	r := wire.NewReader(w.Bytes())
	got, err := ReadTree(r, EncodingModern)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Remaining())

	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, want.PriorBridges, got.PriorBridges)
	assert.Equal(t, want.Current, got.Current)
	assert.Equal(t, want.Saved, got.Saved)
	assert.Equal(t, want.Checkpoints, got.Checkpoints)
	assert.Equal(t, want.MaxCheckpoints, got.MaxCheckpoints)
	assert.Equal(t, []Position{5}, got.MarkedPositions())
}

func TestModernBridgeFlag(t *testing.T) {
	w := wire.NewWriter()
	WriteTree(w, modernTree())
	data := w.Bytes()

	// version (8) + prior count (1) puts the first flag at offset 9.
	require.Equal(t, byte(SerV2), data[9])
	data[9] = 1

	_, err := ReadTree(wire.NewReader(data), EncodingModern)
	assert.True(t, errors.Is(err, wire.ErrInvalidTag), "got %v", err)
}

func TestEncodingsDoNotMix(t *testing.T) {
	data := legacyTree(goodFragment(), nil, nil, 10)

	_, err := ReadTree(wire.NewReader(data), EncodingModern)
	assert.True(t, errors.Is(err, wire.ErrInvalidTag), "got %v", err)
}

func TestModernOmmerOutsideTrackedSubtree(t *testing.T) {
	tree := modernTree()
	tree.Current.Ommers[Address{Level: 0, Index: 9}] = h(9)

	w := wire.NewWriter()
	WriteTree(w, tree)

	_, err := ReadTree(wire.NewReader(w.Bytes()), EncodingModern)
	assert.True(t, errors.Is(err, wire.ErrConsistency), "got %v", err)
}

func TestModernContinuity(t *testing.T) {
	tree := modernTree()
	tree.Current.PriorPosition = pos(4)

	w := wire.NewWriter()
	WriteTree(w, tree)

	_, err := ReadTree(wire.NewReader(w.Bytes()), EncodingModern)
	assert.True(t, errors.Is(err, wire.ErrConsistency), "got %v", err)
}

func TestTreeTruncation(t *testing.T) {
	w := wire.NewWriter()
	WriteTree(w, modernTree())
	data := w.Bytes()

	for i := 0; i < len(data); i++ {
		_, err := ReadTree(wire.NewReader(data[:i]), EncodingModern)
		require.Error(t, err, "prefix %d", i)
		assert.True(t, errors.Is(err, wire.ErrTruncation), "prefix %d: %v", i, err)
	}
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("modern")
	require.NoError(t, err)
	assert.Equal(t, EncodingModern, enc)
	assert.Equal(t, "modern", enc.String())

	enc, err = ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, EncodingLegacy, enc)

	_, err = ParseEncoding("v9")
	assert.Error(t, err)
}

func TestCommitmentTreeAndWitness(t *testing.T) {
	left, right, p1 := h(1), h(2), h(3)
	tree := &CommitmentTree{Left: &left, Right: &right, Parents: []*Hash{nil, &p1}}
	assert.Equal(t, uint64(6), tree.Size())

	witness := &IncrementalWitness{
		Tree:   tree,
		Filled: []Hash{h(4)},
		Cursor: &CommitmentTree{Left: &left},
	}

	w := wire.NewWriter()
	WriteIncrementalWitness(w, witness)

	r := wire.NewReader(w.Bytes())
	got, err := ReadIncrementalWitness(r)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Remaining())
	assert.Equal(t, witness.Tree, got.Tree)
	assert.Equal(t, witness.Filled, got.Filled)
	assert.Equal(t, witness.Cursor.Left, got.Cursor.Left)
	assert.Empty(t, got.Cursor.Parents)
	assert.Equal(t, Position(5), got.Position())
}
