package merkle

import (
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// CommitmentTree is the legacy Sapling frontier encoding.
type CommitmentTree struct {
	Left    *Hash
	Right   *Hash
	Parents []*Hash
}

// Size returns the number of leaves appended to the tree.
func (t *CommitmentTree) Size() uint64 {
	var size uint64
	if t.Left != nil {
		size++
	}
	if t.Right != nil {
		size++
	}
	for i, p := range t.Parents {
		if p != nil && i < 63 {
			size += 1 << (i + 1)
		}
	}
	return size
}

// ReadCommitmentTree reads left, right and the parent list.
func ReadCommitmentTree(r *wire.Reader) (*CommitmentTree, error) {
	left, err := wire.ReadOptional(r, readHash)
	if err != nil {
		return nil, wire.WithField(err, "left")
	}
	right, err := wire.ReadOptional(r, readHash)
	if err != nil {
		return nil, wire.WithField(err, "right")
	}
	parents, err := wire.ReadVector(r, func(r *wire.Reader) (*Hash, error) {
		return wire.ReadOptional(r, readHash)
	})
	if err != nil {
		return nil, wire.WithField(err, "parents")
	}
	return &CommitmentTree{Left: left, Right: right, Parents: parents}, nil
}

// WriteCommitmentTree is the inverse of ReadCommitmentTree.
func WriteCommitmentTree(w *wire.Writer, t *CommitmentTree) {
	wire.WriteOptional(w, t.Left, writeHash)
	wire.WriteOptional(w, t.Right, writeHash)
	wire.WriteVector(w, t.Parents, func(w *wire.Writer, p *Hash) {
		wire.WriteOptional(w, p, writeHash)
	})
}

// IncrementalWitness is the legacy Sapling witness encoding.
type IncrementalWitness struct {
	Tree   *CommitmentTree
	Filled []Hash
	Cursor *CommitmentTree
}

// Position returns the position of the witnessed leaf.
func (w *IncrementalWitness) Position() Position {
	size := w.Tree.Size()
	if size == 0 {
		return 0
	}
	return Position(size - 1)
}

// ReadIncrementalWitness reads tree, filled nodes and the optional cursor.
func ReadIncrementalWitness(r *wire.Reader) (*IncrementalWitness, error) {
	tree, err := ReadCommitmentTree(r)
	if err != nil {
		return nil, wire.WithField(err, "tree")
	}
	filled, err := wire.ReadVector(r, readHash)
	if err != nil {
		return nil, wire.WithField(err, "filled")
	}
	cursor, err := wire.ReadOptional(r, ReadCommitmentTree)
	if err != nil {
		return nil, wire.WithField(err, "cursor")
	}

	w := &IncrementalWitness{Tree: tree, Filled: filled}
	if cursor != nil {
		w.Cursor = *cursor
	}
	return w, nil
}

// WriteIncrementalWitness is the inverse of ReadIncrementalWitness.
func WriteIncrementalWitness(w *wire.Writer, iw *IncrementalWitness) {
	WriteCommitmentTree(w, iw.Tree)
	wire.WriteVector(w, iw.Filled, writeHash)
	if iw.Cursor == nil {
		w.WriteU8(0)
	} else {
		w.WriteU8(1)
		WriteCommitmentTree(w, iw.Cursor)
	}
}
