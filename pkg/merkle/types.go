// Package merkle decodes the incremental Merkle tree structures persisted by
// light wallets: the legacy Sapling CommitmentTree / IncrementalWitness pair
// and the bridge tree used for Orchard note witnesses.
//
// Nothing here hashes. Trees are reconstructed from their serialized parts
// and checked for structural consistency, which is the only protection the
// format offers against a desynchronized read.
package merkle

import (
	"encoding/hex"
	"fmt"
	"math/bits"

	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// Depth of the note commitment trees.
const Depth = 32

// Hash is a 32-byte tree node (Sapling Node or Orchard MerkleHashOrchard).
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Position is the index of a leaf in the tree.
type Position uint64

// PastOmmerCount is the number of ommers a frontier at this position holds.
func (p Position) PastOmmerCount() int {
	return bits.OnesCount64(uint64(p))
}

// Address identifies a node by level (0 = leaves) and index within the level.
type Address struct {
	Level uint8
	Index uint64
}

// AddressAbove returns the address at level that contains pos.
func AddressAbove(level uint8, pos Position) Address {
	return Address{Level: level, Index: shr(uint64(pos), level)}
}

// Sibling returns the other child of this node's parent.
func (a Address) Sibling() Address {
	return Address{Level: a.Level, Index: a.Index ^ 1}
}

// Contains reports whether other lies strictly inside the subtree rooted here.
func (a Address) Contains(other Address) bool {
	return other.Level < a.Level && shr(other.Index, a.Level-other.Level) == a.Index
}

func (a Address) String() string {
	return fmt.Sprintf("%d/%d", a.Level, a.Index)
}

// shr shifts right, yielding zero for shifts of 64 or more.
func shr(v uint64, n uint8) uint64 {
	if n >= 64 {
		return 0
	}
	return v >> n
}

func readHash(r *wire.Reader) (Hash, error) {
	var h Hash
	err := r.ReadFixed(h[:])
	return h, err
}

func readPosition(r *wire.Reader) (Position, error) {
	v, err := r.ReadU64()
	return Position(v), err
}

func readAddress(r *wire.Reader) (Address, error) {
	level, err := r.ReadU8()
	if err != nil {
		return Address{}, err
	}
	index, err := r.ReadU64()
	if err != nil {
		return Address{}, err
	}
	return Address{Level: level, Index: index}, nil
}

func writeHash(w *wire.Writer, h Hash) {
	w.WriteRaw(h[:])
}

func writePosition(w *wire.Writer, p Position) {
	w.WriteU64(uint64(p))
}

func writeAddress(w *wire.Writer, a Address) {
	w.WriteU8(a.Level)
	w.WriteU64(a.Index)
}
