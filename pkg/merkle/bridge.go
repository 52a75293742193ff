package merkle

import (
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// NonEmptyFrontier is the rightmost leaf of a tree and the ommers needed to
// compute its root.
type NonEmptyFrontier struct {
	Position Position
	Leaf     Hash
	Ommers   []Hash
}

// readFrontierV1 reads position, left, optional right and the ommer list.
// When right is present it becomes the leaf and left is the first ommer.
func readFrontierV1(r *wire.Reader) (NonEmptyFrontier, error) {
	var f NonEmptyFrontier

	pos, err := readPosition(r)
	if err != nil {
		return f, wire.WithField(err, "position")
	}
	left, err := readHash(r)
	if err != nil {
		return f, wire.WithField(err, "left")
	}
	right, err := wire.ReadOptional(r, readHash)
	if err != nil {
		return f, wire.WithField(err, "right")
	}
	ommers, err := wire.ReadVector(r, readHash)
	if err != nil {
		return f, wire.WithField(err, "ommers")
	}

	f.Position = pos
	if right != nil {
		f.Leaf = *right
		f.Ommers = append([]Hash{left}, ommers...)
	} else {
		f.Leaf = left
		f.Ommers = ommers
	}

	if pos.PastOmmerCount() != len(f.Ommers) {
		return f, r.Fail(wire.KindConsistency,
			"frontier at position %d needs %d ommers, found %d",
			pos, pos.PastOmmerCount(), len(f.Ommers))
	}
	return f, nil
}

func writeFrontierV1(w *wire.Writer, f NonEmptyFrontier) {
	writePosition(w, f.Position)
	// The leaf is written as "left" with no right sibling; ommers follow.
	writeHash(w, f.Leaf)
	w.WriteU8(0)
	wire.WriteVector(w, f.Ommers, writeHash)
}

// MerkleBridge holds the information needed to advance witnesses from one
// frontier to the next.
type MerkleBridge struct {
	PriorPosition *Position
	Tracking      []Address
	Ommers        map[Address]Hash
	Frontier      NonEmptyFrontier
}

// FollowsFrom reports whether b continues prev.
func (b *MerkleBridge) FollowsFrom(prev *MerkleBridge) bool {
	return b.PriorPosition != nil && *b.PriorPosition == prev.Frontier.Position
}

// checkOmmers verifies that every ommer lies inside a tracked subtree.
func (b *MerkleBridge) checkOmmers(r *wire.Reader) error {
	for addr := range b.Ommers {
		found := false
		for _, t := range b.Tracking {
			if t.Contains(addr) {
				found = true
				break
			}
		}
		if !found {
			return r.Fail(wire.KindConsistency, "ommer %s is not under any tracked address", addr)
		}
	}
	return nil
}

// levelsRequired lists, lowest first, the levels at which a leaf at pos
// still expects future ommers (the zero bits of pos, or every level for 0).
func levelsRequired(pos Position) []uint8 {
	var levels []uint8
	for i := uint8(0); i < 64; i++ {
		if pos == 0 || uint64(pos)&(1<<i) == 0 {
			levels = append(levels, i)
		}
	}
	return levels
}

type authFragment struct {
	position     Position
	altsObserved uint64
	values       []Hash
}

func readAuthFragmentV1(r *wire.Reader) (authFragment, error) {
	var frag authFragment
	var err error

	if frag.position, err = readPosition(r); err != nil {
		return frag, err
	}
	if frag.altsObserved, err = r.ReadU64(); err != nil {
		return frag, err
	}
	if frag.values, err = wire.ReadVector(r, readHash); err != nil {
		return frag, err
	}
	return frag, nil
}

// readBridgeV1 reads a bridge in the auth-fragment encoding and rebuilds the
// tracked addresses and ommer map from the fragments.
func readBridgeV1(r *wire.Reader) (*MerkleBridge, error) {
	prior, err := wire.ReadOptional(r, readPosition)
	if err != nil {
		return nil, wire.WithField(err, "prior_position")
	}

	fragments, err := wire.ReadVector(r, func(r *wire.Reader) (authFragment, error) {
		outer, err := readPosition(r)
		if err != nil {
			return authFragment{}, err
		}
		frag, err := readAuthFragmentV1(r)
		if err != nil {
			return authFragment{}, err
		}
		if frag.position != outer {
			return authFragment{}, r.Fail(wire.KindConsistency,
				"auth fragment position mismatch: %d != %d", outer, frag.position)
		}
		return frag, nil
	})
	if err != nil {
		return nil, wire.WithField(err, "auth_fragments")
	}

	frontier, err := readFrontierV1(r)
	if err != nil {
		return nil, wire.WithField(err, "frontier")
	}

	b := &MerkleBridge{
		PriorPosition: prior,
		Ommers:        make(map[Address]Hash),
		Frontier:      frontier,
	}
	tracked := make(map[Address]bool)

	for _, frag := range fragments {
		levels := levelsRequired(frag.position)
		if len(levels) == 0 {
			return nil, r.Fail(wire.KindConsistency, "no open levels above position %d", frag.position)
		}
		if frag.altsObserved+1 < uint64(len(levels)) {
			levels = levels[:frag.altsObserved+1]
		}
		if len(frag.values) > len(levels)-1 {
			return nil, r.Fail(wire.KindConsistency,
				"auth fragment at %d has %d values for %d observed levels",
				frag.position, len(frag.values), len(levels)-1)
		}

		top := AddressAbove(levels[len(levels)-1], frag.position)
		if !tracked[top] {
			tracked[top] = true
			b.Tracking = append(b.Tracking, top)
		}

		// Highest levels pair with the last values.
		for i, j := len(levels)-2, len(frag.values)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
			b.Ommers[AddressAbove(levels[i], frag.position).Sibling()] = frag.values[j]
		}
	}

	if err := b.checkOmmers(r); err != nil {
		return nil, err
	}
	return b, nil
}

// readBridgeV2 reads a bridge that stores its tracking set and ommers
// explicitly.
func readBridgeV2(r *wire.Reader) (*MerkleBridge, error) {
	prior, err := wire.ReadOptional(r, readPosition)
	if err != nil {
		return nil, wire.WithField(err, "prior_position")
	}
	tracking, err := wire.ReadVector(r, readAddress)
	if err != nil {
		return nil, wire.WithField(err, "tracking")
	}

	type ommer struct {
		addr Address
		hash Hash
	}
	ommers, err := wire.ReadVector(r, func(r *wire.Reader) (ommer, error) {
		addr, err := readAddress(r)
		if err != nil {
			return ommer{}, err
		}
		h, err := readHash(r)
		return ommer{addr, h}, err
	})
	if err != nil {
		return nil, wire.WithField(err, "ommers")
	}

	frontier, err := readFrontierV1(r)
	if err != nil {
		return nil, wire.WithField(err, "frontier")
	}

	b := &MerkleBridge{
		PriorPosition: prior,
		Tracking:      tracking,
		Ommers:        make(map[Address]Hash, len(ommers)),
		Frontier:      frontier,
	}
	for _, o := range ommers {
		b.Ommers[o.addr] = o.hash
	}

	if err := b.checkOmmers(r); err != nil {
		return nil, err
	}
	return b, nil
}

func writeBridgeV2(w *wire.Writer, b *MerkleBridge) {
	wire.WriteOptional(w, b.PriorPosition, writePosition)
	wire.WriteVector(w, b.Tracking, writeAddress)

	addrs := sortedAddresses(b.Ommers)
	w.WriteCompactSize(uint64(len(addrs)))
	for _, a := range addrs {
		writeAddress(w, a)
		writeHash(w, b.Ommers[a])
	}
	writeFrontierV1(w, b.Frontier)
}
