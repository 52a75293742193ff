package zwl

import (
	"encoding/hex"

	"github.com/suffix-labs/zcash-excavator/pkg/lwd"
	"github.com/suffix-labs/zcash-excavator/pkg/merkle"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// CompactBlockData is one cached block of the wallet's scan state.
type CompactBlockData struct {
	Height  int32
	Hash    [32]byte // wire order
	Version uint64
	Ecb     []byte // serialized lightwalletd CompactBlock
}

// HashHex returns the block hash in display (reversed) order.
func (b *CompactBlockData) HashHex() string {
	var rev [32]byte
	for i := range b.Hash {
		rev[i] = b.Hash[31-i]
	}
	return hex.EncodeToString(rev[:])
}

// Header decodes the header fields of the cached compact block.
func (b *CompactBlockData) Header() (*lwd.CompactBlockHeader, error) {
	return lwd.UnmarshalCompactBlockHeader(b.Ecb)
}

func readBlock(r *wire.Reader) (*CompactBlockData, error) {
	b := &CompactBlockData{}
	var err error

	if b.Height, err = r.ReadI32(); err != nil {
		return nil, wire.WithField(err, "height")
	}
	if err = r.ReadFixed(b.Hash[:]); err != nil {
		return nil, wire.WithField(err, "hash")
	}
	// Writers put an empty commitment tree here because the block version
	// comes after it. It carries nothing.
	if _, err = merkle.ReadCommitmentTree(r); err != nil {
		return nil, wire.WithField(err, "tree")
	}
	if b.Version, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "version")
	}
	if b.Version > blockEcbAfter {
		if b.Ecb, err = r.ReadVarBytes(); err != nil {
			return nil, wire.WithField(err, "ecb")
		}
	}
	return b, nil
}
