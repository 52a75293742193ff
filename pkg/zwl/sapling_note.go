package zwl

import (
	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/merkle"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// Rseed is a note's commitment randomness. Before ZIP 212 it is rcm itself,
// after ZIP 212 it is the seed rcm is derived from.
type Rseed struct {
	AfterZip212 bool
	Bytes       [32]byte
}

// rseedBeforeZip212 is the tag value of the pre-ZIP 212 encoding. Every
// other tag value means AfterZip212.
const rseedBeforeZip212 = 1

// SpentAt marks the transaction (and block height) that spent a note.
type SpentAt struct {
	TxID   TxID
	Height uint32
}

func readSpentAt(r *wire.Reader) (SpentAt, error) {
	var s SpentAt
	if err := r.ReadFixed(s.TxID[:]); err != nil {
		return s, err
	}
	h, err := r.ReadU32()
	s.Height = h
	return s, err
}

// SaplingNoteData is a received Sapling note.
type SaplingNoteData struct {
	Version     uint64
	Account     uint64 // obsolete, present up to version 5
	ExtFVK      crypto.SaplingExtendedFullViewingKey
	Diversifier [crypto.DiversifierSize]byte
	Value       uint64
	Rseed       Rseed

	Witnesses []*merkle.IncrementalWitness
	TopHeight uint64

	Nullifier        [32]byte
	Spent            *SpentAt
	UnconfirmedSpent *SpentAt
	Memo             *Memo
	IsChange         bool
	HaveSpendingKey  bool
}

func readSaplingNote(r *wire.Reader) (*SaplingNoteData, error) {
	n := &SaplingNoteData{}
	var err error

	if n.Version, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "version")
	}
	v := n.Version

	if v <= noteAccountUntil {
		if n.Account, err = r.ReadU64(); err != nil {
			return nil, wire.WithField(err, "account")
		}
	}
	if err = r.ReadFixed(n.ExtFVK[:]); err != nil {
		return nil, wire.WithField(err, "extfvk")
	}
	if err = r.ReadFixed(n.Diversifier[:]); err != nil {
		return nil, wire.WithField(err, "diversifier")
	}
	if n.Value, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "value")
	}

	if v > noteOldRseedUntil {
		tag, err := r.ReadU8()
		if err != nil {
			return nil, wire.WithField(err, "rseed")
		}
		n.Rseed.AfterZip212 = tag != rseedBeforeZip212
	}
	if err = r.ReadFixed(n.Rseed.Bytes[:]); err != nil {
		return nil, wire.WithField(err, "rseed")
	}

	if n.Witnesses, err = wire.ReadVector(r, merkle.ReadIncrementalWitness); err != nil {
		return nil, wire.WithField(err, "witnesses")
	}
	if v >= noteTopHeightSince {
		if n.TopHeight, err = r.ReadU64(); err != nil {
			return nil, wire.WithField(err, "top_height")
		}
	}
	if err = r.ReadFixed(n.Nullifier[:]); err != nil {
		return nil, wire.WithField(err, "nullifier")
	}

	if v <= noteOldSpentUntil {
		if n.Spent, err = readOldSpent(r, v); err != nil {
			return nil, wire.WithField(err, "spent")
		}
	} else {
		if n.Spent, err = wire.ReadOptional(r, readSpentAt); err != nil {
			return nil, wire.WithField(err, "spent")
		}
	}
	if v > noteUnconfirmedSpentAfter {
		if n.UnconfirmedSpent, err = wire.ReadOptional(r, readSpentAt); err != nil {
			return nil, wire.WithField(err, "unconfirmed_spent")
		}
	}

	if n.Memo, err = wire.ReadOptional(r, readMemo); err != nil {
		return nil, wire.WithField(err, "memo")
	}
	if n.IsChange, err = r.ReadBool(); err != nil {
		return nil, wire.WithField(err, "is_change")
	}
	n.HaveSpendingKey = true
	if v > noteHaveSpendingKeyAfter {
		if n.HaveSpendingKey, err = r.ReadBool(); err != nil {
			return nil, wire.WithField(err, "have_spending_key")
		}
	}
	return n, nil
}

// readOldSpent reads the pre-version 6 spent marker: an optional txid and,
// from version 2, a separately optional height. The marker exists only if
// both are present.
func readOldSpent(r *wire.Reader, version uint64) (*SpentAt, error) {
	txid, err := wire.ReadOptional(r, wire.Fixed32)
	if err != nil {
		return nil, err
	}
	var height *int32
	if version >= noteOldSpentHeightSince {
		if height, err = wire.ReadOptional(r, wire.I32); err != nil {
			return nil, err
		}
	}
	if txid == nil || height == nil {
		return nil, nil
	}
	return &SpentAt{TxID: TxID(*txid), Height: uint32(*height)}, nil
}
