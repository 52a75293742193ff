package zwl

import (
	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/merkle"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// OrchardNoteData is a received Orchard note. Its witness lives in the
// wallet's Orchard bridge tree at WitnessPosition.
type OrchardNoteData struct {
	Version uint64
	FVK     crypto.OrchardFullViewingKey
	Address crypto.OrchardAddress
	Value   uint64
	Rho     [32]byte
	Rseed   [32]byte

	WitnessPosition *merkle.Position

	Nullifier        [32]byte
	Spent            *SpentAt
	UnconfirmedSpent *SpentAt
	Memo             *Memo
	IsChange         bool
	HaveSpendingKey  bool
}

func readOrchardNote(r *wire.Reader) (*OrchardNoteData, error) {
	n := &OrchardNoteData{}
	var err error

	if n.Version, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "version")
	}
	if err = r.ReadFixed(n.FVK[:]); err != nil {
		return nil, wire.WithField(err, "fvk")
	}
	if err = r.ReadFixed(n.Address[:]); err != nil {
		return nil, wire.WithField(err, "address")
	}
	if n.Value, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "value")
	}
	if err = r.ReadFixed(n.Rho[:]); err != nil {
		return nil, wire.WithField(err, "rho")
	}
	if err = r.ReadFixed(n.Rseed[:]); err != nil {
		return nil, wire.WithField(err, "rseed")
	}

	pos, err := wire.ReadOptional(r, wire.U64)
	if err != nil {
		return nil, wire.WithField(err, "witness_position")
	}
	if pos != nil {
		p := merkle.Position(*pos)
		n.WitnessPosition = &p
	}

	if err = r.ReadFixed(n.Nullifier[:]); err != nil {
		return nil, wire.WithField(err, "nullifier")
	}
	if n.Spent, err = wire.ReadOptional(r, readSpentAt); err != nil {
		return nil, wire.WithField(err, "spent")
	}
	if n.UnconfirmedSpent, err = wire.ReadOptional(r, readSpentAt); err != nil {
		return nil, wire.WithField(err, "unconfirmed_spent")
	}
	if n.Memo, err = wire.ReadOptional(r, readMemo); err != nil {
		return nil, wire.WithField(err, "memo")
	}
	if n.IsChange, err = r.ReadBool(); err != nil {
		return nil, wire.WithField(err, "is_change")
	}
	if n.HaveSpendingKey, err = r.ReadBool(); err != nil {
		return nil, wire.WithField(err, "have_spending_key")
	}
	return n, nil
}
