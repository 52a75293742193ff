package zwl

import (
	"unicode/utf8"

	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// Utxo is a transparent output received by the wallet.
type Utxo struct {
	Version     uint64
	Address     string
	TxID        TxID
	OutputIndex uint64
	Value       uint64
	Height      int32
	Script      []byte

	Spent            *TxID
	SpentAtHeight    *int32
	UnconfirmedSpent *SpentAt
}

// readUtxoAddress reads the i32-prefixed address. Unlike every other string
// in the file its length is a signed 32-bit integer.
func readUtxoAddress(r *wire.Reader) (string, error) {
	n, err := r.ReadI32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", r.Fail(wire.KindEncoding, "negative address length %d", n)
	}
	b, err := r.ReadExact(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) || len(b) == 0 || b[0] != 't' {
		return "", r.Fail(wire.KindEncoding, "%q is not a transparent address", b)
	}
	return string(b), nil
}

func readUtxo(r *wire.Reader) (*Utxo, error) {
	u := &Utxo{}
	var err error

	if u.Version, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "version")
	}
	if u.Version > UtxoVersion {
		return nil, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"utxo version %d, newest known is %d", u.Version, UtxoVersion), "version")
	}
	if u.Address, err = readUtxoAddress(r); err != nil {
		return nil, wire.WithField(err, "address")
	}
	if err = r.ReadFixed(u.TxID[:]); err != nil {
		return nil, wire.WithField(err, "txid")
	}
	if u.OutputIndex, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "output_index")
	}
	if u.Value, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "value")
	}
	if u.Height, err = r.ReadI32(); err != nil {
		return nil, wire.WithField(err, "height")
	}
	if u.Script, err = r.ReadVarBytes(); err != nil {
		return nil, wire.WithField(err, "script")
	}

	spent, err := wire.ReadOptional(r, wire.Fixed32)
	if err != nil {
		return nil, wire.WithField(err, "spent")
	}
	if spent != nil {
		id := TxID(*spent)
		u.Spent = &id
	}
	if u.Version > utxoSpentHeightAfter {
		if u.SpentAtHeight, err = wire.ReadOptional(r, wire.I32); err != nil {
			return nil, wire.WithField(err, "spent_at_height")
		}
	}
	if u.Version > utxoUnconfirmedSpentAfter {
		if u.UnconfirmedSpent, err = wire.ReadOptional(r, readSpentAt); err != nil {
			return nil, wire.WithField(err, "unconfirmed_spent")
		}
	}
	return u, nil
}

// OutgoingTxMetadata describes one payment sent by a transaction.
type OutgoingTxMetadata struct {
	Address string
	Value   uint64
	Memo    Memo
}

func readOutgoing(r *wire.Reader) (*OutgoingTxMetadata, error) {
	o := &OutgoingTxMetadata{}
	var err error

	if o.Address, err = r.ReadString(); err != nil {
		return nil, wire.WithField(err, "address")
	}
	if o.Value, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "value")
	}
	if o.Memo, err = readMemo(r); err != nil {
		return nil, wire.WithField(err, "memo")
	}
	return o, nil
}
