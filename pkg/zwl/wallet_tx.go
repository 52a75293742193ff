package zwl

import (
	"encoding/hex"

	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// TxID is a transaction id in wire order.
type TxID [32]byte

// String renders the id in display (reversed) order, as block explorers do.
func (id TxID) String() string {
	var rev [32]byte
	for i := range id {
		rev[i] = id[31-i]
	}
	return hex.EncodeToString(rev[:])
}

// WalletTx is the wallet's record of one transaction.
type WalletTx struct {
	Version     uint64
	Block       int32
	Unconfirmed bool
	Datetime    uint64
	TxID        TxID

	SaplingNotes []*SaplingNoteData
	OrchardNotes []*OrchardNoteData
	Utxos        []*Utxo

	TotalOrchardValueSpent     uint64
	TotalSaplingValueSpent     uint64
	TotalTransparentValueSpent uint64

	Outgoing      []*OutgoingTxMetadata
	FullTxScanned bool
	ZecPrice      *float64

	// Nullifiers spent by this transaction, per pool.
	SpentSapling [][32]byte
	SpentOrchard [][32]byte
}

// ReceivedValue sums the notes and outputs the transaction paid to the
// wallet.
func (tx *WalletTx) ReceivedValue() uint64 {
	var v uint64
	for _, n := range tx.SaplingNotes {
		v += n.Value
	}
	for _, n := range tx.OrchardNotes {
		v += n.Value
	}
	for _, u := range tx.Utxos {
		v += u.Value
	}
	return v
}

// SpentValue sums the per-pool spent totals.
func (tx *WalletTx) SpentValue() uint64 {
	return tx.TotalOrchardValueSpent + tx.TotalSaplingValueSpent + tx.TotalTransparentValueSpent
}

func readWalletTx(r *wire.Reader) (*WalletTx, error) {
	tx := &WalletTx{}
	var err error

	if tx.Version, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "version")
	}
	v := tx.Version
	if v > WalletTxVersion {
		return nil, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"transaction version %d, newest known is %d", v, WalletTxVersion), "version")
	}

	if tx.Block, err = r.ReadI32(); err != nil {
		return nil, wire.WithField(err, "block")
	}
	if v > txUnconfirmedAfter {
		if tx.Unconfirmed, err = r.ReadBool(); err != nil {
			return nil, wire.WithField(err, "unconfirmed")
		}
	}
	if v >= txDatetimeSince {
		if tx.Datetime, err = r.ReadU64(); err != nil {
			return nil, wire.WithField(err, "datetime")
		}
	}
	if err = r.ReadFixed(tx.TxID[:]); err != nil {
		return nil, wire.WithField(err, "txid")
	}

	if tx.SaplingNotes, err = wire.ReadVector(r, readSaplingNote); err != nil {
		return nil, wire.WithField(err, "s_notes")
	}
	if tx.Utxos, err = wire.ReadVector(r, readUtxo); err != nil {
		return nil, wire.WithField(err, "utxos")
	}

	if v > txOrchardSpentAfter {
		if tx.TotalOrchardValueSpent, err = r.ReadU64(); err != nil {
			return nil, wire.WithField(err, "total_orchard_value_spent")
		}
	}
	if tx.TotalSaplingValueSpent, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "total_sapling_value_spent")
	}
	if tx.TotalTransparentValueSpent, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "total_transparent_value_spent")
	}

	if tx.Outgoing, err = wire.ReadVector(r, readOutgoing); err != nil {
		return nil, wire.WithField(err, "outgoing_metadata")
	}
	if tx.FullTxScanned, err = r.ReadBool(); err != nil {
		return nil, wire.WithField(err, "full_tx_scanned")
	}
	if v > txPriceAfter {
		if tx.ZecPrice, err = wire.ReadOptional(r, wire.F64); err != nil {
			return nil, wire.WithField(err, "zec_price")
		}
	}
	if v > txSaplingSpentAfter {
		if tx.SpentSapling, err = wire.ReadVector(r, wire.Fixed32); err != nil {
			return nil, wire.WithField(err, "s_spent_nullifiers")
		}
	}
	if v > txOrchardNotesAfter {
		if tx.OrchardNotes, err = wire.ReadVector(r, readOrchardNote); err != nil {
			return nil, wire.WithField(err, "o_notes")
		}
		if tx.SpentOrchard, err = wire.ReadVector(r, wire.Fixed32); err != nil {
			return nil, wire.WithField(err, "o_spent_nullifiers")
		}
	}
	return tx, nil
}
