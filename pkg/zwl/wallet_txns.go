package zwl

import (
	"bytes"

	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// WalletTxns is the wallet's transaction history.
type WalletTxns struct {
	Version uint64
	Current map[TxID]*WalletTx
	Order   []TxID // first-seen order of the ids in Current
}

// Len returns the number of distinct transactions.
func (t *WalletTxns) Len() int {
	return len(t.Order)
}

// All returns the transactions in first-seen order.
func (t *WalletTxns) All() []*WalletTx {
	out := make([]*WalletTx, 0, len(t.Order))
	for _, id := range t.Order {
		out = append(out, t.Current[id])
	}
	return out
}

// LastTxID returns the id of the transaction mined at the greatest height.
// Ties go to the lexicographically smallest id (wire order), so the result
// does not depend on file order.
func (t *WalletTxns) LastTxID() (TxID, bool) {
	var best *WalletTx
	var bestID TxID
	for _, id := range t.Order {
		tx := t.Current[id]
		if best == nil || tx.Block > best.Block ||
			(tx.Block == best.Block && bytes.Compare(id[:], bestID[:]) < 0) {
			best, bestID = tx, id
		}
	}
	return bestID, best != nil
}

type txEntry struct {
	id TxID
	tx *WalletTx
}

func readTxEntry(r *wire.Reader) (txEntry, error) {
	var e txEntry
	if err := r.ReadFixed(e.id[:]); err != nil {
		return e, err
	}
	tx, err := readWalletTx(r)
	if err != nil {
		return e, err
	}
	e.tx = tx
	return e, nil
}

func readWalletTxns(r *wire.Reader, st *decodeState) (*WalletTxns, error) {
	version, err := r.ReadU64()
	if err != nil {
		return nil, wire.WithField(err, "version")
	}
	if version > WalletTxnsVersion {
		return nil, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"transactions version %d, newest known is %d", version, WalletTxnsVersion), "version")
	}

	entries, err := wire.ReadVector(r, readTxEntry)
	if err != nil {
		return nil, wire.WithField(err, "current")
	}

	t := &WalletTxns{Version: version, Current: make(map[TxID]*WalletTx, len(entries))}
	for _, e := range entries {
		if _, dup := t.Current[e.id]; dup {
			st.logger.WithField("txid", e.id.String()).Warn("duplicate transaction, keeping the later record")
		} else {
			t.Order = append(t.Order, e.id)
		}
		t.Current[e.id] = e.tx
	}

	if version <= txnsMempoolUntil {
		mempool, err := wire.ReadVector(r, readTxEntry)
		if err != nil {
			return nil, wire.WithField(err, "mempool")
		}
		st.logger.WithField("count", len(mempool)).Debug("discarded legacy mempool transactions")
	}
	return t, nil
}
