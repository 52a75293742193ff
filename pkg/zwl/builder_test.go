package zwl

import (
	"encoding/binary"
	"errors"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/merkle"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// Stream builders. Each mirrors its reader field by field so tests can
// produce wallets of any version.

func writeFixed32(w *wire.Writer, b [32]byte) { w.WriteRaw(b[:]) }

func writeBlob(w *wire.Writer, b []byte) {
	if b == nil {
		w.WriteU8(0)
		return
	}
	w.WriteU8(1)
	w.WriteVarBytes(b)
}

func writeKeyHeader(w *wire.Writer, version uint8, keyType uint32, locked bool) {
	w.WriteU8(version)
	w.WriteU32(keyType)
	w.WriteBool(locked)
}

func writeOKey(w *wire.Writer, k *WalletOKey) {
	writeKeyHeader(w, k.Version, uint32(k.Type), k.Locked)
	wire.WriteOptional(w, k.HDKeyNum, (*wire.Writer).WriteU32)
	w.WriteRaw(k.FVK[:])
	wire.WriteOptional(w, k.SK, func(w *wire.Writer, sk crypto.OrchardSpendingKey) { w.WriteRaw(sk[:]) })
	writeBlob(w, k.EncKey)
	writeBlob(w, k.Nonce)
}

func writeZKey(w *wire.Writer, k *WalletZKey) {
	writeKeyHeader(w, k.Version, uint32(k.Type), k.Locked)
	wire.WriteOptional(w, k.ExtSK, func(w *wire.Writer, sk crypto.SaplingExtendedSpendingKey) { w.WriteRaw(sk[:]) })
	w.WriteRaw(k.ExtFVK[:])
	wire.WriteOptional(w, k.HDKeyNum, (*wire.Writer).WriteU32)
	writeBlob(w, k.EncKey)
	writeBlob(w, k.Nonce)
}

func writeTKey(w *wire.Writer, k *WalletTKey) {
	writeKeyHeader(w, k.Version, uint32(k.Type), k.Locked)
	if k.Secret == nil {
		w.WriteU8(0)
	} else {
		w.WriteU8(1)
		w.WriteRaw(k.Secret.Bytes())
	}
	w.WriteString(k.Address)
	wire.WriteOptional(w, k.HDKeyNum, (*wire.Writer).WriteU32)
	writeBlob(w, k.EncKey)
	writeBlob(w, k.Nonce)
}

func writeKeys(w *wire.Writer, k *Keys) {
	w.WriteU64(k.Version)
	w.WriteBool(k.Encrypted)
	w.WriteRaw(k.EncSeed[:])
	w.WriteVarBytes(k.Nonce)
	w.WriteRaw(k.Seed[:])
	if k.Version > keysOrchardAfter {
		wire.WriteVector(w, k.OKeys, writeOKey)
	}
	wire.WriteVector(w, k.ZKeys, writeZKey)
	if k.Version <= keysRawTKeysUntil {
		wire.WriteVector(w, k.TKeys, func(w *wire.Writer, t *WalletTKey) { w.WriteRaw(t.Secret.Bytes()) })
		wire.WriteVector(w, k.TKeys, func(w *wire.Writer, t *WalletTKey) { w.WriteString(t.Address) })
		return
	}
	wire.WriteVector(w, k.TKeys, writeTKey)
}

func writeBlock(w *wire.Writer, b *CompactBlockData) {
	w.WriteI32(b.Height)
	w.WriteRaw(b.Hash[:])
	merkle.WriteCommitmentTree(w, &merkle.CommitmentTree{})
	w.WriteU64(b.Version)
	if b.Version > blockEcbAfter {
		w.WriteVarBytes(b.Ecb)
	}
}

func writeSpentAt(w *wire.Writer, s SpentAt) {
	w.WriteRaw(s.TxID[:])
	w.WriteU32(s.Height)
}

func writeMemo(w *wire.Writer, m Memo) { w.WriteRaw(m.Raw[:]) }

func writeSaplingNote(w *wire.Writer, n *SaplingNoteData) {
	v := n.Version
	w.WriteU64(v)
	if v <= noteAccountUntil {
		w.WriteU64(n.Account)
	}
	w.WriteRaw(n.ExtFVK[:])
	w.WriteRaw(n.Diversifier[:])
	w.WriteU64(n.Value)
	if v > noteOldRseedUntil {
		if n.Rseed.AfterZip212 {
			w.WriteU8(2)
		} else {
			w.WriteU8(rseedBeforeZip212)
		}
	}
	w.WriteRaw(n.Rseed.Bytes[:])
	wire.WriteVector(w, n.Witnesses, merkle.WriteIncrementalWitness)
	if v >= noteTopHeightSince {
		w.WriteU64(n.TopHeight)
	}
	w.WriteRaw(n.Nullifier[:])
	if v <= noteOldSpentUntil {
		if n.Spent == nil {
			w.WriteU8(0)
		} else {
			w.WriteU8(1)
			w.WriteRaw(n.Spent.TxID[:])
		}
		if v >= noteOldSpentHeightSince {
			if n.Spent == nil {
				w.WriteU8(0)
			} else {
				w.WriteU8(1)
				w.WriteI32(int32(n.Spent.Height))
			}
		}
	} else {
		wire.WriteOptional(w, n.Spent, writeSpentAt)
	}
	if v > noteUnconfirmedSpentAfter {
		wire.WriteOptional(w, n.UnconfirmedSpent, writeSpentAt)
	}
	wire.WriteOptional(w, n.Memo, writeMemo)
	w.WriteBool(n.IsChange)
	if v > noteHaveSpendingKeyAfter {
		w.WriteBool(n.HaveSpendingKey)
	}
}

func writeOrchardNote(w *wire.Writer, n *OrchardNoteData) {
	w.WriteU64(n.Version)
	w.WriteRaw(n.FVK[:])
	w.WriteRaw(n.Address[:])
	w.WriteU64(n.Value)
	w.WriteRaw(n.Rho[:])
	w.WriteRaw(n.Rseed[:])
	wire.WriteOptional(w, n.WitnessPosition, func(w *wire.Writer, p merkle.Position) { w.WriteU64(uint64(p)) })
	w.WriteRaw(n.Nullifier[:])
	wire.WriteOptional(w, n.Spent, writeSpentAt)
	wire.WriteOptional(w, n.UnconfirmedSpent, writeSpentAt)
	wire.WriteOptional(w, n.Memo, writeMemo)
	w.WriteBool(n.IsChange)
	w.WriteBool(n.HaveSpendingKey)
}

func writeUtxo(w *wire.Writer, u *Utxo) {
	w.WriteU64(u.Version)
	w.WriteI32(int32(len(u.Address)))
	w.WriteRaw([]byte(u.Address))
	w.WriteRaw(u.TxID[:])
	w.WriteU64(u.OutputIndex)
	w.WriteU64(u.Value)
	w.WriteI32(u.Height)
	w.WriteVarBytes(u.Script)
	wire.WriteOptional(w, u.Spent, func(w *wire.Writer, id TxID) { w.WriteRaw(id[:]) })
	if u.Version > utxoSpentHeightAfter {
		wire.WriteOptional(w, u.SpentAtHeight, (*wire.Writer).WriteI32)
	}
	if u.Version > utxoUnconfirmedSpentAfter {
		wire.WriteOptional(w, u.UnconfirmedSpent, writeSpentAt)
	}
}

func writeOutgoing(w *wire.Writer, o *OutgoingTxMetadata) {
	w.WriteString(o.Address)
	w.WriteU64(o.Value)
	writeMemo(w, o.Memo)
}

func writeWalletTx(w *wire.Writer, tx *WalletTx) {
	v := tx.Version
	w.WriteU64(v)
	w.WriteI32(tx.Block)
	if v > txUnconfirmedAfter {
		w.WriteBool(tx.Unconfirmed)
	}
	if v >= txDatetimeSince {
		w.WriteU64(tx.Datetime)
	}
	w.WriteRaw(tx.TxID[:])
	wire.WriteVector(w, tx.SaplingNotes, writeSaplingNote)
	wire.WriteVector(w, tx.Utxos, writeUtxo)
	if v > txOrchardSpentAfter {
		w.WriteU64(tx.TotalOrchardValueSpent)
	}
	w.WriteU64(tx.TotalSaplingValueSpent)
	w.WriteU64(tx.TotalTransparentValueSpent)
	wire.WriteVector(w, tx.Outgoing, writeOutgoing)
	w.WriteBool(tx.FullTxScanned)
	if v > txPriceAfter {
		wire.WriteOptional(w, tx.ZecPrice, (*wire.Writer).WriteF64)
	}
	if v > txSaplingSpentAfter {
		wire.WriteVector(w, tx.SpentSapling, writeFixed32)
	}
	if v > txOrchardNotesAfter {
		wire.WriteVector(w, tx.OrchardNotes, writeOrchardNote)
		wire.WriteVector(w, tx.SpentOrchard, writeFixed32)
	}
}

func writeTxEntry(w *wire.Writer, tx *WalletTx) {
	w.WriteRaw(tx.TxID[:])
	writeWalletTx(w, tx)
}

func writeWalletTxns(w *wire.Writer, version uint64, txs []*WalletTx) {
	w.WriteU64(version)
	wire.WriteVector(w, txs, writeTxEntry)
	if version <= txnsMempoolUntil {
		wire.WriteVector(w, []*WalletTx{}, writeTxEntry)
	}
}

func writeOptions(w *wire.Writer, o WalletOptions) {
	w.WriteU64(o.Version)
	w.WriteU8(uint8(o.DownloadMemos))
	if o.Version > optionsSpamThresholdAfter {
		w.WriteI64(o.SpamThreshold)
	}
}

func writePriceInfo(w *wire.Writer, p WalletZecPriceInfo) {
	w.WriteU64(p.Version)
	wire.WriteOptional(w, p.LastHistoricalPricesFetchedAt, (*wire.Writer).WriteU64)
	w.WriteU64(p.HistoricalPricesRetryCount)
}

// writeWallet serializes f. The Orchard witness tree, if any, is written in
// the modern encoding.
func writeWallet(w *wire.Writer, f *WalletFile) {
	v := f.Version
	w.WriteU64(v)
	writeKeys(w, f.Keys)
	wire.WriteVector(w, f.Blocks, writeBlock)
	writeWalletTxns(w, f.Txns.Version, f.Txns.All())
	w.WriteString(f.ChainName)
	if v > walletOptionsAfter {
		writeOptions(w, f.Options)
	}
	w.WriteU64(f.Birthday)
	if v > walletTreeVerifiedAfter && v <= walletTreeVerifiedUntil {
		w.WriteU8(1)
	}
	if v > walletVerifiedTreeAfter {
		if f.VerifiedTree == nil {
			w.WriteU8(0)
		} else {
			w.WriteU8(1)
			w.WriteVarBytes(f.VerifiedTree.Marshal())
		}
	}
	if v > walletPriceInfoAfter {
		writePriceInfo(w, f.PriceInfo)
	}
	if v > walletOrchardWitnessAfter {
		if f.OrchardWitnesses == nil {
			w.WriteU8(0)
		} else {
			w.WriteU8(1)
			merkle.WriteTree(w, f.OrchardWitnesses)
		}
	}
}

func encode(write func(*wire.Writer)) []byte {
	w := wire.NewWriter()
	write(w)
	return w.Bytes()
}

// Test key material.

const (
	orchardFVKFill = 0xa0
	saplingFVKFill = 0x5a
)

// orchardFVK returns a recognizable Orchard viewing key for account i.
func orchardFVK(i byte) crypto.OrchardFullViewingKey {
	var fvk crypto.OrchardFullViewingKey
	for j := range fvk {
		fvk[j] = orchardFVKFill
	}
	fvk[1] = i
	return fvk
}

// saplingFVK returns a recognizable Sapling viewing key at the HD path of
// account i.
func saplingFVK(i byte) crypto.SaplingExtendedFullViewingKey {
	var fvk crypto.SaplingExtendedFullViewingKey
	for j := range fvk {
		fvk[j] = saplingFVKFill
	}
	fvk[0] = saplingHDDepth
	binary.LittleEndian.PutUint32(fvk[5:9], crypto.HardenedKeyStart|uint32(i))
	fvk[9] = i
	return fvk
}

// fakeDeriver accepts only keys built by orchardFVK and saplingFVK and
// returns their leading bytes as the address.
type fakeDeriver struct{}

var errUnknownKey = errors.New("unknown viewing key")

func (fakeDeriver) OrchardDefaultAddress(fvk crypto.OrchardFullViewingKey) (crypto.OrchardAddress, error) {
	for j, b := range fvk {
		if j != 1 && b != orchardFVKFill {
			return crypto.OrchardAddress{}, errUnknownKey
		}
	}
	var addr crypto.OrchardAddress
	copy(addr[:], fvk[:])
	return addr, nil
}

func (fakeDeriver) SaplingDefaultAddress(fvk crypto.SaplingExtendedFullViewingKey) (crypto.SaplingAddress, error) {
	for j, b := range fvk {
		header := j == 0 || (j >= 5 && j <= 9)
		if !header && b != saplingFVKFill {
			return crypto.SaplingAddress{}, errUnknownKey
		}
	}
	var addr crypto.SaplingAddress
	copy(addr[:], fvk[9:])
	return addr, nil
}

// SaplingAccountKey returns the saplingFVK fixture of the account as both
// keys.
func (fakeDeriver) SaplingAccountKey(_ []byte, _ crypto.Network, account uint32) (crypto.SaplingExtendedSpendingKey, crypto.SaplingExtendedFullViewingKey, error) {
	fvk := saplingFVK(byte(account))
	return crypto.SaplingExtendedSpendingKey(fvk), fvk, nil
}

func (fakeDeriver) OrchardAccountKey(_ []byte, _ crypto.Network, account uint32) (crypto.OrchardSpendingKey, crypto.OrchardFullViewingKey, error) {
	return crypto.OrchardSpendingKey{byte(account + 1)}, orchardFVK(byte(account)), nil
}

func u32p(v uint32) *uint32 { return &v }

func hdOKey(i uint32) *WalletOKey {
	sk := crypto.OrchardSpendingKey{byte(i + 1)}
	return &WalletOKey{
		Version:  KeyRecordVersion,
		Type:     OKeyHD,
		HDKeyNum: u32p(i),
		FVK:      orchardFVK(byte(i)),
		SK:       &sk,
	}
}

func hdZKey(i uint32) *WalletZKey {
	return &WalletZKey{
		Version:  KeyRecordVersion,
		Type:     ZKeyHD,
		ExtFVK:   saplingFVK(byte(i)),
		HDKeyNum: u32p(i),
	}
}

func mustSecret(b byte) *crypto.PrivateKey {
	raw := make([]byte, 32)
	raw[31] = b
	sk, err := crypto.ParseTransparentSecret(raw)
	if err != nil {
		panic(err)
	}
	return sk
}

func hdTKey(i uint32) *WalletTKey {
	sk := mustSecret(byte(i + 1))
	return &WalletTKey{
		Version:  KeyRecordVersion,
		Type:     TKeyHD,
		Secret:   sk,
		Address:  sk.Address(crypto.MainNet),
		HDKeyNum: u32p(i),
	}
}

func testOptions() DecodeOptions {
	return DecodeOptions{Deriver: fakeDeriver{}}
}

func emptyTxns(version uint64) *WalletTxns {
	return &WalletTxns{Version: version, Current: map[TxID]*WalletTx{}}
}

// minimalWallet is a wallet of the given version with empty key lists and
// no history.
func minimalWallet(version uint64) *WalletFile {
	return &WalletFile{
		Version:   version,
		Keys:      &Keys{Version: KeysVersion},
		Txns:      emptyTxns(WalletTxnsVersion),
		ChainName: "main",
		Options:   WalletOptions{Version: OptionsVersion, DownloadMemos: WalletMemos, SpamThreshold: 50},
		Birthday:  1_000_000,
		PriceInfo: WalletZecPriceInfo{Version: PriceInfoVersion, Currency: "USD"},
	}
}
