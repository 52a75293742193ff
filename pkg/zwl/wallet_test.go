package zwl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/lwd"
	"github.com/suffix-labs/zcash-excavator/pkg/merkle"
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// fullWallet is a current-version wallet with one HD account holding an
// Orchard and a transparent key, one transaction and every optional record.
func fullWallet() *WalletFile {
	at := uint64(1_690_000_000)
	pos := merkle.Position(0)
	txid := TxID{0x42}

	tx := &WalletTx{
		Version:  WalletTxVersion,
		Block:    2_100_000,
		Datetime: 1_690_000_100,
		TxID:     txid,
		OrchardNotes: []*OrchardNoteData{{
			Version: 1, FVK: orchardFVK(0), Value: 150_000_000, WitnessPosition: &pos,
			Memo: &Memo{Raw: textMemo("welcome")},
		}},
		Utxos: []*Utxo{{
			Version: UtxoVersion, Address: hdTKey(0).Address, TxID: txid, Value: 25_000, Height: 2_100_000,
		}},
		FullTxScanned: true,
	}
	txns := &WalletTxns{Version: WalletTxnsVersion, Current: map[TxID]*WalletTx{txid: tx}, Order: []TxID{txid}}

	return &WalletFile{
		Version: WalletVersion,
		Keys: &Keys{
			Version: KeysVersion,
			Nonce:   []byte{},
			OKeys:   []*WalletOKey{hdOKey(0)},
			TKeys:   []*WalletTKey{hdTKey(0)},
		},
		Blocks: []*CompactBlockData{{
			Height:  2_100_000,
			Hash:    [32]byte{31: 0x0a},
			Version: 12,
			Ecb:     lwd.MarshalCompactBlockHeader(&lwd.CompactBlockHeader{Height: 2_100_000, Time: 1_690_000_000}),
		}},
		Txns:      txns,
		ChainName: "main",
		Options:   WalletOptions{Version: OptionsVersion, DownloadMemos: AllMemos, SpamThreshold: 50},
		Birthday:  2_000_000,
		VerifiedTree: &lwd.TreeState{
			Network:     "main",
			Height:      2_099_000,
			Hash:        "00000000015a",
			Time:        1_689_990_000,
			SaplingTree: "01ab",
			OrchardTree: "01cd",
		},
		PriceInfo: WalletZecPriceInfo{Version: PriceInfoVersion, LastHistoricalPricesFetchedAt: &at},
		OrchardWitnesses: &merkle.BridgeTree{
			Version:        0,
			PriorBridges:   []*merkle.MerkleBridge{{Frontier: merkle.NonEmptyFrontier{Position: 0, Leaf: merkle.Hash{0x11}}}},
			Saved:          map[merkle.Position]uint64{0: 0},
			Checkpoints:    []*merkle.Checkpoint{{ID: 7, BridgesLen: 1}},
			MaxCheckpoints: 100,
		},
	}
}

func fullWalletOptions() DecodeOptions {
	opts := testOptions()
	opts.OrchardTreeEncoding = merkle.EncodingModern
	return opts
}

func TestDecodeFullWallet(t *testing.T) {
	data := encode(func(w *wire.Writer) { writeWallet(w, fullWallet()) })

	f, err := Decode(data, fullWalletOptions())
	require.NoError(t, err)

	assert.Equal(t, uint64(WalletVersion), f.Version)
	assert.Equal(t, crypto.MainNet.Name, f.Network.Name)
	assert.Equal(t, uint64(2_000_000), f.Birthday)
	assert.Equal(t, AllMemos, f.Options.DownloadMemos)
	assert.Equal(t, int64(50), f.Options.SpamThreshold)

	require.Len(t, f.Blocks, 1)
	hdr, err := f.Blocks[0].Header()
	require.NoError(t, err)
	assert.Equal(t, uint32(1_690_000_000), hdr.Time)
	assert.Equal(t, "0a", f.Blocks[0].HashHex()[:2])

	require.Equal(t, 1, f.Txns.Len())
	last, ok := f.Txns.LastTxID()
	require.True(t, ok)
	assert.Equal(t, TxID{0x42}, last)
	tx := f.Txns.Current[last]
	require.Len(t, tx.OrchardNotes, 1)
	assert.Equal(t, "welcome", tx.OrchardNotes[0].Memo.Text)

	require.NotNil(t, f.VerifiedTree)
	assert.Equal(t, *fullWallet().VerifiedTree, *f.VerifiedTree)
	require.NotNil(t, f.PriceInfo.LastHistoricalPricesFetchedAt)
	assert.Equal(t, uint64(1_690_000_000), *f.PriceInfo.LastHistoricalPricesFetchedAt)

	require.NotNil(t, f.OrchardWitnesses)
	assert.Equal(t, []merkle.Position{0}, f.OrchardWitnesses.MarkedPositions())
	require.Len(t, f.OrchardWitnesses.Checkpoints, 1)
	assert.Equal(t, uint64(7), f.OrchardWitnesses.Checkpoints[0].ID)
}

func TestDecodeFullWalletAccounts(t *testing.T) {
	data := encode(func(w *wire.Writer) { writeWallet(w, fullWallet()) })

	w, err := NewParser(fullWalletOptions()).Parse(data)
	require.NoError(t, err)

	assert.Equal(t, FormatName, w.Name)
	assert.Equal(t, "main", w.Network)
	assert.False(t, w.Encrypted)
	require.Len(t, w.Accounts, 1)

	a := w.Accounts[0]
	assert.Equal(t, "Account 1", a.Name)
	require.NotNil(t, a.HDIndex)
	assert.Equal(t, uint32(0), *a.HDIndex)
	assert.Equal(t, make([]byte, 32), a.Seed)
	assert.Equal(t, uint64(2_000_000), a.Birthday)
	assert.Equal(t, 2, a.Keys.Len())
	assert.Nil(t, a.Keys.Sapling)

	require.NotNil(t, a.Keys.Orchard)
	fvk := orchardFVK(0)
	ua, err := crypto.EncodeUnifiedAddress(crypto.MainNet, crypto.OrchardAddress(fvk[:crypto.OrchardAddressSize]))
	require.NoError(t, err)
	assert.Equal(t, ua, a.Keys.Orchard.Address)
	assert.Equal(t, wallet.KeyModeSpendable, a.Keys.Orchard.Mode())

	require.NotNil(t, a.Keys.Transparent)
	assert.Equal(t, hdTKey(0).Address, a.Keys.Transparent.Address)
}

func TestDecodeTruncated(t *testing.T) {
	data := encode(func(w *wire.Writer) { writeWallet(w, fullWallet()) })
	opts := fullWalletOptions()

	for i := 0; i < len(data); i++ {
		_, err := Decode(data[:i], opts)
		require.Error(t, err, "prefix of %d bytes", i)
		require.ErrorIs(t, err, wire.ErrTruncation, "prefix of %d bytes", i)
	}
}

func TestDecodeTrailingData(t *testing.T) {
	data := encode(func(w *wire.Writer) { writeWallet(w, minimalWallet(WalletVersion)) })
	_, err := Decode(append(data, 0x00, 0x01), testOptions())
	assert.NoError(t, err)
}

func TestDecodeWalletVersionGates(t *testing.T) {
	keysLen := len(encode(func(w *wire.Writer) { writeKeys(w, &Keys{Version: KeysVersion}) }))
	txnsLen := 8 + 1 // version, empty current

	for v := uint64(minWalletVersion); v <= WalletVersion; v++ {
		f := minimalWallet(v)
		data := encode(func(w *wire.Writer) { writeWallet(w, f) })

		size := 8 + keysLen + 1 + txnsLen + 8 + len("main") +
			17*b2i(v > 23) + // options
			8 + // birthday
			b2i(v > 12 && v <= 22) + // sapling_tree_verified
			b2i(v > 21) + // verified tree
			17*b2i(v > 13) + // price info
			b2i(v > 24) // orchard witnesses
		require.Equal(t, size, len(data), "version %d", v)

		got, err := Decode(data, testOptions())
		require.NoError(t, err, "version %d", v)
		assert.Equal(t, uint64(1_000_000), got.Birthday)
		if v > 23 {
			assert.Equal(t, int64(50), got.Options.SpamThreshold)
		} else {
			assert.Equal(t, DefaultWalletOptions(), got.Options)
		}
		assert.Nil(t, got.VerifiedTree)
		assert.Nil(t, got.OrchardWitnesses)
	}
}

func TestDecodeWalletVersionRejected(t *testing.T) {
	for _, v := range []uint64{WalletVersion + 1, minWalletVersion - 1} {
		data := encode(func(w *wire.Writer) { w.WriteU64(v) })
		_, err := Decode(data, testOptions())
		werr := requireKind(t, err, wire.ErrVersionUnsupported)
		assert.Equal(t, "version", werr.Op)
	}
}

func TestDecodeNetwork(t *testing.T) {
	t.Run("testnet", func(t *testing.T) {
		f := minimalWallet(WalletVersion)
		f.ChainName = "test"
		f.Keys.OKeys = []*WalletOKey{hdOKey(0)}
		data := encode(func(w *wire.Writer) { writeWallet(w, f) })

		got, err := Decode(data, testOptions())
		require.NoError(t, err)
		assert.Equal(t, crypto.TestNet.Name, got.Network.Name)
		assert.Regexp(t, "^utest1", got.Keys.OKeys[0].Address)
	})

	t.Run("unknown chain", func(t *testing.T) {
		f := minimalWallet(WalletVersion)
		f.ChainName = "mars"
		data := encode(func(w *wire.Writer) { writeWallet(w, f) })

		_, err := Decode(data, testOptions())
		werr := requireKind(t, err, wire.ErrInvalidTag)
		assert.Equal(t, "chain_name", werr.Op)
	})

	t.Run("configured network mismatch", func(t *testing.T) {
		data := encode(func(w *wire.Writer) { writeWallet(w, minimalWallet(WalletVersion)) })
		opts := testOptions()
		opts.Network = &crypto.TestNet

		_, err := Decode(data, opts)
		requireKind(t, err, wire.ErrConsistency)
	})
}

func TestDecodeMalformedVerifiedTree(t *testing.T) {
	tests := []struct {
		name  string
		blob  []byte
		cause error
	}{
		{"truncated protobuf tag", []byte{0xff}, nil},
		{"network not utf-8", []byte{0x0a, 0x02, 0xff, 0xfe}, lwd.ErrInvalidUTF8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := minimalWallet(WalletVersion)
			data := encode(func(w *wire.Writer) {
				w.WriteU64(f.Version)
				writeKeys(w, f.Keys)
				w.WriteCompactSize(0)
				writeWalletTxns(w, f.Txns.Version, nil)
				w.WriteString(f.ChainName)
				writeOptions(w, f.Options)
				w.WriteU64(f.Birthday)
				w.WriteU8(1)
				w.WriteVarBytes(tc.blob)
				writePriceInfo(w, f.PriceInfo)
				w.WriteU8(0)
			})

			_, err := Decode(data, testOptions())
			werr := requireKind(t, err, wire.ErrEncoding)
			assert.Equal(t, "verified_tree", werr.Op)
			if tc.cause != nil {
				assert.ErrorIs(t, err, tc.cause)
			}
		})
	}
}

func TestDecodeWithoutDeriver(t *testing.T) {
	f := minimalWallet(WalletVersion)
	f.Keys.OKeys = []*WalletOKey{hdOKey(0)}
	f.Keys.ZKeys = []*WalletZKey{hdZKey(0)}
	data := encode(func(w *wire.Writer) { writeWallet(w, f) })

	got, err := Decode(data, DecodeOptions{Deriver: crypto.NoopDeriver{}})
	require.NoError(t, err)
	assert.Empty(t, got.Keys.OKeys[0].Address)
	assert.Empty(t, got.Keys.ZKeys[0].Address)

	accounts := got.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, 2, accounts[0].Keys.Len())
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zecwallet-light-wallet.dat")
	data := encode(func(w *wire.Writer) { writeWallet(w, fullWallet()) })
	require.NoError(t, os.WriteFile(path, data, 0o600))

	f, err := ReadFile(path, fullWalletOptions())
	require.NoError(t, err)
	assert.Equal(t, uint64(WalletVersion), f.Version)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.dat"), fullWalletOptions())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAccountsGrouping(t *testing.T) {
	f := minimalWallet(WalletVersion)
	f.Keys.Seed = [32]byte{7}
	f.Keys.OKeys = []*WalletOKey{hdOKey(1), hdOKey(0)}
	f.Keys.TKeys = []*WalletTKey{hdTKey(0)}

	accounts := f.Accounts()
	require.Len(t, accounts, 2)

	first, second := accounts[0], accounts[1]
	assert.Equal(t, "Account 1", first.Name)
	assert.Equal(t, uint32(0), *first.HDIndex)
	require.NotNil(t, first.Keys.Orchard)
	assert.Equal(t, uint32(0), *first.Keys.Orchard.HDIndex)
	assert.NotNil(t, first.Keys.Transparent)

	assert.Equal(t, "Account 2", second.Name)
	assert.Equal(t, uint32(1), *second.HDIndex)
	assert.NotNil(t, second.Keys.Orchard)
	assert.Nil(t, second.Keys.Transparent)
	assert.Nil(t, second.Keys.Sapling)

	assert.Equal(t, f.Keys.Seed[:], first.Seed)
	first.Seed[0] = 0xff
	assert.Equal(t, byte(7), second.Seed[0], "accounts do not share the seed buffer")
}

func TestAccountsSparseIndices(t *testing.T) {
	f := minimalWallet(WalletVersion)
	f.Keys.ZKeys = []*WalletZKey{hdZKey(5)}
	f.Keys.TKeys = []*WalletTKey{hdTKey(2)}

	accounts := f.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, "Account 1", accounts[0].Name)
	assert.Equal(t, uint32(2), *accounts[0].HDIndex)
	assert.Equal(t, "Account 2", accounts[1].Name)
	assert.Equal(t, uint32(5), *accounts[1].HDIndex)
}

func TestAccountsImportedAndDuplicates(t *testing.T) {
	dup := hdOKey(0)
	dup.FVK = orchardFVK(9)
	imported := &WalletOKey{Version: KeyRecordVersion, Type: OKeyImportedFullViewKey, FVK: orchardFVK(4)}
	importedT := hdTKey(3)
	importedT.Type = TKeyImported
	importedT.HDKeyNum = nil

	f := minimalWallet(WalletVersion)
	f.Keys.OKeys = []*WalletOKey{hdOKey(0), dup, imported}
	f.Keys.TKeys = []*WalletTKey{importedT}

	accounts := f.Accounts()
	require.Len(t, accounts, 3)

	assert.Equal(t, "Account 1", accounts[0].Name)
	want := orchardFVK(0)
	assert.Equal(t, want[:], accounts[0].Keys.Orchard.ViewingKey, "first record wins")

	assert.Equal(t, "Imported 1", accounts[1].Name)
	assert.Nil(t, accounts[1].HDIndex)
	assert.Nil(t, accounts[1].Seed)
	assert.Equal(t, wallet.KeyModeViewOnly, accounts[1].Keys.Orchard.Mode())

	assert.Equal(t, "Imported 2", accounts[2].Name)
	require.NotNil(t, accounts[2].Keys.Transparent)
	assert.Equal(t, wallet.KeyKindImported, accounts[2].Keys.Transparent.Kind)
}

func TestAccountsEncryptedSeed(t *testing.T) {
	f := minimalWallet(WalletVersion)
	f.Keys.Encrypted = true
	f.Keys.EncSeed = [48]byte{1}
	f.Keys.Nonce = []byte{9, 9}
	f.Keys.OKeys = []*WalletOKey{{
		Version: KeyRecordVersion, Type: OKeyHD, Locked: true, HDKeyNum: u32p(0),
		FVK: orchardFVK(0), EncKey: []byte{1}, Nonce: []byte{2},
	}}

	w := f.Wallet()
	assert.True(t, w.Encrypted)
	require.Len(t, w.Accounts, 1)
	assert.Nil(t, w.Accounts[0].Seed)
	assert.Equal(t, f.Keys.EncSeed[:], w.Accounts[0].EncSeed)
	assert.Equal(t, []byte{9, 9}, w.Accounts[0].SeedNonce)
	assert.Equal(t, wallet.KeyModeLocked, w.Accounts[0].Keys.Orchard.Mode())

	f.Keys.Encrypted = false
	w = f.Wallet()
	assert.Nil(t, w.Accounts[0].EncSeed)
	assert.NotNil(t, w.Accounts[0].Seed)
}
