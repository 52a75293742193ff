// Package zwl decodes ZecWallet Lite wallet files (zecwallet-light-wallet.dat).
//
// The format is a single little-endian stream with no header beyond the
// leading version number. Its layout changed over many releases, and every
// record carries its own version that decides which fields follow:
//
//	u64 version
//	Keys                      seed + Orchard, Sapling and transparent keys
//	Vector<CompactBlockData>  cached scan state
//	WalletTxns                transaction history
//	String chain_name
//	WalletOptions             version > 23
//	u64 birthday
//	u8 sapling_tree_verified  12 < version <= 22
//	Optional<TreeState>       version > 21
//	WalletZecPriceInfo        version > 13
//	Optional<BridgeTree>      version > 24, Orchard witnesses
//
// Decoding is one forward pass; any error aborts it and no partial wallet is
// returned. Errors are *wire.Error values carrying the field path.
package zwl

import (
	"fmt"
	"io"
	"os"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/lwd"
	"github.com/suffix-labs/zcash-excavator/pkg/merkle"
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// FormatName identifies this format in the common wallet model.
const FormatName = "ZecWalletLite"

// WalletFile is a decoded wallet file.
type WalletFile struct {
	Version   uint64
	Keys      *Keys
	Blocks    []*CompactBlockData
	Txns      *WalletTxns
	ChainName string
	Network   crypto.Network
	Options   WalletOptions
	Birthday  uint64

	// VerifiedTree is the last verified commitment tree state, if stored.
	VerifiedTree *lwd.TreeState
	PriceInfo    WalletZecPriceInfo

	// OrchardWitnesses is the Orchard witness tree, if stored.
	OrchardWitnesses *merkle.BridgeTree
}

// Decode decodes a complete wallet file held in memory.
func Decode(data []byte, opts DecodeOptions) (*WalletFile, error) {
	st := newDecodeState(opts)
	r := wire.NewReader(data)

	f, err := decodeWallet(r, st)
	if err != nil {
		return nil, err
	}
	if n := r.Remaining(); n > 0 {
		st.logger.WithField("bytes", n).Warn("ignoring trailing data after wallet")
	}
	return f, nil
}

// ReadFile reads and decodes the wallet file at path.
func ReadFile(path string, opts DecodeOptions) (*WalletFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data, opts)
}

func decodeWallet(r *wire.Reader, st *decodeState) (*WalletFile, error) {
	version, err := r.ReadU64()
	if err != nil {
		return nil, wire.WithField(err, "version")
	}
	if version > WalletVersion {
		return nil, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"wallet version %d: need newer reader (newest known is %d)", version, WalletVersion), "version")
	}
	if version < minWalletVersion {
		return nil, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"wallet version %d predates the supported layout (oldest is %d)", version, minWalletVersion), "version")
	}
	st.version = version
	st.logger = st.logger.WithField("version", version)
	st.logger.Debug("reading wallet")

	f := &WalletFile{
		Version:   version,
		Options:   DefaultWalletOptions(),
		PriceInfo: DefaultPriceInfo(),
	}

	if f.Keys, err = readKeys(r, st); err != nil {
		return nil, wire.WithField(err, "keys")
	}
	if f.Blocks, err = wire.ReadVector(r, readBlock); err != nil {
		return nil, wire.WithField(err, "blocks")
	}
	if f.Txns, err = readWalletTxns(r, st); err != nil {
		return nil, wire.WithField(err, "txns")
	}
	st.logger.WithField("blocks", len(f.Blocks)).WithField("txns", f.Txns.Len()).Debug("read scan state")

	if f.ChainName, err = r.ReadString(); err != nil {
		return nil, wire.WithField(err, "chain_name")
	}
	if f.Network, err = resolveNetwork(r, st.opts.Network, f.ChainName); err != nil {
		return nil, wire.WithField(err, "chain_name")
	}
	if err := f.Keys.encodeAddresses(f.Network); err != nil {
		return nil, wire.WithField(err, "keys")
	}

	if st.after(walletOptionsAfter) {
		if f.Options, err = readWalletOptions(r); err != nil {
			return nil, wire.WithField(err, "options")
		}
	}

	if f.Birthday, err = r.ReadU64(); err != nil {
		return nil, wire.WithField(err, "birthday")
	}
	if st.after(walletTreeVerifiedAfter) && !st.after(walletTreeVerifiedUntil) {
		if _, err := r.ReadU8(); err != nil {
			return nil, wire.WithField(err, "sapling_tree_verified")
		}
	}

	if st.after(walletVerifiedTreeAfter) {
		if f.VerifiedTree, err = readVerifiedTree(r); err != nil {
			return nil, wire.WithField(err, "verified_tree")
		}
	}

	if st.after(walletPriceInfoAfter) {
		if f.PriceInfo, err = readPriceInfo(r); err != nil {
			return nil, wire.WithField(err, "price")
		}
	}

	if st.after(walletOrchardWitnessAfter) {
		tree, err := wire.ReadOptional(r, func(r *wire.Reader) (*merkle.BridgeTree, error) {
			return merkle.ReadTree(r, st.opts.OrchardTreeEncoding)
		})
		if err != nil {
			return nil, wire.WithField(err, "orchard_witnesses")
		}
		if tree != nil {
			f.OrchardWitnesses = *tree
		}
	}

	st.logger.WithField("chain", f.ChainName).WithField("birthday", f.Birthday).Debug("wallet decoded")
	return f, nil
}

// readVerifiedTree reads the optional TreeState blob. A blob that is not a
// valid TreeState is an encoding error like any other.
func readVerifiedTree(r *wire.Reader) (*lwd.TreeState, error) {
	blob, err := wire.ReadOptional(r, wire.VarBytes)
	if err != nil || blob == nil {
		return nil, err
	}
	ts, err := lwd.UnmarshalTreeState(*blob)
	if err != nil {
		return nil, r.Wrap(wire.KindEncoding, err, "malformed tree state")
	}
	return ts, nil
}

// resolveNetwork maps the stored chain name to a network and checks it
// against the configured one.
func resolveNetwork(r *wire.Reader, configured *crypto.Network, chainName string) (crypto.Network, error) {
	net, err := crypto.NetworkFromChainName(chainName)
	if err != nil {
		return crypto.Network{}, r.Wrap(wire.KindInvalidTag, err, "unknown chain")
	}
	if configured != nil && configured.Name != net.Name {
		return crypto.Network{}, r.Fail(wire.KindConsistency,
			"wallet is for %s, configured network is %s", net.Name, configured.Name)
	}
	return net, nil
}

// Wallet converts the file to the common wallet model.
func (f *WalletFile) Wallet() *wallet.Wallet {
	return &wallet.Wallet{
		Name:      FormatName,
		Version:   f.Version,
		Network:   f.Network.Name,
		Birthday:  f.Birthday,
		Encrypted: f.Keys.Encrypted,
		Accounts:  f.Accounts(),
	}
}

// Parser adapts Decode to wallet.Parser.
type Parser struct {
	Options DecodeOptions
}

// NewParser returns a Parser decoding with opts.
func NewParser(opts DecodeOptions) *Parser {
	return &Parser{Options: opts}
}

// Parse decodes data and converts it to the common wallet model.
func (p *Parser) Parse(data []byte) (*wallet.Wallet, error) {
	f, err := Decode(data, p.Options)
	if err != nil {
		return nil, err
	}
	return f.Wallet(), nil
}
