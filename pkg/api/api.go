// Package api provides the high-level entry points of zcash-excavator.
//
// Typical flow:
//  1. DetectFormat: pick a decoder from the wallet file name
//  2. Open: decode the file with options taken from the configuration
//  3. Summarize: balances and history counts for display
//  4. Export: write the recovered accounts to the export store
//
// Restore skips the file and rebuilds the accounts from a seed phrase.
package api

import (
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/suffix-labs/zcash-excavator/pkg/config"
	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/export"
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
	"github.com/suffix-labs/zcash-excavator/pkg/zwl"
)

// Format is a known wallet file format.
type Format int

const (
	FormatUnknown Format = iota
	// FormatZecWalletLite is the zecwallet-light-wallet.dat stream format.
	FormatZecWalletLite
	// FormatYWallet is the YWallet sqlite database. It is recognized but
	// not decoded.
	FormatYWallet
)

func (f Format) String() string {
	switch f {
	case FormatZecWalletLite:
		return zwl.FormatName
	case FormatYWallet:
		return "YWallet"
	default:
		return "unknown"
	}
}

var (
	// ErrUnsupportedFormat is returned for recognized formats without a decoder.
	ErrUnsupportedFormat = errors.New("unsupported wallet format")
	// ErrUnknownFormat is returned when the file name matches no format.
	ErrUnknownFormat = errors.New("unknown wallet format")
)

// ============================================================================
// Format detection
// ============================================================================

// DetectFormat picks the wallet format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dat":
		return FormatZecWalletLite, nil
	case ".db":
		return FormatYWallet, fmt.Errorf("%s: %w", FormatYWallet, ErrUnsupportedFormat)
	default:
		return FormatUnknown, fmt.Errorf("%q: %w", filepath.Base(path), ErrUnknownFormat)
	}
}

// NewParser returns the wallet.Parser for the format of path.
func NewParser(path string, opts zwl.DecodeOptions) (wallet.Parser, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatZecWalletLite:
		return zwl.NewParser(opts), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ============================================================================
// Decoding
// ============================================================================

// DecodeOptions builds decode options from the loaded configuration.
func DecodeOptions() zwl.DecodeOptions {
	opts := zwl.DecodeOptions{
		Network:             config.GetNetwork(),
		OrchardTreeEncoding: config.GetTreeEncoding(),
	}
	if config.GetBool(config.NoDeriveKey) {
		opts.Deriver = crypto.NoopDeriver{}
	}
	return opts
}

// Open decodes the wallet file at path.
//
// Only ZecWallet Lite files are decoded; other recognized formats return
// ErrUnsupportedFormat.
func Open(path string, opts zwl.DecodeOptions) (*zwl.WalletFile, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format != FormatZecWalletLite {
		return nil, ErrUnsupportedFormat
	}

	log.WithFields(log.Fields{
		"path":   path,
		"format": format,
	}).Debug("opening wallet")

	f, err := zwl.ReadFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// Restore rebuilds the accounts of a ZecWallet Lite seed phrase for the
// configured network, mainnet when none is set.
func Restore(phrase string, accounts uint32, birthday uint64) (*wallet.Wallet, error) {
	opts := zwl.RestoreOptions{
		Accounts: accounts,
		Birthday: birthday,
	}
	if net := config.GetNetwork(); net != nil {
		opts.Network = *net
	}
	if config.GetBool(config.NoDeriveKey) {
		opts.Deriver = crypto.NoopDeriver{}
	}

	w, err := zwl.Restore(phrase, opts)
	if err != nil {
		return nil, fmt.Errorf("restoring seed phrase: %w", err)
	}
	return w, nil
}

// ============================================================================
// Summary
// ============================================================================

// Summary is a display oriented digest of a decoded wallet.
type Summary struct {
	Version   uint64
	Network   string
	Birthday  uint64
	Encrypted bool

	Accounts     int
	Blocks       int
	Transactions int
	Pending      int

	// Received and Spent are totals over the transaction history, in ZEC.
	Received decimal.Decimal
	Spent    decimal.Decimal

	// Unspent is the value of notes and outputs not yet spent, in ZEC.
	Unspent decimal.Decimal

	LastTxID string
	Currency string
}

// Summarize computes the Summary of a decoded wallet.
func Summarize(f *zwl.WalletFile) *Summary {
	s := &Summary{
		Version:   f.Version,
		Network:   f.Network.Name,
		Birthday:  f.Birthday,
		Encrypted: f.Keys.Encrypted,
		Accounts:  len(f.Accounts()),
		Blocks:    len(f.Blocks),
		Currency:  f.PriceInfo.Currency,
	}

	var received, spent, unspent uint64
	for _, tx := range f.Txns.All() {
		s.Transactions++
		if tx.Unconfirmed {
			s.Pending++
		}
		received += tx.ReceivedValue()
		spent += tx.SpentValue()
		unspent += unspentValue(tx)
	}
	s.Received = ToZec(received)
	s.Spent = ToZec(spent)
	s.Unspent = ToZec(unspent)

	if id, ok := f.Txns.LastTxID(); ok {
		s.LastTxID = id.String()
	}
	return s
}

func unspentValue(tx *zwl.WalletTx) uint64 {
	var v uint64
	for _, n := range tx.SaplingNotes {
		if n.Spent == nil {
			v += n.Value
		}
	}
	for _, n := range tx.OrchardNotes {
		if n.Spent == nil {
			v += n.Value
		}
	}
	for _, u := range tx.Utxos {
		if u.Spent == nil {
			v += u.Value
		}
	}
	return v
}

// ToZec converts zatoshis to ZEC.
func ToZec(zat uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(zat), -8)
}

// FormatZec renders a zatoshi amount as ZEC with eight decimals.
func FormatZec(zat uint64) string {
	return ToZec(zat).StringFixed(8)
}

// ============================================================================
// Export
// ============================================================================

// Export converts f to the common wallet model and writes it to store.
// It returns the id of the exported wallet record.
func Export(f *zwl.WalletFile, store *export.Store) (string, error) {
	return ExportWallet(f.Wallet(), store)
}

// ExportWallet writes w to store and returns the id of its record.
func ExportWallet(w *wallet.Wallet, store *export.Store) (string, error) {
	if w.Encrypted {
		log.Warn("wallet is encrypted, exporting the encrypted seed and locked keys as stored")
	}
	id, err := store.Write(w)
	if err != nil {
		return "", fmt.Errorf("exporting wallet: %w", err)
	}
	return id, nil
}
