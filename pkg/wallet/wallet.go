// Package wallet defines the format-independent account model that every
// wallet parser in this module produces and every exporter consumes.
//
// A legacy wallet file stores flat per-pool key lists. Parsers group those
// lists into Accounts, each holding at most one key per pool:
//
//	Wallet
//	  └── Account ("Account 1", "Account 2", ...)
//	        ├── Seed, Birthday
//	        └── KeyBundle
//	              ├── Transparent
//	              ├── Sapling
//	              └── Orchard
package wallet

import (
	"fmt"
)

// Pool identifies the value pool a key belongs to.
type Pool int

const (
	PoolTransparent Pool = iota
	PoolSapling
	PoolOrchard
)

func (p Pool) String() string {
	switch p {
	case PoolTransparent:
		return "transparent"
	case PoolSapling:
		return "sapling"
	case PoolOrchard:
		return "orchard"
	default:
		return fmt.Sprintf("Pool(%d)", int(p))
	}
}

// KeyKind says how a key entered the wallet.
type KeyKind int

const (
	// KeyKindHD keys are derived from the wallet seed at an HD index.
	KeyKindHD KeyKind = iota
	// KeyKindImported keys were imported individually and have no HD index.
	KeyKindImported
)

func (k KeyKind) String() string {
	if k == KeyKindHD {
		return "hd"
	}
	return "imported"
}

// LegacyHDKeyType is the value every legacy per-pool key type enum uses for
// seed-derived keys.
const LegacyHDKeyType = 0

// CollapseKind maps a legacy per-pool key type onto KeyKind.
//
// Legacy files distinguish imported spending keys from imported viewing
// keys (and, per pool, a few other variants). Nothing downstream of the
// parsers acts on that distinction: whether an imported key can spend is
// already captured by Key.Mode. So every non-HD legacy type collapses to
// KeyKindImported. The legacy value stays on the parser's own record type.
func CollapseKind(legacyType uint32) KeyKind {
	if legacyType == LegacyHDKeyType {
		return KeyKindHD
	}
	return KeyKindImported
}

// KeyMode describes which secret material a key record carries.
type KeyMode int

const (
	KeyModeSpendable KeyMode = iota // secret present
	KeyModeLocked                   // secret encrypted, enc key present
	KeyModeViewOnly                 // no secret at all
)

func (m KeyMode) String() string {
	switch m {
	case KeyModeSpendable:
		return "spendable"
	case KeyModeLocked:
		return "locked"
	default:
		return "view-only"
	}
}

// Key is one key record of one pool.
type Key struct {
	Pool    Pool
	Kind    KeyKind
	HDIndex *uint32 // non-nil iff Kind == KeyKindHD

	Locked     bool
	Secret     []byte // spending key or transparent secret; nil when absent
	ViewingKey []byte // full viewing key; nil for transparent keys
	Address    string // encoded for the wallet's network; empty if underivable

	EncKey []byte // encrypted secret of a locked key
	Nonce  []byte
}

// Mode reports which secret material the key carries.
func (k *Key) Mode() KeyMode {
	switch {
	case k.Secret != nil:
		return KeyModeSpendable
	case k.Locked && k.EncKey != nil:
		return KeyModeLocked
	default:
		return KeyModeViewOnly
	}
}

// KeyBundle holds at most one key per pool. A nil slot is empty.
type KeyBundle struct {
	Transparent *Key
	Sapling     *Key
	Orchard     *Key
}

// Len returns the number of filled slots.
func (b KeyBundle) Len() int {
	n := 0
	for _, k := range []*Key{b.Transparent, b.Sapling, b.Orchard} {
		if k != nil {
			n++
		}
	}
	return n
}

// Slot returns the pointer to the slot for pool p.
func (b *KeyBundle) Slot(p Pool) **Key {
	switch p {
	case PoolTransparent:
		return &b.Transparent
	case PoolSapling:
		return &b.Sapling
	default:
		return &b.Orchard
	}
}

// Account is a logical account assembled from keys sharing an HD index, or
// a single imported key.
type Account struct {
	Name     string
	HDIndex  *uint32 // nil for imported-key accounts
	Seed     []byte  // cleartext seed; nil when the wallet is encrypted
	Birthday uint64
	Keys     KeyBundle

	// EncSeed and SeedNonce hold the encrypted seed of an encrypted wallet.
	EncSeed   []byte
	SeedNonce []byte
}

// Wallet is the parsed, format-independent content of one wallet file.
type Wallet struct {
	Name      string // format name, e.g. "ZecWalletLite"
	Version   uint64
	Network   string
	Birthday  uint64
	Encrypted bool
	Accounts  []*Account
}

// Parser turns the raw content of a wallet file into a Wallet.
type Parser interface {
	Parse(data []byte) (*Wallet, error)
}
