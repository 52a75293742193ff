// Package export writes the common wallet model into a badgerhold store, the
// backend new wallets import recovered keys from.
//
// One WalletRecord is written per exported file, followed by one
// AccountRecord per account. Both are keyed by random uuids and written in a
// single badger transaction.
package export

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/tyler-smith/go-bip39"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
)

// ErrNotFound is returned when a wallet id is not in the store.
var ErrNotFound = errors.New("wallet not found")

// WalletRecord describes one exported wallet file.
type WalletRecord struct {
	ID         string
	Source     string // parser format name
	Version    uint64
	Network    string
	Birthday   uint64
	Encrypted  bool
	ExportedAt time.Time
}

// AccountRecord is one exported account.
type AccountRecord struct {
	ID       string
	WalletID string `badgerhold:"index"`
	Position int
	Name     string
	HDIndex  *uint32
	Birthday uint64

	// Seed material. Empty for imported-key accounts and encrypted wallets.
	Mnemonic string
	SeedHex  string

	// Encrypted seed and its nonce, hex. Set only for encrypted wallets.
	EncSeedHex   string
	SeedNonceHex string

	Keys []KeyRecord
}

// KeyRecord is one exported key. Binary material is hex encoded, except
// transparent secrets which are exported as WIF.
type KeyRecord struct {
	Pool       string
	Kind       string
	Mode       string
	Address    string
	Secret     string
	ViewingKey string
	EncKey     string
	Nonce      string
}

// Options configure the backing badger database.
type Options struct {
	// Dir is the database directory. It must be empty when InMemory is set.
	Dir      string
	InMemory bool
}

// Store is a badgerhold-backed export target.
type Store struct {
	db *badgerhold.Store
}

// Open opens (or creates) the export store.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Dir)
	bopts.Logger = log.WithField("component", "badger")
	bopts.Compression = options.ZSTD
	if opts.InMemory {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          bopts,
	})
	if err != nil {
		return nil, fmt.Errorf("opening export db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Write exports w and returns the id of the new wallet record.
func (s *Store) Write(w *wallet.Wallet) (string, error) {
	net, err := crypto.NetworkFromChainName(w.Network)
	if err != nil {
		return "", err
	}

	rec := WalletRecord{
		ID:         uuid.New().String(),
		Source:     w.Name,
		Version:    w.Version,
		Network:    w.Network,
		Birthday:   w.Birthday,
		Encrypted:  w.Encrypted,
		ExportedAt: time.Now().UTC(),
	}

	accounts := make([]AccountRecord, 0, len(w.Accounts))
	for i, a := range w.Accounts {
		acc, err := newAccountRecord(rec.ID, i, a, net)
		if err != nil {
			return "", fmt.Errorf("account %q: %w", a.Name, err)
		}
		accounts = append(accounts, acc)
	}

	err = s.db.Badger().Update(func(tx *badger.Txn) error {
		if err := s.db.TxInsert(tx, rec.ID, rec); err != nil {
			return err
		}
		for _, acc := range accounts {
			if err := s.db.TxInsert(tx, acc.ID, acc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("writing wallet: %w", err)
	}

	log.WithFields(log.Fields{
		"wallet":   rec.ID,
		"source":   rec.Source,
		"accounts": len(accounts),
	}).Info("wallet exported")
	return rec.ID, nil
}

// Wallets returns every exported wallet, oldest first.
func (s *Store) Wallets() ([]WalletRecord, error) {
	var out []WalletRecord
	if err := s.db.Find(&out, nil); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExportedAt.Before(out[j].ExportedAt) })
	return out, nil
}

// Wallet returns the wallet record with the given id.
func (s *Store) Wallet(id string) (*WalletRecord, error) {
	var rec WalletRecord
	if err := s.db.Get(id, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Accounts returns the accounts of a wallet in their original order.
func (s *Store) Accounts(walletID string) ([]AccountRecord, error) {
	var out []AccountRecord
	query := badgerhold.Where("WalletID").Eq(walletID).SortBy("Position")
	if err := s.db.Find(&out, query); err != nil {
		return nil, err
	}
	return out, nil
}

func newAccountRecord(walletID string, pos int, a *wallet.Account, net crypto.Network) (AccountRecord, error) {
	rec := AccountRecord{
		ID:       uuid.New().String(),
		WalletID: walletID,
		Position: pos,
		Name:     a.Name,
		HDIndex:  a.HDIndex,
		Birthday: a.Birthday,
	}

	if a.Seed != nil {
		mnemonic, err := SeedMnemonic(a.Seed)
		if err != nil {
			return rec, err
		}
		rec.Mnemonic = mnemonic
		rec.SeedHex = hex.EncodeToString(a.Seed)
	}
	if a.EncSeed != nil {
		rec.EncSeedHex = hex.EncodeToString(a.EncSeed)
		rec.SeedNonceHex = hex.EncodeToString(a.SeedNonce)
	}

	for _, k := range []*wallet.Key{a.Keys.Transparent, a.Keys.Sapling, a.Keys.Orchard} {
		if k == nil {
			continue
		}
		kr, err := newKeyRecord(k, net)
		if err != nil {
			return rec, fmt.Errorf("%s key: %w", k.Pool, err)
		}
		rec.Keys = append(rec.Keys, kr)
	}
	return rec, nil
}

func newKeyRecord(k *wallet.Key, net crypto.Network) (KeyRecord, error) {
	kr := KeyRecord{
		Pool:       k.Pool.String(),
		Kind:       k.Kind.String(),
		Mode:       k.Mode().String(),
		Address:    k.Address,
		ViewingKey: hex.EncodeToString(k.ViewingKey),
		EncKey:     hex.EncodeToString(k.EncKey),
		Nonce:      hex.EncodeToString(k.Nonce),
	}
	if k.Secret == nil {
		return kr, nil
	}

	if k.Pool != wallet.PoolTransparent {
		kr.Secret = hex.EncodeToString(k.Secret)
		return kr, nil
	}
	sk, err := crypto.ParseTransparentSecret(k.Secret)
	if err != nil {
		return kr, err
	}
	kr.Secret = sk.WIF(net)
	return kr, nil
}

// SeedMnemonic renders a wallet seed as its BIP-39 phrase. ZecWallet Lite
// seeds are 32 bytes of BIP-39 entropy, giving 24 words.
func SeedMnemonic(seed []byte) (string, error) {
	return bip39.NewMnemonic(seed)
}
