package zwl

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tyler-smith/go-bip39"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
)

// SeedPhraseSource names wallets rebuilt from a seed phrase in the common
// wallet model.
const SeedPhraseSource = "SeedPhrase"

// ErrInvalidMnemonic is returned for a phrase that is not a BIP 39 mnemonic.
var ErrInvalidMnemonic = errors.New("invalid seed phrase")

// RestoreOptions configure Restore.
type RestoreOptions struct {
	// Network of the derived addresses. The zero value means MainNet.
	Network crypto.Network

	// Accounts is the number of HD accounts to derive, starting at index 0.
	// Zero means one.
	Accounts uint32

	Birthday uint64

	// Deriver derives the shielded keys and addresses. Nil means the FFI
	// deriver; without it only transparent keys are restored.
	Deriver crypto.KeyDeriver
}

// Restore rebuilds the accounts a ZecWallet Lite wallet derives from its
// seed phrase. Account n holds:
//
//	transparent  m/44'/coin_type'/0'/0/n
//	sapling      m/32'/coin_type'/n'
//	orchard      ZIP 32 account n
//
// All keys come from the BIP 39 seed of the phrase with an empty passphrase.
func Restore(phrase string, opts RestoreOptions) (*wallet.Wallet, error) {
	phrase = strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	seed := bip39.NewSeed(phrase, "")

	net := opts.Network
	if net.Name == "" {
		net = crypto.MainNet
	}
	count := opts.Accounts
	if count == 0 {
		count = 1
	}
	if count > crypto.HardenedKeyStart {
		return nil, fmt.Errorf("cannot derive %d accounts", count)
	}
	d := opts.Deriver
	if d == nil {
		d = crypto.NewFFIDeriver()
	}

	rs := &restoreState{
		seed:    seed,
		net:     net,
		deriver: d,
		logger:  log.WithField("format", "zwl").WithField("network", net.Name),
		warned:  make(map[wallet.Pool]bool),
	}

	accounts := make([]*wallet.Account, 0, count)
	for i := uint32(0); i < count; i++ {
		a, err := rs.account(i)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		a.Seed = cloneBytes(entropy)
		a.Birthday = opts.Birthday
		accounts = append(accounts, a)
	}

	rs.logger.WithField("accounts", len(accounts)).Debug("restored seed phrase")
	return &wallet.Wallet{
		Name:     SeedPhraseSource,
		Network:  net.Name,
		Birthday: opts.Birthday,
		Accounts: accounts,
	}, nil
}

type restoreState struct {
	seed    []byte
	net     crypto.Network
	deriver crypto.KeyDeriver
	logger  *log.Entry
	warned  map[wallet.Pool]bool
}

// unavailable reports whether err means the pool cannot be derived in this
// build, warning once per pool.
func (rs *restoreState) unavailable(pool wallet.Pool, err error) bool {
	if !errors.Is(err, crypto.ErrDerivationUnavailable) {
		return false
	}
	if !rs.warned[pool] {
		rs.warned[pool] = true
		rs.logger.WithField("pool", pool).Warn("key derivation unavailable, pool left empty")
	}
	return true
}

func (rs *restoreState) account(i uint32) (*wallet.Account, error) {
	idx := i
	a := &wallet.Account{
		Name:    fmt.Sprintf("Account %d", i+1),
		HDIndex: &idx,
	}

	sk, err := crypto.DeriveTransparentKey(rs.seed, rs.net, i)
	if err != nil {
		return nil, err
	}
	a.Keys.Transparent = &wallet.Key{
		Pool:    wallet.PoolTransparent,
		Kind:    wallet.KeyKindHD,
		HDIndex: &idx,
		Secret:  sk.Bytes(),
		Address: sk.Address(rs.net),
	}

	if a.Keys.Sapling, err = rs.saplingKey(i); err != nil {
		return nil, err
	}
	if a.Keys.Orchard, err = rs.orchardKey(i); err != nil {
		return nil, err
	}
	return a, nil
}

func (rs *restoreState) saplingKey(i uint32) (*wallet.Key, error) {
	extsk, extfvk, err := rs.deriver.SaplingAccountKey(rs.seed, rs.net, i)
	if rs.unavailable(wallet.PoolSapling, err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := rs.deriver.SaplingDefaultAddress(extfvk)
	if err != nil {
		return nil, err
	}
	addr, err := crypto.EncodeSaplingAddress(rs.net, raw)
	if err != nil {
		return nil, err
	}

	idx := i
	return &wallet.Key{
		Pool:       wallet.PoolSapling,
		Kind:       wallet.KeyKindHD,
		HDIndex:    &idx,
		Secret:     extsk[:],
		ViewingKey: extfvk[:],
		Address:    addr,
	}, nil
}

func (rs *restoreState) orchardKey(i uint32) (*wallet.Key, error) {
	sk, fvk, err := rs.deriver.OrchardAccountKey(rs.seed, rs.net, i)
	if rs.unavailable(wallet.PoolOrchard, err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := rs.deriver.OrchardDefaultAddress(fvk)
	if err != nil {
		return nil, err
	}
	addr, err := crypto.EncodeUnifiedAddress(rs.net, raw)
	if err != nil {
		return nil, err
	}

	idx := i
	return &wallet.Key{
		Pool:       wallet.PoolOrchard,
		Kind:       wallet.KeyKindHD,
		HDIndex:    &idx,
		Secret:     sk[:],
		ViewingKey: fvk[:],
		Address:    addr,
	}, nil
}
