package zwl

import (
	"fmt"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// TKeyType is the legacy transparent key type.
type TKeyType uint32

const (
	TKeyHD TKeyType = iota
	TKeyImported

	numTKeyTypes
)

func (t TKeyType) String() string {
	switch t {
	case TKeyHD:
		return "HdKey"
	case TKeyImported:
		return "ImportedKey"
	default:
		return fmt.Sprintf("TKeyType(%d)", uint32(t))
	}
}

// WalletTKey is a transparent key record. Unlike the shielded pools the
// address is stored as text and taken as is.
type WalletTKey struct {
	Version  uint8
	Type     TKeyType
	Locked   bool
	Secret   *crypto.PrivateKey
	Address  string
	HDKeyNum *uint32

	EncKey []byte
	Nonce  []byte
}

// Kind collapses the legacy type.
func (k *WalletTKey) Kind() wallet.KeyKind {
	return wallet.CollapseKind(uint32(k.Type))
}

// Key converts the record to the common model.
func (k *WalletTKey) Key() *wallet.Key {
	key := &wallet.Key{
		Pool:    wallet.PoolTransparent,
		Kind:    k.Kind(),
		HDIndex: k.HDKeyNum,
		Locked:  k.Locked,
		Address: k.Address,
		EncKey:  cloneBytes(k.EncKey),
		Nonce:   cloneBytes(k.Nonce),
	}
	if k.Secret != nil {
		key.Secret = k.Secret.Bytes()
	}
	return key
}

// Mode reports which secret material the record carries.
func (k *WalletTKey) Mode() wallet.KeyMode {
	return k.Key().Mode()
}

// readTransparentSecret reads a 32-byte secp256k1 secret key.
func readTransparentSecret(r *wire.Reader) (*crypto.PrivateKey, error) {
	b, err := r.ReadExact(crypto.TransparentSecretKeySize)
	if err != nil {
		return nil, err
	}
	sk, err := crypto.ParseTransparentSecret(b)
	if err != nil {
		return nil, r.Wrap(wire.KindEncoding, err, "invalid transparent secret key")
	}
	return sk, nil
}

func readTKey(r *wire.Reader) (*WalletTKey, error) {
	h, err := readKeyHeader(r, uint32(numTKeyTypes))
	if err != nil {
		return nil, err
	}
	k := &WalletTKey{Version: h.version, Type: TKeyType(h.keyType), Locked: h.locked}

	secret, err := wire.ReadOptional(r, readTransparentSecret)
	if err != nil {
		return nil, wire.WithField(err, "key")
	}
	if secret != nil {
		k.Secret = *secret
	}
	if k.Address, err = r.ReadString(); err != nil {
		return nil, wire.WithField(err, "address")
	}
	if k.HDKeyNum, err = wire.ReadOptional(r, wire.U32); err != nil {
		return nil, wire.WithField(err, "hdkey_num")
	}
	if k.EncKey, k.Nonce, err = readLockedBlobs(r); err != nil {
		return nil, err
	}
	if err := checkKeyRecord(r, k.Kind(), k.HDKeyNum, k.Locked, k.Secret != nil); err != nil {
		return nil, err
	}
	return k, nil
}

// checkAddress verifies the stored address for net. A record holding its
// secret must store the address derived from it.
func (k *WalletTKey) checkAddress(net crypto.Network) error {
	if k.Secret != nil {
		if want := k.Secret.Address(net); k.Address != want {
			return wire.Errorf(wire.KindConsistency, "stored address %s but the secret derives %s", k.Address, want)
		}
		return nil
	}
	if _, err := crypto.DecodeTransparentAddress(net, k.Address); err != nil {
		return wire.Wrap(wire.KindEncoding, err, "invalid transparent address %q", k.Address)
	}
	return nil
}

// readRawTKeys reads the transparent keys of keys files up to version 20: a
// vector of bare secrets followed by a vector of their addresses. Each pair
// becomes an unlocked HD key numbered by its position.
func readRawTKeys(r *wire.Reader) ([]*WalletTKey, error) {
	secrets, err := wire.ReadVector(r, readTransparentSecret)
	if err != nil {
		return nil, err
	}
	addrs, err := wire.ReadVector(r, wire.String)
	if err != nil {
		return nil, wire.WithField(err, "addresses")
	}
	if len(addrs) != len(secrets) {
		return nil, r.Fail(wire.KindConsistency, "%d transparent secrets but %d addresses", len(secrets), len(addrs))
	}

	keys := make([]*WalletTKey, len(secrets))
	for i, sk := range secrets {
		n := uint32(i)
		keys[i] = &WalletTKey{
			Version:  KeyRecordVersion,
			Type:     TKeyHD,
			Secret:   sk,
			Address:  addrs[i],
			HDKeyNum: &n,
		}
	}
	return keys, nil
}
