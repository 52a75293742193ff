package zwl

import (
	"fmt"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// ZKeyType is the legacy Sapling key type.
type ZKeyType uint32

const (
	ZKeyHD ZKeyType = iota
	ZKeyImportedSpendingKey
	ZKeyImportedViewKey

	numZKeyTypes
)

func (t ZKeyType) String() string {
	switch t {
	case ZKeyHD:
		return "HdKey"
	case ZKeyImportedSpendingKey:
		return "ImportedSpendingKey"
	case ZKeyImportedViewKey:
		return "ImportedViewKey"
	default:
		return fmt.Sprintf("ZKeyType(%d)", uint32(t))
	}
}

// WalletZKey is a Sapling key record. Like Orchard, the payment address is
// the default address of the extended full viewing key.
type WalletZKey struct {
	Version  uint8
	Type     ZKeyType
	Locked   bool
	ExtSK    *crypto.SaplingExtendedSpendingKey
	ExtFVK   crypto.SaplingExtendedFullViewingKey
	HDKeyNum *uint32

	RawAddress *crypto.SaplingAddress
	Address    string

	EncKey []byte
	Nonce  []byte
}

// Kind collapses the legacy type.
func (k *WalletZKey) Kind() wallet.KeyKind {
	return wallet.CollapseKind(uint32(k.Type))
}

// Key converts the record to the common model.
func (k *WalletZKey) Key() *wallet.Key {
	fvk := k.ExtFVK
	key := &wallet.Key{
		Pool:       wallet.PoolSapling,
		Kind:       k.Kind(),
		HDIndex:    k.HDKeyNum,
		Locked:     k.Locked,
		ViewingKey: fvk[:],
		Address:    k.Address,
		EncKey:     cloneBytes(k.EncKey),
		Nonce:      cloneBytes(k.Nonce),
	}
	if k.ExtSK != nil {
		sk := *k.ExtSK
		key.Secret = sk[:]
	}
	return key
}

// Mode reports which secret material the record carries.
func (k *WalletZKey) Mode() wallet.KeyMode {
	return k.Key().Mode()
}

func (k *WalletZKey) encodeAddress(net crypto.Network) error {
	if k.RawAddress == nil {
		return nil
	}
	addr, err := crypto.EncodeSaplingAddress(net, *k.RawAddress)
	if err != nil {
		return err
	}
	k.Address = addr
	return nil
}

func readExtSK(r *wire.Reader) (crypto.SaplingExtendedSpendingKey, error) {
	var sk crypto.SaplingExtendedSpendingKey
	if err := r.ReadFixed(sk[:]); err != nil {
		return sk, err
	}
	if err := sk.Validate(); err != nil {
		return sk, r.Wrap(wire.KindEncoding, err, "invalid extended spending key")
	}
	return sk, nil
}

func readZKey(st *decodeState) func(*wire.Reader) (*WalletZKey, error) {
	return func(r *wire.Reader) (*WalletZKey, error) {
		h, err := readKeyHeader(r, uint32(numZKeyTypes))
		if err != nil {
			return nil, err
		}
		k := &WalletZKey{Version: h.version, Type: ZKeyType(h.keyType), Locked: h.locked}

		if k.ExtSK, err = wire.ReadOptional(r, readExtSK); err != nil {
			return nil, wire.WithField(err, "extsk")
		}
		if err := r.ReadFixed(k.ExtFVK[:]); err != nil {
			return nil, wire.WithField(err, "extfvk")
		}
		if err := k.ExtFVK.Validate(); err != nil {
			return nil, wire.WithField(r.Wrap(wire.KindEncoding, err, "invalid extended full viewing key"), "extfvk")
		}
		if k.RawAddress, err = st.saplingAddress(r, k.ExtFVK); err != nil {
			return nil, wire.WithField(err, "extfvk")
		}

		if k.HDKeyNum, err = wire.ReadOptional(r, wire.U32); err != nil {
			return nil, wire.WithField(err, "hdkey_num")
		}
		if k.EncKey, k.Nonce, err = readLockedBlobs(r); err != nil {
			return nil, err
		}
		if err := checkKeyRecord(r, k.Kind(), k.HDKeyNum, k.Locked, k.ExtSK != nil); err != nil {
			return nil, err
		}
		if err := k.checkDerivationPath(r); err != nil {
			return nil, err
		}
		return k, nil
	}
}

// HD Sapling keys sit at m/32'/coin'/hdkey_num'.
const saplingHDDepth = 3

// checkDerivationPath matches the ZIP 32 header of the key against the
// record: a spending key and its viewing key share depth and child index,
// and an HD key is the hardened child hdkey_num at depth 3.
func (k *WalletZKey) checkDerivationPath(r *wire.Reader) error {
	fvk := k.ExtFVK
	if k.ExtSK != nil && (k.ExtSK.Depth() != fvk.Depth() || k.ExtSK.ChildIndex() != fvk.ChildIndex()) {
		return wire.WithField(r.Fail(wire.KindConsistency,
			"spending key at depth %d index %#x, viewing key at depth %d index %#x",
			k.ExtSK.Depth(), k.ExtSK.ChildIndex(), fvk.Depth(), fvk.ChildIndex()), "extsk")
	}
	if k.Kind() != wallet.KeyKindHD || k.HDKeyNum == nil {
		return nil
	}
	want := crypto.HardenedKeyStart | *k.HDKeyNum
	if fvk.Depth() != saplingHDDepth || fvk.ChildIndex() != want {
		return wire.WithField(r.Fail(wire.KindConsistency,
			"hd key %d: viewing key at depth %d index %#x", *k.HDKeyNum, fvk.Depth(), fvk.ChildIndex()), "hdkey_num")
	}
	return nil
}
