package zwl

import (
	"fmt"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// OKeyType is the legacy Orchard key type.
type OKeyType uint32

const (
	OKeyHD OKeyType = iota
	OKeyImportedSpendingKey
	OKeyImportedFullViewKey

	numOKeyTypes
)

func (t OKeyType) String() string {
	switch t {
	case OKeyHD:
		return "HdKey"
	case OKeyImportedSpendingKey:
		return "ImportedSpendingKey"
	case OKeyImportedFullViewKey:
		return "ImportedFullViewKey"
	default:
		return fmt.Sprintf("OKeyType(%d)", uint32(t))
	}
}

// WalletOKey is an Orchard key record. Its address is not stored: it is the
// default address of the full viewing key, shown as a unified address.
type WalletOKey struct {
	Version  uint8
	Type     OKeyType
	Locked   bool
	HDKeyNum *uint32

	FVK crypto.OrchardFullViewingKey
	SK  *crypto.OrchardSpendingKey

	// RawAddress is nil when the deriver is unavailable.
	RawAddress *crypto.OrchardAddress
	Address    string

	EncKey []byte
	Nonce  []byte
}

// Kind collapses the legacy type.
func (k *WalletOKey) Kind() wallet.KeyKind {
	return wallet.CollapseKind(uint32(k.Type))
}

// Key converts the record to the common model.
func (k *WalletOKey) Key() *wallet.Key {
	fvk := k.FVK
	key := &wallet.Key{
		Pool:       wallet.PoolOrchard,
		Kind:       k.Kind(),
		HDIndex:    k.HDKeyNum,
		Locked:     k.Locked,
		ViewingKey: fvk[:],
		Address:    k.Address,
		EncKey:     cloneBytes(k.EncKey),
		Nonce:      cloneBytes(k.Nonce),
	}
	if k.SK != nil {
		sk := *k.SK
		key.Secret = sk[:]
	}
	return key
}

// Mode reports which secret material the record carries.
func (k *WalletOKey) Mode() wallet.KeyMode {
	return k.Key().Mode()
}

func (k *WalletOKey) encodeAddress(net crypto.Network) error {
	if k.RawAddress == nil {
		return nil
	}
	ua, err := crypto.EncodeUnifiedAddress(net, *k.RawAddress)
	if err != nil {
		return err
	}
	k.Address = ua
	return nil
}

func readOKey(st *decodeState) func(*wire.Reader) (*WalletOKey, error) {
	return func(r *wire.Reader) (*WalletOKey, error) {
		h, err := readKeyHeader(r, uint32(numOKeyTypes))
		if err != nil {
			return nil, err
		}
		k := &WalletOKey{Version: h.version, Type: OKeyType(h.keyType), Locked: h.locked}

		if k.HDKeyNum, err = wire.ReadOptional(r, wire.U32); err != nil {
			return nil, wire.WithField(err, "hdkey_num")
		}
		if err := r.ReadFixed(k.FVK[:]); err != nil {
			return nil, wire.WithField(err, "fvk")
		}
		sk, err := wire.ReadOptional(r, wire.Fixed32)
		if err != nil {
			return nil, wire.WithField(err, "sk")
		}
		if sk != nil {
			s := crypto.OrchardSpendingKey(*sk)
			k.SK = &s
		}

		if k.RawAddress, err = st.orchardAddress(r, k.FVK); err != nil {
			return nil, wire.WithField(err, "fvk")
		}

		if k.EncKey, k.Nonce, err = readLockedBlobs(r); err != nil {
			return nil, err
		}
		if err := checkKeyRecord(r, k.Kind(), k.HDKeyNum, k.Locked, k.SK != nil); err != nil {
			return nil, err
		}
		return k, nil
	}
}
