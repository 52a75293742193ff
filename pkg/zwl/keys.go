package zwl

import (
	log "github.com/sirupsen/logrus"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// Keys is the key collection of a wallet: the seed (cleartext or
// encrypted) and one list of key records per pool.
type Keys struct {
	Version   uint64
	Encrypted bool
	EncSeed   [48]byte // meaningful only when Encrypted
	Nonce     []byte
	Seed      [32]byte // all zero when Encrypted

	OKeys []*WalletOKey
	ZKeys []*WalletZKey
	TKeys []*WalletTKey
}

// keysStep is one named field of the key collection.
type keysStep struct {
	name string
	read func(r *wire.Reader, k *Keys) error
}

// keysPipeline lists the key collection fields in file order. The three key
// vectors share a framing, so reading them out of order produces garbage
// rather than an immediate error; keep this list the single source of the
// order.
func keysPipeline(st *decodeState) []keysStep {
	return []keysStep{
		{"encrypted", func(r *wire.Reader, k *Keys) (err error) {
			k.Encrypted, err = r.ReadBool()
			return err
		}},
		{"enc_seed", func(r *wire.Reader, k *Keys) error {
			return r.ReadFixed(k.EncSeed[:])
		}},
		{"nonce", func(r *wire.Reader, k *Keys) (err error) {
			k.Nonce, err = r.ReadVarBytes()
			return err
		}},
		{"seed", func(r *wire.Reader, k *Keys) error {
			return r.ReadFixed(k.Seed[:])
		}},
		{"okeys", func(r *wire.Reader, k *Keys) (err error) {
			if k.Version <= keysOrchardAfter {
				return nil
			}
			k.OKeys, err = wire.ReadVector(r, readOKey(st))
			return err
		}},
		{"zkeys", func(r *wire.Reader, k *Keys) (err error) {
			k.ZKeys, err = wire.ReadVector(r, readZKey(st))
			return err
		}},
		{"tkeys", func(r *wire.Reader, k *Keys) (err error) {
			if k.Version <= keysRawTKeysUntil {
				k.TKeys, err = readRawTKeys(r)
				return err
			}
			k.TKeys, err = wire.ReadVector(r, readTKey)
			return err
		}},
	}
}

func readKeys(r *wire.Reader, st *decodeState) (*Keys, error) {
	version, err := r.ReadU64()
	if err != nil {
		return nil, wire.WithField(err, "version")
	}
	if version > KeysVersion {
		return nil, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"keys version %d: need newer reader (newest known is %d)", version, KeysVersion), "version")
	}
	if version < minKeysVersion {
		return nil, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"keys version %d predates per-record key encoding", version), "version")
	}

	k := &Keys{Version: version}
	for _, step := range keysPipeline(st) {
		if err := step.read(r, k); err != nil {
			return nil, wire.WithField(err, step.name)
		}
	}

	st.logger.WithFields(log.Fields{
		"version":   version,
		"encrypted": k.Encrypted,
		"okeys":     len(k.OKeys),
		"zkeys":     len(k.ZKeys),
		"tkeys":     len(k.TKeys),
	}).Debug("read keys")
	return k, nil
}

// encodeAddresses renders the derived shielded addresses for net and checks
// the stored transparent ones against it.
func (k *Keys) encodeAddresses(net crypto.Network) error {
	for i, o := range k.OKeys {
		if err := o.encodeAddress(net); err != nil {
			return wire.WithField(wire.WithIndex(wire.Wrap(wire.KindEncoding, err, "encode unified address"), i), "okeys")
		}
	}
	for i, z := range k.ZKeys {
		if err := z.encodeAddress(net); err != nil {
			return wire.WithField(wire.WithIndex(wire.Wrap(wire.KindEncoding, err, "encode sapling address"), i), "zkeys")
		}
	}
	for i, t := range k.TKeys {
		if err := t.checkAddress(net); err != nil {
			return wire.WithField(wire.WithIndex(wire.WithField(err, "address"), i), "tkeys")
		}
	}
	return nil
}
