package zwl

import (
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// keyHeader is the prefix shared by the three key record encodings.
type keyHeader struct {
	version uint8
	keyType uint32
	locked  bool
}

// readKeyHeader reads the record version, the key type (one of numTypes
// values) and the locked flag.
func readKeyHeader(r *wire.Reader, numTypes uint32) (keyHeader, error) {
	var h keyHeader
	var err error

	if h.version, err = r.ReadU8(); err != nil {
		return h, wire.WithField(err, "version")
	}
	if h.version > KeyRecordVersion {
		return h, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"key record version %d, newest known is %d", h.version, KeyRecordVersion), "version")
	}
	if h.keyType, err = r.ReadU32(); err != nil {
		return h, wire.WithField(err, "keytype")
	}
	if h.keyType >= numTypes {
		return h, wire.WithField(r.Fail(wire.KindInvalidTag, "unknown key type %d", h.keyType), "keytype")
	}
	if h.locked, err = r.ReadBool(); err != nil {
		return h, wire.WithField(err, "locked")
	}
	return h, nil
}

// readBlob reads an Optional<Vector<u8>>, returning nil when absent.
func readBlob(r *wire.Reader) ([]byte, error) {
	b, err := wire.ReadOptional(r, wire.VarBytes)
	if err != nil || b == nil {
		return nil, err
	}
	return *b, nil
}

func readLockedBlobs(r *wire.Reader) (encKey, nonce []byte, err error) {
	if encKey, err = readBlob(r); err != nil {
		return nil, nil, wire.WithField(err, "enc_key")
	}
	if nonce, err = readBlob(r); err != nil {
		return nil, nil, wire.WithField(err, "nonce")
	}
	return encKey, nonce, nil
}

// checkKeyRecord enforces the record invariants: the HD index is present iff
// the key is HD-derived, and a locked key carries no cleartext secret.
func checkKeyRecord(r *wire.Reader, kind wallet.KeyKind, hdIndex *uint32, locked, hasSecret bool) error {
	if (kind == wallet.KeyKindHD) != (hdIndex != nil) {
		if hdIndex == nil {
			return r.Fail(wire.KindConsistency, "hd key without hd index")
		}
		return r.Fail(wire.KindConsistency, "imported key with hd index %d", *hdIndex)
	}
	if locked && hasSecret {
		return r.Fail(wire.KindConsistency, "locked key carries a cleartext secret")
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
