// Transparent keys in Zcash are Bitcoin-style secp256k1 keys.
//
// Wallet files store the raw 32-byte secret. This file validates that secret,
// derives the compressed public key and the P2PKH address from it, and renders
// it in WIF for export.
//
// Key formats:
//   - Private keys: raw 32 bytes (on disk) or WIF (export)
//   - Public keys: compressed 33-byte format (0x02/0x03 prefix + x-coordinate)

package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/ripemd160"
)

// ErrInvalidSecretKey is returned for a secret outside [1, n-1].
var ErrInvalidSecretKey = errors.New("secret key is not a valid secp256k1 scalar")

// PrivateKey wraps a secp256k1 private key
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 public key
type PublicKey struct {
	key *secp256k1.PublicKey
}

// ParseTransparentSecret validates a raw transparent secret key.
//
// Unlike secp256k1.PrivKeyFromBytes, which reduces its input modulo the group
// order, this rejects zero and values >= n.
func ParseTransparentSecret(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != TransparentSecretKeySize {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(keyBytes); overflow || scalar.IsZero() {
		return nil, ErrInvalidSecretKey
	}

	return &PrivateKey{key: secp256k1.NewPrivateKey(&scalar)}, nil
}

// PublicKey derives the public key
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// Bytes returns the raw 32-byte private key
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// WIF encodes the key in Wallet Import Format for the network, always with
// the compressed-public-key flag since transparent addresses in wallet files
// are derived from compressed keys.
func (pk *PrivateKey) WIF(net Network) string {
	// version || private_key || compression_flag
	payload := make([]byte, 0, 1+32+1+4)
	payload = append(payload, net.WIFVersion)
	payload = append(payload, pk.Bytes()...)
	payload = append(payload, 0x01)

	return base58.Encode(appendChecksum(payload))
}

// Address returns the P2PKH transparent address of the key.
func (pk *PrivateKey) Address(net Network) string {
	return pk.PublicKey().Address(net)
}

// Bytes returns the compressed public key bytes
func (pub *PublicKey) Bytes() []byte {
	return pub.key.SerializeCompressed()
}

// Hash160 returns RIPEMD160(SHA256(compressed public key)).
func (pub *PublicKey) Hash160() [20]byte {
	sha := sha256.Sum256(pub.Bytes())
	h := ripemd160.New()
	h.Write(sha[:])

	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Address returns the P2PKH transparent address of the key.
func (pub *PublicKey) Address(net Network) string {
	return EncodeTransparentAddress(net, pub.Hash160())
}

// EncodeTransparentAddress encodes a P2PKH public key hash with the network's
// two-byte prefix in Base58Check.
func EncodeTransparentAddress(net Network, pkh [20]byte) string {
	payload := make([]byte, 0, 2+20+4)
	payload = append(payload, net.TransparentP2PKH[:]...)
	payload = append(payload, pkh[:]...)

	return base58.Encode(appendChecksum(payload))
}

// DecodeTransparentAddress verifies the Base58Check framing of a P2PKH address
// and returns its public key hash.
func DecodeTransparentAddress(net Network, addr string) ([20]byte, error) {
	var pkh [20]byte

	decoded := base58.Decode(addr)
	if len(decoded) != 2+20+4 {
		return pkh, errors.New("invalid transparent address length")
	}

	payload := decoded[:22]
	if payload[0] != net.TransparentP2PKH[0] || payload[1] != net.TransparentP2PKH[1] {
		return pkh, fmt.Errorf("address prefix %x does not match network %s", payload[:2], net.Name)
	}

	checksum := doubleSHA256(payload)
	for i := 0; i < 4; i++ {
		if decoded[22+i] != checksum[i] {
			return pkh, errors.New("address checksum mismatch")
		}
	}

	copy(pkh[:], payload[2:])
	return pkh, nil
}

func doubleSHA256(b []byte) [32]byte {
	hash1 := sha256.Sum256(b)
	return sha256.Sum256(hash1[:])
}

func appendChecksum(payload []byte) []byte {
	checksum := doubleSHA256(payload)
	return append(payload, checksum[:4]...)
}
