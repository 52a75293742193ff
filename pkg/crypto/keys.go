// Package crypto is the cryptographic collaborator of the wallet decoders.
//
// The decoders treat key material as fixed-size byte blobs. This package
// gives those blobs names, performs the structural checks that can be done
// without curve arithmetic, encodes addresses for a Network, and defines the
// Deriver interface through which default shielded addresses are obtained
// from the Rust library (see pkg/ffi).
//
// Layouts:
//   - Orchard full viewing key: ak (32) || nk (32) || rivk (32)
//   - Orchard raw address: diversifier (11) || pk_d (32)
//   - Sapling extended keys (ZIP 32): depth (1) || parent FVK tag (4) ||
//     child index (4) || chain code (32) || key (96) || dk (32)
//   - Sapling raw address: diversifier (11) || pk_d (32)
package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	OrchardFullViewingKeySize = 96
	OrchardSpendingKeySize    = 32
	OrchardAddressSize        = 43

	SaplingExtendedKeySize = 169
	SaplingAddressSize     = 43
	DiversifierSize        = 11

	TransparentSecretKeySize = 32
)

// HardenedKeyStart is the first hardened child index of ZIP 32 and BIP 32.
const HardenedKeyStart uint32 = 0x80000000

// OrchardFullViewingKey is the serialized Orchard full viewing key.
type OrchardFullViewingKey [OrchardFullViewingKeySize]byte

// OrchardSpendingKey is the serialized Orchard spending key.
type OrchardSpendingKey [OrchardSpendingKeySize]byte

// OrchardAddress is a raw Orchard payment address.
type OrchardAddress [OrchardAddressSize]byte

// SaplingAddress is a raw Sapling payment address.
type SaplingAddress [SaplingAddressSize]byte

// SaplingExtendedFullViewingKey is a ZIP 32 extended full viewing key.
type SaplingExtendedFullViewingKey [SaplingExtendedKeySize]byte

// SaplingExtendedSpendingKey is a ZIP 32 extended spending key.
type SaplingExtendedSpendingKey [SaplingExtendedKeySize]byte

// zip32Header is the common prefix of both Sapling extended key encodings.
type zip32Header struct {
	Depth      uint8
	ParentTag  [4]byte
	ChildIndex uint32
	ChainCode  [32]byte
}

func parseZIP32Header(b []byte) zip32Header {
	var h zip32Header
	h.Depth = b[0]
	copy(h.ParentTag[:], b[1:5])
	h.ChildIndex = binary.LittleEndian.Uint32(b[5:9])
	copy(h.ChainCode[:], b[9:41])
	return h
}

var errMasterKeyHeader = errors.New("master key must have zero parent tag and child index")

func (h zip32Header) validate() error {
	if h.Depth == 0 && (h.ParentTag != [4]byte{} || h.ChildIndex != 0) {
		return errMasterKeyHeader
	}
	return nil
}

// Depth returns the derivation depth.
func (k SaplingExtendedFullViewingKey) Depth() uint8 {
	return k[0]
}

// ChildIndex returns the ZIP 32 child index (hardened bit included).
func (k SaplingExtendedFullViewingKey) ChildIndex() uint32 {
	return parseZIP32Header(k[:]).ChildIndex
}

// Validate performs the structural checks possible without curve arithmetic.
func (k SaplingExtendedFullViewingKey) Validate() error {
	if err := parseZIP32Header(k[:]).validate(); err != nil {
		return fmt.Errorf("sapling extended full viewing key: %w", err)
	}
	return nil
}

// Depth returns the derivation depth.
func (k SaplingExtendedSpendingKey) Depth() uint8 {
	return k[0]
}

// ChildIndex returns the ZIP 32 child index (hardened bit included).
func (k SaplingExtendedSpendingKey) ChildIndex() uint32 {
	return parseZIP32Header(k[:]).ChildIndex
}

// Validate performs the structural checks possible without curve arithmetic.
func (k SaplingExtendedSpendingKey) Validate() error {
	if err := parseZIP32Header(k[:]).validate(); err != nil {
		return fmt.Errorf("sapling extended spending key: %w", err)
	}
	return nil
}
