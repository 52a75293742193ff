package crypto

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Unified address receiver typecodes (ZIP 316).
const (
	TypecodeP2PKH   = 0x00
	TypecodeP2SH    = 0x01
	TypecodeSapling = 0x02
	TypecodeOrchard = 0x03
)

const uaPaddingLen = 16

// EncodeSaplingAddress renders a raw Sapling address as Bech32.
func EncodeSaplingAddress(net Network, addr SaplingAddress) (string, error) {
	conv, err := bech32.ConvertBits(addr[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert sapling address: %w", err)
	}
	return bech32.Encode(net.SaplingHRP, conv)
}

// EncodeUnifiedAddress renders an Orchard-only unified address: the receiver
// list is serialized as typecode || length || raw address, padded with the HRP,
// jumbled and encoded as Bech32m.
func EncodeUnifiedAddress(net Network, orchard OrchardAddress) (string, error) {
	var raw bytes.Buffer
	raw.WriteByte(TypecodeOrchard)
	raw.WriteByte(OrchardAddressSize)
	raw.Write(orchard[:])
	raw.Write(uaPadding(net.UnifiedHRP))

	jumbled, err := F4Jumble(raw.Bytes())
	if err != nil {
		return "", err
	}

	conv, err := bech32.ConvertBits(jumbled, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert unified address: %w", err)
	}
	return bech32.EncodeM(net.UnifiedHRP, conv)
}

func uaPadding(hrp string) []byte {
	pad := make([]byte, uaPaddingLen)
	copy(pad, hrp)
	return pad
}
