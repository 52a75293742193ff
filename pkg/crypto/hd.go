package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Transparent HD keys live on the external chain of the first BIP 44
// account: m/44'/coin_type'/0'/0/index.
const (
	bip44Purpose       = 44
	bip44Account       = 0
	bip44ExternalChain = 0
)

// transparentPath returns the BIP 32 path of the transparent key at index.
func transparentPath(net Network, index uint32) []uint32 {
	return []uint32{
		HardenedKeyStart + bip44Purpose,
		HardenedKeyStart + net.CoinType,
		HardenedKeyStart + bip44Account,
		bip44ExternalChain,
		index,
	}
}

// DeriveTransparentKey derives the transparent secret key at index from a
// BIP 39 seed.
func DeriveTransparentKey(seed []byte, net Network, index uint32) (*PrivateKey, error) {
	// The chain parameters only select the extended key serialization
	// version, which is never used here.
	node, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("transparent master key: %w", err)
	}
	for _, step := range transparentPath(net, index) {
		node, err = node.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("transparent key %d: %w", index, err)
		}
	}

	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return ParseTransparentSecret(priv.Serialize())
}
