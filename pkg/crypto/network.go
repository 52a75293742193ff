package crypto

import "fmt"

// Network holds the address encoding parameters of one Zcash network.
type Network struct {
	Name string

	SaplingHRP       string  // Bech32 HRP for Sapling payment addresses
	UnifiedHRP       string  // Bech32m HRP for unified addresses
	TransparentP2PKH [2]byte // Base58Check prefix for P2PKH addresses
	WIFVersion       byte    // WIF version byte for transparent secrets
	CoinType         uint32  // SLIP 44 coin type used in HD derivation paths
}

var (
	MainNet = Network{
		Name:             "main",
		SaplingHRP:       "zs",
		UnifiedHRP:       "u",
		TransparentP2PKH: [2]byte{0x1c, 0xb8},
		WIFVersion:       0x80,
		CoinType:         133,
	}

	TestNet = Network{
		Name:             "test",
		SaplingHRP:       "ztestsapling",
		UnifiedHRP:       "utest",
		TransparentP2PKH: [2]byte{0x1d, 0x25},
		WIFVersion:       0xef,
		CoinType:         1,
	}

	RegTest = Network{
		Name:             "regtest",
		SaplingHRP:       "zregtestsapling",
		UnifiedHRP:       "uregtest",
		TransparentP2PKH: [2]byte{0x1d, 0x25},
		WIFVersion:       0xef,
		CoinType:         1,
	}
)

// NetworkFromChainName maps the chain name stored in a wallet file (and used
// in configuration) to its Network.
func NetworkFromChainName(name string) (Network, error) {
	switch name {
	case "main", "mainnet":
		return MainNet, nil
	case "test", "testnet":
		return TestNet, nil
	case "regtest":
		return RegTest, nil
	default:
		return Network{}, fmt.Errorf("unknown chain name %q", name)
	}
}
