package crypto

import (
	"errors"
	"fmt"

	"github.com/suffix-labs/zcash-excavator/pkg/ffi"
)

// ErrDerivationUnavailable is returned by a Deriver that cannot compute
// shielded default addresses in this build.
var ErrDerivationUnavailable = errors.New("shielded address derivation unavailable")

// Deriver derives the default (diversifier index 0) payment address of a
// shielded viewing key. Both operations also validate the key blob: a key the
// implementation cannot parse is reported as an error other than
// ErrDerivationUnavailable.
type Deriver interface {
	OrchardDefaultAddress(fvk OrchardFullViewingKey) (OrchardAddress, error)
	SaplingDefaultAddress(extfvk SaplingExtendedFullViewingKey) (SaplingAddress, error)
}

// SeedDeriver derives the shielded spending keys of a ZIP 32 account from a
// BIP 39 seed, together with their viewing keys.
type SeedDeriver interface {
	SaplingAccountKey(seed []byte, net Network, account uint32) (SaplingExtendedSpendingKey, SaplingExtendedFullViewingKey, error)
	OrchardAccountKey(seed []byte, net Network, account uint32) (OrchardSpendingKey, OrchardFullViewingKey, error)
}

// KeyDeriver derives both account keys and their addresses.
type KeyDeriver interface {
	Deriver
	SeedDeriver
}

// FFIDeriver derives addresses through the Rust library. When the module is
// built without the zcashffi tag every call fails with
// ErrDerivationUnavailable.
type FFIDeriver struct{}

// NewFFIDeriver returns the Rust-backed Deriver.
func NewFFIDeriver() *FFIDeriver {
	return &FFIDeriver{}
}

func (FFIDeriver) OrchardDefaultAddress(fvk OrchardFullViewingKey) (OrchardAddress, error) {
	raw, err := ffi.OrchardDefaultAddress(fvk)
	if err != nil {
		return OrchardAddress{}, mapFFIError("orchard", err)
	}
	return OrchardAddress(raw), nil
}

func (FFIDeriver) SaplingDefaultAddress(extfvk SaplingExtendedFullViewingKey) (SaplingAddress, error) {
	raw, err := ffi.SaplingDefaultAddress(extfvk)
	if err != nil {
		return SaplingAddress{}, mapFFIError("sapling", err)
	}
	return SaplingAddress(raw), nil
}

func (FFIDeriver) SaplingAccountKey(seed []byte, net Network, account uint32) (SaplingExtendedSpendingKey, SaplingExtendedFullViewingKey, error) {
	extsk, extfvk, err := ffi.SaplingAccountKey(seed, net.CoinType, account)
	if err != nil {
		return SaplingExtendedSpendingKey{}, SaplingExtendedFullViewingKey{}, mapFFIError("sapling", err)
	}
	return SaplingExtendedSpendingKey(extsk), SaplingExtendedFullViewingKey(extfvk), nil
}

func (FFIDeriver) OrchardAccountKey(seed []byte, net Network, account uint32) (OrchardSpendingKey, OrchardFullViewingKey, error) {
	sk, fvk, err := ffi.OrchardAccountKey(seed, net.CoinType, account)
	if err != nil {
		return OrchardSpendingKey{}, OrchardFullViewingKey{}, mapFFIError("orchard", err)
	}
	return OrchardSpendingKey(sk), OrchardFullViewingKey(fvk), nil
}

func mapFFIError(pool string, err error) error {
	if errors.Is(err, ffi.ErrUnavailable) {
		return ErrDerivationUnavailable
	}
	return fmt.Errorf("%s key derivation: %w", pool, err)
}

// NoopDeriver never derives addresses or keys. Decoding with it leaves
// shielded addresses empty.
type NoopDeriver struct{}

func (NoopDeriver) OrchardDefaultAddress(OrchardFullViewingKey) (OrchardAddress, error) {
	return OrchardAddress{}, ErrDerivationUnavailable
}

func (NoopDeriver) SaplingDefaultAddress(SaplingExtendedFullViewingKey) (SaplingAddress, error) {
	return SaplingAddress{}, ErrDerivationUnavailable
}

func (NoopDeriver) SaplingAccountKey([]byte, Network, uint32) (SaplingExtendedSpendingKey, SaplingExtendedFullViewingKey, error) {
	return SaplingExtendedSpendingKey{}, SaplingExtendedFullViewingKey{}, ErrDerivationUnavailable
}

func (NoopDeriver) OrchardAccountKey([]byte, Network, uint32) (OrchardSpendingKey, OrchardFullViewingKey, error) {
	return OrchardSpendingKey{}, OrchardFullViewingKey{}, ErrDerivationUnavailable
}
