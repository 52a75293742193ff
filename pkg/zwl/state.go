package zwl

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/merkle"
	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// DecodeOptions configure one decode pass.
type DecodeOptions struct {
	// Network used to encode addresses. When nil it is taken from the chain
	// name stored in the file; when set, the file must be for this network.
	Network *crypto.Network

	// Deriver computes shielded default addresses. Nil means the FFI
	// deriver, which in builds without the zcashffi tag leaves shielded
	// addresses empty.
	Deriver crypto.Deriver

	// OrchardTreeEncoding selects the bridge tree encoding of the Orchard
	// witness snapshot. The file does not record it.
	OrchardTreeEncoding merkle.Encoding
}

// decodeState is threaded through every step of one decode pass.
type decodeState struct {
	version uint64 // wallet file version
	opts    DecodeOptions
	deriver crypto.Deriver
	logger  *log.Entry

	// network is only known once the chain name has been read, which is
	// after the keys. Key decoders record raw addresses and encoding waits
	// for the network.
	network crypto.Network

	warned map[string]bool
}

func newDecodeState(opts DecodeOptions) *decodeState {
	st := &decodeState{
		opts:    opts,
		deriver: opts.Deriver,
		logger:  log.WithField("format", "zwl"),
		warned:  make(map[string]bool),
	}
	if st.deriver == nil {
		st.deriver = crypto.NewFFIDeriver()
	}
	return st
}

// after reports whether the wallet version is greater than v.
func (st *decodeState) after(v uint64) bool {
	return st.version > v
}

// warnOnce logs msg the first time it is seen in this pass.
func (st *decodeState) warnOnce(pool, msg string) {
	if st.warned[pool] {
		return
	}
	st.warned[pool] = true
	st.logger.WithField("pool", pool).Warn(msg)
}

// orchardAddress derives the raw default address of fvk. A nil result with
// a nil error means the deriver is unavailable in this build.
func (st *decodeState) orchardAddress(r *wire.Reader, fvk crypto.OrchardFullViewingKey) (*crypto.OrchardAddress, error) {
	addr, err := st.deriver.OrchardDefaultAddress(fvk)
	if errors.Is(err, crypto.ErrDerivationUnavailable) {
		st.warnOnce("orchard", "address derivation unavailable, orchard addresses left empty")
		return nil, nil
	}
	if err != nil {
		return nil, r.Wrap(wire.KindEncoding, err, "orchard full viewing key rejected")
	}
	return &addr, nil
}

func (st *decodeState) saplingAddress(r *wire.Reader, extfvk crypto.SaplingExtendedFullViewingKey) (*crypto.SaplingAddress, error) {
	addr, err := st.deriver.SaplingDefaultAddress(extfvk)
	if errors.Is(err, crypto.ErrDerivationUnavailable) {
		st.warnOnce("sapling", "address derivation unavailable, sapling addresses left empty")
		return nil, nil
	}
	if err != nil {
		return nil, r.Wrap(wire.KindEncoding, err, "sapling extended full viewing key rejected")
	}
	return &addr, nil
}
