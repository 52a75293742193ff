//go:build !cgo || !zcashffi

package ffi

// Available reports whether the Rust library is linked into this build.
func Available() bool {
	return false
}

func OrchardDefaultAddress([96]byte) ([43]byte, error) {
	return [43]byte{}, ErrUnavailable
}

func SaplingDefaultAddress([169]byte) ([43]byte, error) {
	return [43]byte{}, ErrUnavailable
}

func SaplingAccountKey([]byte, uint32, uint32) (extsk, extfvk [169]byte, err error) {
	return extsk, extfvk, ErrUnavailable
}

func OrchardAccountKey([]byte, uint32, uint32) (sk [32]byte, fvk [96]byte, err error) {
	return sk, fvk, ErrUnavailable
}
