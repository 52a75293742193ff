//go:build cgo && zcashffi

// Package ffi provides CGO bindings to the Rust FFI library.
//
// This package bridges Go code with the Rust implementations of the Sapling
// and Orchard key operations that cannot be reasonably implemented in pure
// Go (Jubjub and Pallas arithmetic, diversifier search).
//
// Build requirements:
//   - Rust toolchain (cargo, rustc)
//   - The Rust library must be built before using this package
//   - Build with: go build -tags zcashffi
//
// Build the Rust library:
//
//	cd pkg/ffi/rust && cargo build --release
//
// Without the zcashffi tag (or without cgo) the functions in this package
// return ErrUnavailable; see bridge_stub.go.
package ffi

/*
#cgo LDFLAGS: -L${SRCDIR}/rust/target/release -lzcash_excavator_ffi
#cgo darwin LDFLAGS: -framework Security -framework Foundation
#cgo linux LDFLAGS: -ldl -lm

#include <stdlib.h>
#include <stdint.h>

// FFI error codes
typedef enum {
    FFI_OK = 0,
    FFI_ERROR_NULL_POINTER = 1,
    FFI_ERROR_INVALID_KEY = 2,
    FFI_ERROR_NO_VALID_DIVERSIFIER = 3,
    FFI_ERROR_INVALID_SEED = 4,
} FFIErrorCode;

char *ffi_last_error_message(void);
void ffi_free_string(char *s);

FFIErrorCode ffi_orchard_default_address(
    const uint8_t fvk[96],
    uint8_t address_out[43]
);

FFIErrorCode ffi_sapling_default_address(
    const uint8_t extfvk[169],
    uint8_t address_out[43]
);

FFIErrorCode ffi_sapling_account_key(
    const uint8_t *seed,
    size_t seed_len,
    uint32_t coin_type,
    uint32_t account,
    uint8_t extsk_out[169],
    uint8_t extfvk_out[169]
);

FFIErrorCode ffi_orchard_account_key(
    const uint8_t *seed,
    size_t seed_len,
    uint32_t coin_type,
    uint32_t account,
    uint8_t sk_out[32],
    uint8_t fvk_out[96]
);
*/
import "C"
import (
	"unsafe"
)

// Available reports whether the Rust library is linked into this build.
func Available() bool {
	return true
}

// getLastError retrieves the last error message from Rust.
func getLastError(code C.FFIErrorCode) error {
	if code == C.FFI_OK {
		return nil
	}

	cMsg := C.ffi_last_error_message()
	if cMsg == nil {
		return &FFIError{
			Code:    int(code),
			Message: "unknown error (no message available)",
		}
	}
	defer C.ffi_free_string(cMsg)

	return &FFIError{
		Code:    int(code),
		Message: C.GoString(cMsg),
	}
}

// OrchardDefaultAddress parses an Orchard full viewing key and returns its
// default external address.
//
// Parameters:
//   - fvk: 96-byte full viewing key (ak || nk || rivk)
//
// Returns:
//   - 43-byte raw Orchard address
//   - Error if the key does not parse
func OrchardDefaultAddress(fvk [96]byte) ([43]byte, error) {
	var addr [43]byte

	code := C.ffi_orchard_default_address(
		(*C.uint8_t)(unsafe.Pointer(&fvk[0])),
		(*C.uint8_t)(unsafe.Pointer(&addr[0])),
	)
	if code != C.FFI_OK {
		return addr, getLastError(code)
	}

	return addr, nil
}

// SaplingDefaultAddress parses a Sapling extended full viewing key and returns
// the address at the first valid diversifier index.
//
// Parameters:
//   - extfvk: 169-byte ZIP 32 extended full viewing key
//
// Returns:
//   - 43-byte raw Sapling address
//   - Error if the key does not parse
func SaplingDefaultAddress(extfvk [169]byte) ([43]byte, error) {
	var addr [43]byte

	code := C.ffi_sapling_default_address(
		(*C.uint8_t)(unsafe.Pointer(&extfvk[0])),
		(*C.uint8_t)(unsafe.Pointer(&addr[0])),
	)
	if code != C.FFI_OK {
		return addr, getLastError(code)
	}

	return addr, nil
}

// SaplingAccountKey derives the ZIP 32 Sapling spending key of an account,
// m/32'/coin_type'/account', and its extended full viewing key.
//
// Parameters:
//   - seed: BIP 39 seed, 32 to 252 bytes
//   - coinType: SLIP 44 coin type of the network
//   - account: hardened account index
func SaplingAccountKey(seed []byte, coinType, account uint32) (extsk, extfvk [169]byte, err error) {
	if len(seed) == 0 {
		return extsk, extfvk, &FFIError{Code: int(C.FFI_ERROR_INVALID_SEED), Message: "empty seed"}
	}

	code := C.ffi_sapling_account_key(
		(*C.uint8_t)(unsafe.Pointer(&seed[0])),
		C.size_t(len(seed)),
		C.uint32_t(coinType),
		C.uint32_t(account),
		(*C.uint8_t)(unsafe.Pointer(&extsk[0])),
		(*C.uint8_t)(unsafe.Pointer(&extfvk[0])),
	)
	if code != C.FFI_OK {
		return extsk, extfvk, getLastError(code)
	}

	return extsk, extfvk, nil
}

// OrchardAccountKey derives the ZIP 32 Orchard spending key of an account
// and its full viewing key.
func OrchardAccountKey(seed []byte, coinType, account uint32) (sk [32]byte, fvk [96]byte, err error) {
	if len(seed) == 0 {
		return sk, fvk, &FFIError{Code: int(C.FFI_ERROR_INVALID_SEED), Message: "empty seed"}
	}

	code := C.ffi_orchard_account_key(
		(*C.uint8_t)(unsafe.Pointer(&seed[0])),
		C.size_t(len(seed)),
		C.uint32_t(coinType),
		C.uint32_t(account),
		(*C.uint8_t)(unsafe.Pointer(&sk[0])),
		(*C.uint8_t)(unsafe.Pointer(&fvk[0])),
	)
	if code != C.FFI_OK {
		return sk, fvk, getLastError(code)
	}

	return sk, fvk, nil
}
