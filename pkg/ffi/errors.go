package ffi

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned by every operation when the Rust library is not
// linked into the build.
var ErrUnavailable = errors.New("ffi: rust library not linked (build with -tags zcashffi)")

// FFIError represents an error returned from the Rust FFI.
type FFIError struct {
	Code    int
	Message string
}

func (e *FFIError) Error() string {
	return fmt.Sprintf("FFI error %d: %s", e.Code, e.Message)
}
