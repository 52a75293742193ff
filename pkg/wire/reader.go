// Package wire implements the little-endian primitive codec shared by every
// wallet decoder in this module.
//
// The Reader is a forward-only cursor over an in-memory buffer. Each
// primitive read either consumes exactly the bytes it is responsible for or
// fails and leaves the cursor where it was. Composite reads (vectors,
// optionals) stop at the first failing element.
//
// Framing rules:
//   - Integers: fixed width, little-endian
//   - Optional: 1 presence byte (0 = none, nonzero = value follows)
//   - Strings: u64 length + UTF-8 bytes
//   - Vectors (and Vector<u8> byte blobs): CompactSize count + elements
package wire

import (
	"encoding/binary"
	"math"
	"strconv"
	"unicode/utf8"
)

// MaxCompactSize is the largest length prefix accepted by ReadCompactSize.
const MaxCompactSize = 0x02000000

var byteOrder = binary.LittleEndian

// Reader is a forward-only cursor over a byte slice.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) truncated(n int) *Error {
	return &Error{
		Kind:    KindTruncation,
		Offset:  r.pos,
		Message: "need " + strconv.Itoa(n) + " bytes, have " + strconv.Itoa(r.Remaining()),
	}
}

// Fail builds an Error of the given kind at the current offset.
func (r *Reader) Fail(kind Kind, format string, args ...interface{}) *Error {
	e := Errorf(kind, format, args...)
	e.Offset = r.pos
	return e
}

// Wrap attaches a kind and the current offset to an error raised while
// interpreting bytes that were already read.
func (r *Reader) Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	e := Wrap(kind, err, format, args...)
	e.Offset = r.pos
	return e
}

// ReadExact consumes n bytes and returns a copy of them.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.truncated(n)
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadFixed fills dst completely.
func (r *Reader) ReadFixed(dst []byte) error {
	if len(dst) > r.Remaining() {
		return r.truncated(len(dst))
	}
	copy(dst, r.buf[r.pos:r.pos+len(dst)])
	r.pos += len(dst)
	return nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, r.truncated(1)
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// ReadBool reads one byte; any nonzero value is true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	return v > 0, err
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, r.truncated(2)
	}
	v := byteOrder.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, r.truncated(4)
	}
	v := byteOrder.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadI32 reads a little-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, r.truncated(8)
	}
	v := byteOrder.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadI64 reads a little-endian int64.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadF64 reads a little-endian IEEE 754 double.
func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

// ReadCompactSize reads a Bitcoin-style variable length integer.
// Non-canonical encodings and values above MaxCompactSize are rejected.
func (r *Reader) ReadCompactSize() (uint64, error) {
	start := r.pos
	flag, err := r.ReadU8()
	if err != nil {
		return 0, err
	}

	var v, lo uint64
	switch flag {
	case 0xfd:
		x, err := r.ReadU16()
		if err != nil {
			r.pos = start
			return 0, err
		}
		v, lo = uint64(x), 0xfd
	case 0xfe:
		x, err := r.ReadU32()
		if err != nil {
			r.pos = start
			return 0, err
		}
		v, lo = uint64(x), 0x10000
	case 0xff:
		x, err := r.ReadU64()
		if err != nil {
			r.pos = start
			return 0, err
		}
		v, lo = x, 0x100000000
	default:
		return uint64(flag), nil
	}

	if v < lo {
		r.pos = start
		return 0, r.Fail(KindEncoding, "non-canonical compact size %d", v)
	}
	if v > MaxCompactSize {
		r.pos = start
		return 0, r.Fail(KindEncoding, "compact size %d exceeds maximum", v)
	}
	return v, nil
}

// readCount converts a decoded length to int, failing with Truncation when
// fewer than minElem*n bytes remain so that huge prefixes never allocate.
func (r *Reader) readCount(n uint64, minElem int) (int, error) {
	if minElem < 1 {
		minElem = 1
	}
	if n > uint64(r.Remaining()/minElem) {
		return 0, r.truncated(int(min(n, math.MaxInt32)) * minElem)
	}
	return int(n), nil
}

// ReadVarBytes reads a CompactSize-prefixed byte blob (Vector<u8>).
func (r *Reader) ReadVarBytes() ([]byte, error) {
	start := r.pos
	n, err := r.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	count, err := r.readCount(n, 1)
	if err != nil {
		r.pos = start
		return nil, err
	}
	return r.ReadExact(count)
}

// ReadLenBytes reads a u64-prefixed byte blob.
func (r *Reader) ReadLenBytes() ([]byte, error) {
	start := r.pos
	n, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	count, err := r.readCount(n, 1)
	if err != nil {
		r.pos = start
		return nil, err
	}
	return r.ReadExact(count)
}

// ReadString reads a u64-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	b, err := r.ReadLenBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		r.pos = start
		return "", r.Fail(KindEncoding, "invalid UTF-8 in string of %d bytes", len(b))
	}
	return string(b), nil
}

// ReadVector reads a CompactSize count followed by that many elements.
// Element errors are annotated with their index.
func ReadVector[T any](r *Reader, read func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	count, err := r.readCount(n, 1)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, count)
	for i := 0; i < count; i++ {
		v, err := read(r)
		if err != nil {
			return nil, WithIndex(err, i)
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadOptional reads a presence byte and, if nonzero, one value.
func ReadOptional[T any](r *Reader, read func(*Reader) (T, error)) (*T, error) {
	present, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := read(r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Fixed32 reads a 32-byte array. Like the adapters below it matches the
// element reader signature used by ReadVector and ReadOptional.
func Fixed32(r *Reader) ([32]byte, error) {
	var b [32]byte
	err := r.ReadFixed(b[:])
	return b, err
}

// U32 adapts ReadU32 to the element reader signature.
func U32(r *Reader) (uint32, error) { return r.ReadU32() }

// U64 adapts ReadU64 to the element reader signature.
func U64(r *Reader) (uint64, error) { return r.ReadU64() }

// I32 adapts ReadI32 to the element reader signature.
func I32(r *Reader) (int32, error) { return r.ReadI32() }

// F64 adapts ReadF64 to the element reader signature.
func F64(r *Reader) (float64, error) { return r.ReadF64() }

// VarBytes adapts ReadVarBytes to the element reader signature.
func VarBytes(r *Reader) ([]byte, error) { return r.ReadVarBytes() }

// String adapts ReadString to the element reader signature.
func String(r *Reader) (string, error) { return r.ReadString() }
