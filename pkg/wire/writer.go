package wire

import (
	"bytes"
	"math"
)

// Writer is the encoding counterpart of Reader. It is used to build wallet
// streams for tooling and tests; every Write mirrors the Read of the same name.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded stream.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// WriteRaw appends b without framing.
func (w *Writer) WriteRaw(b []byte) {
	w.buf.Write(b)
}

func (w *Writer) WriteU8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	byteOrder.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	byteOrder.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteI32(v int32) {
	w.WriteU32(uint32(v))
}

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	byteOrder.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteI64(v int64) {
	w.WriteU64(uint64(v))
}

func (w *Writer) WriteF64(v float64) {
	w.WriteU64(math.Float64bits(v))
}

// WriteCompactSize writes the canonical CompactSize encoding of v.
func (w *Writer) WriteCompactSize(v uint64) {
	switch {
	case v < 0xfd:
		w.WriteU8(uint8(v))
	case v <= 0xffff:
		w.WriteU8(0xfd)
		w.WriteU16(uint16(v))
	case v <= 0xffffffff:
		w.WriteU8(0xfe)
		w.WriteU32(uint32(v))
	default:
		w.WriteU8(0xff)
		w.WriteU64(v)
	}
}

// WriteVarBytes writes a CompactSize-prefixed byte blob.
func (w *Writer) WriteVarBytes(b []byte) {
	w.WriteCompactSize(uint64(len(b)))
	w.buf.Write(b)
}

// WriteLenBytes writes a u64-prefixed byte blob.
func (w *Writer) WriteLenBytes(b []byte) {
	w.WriteU64(uint64(len(b)))
	w.buf.Write(b)
}

// WriteString writes a u64-prefixed string.
func (w *Writer) WriteString(s string) {
	w.WriteLenBytes([]byte(s))
}

// WriteVector writes a CompactSize count and each element.
func WriteVector[T any](w *Writer, items []T, write func(*Writer, T)) {
	w.WriteCompactSize(uint64(len(items)))
	for _, item := range items {
		write(w, item)
	}
}

// WriteOptional writes a presence byte and, if v is non-nil, the value.
func WriteOptional[T any](w *Writer, v *T, write func(*Writer, T)) {
	if v == nil {
		w.WriteU8(0)
		return
	}
	w.WriteU8(1)
	write(w, *v)
}
