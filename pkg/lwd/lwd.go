// Package lwd decodes the lightwalletd protocol buffer messages that light
// wallets persist inside their own files: the TreeState snapshot of the last
// verified commitment trees and the CompactBlock carried by each cached
// block.
//
// Messages are parsed field by field with protowire so that no generated
// code is required. Unknown fields are skipped.
package lwd

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrInvalidUTF8 is returned for a string field that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("string field is not valid UTF-8")

// TreeState mirrors lightwalletd's service.proto TreeState.
type TreeState struct {
	Network     string // "main" or "test"
	Height      uint64
	Hash        string // block id, hex
	Time        uint32 // Unix epoch time when the block was mined
	SaplingTree string // sapling commitment tree state, hex
	OrchardTree string // orchard commitment tree state, hex
}

const (
	treeStateNetwork     protowire.Number = 1
	treeStateHeight      protowire.Number = 2
	treeStateHash        protowire.Number = 3
	treeStateTime        protowire.Number = 4
	treeStateSaplingTree protowire.Number = 5
	treeStateOrchardTree protowire.Number = 6
)

// UnmarshalTreeState decodes a serialized TreeState.
func UnmarshalTreeState(b []byte) (*TreeState, error) {
	ts := &TreeState{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case treeStateNetwork:
			return consumeString(b, typ, &ts.Network)
		case treeStateHeight:
			return consumeUint64(b, typ, &ts.Height)
		case treeStateHash:
			return consumeString(b, typ, &ts.Hash)
		case treeStateTime:
			var v uint64
			n, err := consumeUint64(b, typ, &v)
			ts.Time = uint32(v)
			return n, err
		case treeStateSaplingTree:
			return consumeString(b, typ, &ts.SaplingTree)
		case treeStateOrchardTree:
			return consumeString(b, typ, &ts.OrchardTree)
		}
		return -1, nil
	})
	if err != nil {
		return nil, fmt.Errorf("tree state: %w", err)
	}
	return ts, nil
}

// Marshal encodes the TreeState, omitting zero-valued fields.
func (ts *TreeState) Marshal() []byte {
	var b []byte
	b = appendString(b, treeStateNetwork, ts.Network)
	b = appendUint64(b, treeStateHeight, ts.Height)
	b = appendString(b, treeStateHash, ts.Hash)
	b = appendUint64(b, treeStateTime, uint64(ts.Time))
	b = appendString(b, treeStateSaplingTree, ts.SaplingTree)
	b = appendString(b, treeStateOrchardTree, ts.OrchardTree)
	return b
}

// CompactBlockHeader holds the scalar fields of a compact_formats.proto
// CompactBlock and the number of transactions it carries.
type CompactBlockHeader struct {
	ProtoVersion uint32
	Height       uint64
	Hash         []byte
	PrevHash     []byte
	Time         uint32
	TxCount      int
}

const (
	compactBlockProtoVersion protowire.Number = 1
	compactBlockHeight       protowire.Number = 2
	compactBlockHash         protowire.Number = 3
	compactBlockPrevHash     protowire.Number = 4
	compactBlockTime         protowire.Number = 5
	compactBlockVtx          protowire.Number = 7
)

// UnmarshalCompactBlockHeader decodes the header fields of a serialized
// CompactBlock. Transactions are counted, not decoded.
func UnmarshalCompactBlockHeader(b []byte) (*CompactBlockHeader, error) {
	h := &CompactBlockHeader{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case compactBlockProtoVersion:
			var v uint64
			n, err := consumeUint64(b, typ, &v)
			h.ProtoVersion = uint32(v)
			return n, err
		case compactBlockHeight:
			return consumeUint64(b, typ, &h.Height)
		case compactBlockHash:
			return consumeBytes(b, typ, &h.Hash)
		case compactBlockPrevHash:
			return consumeBytes(b, typ, &h.PrevHash)
		case compactBlockTime:
			var v uint64
			n, err := consumeUint64(b, typ, &v)
			h.Time = uint32(v)
			return n, err
		case compactBlockVtx:
			var tx []byte
			n, err := consumeBytes(b, typ, &tx)
			if err == nil {
				h.TxCount++
			}
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, fmt.Errorf("compact block: %w", err)
	}
	return h, nil
}

// MarshalCompactBlockHeader encodes h as a CompactBlock with TxCount empty
// transactions.
func MarshalCompactBlockHeader(h *CompactBlockHeader) []byte {
	var b []byte
	b = appendUint64(b, compactBlockProtoVersion, uint64(h.ProtoVersion))
	b = appendUint64(b, compactBlockHeight, h.Height)
	b = appendBytes(b, compactBlockHash, h.Hash)
	b = appendBytes(b, compactBlockPrevHash, h.PrevHash)
	b = appendUint64(b, compactBlockTime, uint64(h.Time))
	for i := 0; i < h.TxCount; i++ {
		b = protowire.AppendTag(b, compactBlockVtx, protowire.BytesType)
		b = protowire.AppendBytes(b, nil)
	}
	return b
}

// fieldFunc consumes the value of a known field and returns its length, or
// returns -1 to have the field skipped.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func walkFields(b []byte, field fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := field(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if m < 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(m))
			}
		}
		b = b[m:]
	}
	return nil
}

func wrongType(typ protowire.Type) error {
	return fmt.Errorf("unexpected wire type %d", typ)
}

func consumeUint64(b []byte, typ protowire.Type, dst *uint64) (int, error) {
	if typ != protowire.VarintType {
		return 0, wrongType(typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = v
	return n, nil
}

func consumeBytes(b []byte, typ protowire.Type, dst *[]byte) (int, error) {
	if typ != protowire.BytesType {
		return 0, wrongType(typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = append([]byte(nil), v...)
	return n, nil
}

func consumeString(b []byte, typ protowire.Type, dst *string) (int, error) {
	var raw []byte
	n, err := consumeBytes(b, typ, &raw)
	if err != nil {
		return 0, err
	}
	if !utf8.Valid(raw) {
		return 0, ErrInvalidUTF8
	}
	*dst = string(raw)
	return n, nil
}

func appendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}
