package zwl

import (
	"bytes"
	"unicode/utf8"

	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// MemoSize is the fixed size of a note memo field.
const MemoSize = 512

// MemoKind is the ZIP 302 interpretation of a memo.
type MemoKind int

const (
	MemoEmpty MemoKind = iota
	MemoText
	MemoFuture
	MemoArbitrary
)

func (k MemoKind) String() string {
	switch k {
	case MemoEmpty:
		return "empty"
	case MemoText:
		return "text"
	case MemoArbitrary:
		return "arbitrary"
	default:
		return "future"
	}
}

// Memo is a memo field and its interpretation. Raw is kept for every kind.
type Memo struct {
	Kind MemoKind
	Text string
	Raw  [MemoSize]byte
}

// ParseMemo interprets a raw memo per ZIP 302. Text that is not valid UTF-8
// is reported as MemoFuture.
func ParseMemo(raw [MemoSize]byte) Memo {
	m := Memo{Kind: MemoFuture, Raw: raw}
	switch first := raw[0]; {
	case first <= 0xf4:
		text := bytes.TrimRight(raw[:], "\x00")
		if utf8.Valid(text) {
			m.Kind = MemoText
			m.Text = string(text)
		}
	case first == 0xf6 && allZero(raw[1:]):
		m.Kind = MemoEmpty
	case first == 0xff:
		m.Kind = MemoArbitrary
	}
	return m
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// String returns the memo text, or a placeholder for non-text memos.
func (m Memo) String() string {
	if m.Kind == MemoText {
		return m.Text
	}
	return "<" + m.Kind.String() + " memo>"
}

func readMemo(r *wire.Reader) (Memo, error) {
	var raw [MemoSize]byte
	if err := r.ReadFixed(raw[:]); err != nil {
		return Memo{}, err
	}
	return ParseMemo(raw), nil
}
