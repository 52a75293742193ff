package crypto

import (
	"encoding/binary"
	"errors"
	"hash"

	blake2b "github.com/minio/blake2b-simd"
)

// F4Jumble is the unkeyed 4-round Feistel permutation used by ZIP 316 to
// make every character of a unified address depend on the whole payload.
//
// Round functions are personalized BLAKE2b instances:
//
//	H_i = BLAKE2b-(8*l_L)("UA_F4Jumble_H" || i || 0x0000, u)
//	G_i = BLAKE2b-512("UA_F4Jumble_G" || i || I2LEOSP16(j), u), j = 0.. (truncated to l_R)
const (
	f4jumbleMinLen = 48
	f4jumbleMaxLen = 4194368
	blake2bOutLen  = 64

	f4PersonH = "UA_F4Jumble_H"
	f4PersonG = "UA_F4Jumble_G"
)

var errF4JumbleLength = errors.New("f4jumble: message length out of range")

// blake2bNew creates a BLAKE2b hash of the given size with a 16-byte
// personalization. The personalization is a distinct parameter, not a key.
func blake2bNew(size int, personalization []byte) (hash.Hash, error) {
	return blake2b.New(&blake2b.Config{
		Size:   uint8(size),
		Person: personalization,
	})
}

func f4Person(prefix string, i byte, j uint16) []byte {
	person := make([]byte, 16)
	copy(person, prefix)
	person[13] = i
	binary.LittleEndian.PutUint16(person[14:], j)
	return person
}

func f4H(i byte, u []byte, outLen int) []byte {
	h, _ := blake2bNew(outLen, f4Person(f4PersonH, i, 0))
	h.Write(u)
	return h.Sum(nil)
}

func f4G(i byte, u []byte, outLen int) []byte {
	out := make([]byte, 0, outLen+blake2bOutLen)
	for j := uint16(0); len(out) < outLen; j++ {
		h, _ := blake2bNew(blake2bOutLen, f4Person(f4PersonG, i, j))
		h.Write(u)
		out = h.Sum(out)
	}
	return out[:outLen]
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func f4Split(msg []byte) (int, error) {
	if len(msg) < f4jumbleMinLen || len(msg) > f4jumbleMaxLen {
		return 0, errF4JumbleLength
	}
	return min(blake2bOutLen, len(msg)/2), nil
}

// F4Jumble applies the permutation to msg and returns a new slice.
func F4Jumble(msg []byte) ([]byte, error) {
	lenL, err := f4Split(msg)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(msg))
	copy(out, msg)
	a, b := out[:lenL], out[lenL:]

	xorInto(b, f4G(0, a, len(b))) // x = b ^ G0(a)
	xorInto(a, f4H(0, b, len(a))) // y = a ^ H0(x)
	xorInto(b, f4G(1, a, len(b))) // d = x ^ G1(y)
	xorInto(a, f4H(1, b, len(a))) // c = y ^ H1(d)

	return out, nil
}
