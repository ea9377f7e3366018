// Package lzw implements the dictionary codec used for snapshot artifacts.
//
// The stream has no header. Codes are packed MSB-first and the i-th code
// (counting from zero) is written with bits.Len(min(255+i, MaxCodes-1))
// bits: eight bits for the first code, nine from the second, one more bit
// every time the dictionary doubles. Once the dictionary holds MaxCodes
// entries it is frozen and the width stays at MaxCodeWidth. The final byte
// is zero-padded. Both sides derive every width from the number of codes
// already processed, so Decode needs nothing but the bytes.
package lzw

import (
	"errors"
	"fmt"
	"math/bits"
)

const (
	// MaxCodeWidth is the widest code ever written.
	MaxCodeWidth = 20
	// MaxCodes is the dictionary capacity, single bytes included.
	MaxCodes = 1 << MaxCodeWidth

	firstCode = 256
)

// ErrMalformedStream is returned by Decode for input Encode cannot produce.
var ErrMalformedStream = errors.New("malformed code stream")

// codeWidth returns the bit width of the i-th code in a stream.
func codeWidth(i int) uint {
	maxCode := uint32(MaxCodes - 1)
	if i < MaxCodes-firstCode {
		maxCode = uint32(firstCode - 1 + i)
	}
	return uint(bits.Len32(maxCode))
}

// Encode compresses src. An empty src yields an empty result.
func Encode(src []byte) []byte {
	if len(src) == 0 {
		return []byte{}
	}

	w := newBitWriter(len(src)/2 + 4)
	// (prefix code << 8 | next byte) -> code
	dict := make(map[uint32]uint32)
	next := uint32(firstCode)

	prefix := uint32(src[0])
	emitted := 0
	for _, b := range src[1:] {
		key := prefix<<8 | uint32(b)
		if code, ok := dict[key]; ok {
			prefix = code
			continue
		}
		w.write(prefix, codeWidth(emitted))
		emitted++
		if next < MaxCodes {
			dict[key] = next
			next++
		}
		prefix = uint32(b)
	}
	w.write(prefix, codeWidth(emitted))

	return w.bytes()
}

// Decode reverses Encode. Input that Encode cannot have produced fails with
// ErrMalformedStream; no partial output is returned alongside the error.
func Decode(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	r := newBitReader(src)
	t := newTable()
	out := make([]byte, 0, len(src)*2)

	prev := int32(-1)
	for i := 0; ; i++ {
		c, ok := r.read(codeWidth(i))
		if !ok {
			break
		}
		code := int32(c)

		switch {
		case code < t.size():
			var first byte
			out, first = t.expand(out, code)
			if prev >= 0 && t.size() < MaxCodes {
				t.add(prev, first)
			}
		case code == t.size() && prev >= 0 && t.size() < MaxCodes:
			t.add(prev, t.first(prev))
			out, _ = t.expand(out, code)
		default:
			return nil, fmt.Errorf("%w: code %d at index %d references undefined entry", ErrMalformedStream, code, i)
		}
		prev = code
	}

	if !r.cleanTail() {
		return nil, fmt.Errorf("%w: trailing bits after last code", ErrMalformedStream)
	}
	return out, nil
}

type entry struct {
	prefix int32
	length int32
	last   byte
	first  byte
}

// table maps decoder codes to expansions without storing them whole.
type table struct {
	entries []entry
}

func newTable() *table {
	t := &table{entries: make([]entry, firstCode, 4096)}
	for i := 0; i < firstCode; i++ {
		t.entries[i] = entry{prefix: -1, length: 1, last: byte(i), first: byte(i)}
	}
	return t
}

func (t *table) size() int32 { return int32(len(t.entries)) }

func (t *table) first(code int32) byte { return t.entries[code].first }

func (t *table) add(prefix int32, b byte) {
	p := t.entries[prefix]
	t.entries = append(t.entries, entry{
		prefix: prefix,
		length: p.length + 1,
		last:   b,
		first:  p.first,
	})
}

// expand appends the bytes of code to out and returns its first byte.
func (t *table) expand(out []byte, code int32) ([]byte, byte) {
	e := t.entries[code]
	start := len(out)
	out = append(out, make([]byte, e.length)...)
	for i := start + int(e.length) - 1; i >= start; i-- {
		out[i] = e.last
		if e.prefix >= 0 {
			e = t.entries[e.prefix]
		}
	}
	return out, out[start]
}
