package drawcore

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
)

// KeyBuilder accumulates the structural key of a draw: an append-only
// bit stream of fixed-width fields covering everything that affects
// generated shader code. A builder is used for exactly one cache lookup and
// then discarded; the finished Key (or its hash) is what the program cache
// retains.
//
// Bits are packed little-endian: each field's low bit lands in the lowest
// unused bit of the current 32-bit word, spilling into the next word as
// needed. This packing is part of the wire format shared with cached keys.
type KeyBuilder struct {
	words []uint32
	bits  int

	// fields is non-nil only for debug builders and records one entry per
	// AddBits/AppendComment call. Annotations never affect the packed bits.
	fields []keyField
}

type keyField struct {
	label   string
	width   int
	value   uint32
	comment bool
}

// NewKeyBuilder creates an empty key builder.
func NewKeyBuilder() *KeyBuilder {
	return &KeyBuilder{}
}

// NewDebugKeyBuilder creates a key builder that additionally records field
// labels and comments for diagnostics. The packed bits are identical to a
// plain builder's.
func NewDebugKeyBuilder() *KeyBuilder {
	return &KeyBuilder{fields: make([]keyField, 0, 16)}
}

// AddBits appends value as a width-bit field. Width must be in [1, 32] and
// value must fit in width bits; violations are programming errors and panic,
// since a silently truncated field would corrupt cache behavior.
func (b *KeyBuilder) AddBits(width int, value uint32, label string) {
	if width < 1 || width > 32 {
		panic(fmt.Sprintf("drawcore: key field %q width %d out of range [1, 32]", label, width))
	}
	if width < 32 && value>>uint(width) != 0 {
		panic(fmt.Sprintf("drawcore: key field %q value %d does not fit in %d bits", label, value, width))
	}
	if b.fields != nil {
		b.fields = append(b.fields, keyField{label: label, width: width, value: value})
	}
	rem := b.bits & 31
	if rem == 0 {
		b.words = append(b.words, 0)
	}
	b.words[len(b.words)-1] |= value << uint(rem)
	if rem+width > 32 {
		b.words = append(b.words, value>>uint(32-rem))
	}
	b.bits += width
}

// AddBool appends a single-bit field.
func (b *KeyBuilder) AddBool(v bool, label string) {
	var bit uint32
	if v {
		bit = 1
	}
	b.AddBits(1, bit, label)
}

// AppendComment records a human-readable annotation on debug builders. It
// contributes no bits.
func (b *KeyBuilder) AppendComment(comment string) {
	if b.fields != nil {
		b.fields = append(b.fields, keyField{label: comment, comment: true})
	}
}

// Bits returns the number of bits appended so far.
func (b *KeyBuilder) Bits() int { return b.bits }

// Finish packs the accumulated bits into an immutable Key. The builder must
// not be used afterwards.
func (b *KeyBuilder) Finish() Key {
	words := make([]uint32, len(b.words))
	copy(words, b.words)
	h := fnv.New64a()
	var buf [4]byte
	for _, w := range words {
		binary.LittleEndian.PutUint32(buf[:], w)
		_, _ = h.Write(buf[:])
	}
	binary.LittleEndian.PutUint32(buf[:], uint32(b.bits))
	_, _ = h.Write(buf[:])
	return Key{words: words, bits: b.bits, hash: h.Sum64()}
}

// String formats the recorded fields of a debug builder. Plain builders
// report only their size.
func (b *KeyBuilder) String() string {
	if b.fields == nil {
		return fmt.Sprintf("key{%d bits}", b.bits)
	}
	var sb strings.Builder
	for _, f := range b.fields {
		if f.comment {
			fmt.Fprintf(&sb, "// %s\n", f.label)
			continue
		}
		fmt.Fprintf(&sb, "%s: %d (%d bits)\n", f.label, f.value, f.width)
	}
	return sb.String()
}

// Key is a finished structural key: the packed bit sequence plus a 64-bit
// FNV-1a hash for cache-map indexing. Keys are immutable values.
type Key struct {
	words []uint32
	bits  int
	hash  uint64
}

// Hash returns the 64-bit hash of the packed bits. Two distinct keys may
// hash equally; callers that must rule out collisions compare with Equal.
func (k Key) Hash() uint64 { return k.hash }

// Bits returns the length of the key in bits.
func (k Key) Bits() int { return k.bits }

// Words returns the packed key words. The returned slice is shared and must
// not be modified.
func (k Key) Words() []uint32 { return k.words }

// Equal reports whether two keys carry identical bit sequences.
func (k Key) Equal(other Key) bool {
	if k.bits != other.bits || len(k.words) != len(other.words) {
		return false
	}
	for i, w := range k.words {
		if w != other.words[i] {
			return false
		}
	}
	return true
}
