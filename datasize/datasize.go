// Package datasize implements the bit-precise, non-negative size type
// from spec.md §3: sizes are tracked in bits so that bit-width integers
// that aren't byte multiples (e.g. a 3-bit bitfield-free but odd-width
// fixed integer) round-trip exactly, with bytes() asserting the value is
// byte-aligned before converting.
package datasize

import "fmt"

// Size is a bit-precise size, always representing a non-negative quantity.
type Size struct {
	bits uint64
}

func FromBits(bits uint64) Size  { return Size{bits: bits} }
func FromBytes(bytes uint64) Size { return Size{bits: bytes * 8} }

func (s Size) Bits() uint64 { return s.bits }

// Bytes returns the size in bytes. It panics if the size is not a whole
// number of bytes — per spec.md §3 this is an assertable invariant, not a
// runtime condition the ABI layer needs to recover from (every type this
// layer handles is byte-sized by construction).
func (s Size) Bytes() uint64 {
	if s.bits%8 != 0 {
		panic(fmt.Sprintf("datasize: %d bits is not a whole number of bytes", s.bits))
	}
	return s.bits / 8
}

// RoundUpToAlign rounds the size up to the next multiple of alignBytes
// (which must be a power of two).
func (s Size) RoundUpToAlign(alignBytes uint64) Size {
	if alignBytes <= 1 {
		return s
	}
	alignBits := alignBytes * 8
	rem := s.bits % alignBits
	if rem == 0 {
		return s
	}
	return Size{bits: s.bits + (alignBits - rem)}
}

// RoundUpToPow2Bytes rounds the byte size up to the next power of two
// number of bytes — used by alloc_size for fixed-width integers whose
// bit-width is not itself a power of two (§3, §4.1: "for a fixed-width
// integer, alloc_size = width.round_up_to_pow2_bytes()").
func (s Size) RoundUpToPow2Bytes() Size {
	bytes := (s.bits + 7) / 8
	if bytes == 0 {
		return Size{bits: 0}
	}
	p := uint64(1)
	for p < bytes {
		p <<= 1
	}
	return Size{bits: p * 8}
}

func (s Size) Add(other Size) Size { return Size{bits: s.bits + other.bits} }

func (s Size) Less(other Size) bool       { return s.bits < other.bits }
func (s Size) LessEqual(other Size) bool  { return s.bits <= other.bits }
func (s Size) Greater(other Size) bool    { return s.bits > other.bits }
func (s Size) GreaterEqual(other Size) bool { return s.bits >= other.bits }
func (s Size) Equal(other Size) bool      { return s.bits == other.bits }

func Max(a, b Size) Size {
	if a.Greater(b) {
		return a
	}
	return b
}

func (s Size) String() string {
	return fmt.Sprintf("%d bits", s.bits)
}
