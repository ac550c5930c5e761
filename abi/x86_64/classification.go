// Package x86_64 implements the System V x86_64 eightbyte classification
// state machine and per-argument lowering policy — spec.md §4.2, "the core
// of the core". The merge/classify algorithm here is a direct
// generalization of original_source/lib/x86_64/Classification.cpp
// (Classification::addField, classifyType, classify) from that source's
// fixed concrete Type to this module's abstract abitype.Type, queried
// through a typeinfo.Oracle instead of free functions.
package x86_64

import (
	"github.com/arc-language/llvm-abi/abierr"
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/typeinfo"
	"github.com/pkg/errors"
)

// Class is one eightbyte's classification.
type Class int

const (
	NoClass Class = iota
	Integer
	Sse
	SseUp
	X87
	X87Up
	ComplexX87
	Memory
)

// merge implements §4.2.1's pairwise merge table.
func merge(a, b Class) Class {
	if a == b {
		return a
	}
	if a == NoClass {
		return b
	}
	if b == NoClass {
		return a
	}
	if a == Memory || b == Memory {
		return Memory
	}
	if a == Integer || b == Integer {
		return Integer
	}
	if isX87ish(a) || isX87ish(b) {
		return Memory
	}
	return Sse
}

func isX87ish(c Class) bool {
	return c == X87 || c == X87Up || c == ComplexX87
}

// Classification is the (low, high) eightbyte pair (§3).
type Classification struct {
	classes [2]Class
}

func (c Classification) Low() Class  { return c.classes[0] }
func (c Classification) High() Class { return c.classes[1] }

func (c Classification) IsMemory() bool { return c.classes[0] == Memory }

// addField merges fieldClass into the eightbyte at offset, short-circuiting
// once Memory has been reached — the "fast-path" from §3's invariants: once
// any slot is Memory, both slots become Memory and further additions are
// ignored.
func (c *Classification) addField(offset uint64, fieldClass Class) {
	if c.IsMemory() {
		return
	}
	idx := 0
	if offset >= 8 {
		idx = 1
	}
	merged := merge(c.classes[idx], fieldClass)
	if merged != c.classes[idx] {
		c.classes[idx] = merged
		if merged == Memory {
			c.classes[1-idx] = Memory
		}
	}
}

// hasUnalignedFields reports whether any transitively-nested struct member
// sits at a resolved offset that is not a multiple of its own required
// alignment (§4.2.2 step 1). The resolved offset follows the same
// max(explicit, running-rounded) rule as typeinfo's structRawSize: an
// explicit offset that is itself aligned (e.g. {Int8 @0, Int32 @8}) is not
// unaligned just because it differs from the naturally-packed offset.
func hasUnalignedFields(oracle typeinfo.Oracle, t *abitype.Type) (bool, error) {
	if !t.IsStruct() {
		return false, nil
	}
	running := uint64(0)
	for _, m := range t.Members() {
		align, err := oracle.RequiredAlign(m.MemberType)
		if err != nil {
			return false, err
		}
		natural := roundUp(running, align)
		effective := natural
		if m.OffsetIsExplicit && m.ExplicitOffset > natural {
			effective = m.ExplicitOffset
		}
		if effective%align != 0 {
			return true, nil
		}
		nested, err := hasUnalignedFields(oracle, m.MemberType)
		if err != nil {
			return false, err
		}
		if nested {
			return true, nil
		}
		sz, err := oracle.AllocSize(m.MemberType)
		if err != nil {
			return false, err
		}
		running = effective + sz.Bytes()
	}
	return false, nil
}

func roundUp(offset, align uint64) uint64 {
	if align <= 1 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + (align - rem)
}

// Classify implements §4.2.2: the whole-type classification entry point.
func Classify(oracle typeinfo.Oracle, t *abitype.Type, namedArg bool) (Classification, error) {
	var c Classification

	allocSize, err := oracle.AllocSize(t)
	if err != nil {
		return c, err
	}
	unaligned, err := hasUnalignedFields(oracle, t)
	if err != nil {
		return c, err
	}
	if allocSize.Bytes() > 32 || unaligned {
		c.addField(0, Memory)
		return c, nil
	}

	if err := classifyType(oracle, &c, t, 0, namedArg); err != nil {
		return Classification{}, err
	}

	// Post-classification rewrite (§4.2.2 step 3): anything bigger than
	// one eightbyte that isn't exactly {Sse, SseUp} collapses to Memory.
	if allocSize.Bytes() > 16 && !(c.classes[0] == Sse && c.classes[1] == SseUp) {
		return Classification{classes: [2]Class{Memory, Memory}}, nil
	}

	return c, nil
}

func classifyType(oracle typeinfo.Oracle, c *Classification, t *abitype.Type, offset uint64, namedArg bool) error {
	switch t.Kind() {
	case abitype.Void:
		c.addField(offset, NoClass)
	case abitype.Pointer, abitype.UnspecifiedWidthInteger, abitype.FixedWidthInteger:
		c.addField(offset, Integer)
	case abitype.FloatingPoint:
		if t.FloatKind() == abitype.LongDouble {
			c.addField(offset, X87)
			c.addField(offset+8, X87Up)
		} else {
			c.addField(offset, Sse)
		}
	case abitype.Complex:
		switch t.FloatKind() {
		case abitype.Float:
			c.addField(offset, Sse)
			c.addField(offset+4, Sse)
		case abitype.Double:
			c.addField(offset, Sse)
			c.addField(offset+8, Sse)
		case abitype.LongDouble, abitype.Float128:
			c.addField(offset, ComplexX87)
			c.addField(offset+16, ComplexX87)
		}
	case abitype.Struct:
		structOffset := uint64(0)
		for _, m := range t.Members() {
			if m.OffsetIsExplicit && m.ExplicitOffset >= structOffset {
				structOffset = m.ExplicitOffset
			} else {
				align, err := oracle.RequiredAlign(m.MemberType)
				if err != nil {
					return err
				}
				structOffset = roundUp(structOffset, align)
			}
			if err := classifyType(oracle, c, m.MemberType, offset+structOffset, namedArg); err != nil {
				return err
			}
			sz, err := oracle.AllocSize(m.MemberType)
			if err != nil {
				return err
			}
			structOffset += sz.Bytes()
		}
	case abitype.Union:
		for _, m := range t.Members() {
			if err := classifyType(oracle, c, m.MemberType, offset, namedArg); err != nil {
				return err
			}
		}
	case abitype.Array:
		elemSize, err := oracle.AllocSize(t.ElementType())
		if err != nil {
			return err
		}
		for i := int64(0); i < t.ElementCount(); i++ {
			if err := classifyType(oracle, c, t.ElementType(), offset+uint64(i)*elemSize.Bytes(), namedArg); err != nil {
				return err
			}
		}
	case abitype.Vector:
		return classifyVector(oracle, c, t, offset, namedArg)
	default:
		return errors.Wrapf(abierr.InvalidType, "unknown type kind %v", t.Kind())
	}
	return nil
}

// classifyVector implements §4.2.2's vector rules, which depend on alloc
// size, element kind, and (for 256-bit vectors) whether the vector is both
// a named argument and a legal vector type for the target.
func classifyVector(oracle typeinfo.Oracle, c *Classification, t *abitype.Type, offset uint64, namedArg bool) error {
	allocSize, err := oracle.AllocSize(t)
	if err != nil {
		return err
	}
	bits := allocSize.Bits()
	elem := t.ElementType()

	switch {
	case bits == 32:
		c.addField(offset, Integer)
	case bits == 64:
		if elem.IsFloatingPoint() && elem.FloatKind() == abitype.Double {
			c.addField(offset, Memory)
		} else if elem.IsInteger() {
			if bw, _ := integerWidth(oracle, elem); bw == 64 {
				c.addField(offset, Integer)
			} else {
				c.addField(offset, Sse)
			}
		} else {
			c.addField(offset, Sse)
		}
	case bits == 128 || (bits == 256 && namedArg && oracle.IsLegalVector(t)):
		c.addField(offset, Sse)
		c.addField(offset+8, SseUp)
	default:
		c.addField(offset, Memory)
	}
	return nil
}

func integerWidth(oracle typeinfo.Oracle, t *abitype.Type) (int, bool) {
	if t.Kind() == abitype.FixedWidthInteger {
		return t.FixedWidth()
	}
	return oracle.ResolveInteger(t.IntegerKind())
}

// floatLeaf is one floating-point scalar field recovered from a type's
// layout, at the offset it actually occupies within the whole value.
type floatLeaf struct {
	offset uint64
	kind   abitype.FloatKind
}

// collectFloatLeaves walks t the same struct/union/array traversal as
// classifyType, recording every non-complex floating-point scalar field
// whose offset falls within [windowStart, windowEnd). This recovers the
// byte-level detail an Sse eightbyte's coarse class tag discards, so the
// IR type picked for that eightbyte can tell "one packed double" apart
// from "two adjacent floats" (§4.2.4).
func collectFloatLeaves(oracle typeinfo.Oracle, t *abitype.Type, offset, windowStart, windowEnd uint64, out *[]floatLeaf) error {
	switch t.Kind() {
	case abitype.FloatingPoint:
		if t.FloatKind() != abitype.LongDouble && offset >= windowStart && offset < windowEnd {
			*out = append(*out, floatLeaf{offset: offset, kind: t.FloatKind()})
		}
	case abitype.Struct:
		structOffset := uint64(0)
		for _, m := range t.Members() {
			if m.OffsetIsExplicit && m.ExplicitOffset >= structOffset {
				structOffset = m.ExplicitOffset
			} else {
				align, err := oracle.RequiredAlign(m.MemberType)
				if err != nil {
					return err
				}
				structOffset = roundUp(structOffset, align)
			}
			if err := collectFloatLeaves(oracle, m.MemberType, offset+structOffset, windowStart, windowEnd, out); err != nil {
				return err
			}
			sz, err := oracle.AllocSize(m.MemberType)
			if err != nil {
				return err
			}
			structOffset += sz.Bytes()
		}
	case abitype.Union:
		for _, m := range t.Members() {
			if err := collectFloatLeaves(oracle, m.MemberType, offset, windowStart, windowEnd, out); err != nil {
				return err
			}
		}
	case abitype.Array:
		elemSize, err := oracle.AllocSize(t.ElementType())
		if err != nil {
			return err
		}
		for i := int64(0); i < t.ElementCount(); i++ {
			if err := collectFloatLeaves(oracle, t.ElementType(), offset+uint64(i)*elemSize.Bytes(), windowStart, windowEnd, out); err != nil {
				return err
			}
		}
	}
	return nil
}
