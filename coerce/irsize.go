package coerce

import "github.com/arc-language/llvm-abi/irtype"

// SizeOf, AlignOf and the struct/array offset helpers below give the coerce
// algorithms a target-independent notion of an IR type's footprint: they
// operate purely on the lowered irtype.Type shape (already ABI-correct by
// construction, since typeinfo produced it), not on the richer per-target
// abitype.Type rules typeinfo.Oracle answers. This is the same
// size/alignment/offset arithmetic the teacher's arch/amd64/abi.go computed
// directly against a fixed concrete IR type, adapted here to this module's
// irtype.Type seam and narrowed to the quantities the coercion algorithm
// actually needs (byte size, byte alignment, field/element offsets) rather
// than the teacher's additional register-classification helpers, which
// this module's abi/x86_64 and abi/x86 packages already supersede with the
// full ABI classification those packages implement.

// SizeOf reports the allocation size, in bytes, of a lowered IR type,
// assuming the natural (non-packed) layout for structs.
func SizeOf(t irtype.Type) uint64 {
	switch v := t.(type) {
	case *irtype.IntType:
		return uint64((v.BitWidth + 7) / 8)
	case *irtype.FloatType:
		return uint64((v.BitWidth + 7) / 8)
	case *irtype.PointerType:
		return 8
	case *irtype.ArrayType:
		return uint64(v.Length) * SizeOf(v.ElementType)
	case *irtype.StructType:
		return structSize(v)
	case *irtype.VectorType:
		total := uint64(v.Length) * SizeOf(v.ElementType)
		if total <= 16 {
			return total
		}
		return ((total + 15) / 16) * 16
	default:
		return 0
	}
}

// AlignOf returns the alignment requirement, in bytes, of a lowered IR type.
func AlignOf(t irtype.Type) uint64 {
	switch v := t.(type) {
	case *irtype.IntType:
		switch {
		case v.BitWidth <= 8:
			return 1
		case v.BitWidth <= 16:
			return 2
		case v.BitWidth <= 32:
			return 4
		default:
			return 8
		}
	case *irtype.FloatType:
		switch v.BitWidth {
		case 16:
			return 2
		case 32:
			return 4
		case 64:
			return 8
		case 128:
			return 16
		default:
			return 8
		}
	case *irtype.PointerType:
		return 8
	case *irtype.ArrayType:
		return AlignOf(v.ElementType)
	case *irtype.StructType:
		if v.Packed {
			return 1
		}
		var max uint64 = 1
		for _, f := range v.Fields {
			if a := AlignOf(f); a > max {
				max = a
			}
		}
		return max
	case *irtype.VectorType:
		total := uint64(v.Length) * SizeOf(v.ElementType)
		if total <= 16 {
			return total
		}
		return 16
	default:
		return 1
	}
}

func structSize(st *irtype.StructType) uint64 {
	if st.Packed {
		var total uint64
		for _, f := range st.Fields {
			total += SizeOf(f)
		}
		return total
	}
	var offset uint64
	for _, f := range st.Fields {
		align := AlignOf(f)
		if offset%align != 0 {
			offset += align - (offset % align)
		}
		offset += SizeOf(f)
	}
	structAlign := AlignOf(st)
	if offset%structAlign != 0 {
		offset += structAlign - (offset % structAlign)
	}
	return offset
}

// StructFieldOffset returns the byte offset of fieldIndex within st, useful
// for computing a precise structGEP index when diving into an aggregate
// during coerced access (enterStructForCoercedAccess).
func StructFieldOffset(st *irtype.StructType, fieldIndex int) uint64 {
	if fieldIndex < 0 || fieldIndex >= len(st.Fields) {
		return 0
	}
	if st.Packed {
		var offset uint64
		for i := 0; i < fieldIndex; i++ {
			offset += SizeOf(st.Fields[i])
		}
		return offset
	}
	var offset uint64
	for i := 0; i < fieldIndex; i++ {
		align := AlignOf(st.Fields[i])
		if offset%align != 0 {
			offset += align - (offset % align)
		}
		offset += SizeOf(st.Fields[i])
	}
	fieldAlign := AlignOf(st.Fields[fieldIndex])
	if offset%fieldAlign != 0 {
		offset += fieldAlign - (offset % fieldAlign)
	}
	return offset
}

// ArrayElementOffset returns the byte offset of the index'th element of an
// array whose element type is elem.
func ArrayElementOffset(elem irtype.Type, index int64) uint64 {
	return uint64(index) * SizeOf(elem)
}
