package typeinfo

import (
	"github.com/arc-language/llvm-abi/abierr"
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/datasize"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/pkg/errors"
)

// X86_64 is the System V x86_64 type-info oracle. HasAVX widens the legal
// vector predicate from 128 to 256 bits (§4.1 "Legal vector (x86_64)").
type X86_64 struct {
	HasAVX     bool
	CharSigned bool
	m          *memo
}

func NewX86_64(hasAVX bool) *X86_64 {
	return &X86_64{HasAVX: hasAVX, CharSigned: true, m: newMemo()}
}

func (o *X86_64) IsBigEndian() bool  { return false }
func (o *X86_64) IsCharSigned() bool { return o.CharSigned }

func (o *X86_64) ResolveInteger(kind abitype.IntegerKind) (int, bool) {
	switch kind {
	case abitype.Bool:
		return 8, false
	case abitype.Char:
		return 8, o.CharSigned
	case abitype.SChar:
		return 8, true
	case abitype.UChar:
		return 8, false
	case abitype.Short:
		return 16, true
	case abitype.UShort:
		return 16, false
	case abitype.Int:
		return 32, true
	case abitype.UInt:
		return 32, false
	case abitype.Long, abitype.LongLong, abitype.SSizeT, abitype.PtrDiffT, abitype.IntPtrT:
		return 64, true
	case abitype.ULong, abitype.ULongLong, abitype.SizeT, abitype.UIntPtrT:
		return 64, false
	default:
		return 32, true
	}
}

func floatBits(k abitype.FloatKind) int {
	switch k {
	case abitype.HalfFloat:
		return 16
	case abitype.Float:
		return 32
	case abitype.Double:
		return 64
	case abitype.LongDouble:
		return 80 // occupies 128 bits of storage; see rawSizeScalarFloat
	case abitype.Float128:
		return 128
	default:
		return 64
	}
}

// rawSizeScalarFloat returns the storage size in bytes LLVM/System V actually
// reserve for a scalar float kind — LongDouble is 80-bit x87 data padded
// to a 16-byte slot (matches original_source's getTypeSize: LongDouble ->
// 16, Float128 -> 16).
func rawSizeScalarFloat(k abitype.FloatKind) uint64 {
	switch k {
	case abitype.HalfFloat:
		return 2
	case abitype.Float:
		return 4
	case abitype.Double:
		return 8
	case abitype.LongDouble:
		return 16
	case abitype.Float128:
		return 16
	default:
		return 8
	}
}

func rawSizeComplex(k abitype.FloatKind) uint64 {
	switch k {
	case abitype.Float:
		return 8
	case abitype.Double:
		return 16
	case abitype.LongDouble:
		return 32
	case abitype.Float128:
		return 32
	default:
		return 16
	}
}

func (o *X86_64) RawSize(t *abitype.Type) (datasize.Size, error) {
	if cached, ok := o.m.rawSize[t]; ok {
		return cached, nil
	}
	sz, err := o.rawSizeUncached(t)
	if err != nil {
		return datasize.Size{}, err
	}
	o.m.rawSize[t] = sz
	return sz, nil
}

func (o *X86_64) rawSizeUncached(t *abitype.Type) (datasize.Size, error) {
	switch t.Kind() {
	case abitype.Void:
		return datasize.FromBytes(0), nil
	case abitype.Pointer:
		return datasize.FromBytes(8), nil
	case abitype.UnspecifiedWidthInteger:
		bits, _ := o.ResolveInteger(t.IntegerKind())
		return datasize.FromBits(uint64(bits)), nil
	case abitype.FixedWidthInteger:
		bits, _ := t.FixedWidth()
		return datasize.FromBits(uint64(bits)), nil
	case abitype.FloatingPoint:
		return datasize.FromBytes(rawSizeScalarFloat(t.FloatKind())), nil
	case abitype.Complex:
		return datasize.FromBytes(rawSizeComplex(t.FloatKind())), nil
	case abitype.Struct:
		return o.structRawSize(t)
	case abitype.Union:
		return o.unionRawSize(t)
	case abitype.Array:
		if t.ElementCount() == 0 {
			return datasize.Size{}, errors.Wrap(abierr.InvalidType, "zero-count array")
		}
		elemSize, err := o.AllocSize(t.ElementType())
		if err != nil {
			return datasize.Size{}, err
		}
		return datasize.FromBits(elemSize.Bits() * uint64(t.ElementCount())), nil
	case abitype.Vector:
		elemSize, err := o.AllocSize(t.ElementType())
		if err != nil {
			return datasize.Size{}, err
		}
		return datasize.FromBits(elemSize.Bits() * uint64(t.ElementCount())), nil
	default:
		return datasize.Size{}, errors.Wrapf(abierr.InvalidType, "unknown type kind %v", t.Kind())
	}
}

// structRawSize walks members left to right: each member's effective
// offset is max(explicit_offset, running_offset rounded up to the
// member's required alignment); running_offset then advances by the
// member's alloc_size. The final size rounds up to the struct's own
// required alignment (§4.1).
func (o *X86_64) structRawSize(t *abitype.Type) (datasize.Size, error) {
	running := datasize.FromBits(0)
	for _, m := range t.Members() {
		align, err := o.RequiredAlign(m.MemberType)
		if err != nil {
			return datasize.Size{}, err
		}
		natural := running.RoundUpToAlign(align)
		if m.OffsetIsExplicit {
			explicit := datasize.FromBytes(m.ExplicitOffset)
			if explicit.Less(running) {
				return datasize.Size{}, errors.Wrapf(abierr.InvalidType,
					"explicit offset %d precedes running offset %d bytes", m.ExplicitOffset, running.Bytes())
			}
			running = explicit
		} else {
			running = natural
		}
		allocSz, err := o.AllocSize(m.MemberType)
		if err != nil {
			return datasize.Size{}, err
		}
		running = running.Add(allocSz)
	}
	structAlign, err := o.RequiredAlign(t)
	if err != nil {
		return datasize.Size{}, err
	}
	return running.RoundUpToAlign(structAlign), nil
}

func (o *X86_64) unionRawSize(t *abitype.Type) (datasize.Size, error) {
	max := datasize.FromBits(0)
	for _, m := range t.Members() {
		sz, err := o.AllocSize(m.MemberType)
		if err != nil {
			return datasize.Size{}, err
		}
		max = datasize.Max(max, sz)
	}
	align, err := o.RequiredAlign(t)
	if err != nil {
		return datasize.Size{}, err
	}
	return max.RoundUpToAlign(align), nil
}

// AllocSize: raw_size for everything except fixed-width integers, which
// round the byte size up to the next power of two (§4.1).
func (o *X86_64) AllocSize(t *abitype.Type) (datasize.Size, error) {
	raw, err := o.RawSize(t)
	if err != nil {
		return datasize.Size{}, err
	}
	if t.Kind() == abitype.FixedWidthInteger {
		return raw.RoundUpToPow2Bytes(), nil
	}
	return raw, nil
}

// StoreSize is the size written to memory with no trailing stride
// padding; this oracle has no aggregate whose store size differs from
// its alloc size (there are no tail-padding-sensitive repeated stores in
// this ABI layer), so it is an alias of AllocSize.
func (o *X86_64) StoreSize(t *abitype.Type) (datasize.Size, error) {
	return o.AllocSize(t)
}

func (o *X86_64) RequiredAlign(t *abitype.Type) (uint64, error) {
	switch t.Kind() {
	case abitype.Void:
		return 1, nil
	case abitype.Struct, abitype.Union:
		strictest := uint64(1)
		for _, m := range t.Members() {
			a, err := o.RequiredAlign(m.MemberType)
			if err != nil {
				return 0, err
			}
			if a > strictest {
				strictest = a
			}
		}
		return strictest, nil
	case abitype.Array:
		elemAlign, err := o.RequiredAlign(t.ElementType())
		if err != nil {
			return 0, err
		}
		allocSz, err := o.AllocSize(t)
		if err != nil {
			return 0, err
		}
		min := uint64(1)
		if allocSz.Bytes() >= 16 {
			min = 16
		}
		if elemAlign > min {
			return elemAlign, nil
		}
		return min, nil
	case abitype.Vector:
		allocSz, err := o.AllocSize(t)
		if err != nil {
			return 0, err
		}
		bytes := allocSz.Bytes()
		var min uint64 = 1
		switch {
		case bytes >= 32:
			min = 32
		case bytes >= 16:
			min = 16
		}
		elemAlign, err := o.RequiredAlign(t.ElementType())
		if err != nil {
			return 0, err
		}
		if elemAlign > min {
			return elemAlign, nil
		}
		return min, nil
	default:
		sz, err := o.RawSize(t)
		if err != nil {
			return 0, err
		}
		return sz.Bytes(), nil
	}
}

// PreferredAlign matches RequiredAlign on x86_64 System V; the ABI does
// not widen preferred alignment beyond required alignment for any type
// this layer handles.
func (o *X86_64) PreferredAlign(t *abitype.Type) (uint64, error) {
	return o.RequiredAlign(t)
}

// IsLegalVector implements "64 < alloc_size <= (256 if AVX else 128)" (§4.1).
func (o *X86_64) IsLegalVector(t *abitype.Type) bool {
	if t.Kind() != abitype.Vector {
		return false
	}
	sz, err := o.AllocSize(t)
	if err != nil {
		return false
	}
	bytes := sz.Bytes()
	limit := uint64(16)
	if o.HasAVX {
		limit = 32
	}
	return bytes > 8 && bytes <= limit
}

func (o *X86_64) LLVMType(t *abitype.Type) (irtype.Type, error) {
	if cached, ok := o.m.llvm[t]; ok {
		return cached, nil
	}
	lt, err := o.llvmTypeUncached(t)
	if err != nil {
		return nil, err
	}
	o.m.llvm[t] = lt
	return lt, nil
}

func (o *X86_64) llvmTypeUncached(t *abitype.Type) (irtype.Type, error) {
	switch t.Kind() {
	case abitype.Void:
		return irtype.Void, nil
	case abitype.Pointer:
		return irtype.NewPointer(nil), nil
	case abitype.UnspecifiedWidthInteger:
		bits, _ := o.ResolveInteger(t.IntegerKind())
		return irtype.I(bits), nil
	case abitype.FixedWidthInteger:
		bits, _ := t.FixedWidth()
		return irtype.I(bits), nil
	case abitype.FloatingPoint:
		return floatIRType(t.FloatKind()), nil
	case abitype.Complex:
		comp := floatIRType(t.FloatKind())
		return irtype.NewStruct("", []irtype.Type{comp, comp}, false), nil
	case abitype.Struct:
		offsets, err := o.StructOffsets(t.Members())
		if err != nil {
			return nil, err
		}
		fields := make([]irtype.Type, len(t.Members()))
		for i, m := range t.Members() {
			ft, err := o.LLVMType(m.MemberType)
			if err != nil {
				return nil, err
			}
			fields[i] = ft
		}
		_ = offsets // StructOffsets is called only to reject invalid explicit offsets; the lowered struct carries no offsets
		return irtype.NewStruct(t.Name(), fields, false), nil
	case abitype.Union:
		// A union lowers to an i8 array of the union's own alloc size,
		// since LLVM has no native union type.
		allocSz, err := o.AllocSize(t)
		if err != nil {
			return nil, err
		}
		return irtype.NewArray(irtype.I8, int64(allocSz.Bytes())), nil
	case abitype.Array:
		elem, err := o.LLVMType(t.ElementType())
		if err != nil {
			return nil, err
		}
		return irtype.NewArray(elem, t.ElementCount()), nil
	case abitype.Vector:
		elem, err := o.LLVMType(t.ElementType())
		if err != nil {
			return nil, err
		}
		return irtype.NewVector(elem, int(t.ElementCount())), nil
	default:
		return nil, errors.Wrapf(abierr.InvalidType, "unknown type kind %v", t.Kind())
	}
}

func floatIRType(k abitype.FloatKind) irtype.Type {
	switch k {
	case abitype.HalfFloat:
		return irtype.Half
	case abitype.Float:
		return irtype.Float
	case abitype.Double:
		return irtype.Double
	case abitype.LongDouble:
		return irtype.FP80
	case abitype.Float128:
		return irtype.FP128
	default:
		return irtype.Double
	}
}

func (o *X86_64) StructOffsets(members []abitype.StructMember) ([]uint64, error) {
	offsets := make([]uint64, len(members))
	running := datasize.FromBits(0)
	for i, m := range members {
		align, err := o.RequiredAlign(m.MemberType)
		if err != nil {
			return nil, err
		}
		natural := running.RoundUpToAlign(align)
		if m.OffsetIsExplicit {
			explicit := datasize.FromBytes(m.ExplicitOffset)
			if explicit.Less(running) {
				return nil, errors.Wrapf(abierr.InvalidType,
					"explicit offset %d precedes running offset %d bytes", m.ExplicitOffset, running.Bytes())
			}
			running = explicit
		} else {
			running = natural
		}
		offsets[i] = running.Bytes()
		allocSz, err := o.AllocSize(m.MemberType)
		if err != nil {
			return nil, err
		}
		running = running.Add(allocSz)
	}
	return offsets, nil
}
