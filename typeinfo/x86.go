package typeinfo

import (
	"github.com/arc-language/llvm-abi/abierr"
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/datasize"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/pkg/errors"
)

// Platform distinguishes the i386 target OSes whose struct-layout and
// return-in-register rules diverge (§4.3, original_source's
// X86_32ABITypeInfo.cpp Darwin/FreeBSD/Win32/Linux special-casing).
type Platform int

const (
	Linux Platform = iota
	Darwin
	FreeBSD
	Win32
)

// X86 is the (partial) i386 type-info oracle (§4.3 "sibling").
type X86 struct {
	Plat       Platform
	CharSigned bool
	m          *memo
}

func NewX86(plat Platform) *X86 {
	return &X86{Plat: plat, CharSigned: true, m: newMemo()}
}

func (o *X86) IsBigEndian() bool  { return false }
func (o *X86) IsCharSigned() bool { return o.CharSigned }

func (o *X86) ResolveInteger(kind abitype.IntegerKind) (int, bool) {
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
	case abitype.Int, abitype.Long, abitype.PtrDiffT, abitype.SSizeT, abitype.IntPtrT:
		return 32, true
	case abitype.UInt, abitype.ULong, abitype.SizeT, abitype.UIntPtrT:
		return 32, false
	case abitype.LongLong:
		return 64, true
	case abitype.ULongLong:
		return 64, false
	default:
		return 32, true
	}
}

// StackAlignBytes implements §4.3's "stack alignment policy (Darwin
// 16-byte for SSE-containing records; elsewhere 4-byte min)".
func (o *X86) StackAlignBytes(hasSSEMember bool) uint64 {
	if o.Plat == Darwin && hasSSEMember {
		return 16
	}
	return 4
}

// ReturnsInRegisters implements §4.3's "return-in-register if size in
// {8,16,32,64} bits and the aggregate is transitively composed of
// register-sized primitives" rule, which is platform-gated (Darwin,
// FreeBSD and Win32 allow it; Linux does not).
func (o *X86) ReturnsInRegisters(t *abitype.Type, allocBits uint64) bool {
	if o.Plat == Linux {
		return false
	}
	switch allocBits {
	case 8, 16, 32, 64:
		return isAllRegisterSizedPrimitives(t)
	default:
		return false
	}
}

func isAllRegisterSizedPrimitives(t *abitype.Type) bool {
	switch t.Kind() {
	case abitype.UnspecifiedWidthInteger, abitype.FixedWidthInteger,
		abitype.FloatingPoint, abitype.Pointer:
		return true
	case abitype.Struct:
		for _, m := range t.Members() {
			if !isAllRegisterSizedPrimitives(m.MemberType) {
				return false
			}
		}
		return true
	case abitype.Array:
		return isAllRegisterSizedPrimitives(t.ElementType())
	default:
		return false
	}
}

func (o *X86) RawSize(t *abitype.Type) (datasize.Size, error) {
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

func (o *X86) rawSizeUncached(t *abitype.Type) (datasize.Size, error) {
	switch t.Kind() {
	case abitype.Void:
		return datasize.FromBytes(0), nil
	case abitype.Pointer:
		return datasize.FromBytes(4), nil
	case abitype.UnspecifiedWidthInteger:
		bits, _ := o.ResolveInteger(t.IntegerKind())
		return datasize.FromBits(uint64(bits)), nil
	case abitype.FixedWidthInteger:
		bits, _ := t.FixedWidth()
		return datasize.FromBits(uint64(bits)), nil
	case abitype.FloatingPoint:
		switch t.FloatKind() {
		case abitype.HalfFloat:
			return datasize.FromBytes(2), nil
		case abitype.Float:
			return datasize.FromBytes(4), nil
		case abitype.Double:
			return datasize.FromBytes(8), nil
		case abitype.LongDouble:
			if o.Plat == Darwin || o.Plat == Win32 {
				return datasize.FromBytes(16), nil
			}
			return datasize.FromBytes(12), nil // i386 Linux: 80-bit padded to 12
		case abitype.Float128:
			return datasize.FromBytes(16), nil
		}
	case abitype.Complex:
		switch t.FloatKind() {
		case abitype.Float:
			return datasize.FromBytes(8), nil
		case abitype.Double:
			return datasize.FromBytes(16), nil
		case abitype.LongDouble:
			return datasize.FromBytes(24), nil
		case abitype.Float128:
			return datasize.FromBytes(32), nil
		}
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
	}
	return datasize.Size{}, errors.Wrapf(abierr.InvalidType, "unknown type kind %v", t.Kind())
}

func (o *X86) structRawSize(t *abitype.Type) (datasize.Size, error) {
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

func (o *X86) unionRawSize(t *abitype.Type) (datasize.Size, error) {
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

func (o *X86) AllocSize(t *abitype.Type) (datasize.Size, error) {
	raw, err := o.RawSize(t)
	if err != nil {
		return datasize.Size{}, err
	}
	if t.Kind() == abitype.FixedWidthInteger {
		return raw.RoundUpToPow2Bytes(), nil
	}
	return raw, nil
}

func (o *X86) StoreSize(t *abitype.Type) (datasize.Size, error) { return o.AllocSize(t) }

func (o *X86) RequiredAlign(t *abitype.Type) (uint64, error) {
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
		if o.Plat != Win32 && strictest > 4 && !memberHasVector(t) {
			// i386 System V caps ordinary struct alignment at 4 bytes
			// unless a vector member demands more.
			return 4, nil
		}
		return strictest, nil
	case abitype.Array:
		elemAlign, err := o.RequiredAlign(t.ElementType())
		if err != nil {
			return 0, err
		}
		return elemAlign, nil
	case abitype.Vector:
		allocSz, err := o.AllocSize(t)
		if err != nil {
			return 0, err
		}
		bytes := allocSz.Bytes()
		p := uint64(1)
		for p < bytes {
			p <<= 1
		}
		if p > 32 {
			p = 32
		}
		return p, nil
	default:
		sz, err := o.RawSize(t)
		if err != nil {
			return 0, err
		}
		return sz.Bytes(), nil
	}
}

func memberHasVector(t *abitype.Type) bool {
	switch t.Kind() {
	case abitype.Vector:
		return true
	case abitype.Struct, abitype.Union:
		for _, m := range t.Members() {
			if memberHasVector(m.MemberType) {
				return true
			}
		}
	case abitype.Array:
		return memberHasVector(t.ElementType())
	}
	return false
}

func (o *X86) PreferredAlign(t *abitype.Type) (uint64, error) {
	return o.RequiredAlign(t)
}

func (o *X86) IsLegalVector(t *abitype.Type) bool {
	if t.Kind() != abitype.Vector {
		return false
	}
	sz, err := o.AllocSize(t)
	if err != nil {
		return false
	}
	return sz.Bytes() == 16 // SSE-only on i386; AVX-256 vectors are not legal
}

func (o *X86) LLVMType(t *abitype.Type) (irtype.Type, error) {
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

func (o *X86) llvmTypeUncached(t *abitype.Type) (irtype.Type, error) {
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
		fields := make([]irtype.Type, len(t.Members()))
		for i, m := range t.Members() {
			ft, err := o.LLVMType(m.MemberType)
			if err != nil {
				return nil, err
			}
			fields[i] = ft
		}
		return irtype.NewStruct(t.Name(), fields, false), nil
	case abitype.Union:
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

func (o *X86) StructOffsets(members []abitype.StructMember) ([]uint64, error) {
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
