// Package irtype models the concrete, machine-level types that flow across
// a lowered function boundary — the output vocabulary of the ABI layer and
// the input vocabulary of the injected IR builder collaborator (see the
// builder package). It deliberately mirrors the shape of core-builder's
// types package (VoidKind/IntegerKind/FloatKind/PointerKind/...): the ABI
// layer treats the real IR type system as an external collaborator, and
// this package is the seam a concrete builder implementation plugs into.
package irtype

import "fmt"

// Kind identifies the concrete shape of a lowered IR type.
type Kind int

const (
	VoidKind Kind = iota
	IntegerKind
	FloatKind
	PointerKind
	ArrayKind
	StructKind
	VectorKind
	FunctionKind
)

func (k Kind) String() string {
	switch k {
	case VoidKind:
		return "void"
	case IntegerKind:
		return "integer"
	case FloatKind:
		return "float"
	case PointerKind:
		return "pointer"
	case ArrayKind:
		return "array"
	case StructKind:
		return "struct"
	case VectorKind:
		return "vector"
	case FunctionKind:
		return "function"
	default:
		return "unknown"
	}
}

// Type is a concrete lowered IR type: a scalar width, an aggregate shape,
// or void. Unlike abitype.Type it carries no source-language semantics
// (no signedness beyond integer extension, no "unspecified width" kinds).
type Type interface {
	Kind() Kind
	String() string
	isIRType()
}

// Void is the unique zero-size lowered type.
var Void Type = voidType{}

type voidType struct{}

func (voidType) Kind() Kind    { return VoidKind }
func (voidType) String() string { return "void" }
func (voidType) isIRType()     {}

// IntType is an N-bit lowered integer (or i1 for booleans). Extension
// attributes (signext/zeroext) live on the caller's attribute set, not here.
type IntType struct {
	BitWidth int
}

func (t *IntType) Kind() Kind     { return IntegerKind }
func (t *IntType) String() string { return fmt.Sprintf("i%d", t.BitWidth) }
func (t *IntType) isIRType()      {}

func I(bits int) *IntType { return &IntType{BitWidth: bits} }

var (
	I1  = I(1)
	I8  = I(8)
	I16 = I(16)
	I24 = I(24)
	I32 = I(32)
	I64 = I(64)
)

// FloatType is a lowered floating-point scalar. BitWidth 80 denotes the
// x86 extended-precision "long double" format (x86_fp80 in LLVM terms).
type FloatType struct {
	BitWidth int
}

func (t *FloatType) Kind() Kind { return FloatKind }
func (t *FloatType) String() string {
	switch t.BitWidth {
	case 16:
		return "half"
	case 32:
		return "float"
	case 64:
		return "double"
	case 80:
		return "x86_fp80"
	case 128:
		return "fp128"
	default:
		return fmt.Sprintf("f%d", t.BitWidth)
	}
}
func (t *FloatType) isIRType() {}

var (
	Half   = &FloatType{BitWidth: 16}
	Float  = &FloatType{BitWidth: 32}
	Double = &FloatType{BitWidth: 64}
	FP80   = &FloatType{BitWidth: 80}
	FP128  = &FloatType{BitWidth: 128}
)

// PointerType is an address-space-0 pointer to Pointee. Pointee may be nil
// for an opaque/untyped pointer (used for byval/sret slots whose pointee
// is only needed for its alloc size, not its LLVM identity).
type PointerType struct {
	Pointee Type
}

func (t *PointerType) Kind() Kind     { return PointerKind }
func (t *PointerType) String() string { return "ptr" }
func (t *PointerType) isIRType()      {}

func NewPointer(pointee Type) *PointerType { return &PointerType{Pointee: pointee} }

// ArrayType is a fixed-length homogeneous sequence.
type ArrayType struct {
	Length      int64
	ElementType Type
}

func (t *ArrayType) Kind() Kind { return ArrayKind }
func (t *ArrayType) String() string {
	return fmt.Sprintf("[%d x %s]", t.Length, t.ElementType)
}
func (t *ArrayType) isIRType() {}

func NewArray(elem Type, length int64) *ArrayType {
	return &ArrayType{Length: length, ElementType: elem}
}

// StructType is an ordered, first-class aggregate of IR-level field types.
// Packed structs carry no inter-field padding.
type StructType struct {
	Name   string
	Fields []Type
	Packed bool
}

func (t *StructType) Kind() Kind { return StructKind }
func (t *StructType) String() string {
	s := "{"
	for i, f := range t.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.String()
	}
	return s + "}"
}
func (t *StructType) isIRType() {}

func NewStruct(name string, fields []Type, packed bool) *StructType {
	return &StructType{Name: name, Fields: fields, Packed: packed}
}

// VectorType is a fixed-length SIMD register type.
type VectorType struct {
	Length      int
	ElementType Type
	Scalable    bool
}

func (t *VectorType) Kind() Kind { return VectorKind }
func (t *VectorType) String() string {
	return fmt.Sprintf("<%d x %s>", t.Length, t.ElementType)
}
func (t *VectorType) isIRType() {}

func NewVector(elem Type, length int) *VectorType {
	return &VectorType{Length: length, ElementType: elem}
}

// FunctionType is the lowered, ABI-correct signature: the concrete IR
// return type plus the concrete IR argument sequence (already including
// any sret/padding/flattened-struct slots the ABI layer inserted).
type FunctionType struct {
	ReturnType   Type
	ArgumentTypes []Type
	VarArg       bool
}

func (t *FunctionType) Kind() Kind { return FunctionKind }
func (t *FunctionType) String() string {
	s := t.ReturnType.String() + "("
	for i, a := range t.ArgumentTypes {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	if t.VarArg {
		if len(t.ArgumentTypes) > 0 {
			s += ", "
		}
		s += "..."
	}
	return s + ")"
}
func (t *FunctionType) isIRType() {}

// CallConv identifies a backend calling convention id, opaque to this
// package — the ABI facade maps abstract CC tags onto these.
type CallConv int

const (
	CCDefault CallConv = iota
	CCX86Std
	CCX86Fast
	CCX86ThisCall
	CCX86VectorCall
	CCX86_64SysV
	CCWin64
)

// Attrs is the per-argument-or-return attribute bitset the ABI facade
// attaches to a lowered FunctionType (§4.4 "attribute set").
type Attrs uint32

const (
	AttrNone Attrs = 0
	AttrSExt Attrs = 1 << iota
	AttrZExt
	AttrSRet
	AttrByVal
	AttrInReg
	AttrNoAlias
	AttrNoCapture
	AttrReadNone
	AttrReadOnly
)

func (a Attrs) Has(flag Attrs) bool { return a&flag != 0 }
func (a Attrs) With(flag Attrs) Attrs { return a | flag }
func (a Attrs) Without(flag Attrs) Attrs { return a &^ flag }

// AttrSet is the attribute set for a whole lowered function: one Attrs
// bitset per IR argument index, plus a return-value bitset, plus an
// alignment table for byval/sret slots (alignment is a number, not a
// single bit, so it doesn't fit the Attrs bitset).
type AttrSet struct {
	Return    Attrs
	Args      []Attrs
	ByValAlign map[int]uint32
}

func NewAttrSet(numArgs int) *AttrSet {
	return &AttrSet{Args: make([]Attrs, numArgs), ByValAlign: make(map[int]uint32)}
}
