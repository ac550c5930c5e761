// Package abitype implements the source-language-neutral type model from
// spec.md §3: a uniqued, value-equal description of every type that can
// cross a function boundary. Types are interned per Interner instance so
// that equality after interning is pointer equality, matching the
// teacher's style of uniqued IR types (types.NewStruct, types.NewPointer,
// types.NewArray in core-builder) generalized to the richer abstract model
// the ABI layer classifies (UnspecifiedWidthInteger kinds, explicit struct
// member offsets, unions).
package abitype

import (
	"fmt"
	"strings"
)

// Kind tags the payload carried by a Type.
type Kind int

const (
	Void Kind = iota
	Pointer
	UnspecifiedWidthInteger
	FixedWidthInteger
	FloatingPoint
	Complex
	Struct
	Union
	Array
	Vector
)

// IntegerKind enumerates the unspecified-width C-family integer kinds
// whose size and signedness are resolved per target by typeinfo (§3).
type IntegerKind int

const (
	Bool IntegerKind = iota
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	SizeT
	SSizeT
	PtrDiffT
	IntPtrT
	UIntPtrT
)

func (k IntegerKind) String() string {
	names := [...]string{"bool", "char", "schar", "uchar", "short", "ushort",
		"int", "uint", "long", "ulong", "longlong", "ulonglong",
		"size_t", "ssize_t", "ptrdiff_t", "intptr_t", "uintptr_t"}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown_int_kind"
}

// FloatKind enumerates the floating-point (and, when reused for Complex,
// the complex-component) kinds.
type FloatKind int

const (
	HalfFloat FloatKind = iota
	Float
	Double
	LongDouble
	Float128
)

func (k FloatKind) String() string {
	names := [...]string{"half", "float", "double", "long double", "float128"}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown_float_kind"
}

// StructMember is one field of a Struct type. ExplicitOffset, when
// OffsetIsExplicit is true, pins the field's start; otherwise it is
// computed from the running offset (§3, §4.1).
type StructMember struct {
	MemberType       *Type
	ExplicitOffset   uint64
	OffsetIsExplicit bool
}

// Type is an interned, immutable abstract type description (§3).
type Type struct {
	kind Kind

	// UnspecifiedWidthInteger
	intKind IntegerKind

	// FixedWidthInteger
	bitWidth int
	signed   bool

	// FloatingPoint / Complex
	floatKind FloatKind

	// Struct / Union
	name    string
	members []StructMember // Struct: offsets meaningful; Union: offsets ignored

	// Array / Vector
	elementType  *Type
	elementCount int64

	key string // precomputed structural identity for interning
}

func (t *Type) Kind() Kind { return t.kind }

func (t *Type) IntegerKind() IntegerKind {
	return t.intKind
}

func (t *Type) FixedWidth() (bits int, signed bool) { return t.bitWidth, t.signed }

func (t *Type) FloatKind() FloatKind { return t.floatKind }

func (t *Type) Name() string { return t.name }

func (t *Type) Members() []StructMember { return t.members }

func (t *Type) ElementType() *Type { return t.elementType }

func (t *Type) ElementCount() int64 { return t.elementCount }

func (t *Type) IsInteger() bool {
	return t.kind == UnspecifiedWidthInteger || t.kind == FixedWidthInteger
}

func (t *Type) IsFloatingPoint() bool { return t.kind == FloatingPoint }
func (t *Type) IsComplex() bool       { return t.kind == Complex }
func (t *Type) IsStruct() bool        { return t.kind == Struct }
func (t *Type) IsUnion() bool         { return t.kind == Union }
func (t *Type) IsArray() bool         { return t.kind == Array }
func (t *Type) IsVector() bool        { return t.kind == Vector }
func (t *Type) IsPointer() bool       { return t.kind == Pointer }
func (t *Type) IsVoid() bool          { return t.kind == Void }

// IsPromotableInteger reports whether this is a C integer type narrower
// than Int, which the type promoter (§4.7) widens across variadic
// boundaries.
func (t *Type) IsPromotableInteger() bool {
	if t.kind != UnspecifiedWidthInteger {
		return false
	}
	switch t.intKind {
	case Bool, Char, SChar, UChar, Short, UShort:
		return true
	default:
		return false
	}
}

func (t *Type) String() string {
	switch t.kind {
	case Void:
		return "void"
	case Pointer:
		return "ptr"
	case UnspecifiedWidthInteger:
		return t.intKind.String()
	case FixedWidthInteger:
		sign := "u"
		if t.signed {
			sign = "s"
		}
		return fmt.Sprintf("%si%d", sign, t.bitWidth)
	case FloatingPoint:
		return t.floatKind.String()
	case Complex:
		return "complex " + t.floatKind.String()
	case Struct, Union:
		kw := "struct"
		if t.kind == Union {
			kw = "union"
		}
		parts := make([]string, len(t.members))
		for i, m := range t.members {
			parts[i] = m.MemberType.String()
		}
		if t.name != "" {
			return fmt.Sprintf("%s %s{%s}", kw, t.name, strings.Join(parts, ", "))
		}
		return fmt.Sprintf("%s{%s}", kw, strings.Join(parts, ", "))
	case Array:
		return fmt.Sprintf("[%d x %s]", t.elementCount, t.elementType)
	case Vector:
		return fmt.Sprintf("<%d x %s>", t.elementCount, t.elementType)
	default:
		return "<invalid type>"
	}
}

// Interner is a process-local (or, here, ABI-instance-local) uniquing set.
// Two Interner instances never share state (§5 "Two ABI instances do not
// share state").
type Interner struct {
	table map[string]*Type
}

func NewInterner() *Interner {
	return &Interner{table: make(map[string]*Type)}
}

func (in *Interner) intern(t *Type) *Type {
	if existing, ok := in.table[t.key]; ok {
		return existing
	}
	in.table[t.key] = t
	return t
}

func (in *Interner) VoidType() *Type {
	return in.intern(&Type{kind: Void, key: "void"})
}

func (in *Interner) PointerType() *Type {
	return in.intern(&Type{kind: Pointer, key: "ptr"})
}

func (in *Interner) UnspecifiedInt(kind IntegerKind) *Type {
	return in.intern(&Type{kind: UnspecifiedWidthInteger, intKind: kind,
		key: fmt.Sprintf("uint:%d", kind)})
}

func (in *Interner) FixedInt(bits int, signed bool) *Type {
	return in.intern(&Type{kind: FixedWidthInteger, bitWidth: bits, signed: signed,
		key: fmt.Sprintf("fint:%d:%v", bits, signed)})
}

func (in *Interner) FloatType(kind FloatKind) *Type {
	return in.intern(&Type{kind: FloatingPoint, floatKind: kind,
		key: fmt.Sprintf("float:%d", kind)})
}

func (in *Interner) ComplexType(kind FloatKind) *Type {
	return in.intern(&Type{kind: Complex, floatKind: kind,
		key: fmt.Sprintf("complex:%d", kind)})
}

// StructOf interns a struct. An ExplicitOffset that is less than the
// running offset computed from preceding members is a malformed type
// (§3 invariant; validated by typeinfo, not here, since offset resolution
// needs per-target alignment).
func (in *Interner) StructOf(name string, members []StructMember) *Type {
	var keyParts []string
	for _, m := range members {
		keyParts = append(keyParts, fmt.Sprintf("%s@%v:%d", m.MemberType.key, m.OffsetIsExplicit, m.ExplicitOffset))
	}
	return in.intern(&Type{kind: Struct, name: name, members: members,
		key: "struct:" + name + ":" + strings.Join(keyParts, ",")})
}

func (in *Interner) UnionOf(name string, memberTypes []*Type) *Type {
	members := make([]StructMember, len(memberTypes))
	var keyParts []string
	for i, m := range memberTypes {
		members[i] = StructMember{MemberType: m}
		keyParts = append(keyParts, m.key)
	}
	return in.intern(&Type{kind: Union, name: name, members: members,
		key: "union:" + name + ":" + strings.Join(keyParts, ",")})
}

func (in *Interner) ArrayOf(elem *Type, count int64) *Type {
	return in.intern(&Type{kind: Array, elementType: elem, elementCount: count,
		key: fmt.Sprintf("array:%d:%s", count, elem.key)})
}

func (in *Interner) VectorOf(elem *Type, count int64) *Type {
	return in.intern(&Type{kind: Vector, elementType: elem, elementCount: count,
		key: fmt.Sprintf("vector:%d:%s", count, elem.key)})
}

// FunctionType is the abstract, unlowered signature a front-end presents
// to the ABI facade (§3, §6).
type FunctionType struct {
	ReturnType     *Type
	ArgumentTypes  []*Type
	IsVarArg       bool
	CallingConv    CallingConvention
}

// CallingConvention is the abstract calling-convention tag from §6.
type CallingConvention int

const (
	CDefault CallingConvention = iota
	CppDefault
	CDecl
	StdCall
	FastCall
	ThisCall
	Pascal
	VectorCall
)
