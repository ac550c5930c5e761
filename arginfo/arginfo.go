// Package arginfo implements the ArgInfo sum type from spec.md §3: a
// tagged description of how one abstract argument or return value crosses
// a lowered function boundary. Per spec.md §9 ("Mutable ArgInfo via
// union"), this is a proper Go sum type — a kind tag plus an unexported
// payload — built exclusively through constructor functions; there are no
// setters; every "modification" in the original (e.g. setInReg) is
// replaced by a constructor taking the full payload up front, following
// original_source/include/llvm-abi/ArgInfo.hpp's getDirect/getIndirect/...
// factory functions one-for-one.
package arginfo

import (
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/irtype"
)

type Kind int

const (
	Direct Kind = iota
	ExtendInteger
	Indirect
	Ignore
	Expand
	InAlloca
)

func (k Kind) String() string {
	switch k {
	case Direct:
		return "Direct"
	case ExtendInteger:
		return "ExtendInteger"
	case Indirect:
		return "Indirect"
	case Ignore:
		return "Ignore"
	case Expand:
		return "Expand"
	case InAlloca:
		return "InAlloca"
	default:
		return "Unknown"
	}
}

// ArgInfo is immutable once constructed; every field is read through an
// accessor method rather than exported directly, matching the teacher's
// "assert-on-kind accessor" style but replacing the assertion with an
// accessor that is only ever called by code that already switched on Kind().
type ArgInfo struct {
	kind Kind

	// Direct / ExtendInteger
	coerceTo       irtype.Type
	directOffset   uint32
	canBeFlattened bool

	// Indirect
	indirectAlign   uint32
	indirectByVal   bool
	indirectRealign bool
	sretAfterThis   bool

	// InAlloca
	allocaFieldIndex uint32
	inAllocaSRet     bool

	// Expand — flattening needs the abstract source shape (struct fields,
	// array elements, union members), not the already-lowered IR shape,
	// so expandTo is the abstract type rather than irtype.Type.
	expandTo     *abitype.Type
	paddingInReg bool

	// shared
	padding irtype.Type
	inReg   bool
}

func (a ArgInfo) Kind() Kind { return a.kind }

func (a ArgInfo) CoerceToType() irtype.Type  { return a.coerceTo }
func (a ArgInfo) DirectOffset() uint32       { return a.directOffset }
func (a ArgInfo) CanBeFlattened() bool       { return a.canBeFlattened }
func (a ArgInfo) IndirectAlign() uint32      { return a.indirectAlign }
func (a ArgInfo) IndirectByVal() bool        { return a.indirectByVal }
func (a ArgInfo) IndirectRealign() bool      { return a.indirectRealign }
func (a ArgInfo) SRetAfterThis() bool        { return a.sretAfterThis }
func (a ArgInfo) AllocaFieldIndex() uint32   { return a.allocaFieldIndex }
func (a ArgInfo) InAllocaSRet() bool         { return a.inAllocaSRet }
func (a ArgInfo) ExpandToType() *abitype.Type { return a.expandTo }
func (a ArgInfo) PaddingInReg() bool         { return a.paddingInReg }
func (a ArgInfo) PaddingType() irtype.Type   { return a.padding }
func (a ArgInfo) InReg() bool                { return a.inReg }

// HasPadding reports whether a distinct IR padding slot precedes this
// argument's real IR slot(s) (§4.4).
func (a ArgInfo) HasPadding() bool {
	return a.padding != nil && a.padding != irtype.Void
}

func GetDirect(t irtype.Type, offset uint32, padding irtype.Type, canBeFlattened bool) ArgInfo {
	if padding == nil {
		padding = irtype.Void
	}
	return ArgInfo{kind: Direct, coerceTo: t, directOffset: offset, padding: padding, canBeFlattened: canBeFlattened}
}

func GetDirectInReg(t irtype.Type) ArgInfo {
	a := GetDirect(t, 0, irtype.Void, true)
	a.inReg = true
	return a
}

func GetExtend(t irtype.Type) ArgInfo {
	return ArgInfo{kind: ExtendInteger, coerceTo: t, padding: irtype.Void}
}

func GetExtendInReg(t irtype.Type) ArgInfo {
	a := GetExtend(t)
	a.inReg = true
	return a
}

func GetIgnore() ArgInfo {
	return ArgInfo{kind: Ignore, padding: irtype.Void}
}

func GetIndirect(align uint32, byVal, realign bool, padding irtype.Type) ArgInfo {
	if padding == nil {
		padding = irtype.Void
	}
	return ArgInfo{kind: Indirect, indirectAlign: align, indirectByVal: byVal,
		indirectRealign: realign, padding: padding}
}

func GetIndirectInReg(align uint32, byVal, realign bool) ArgInfo {
	a := GetIndirect(align, byVal, realign, irtype.Void)
	a.inReg = true
	return a
}

// WithSRetAfterThis marks the sret slot as landing after the implicit
// `this`/first argument instead of at index 0 (§3 ArgInfo, §4.4).
func (a ArgInfo) WithSRetAfterThis() ArgInfo {
	a.sretAfterThis = true
	return a
}

func GetInAlloca(fieldIndex uint32) ArgInfo {
	return ArgInfo{kind: InAlloca, allocaFieldIndex: fieldIndex, padding: irtype.Void}
}

func (a ArgInfo) WithInAllocaSRet() ArgInfo {
	a.inAllocaSRet = true
	return a
}

func GetExpand(t *abitype.Type) ArgInfo {
	return ArgInfo{kind: Expand, expandTo: t, padding: irtype.Void}
}

func GetExpandWithPadding(t *abitype.Type, paddingInReg bool, padding irtype.Type) ArgInfo {
	a := GetExpand(t)
	a.paddingInReg = paddingInReg
	a.padding = padding
	return a
}
