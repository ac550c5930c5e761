// Package x86 implements the simplified i386 argument-lowering policy from
// spec.md §4.3: no eightbyte state machine, just a direct
// size/register-count/platform-return-rule decision per argument,
// generalizing original_source's X86_32ABI.cpp classifyArgumentType /
// classifyReturnType.
package x86

import (
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/arginfo"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/arc-language/llvm-abi/typeinfo"
)

// RegisterBudget tracks the integer registers left for the first few
// arguments. Only fastcall (2 registers) and thiscall (1 register) have a
// budget; cdecl, stdcall and vectorcall start with zero register
// arguments and never pass an argument InReg (§4.3).
type RegisterBudget struct {
	IntegerRegsFree int
}

// CallKind selects which of i386's several register-argument conventions
// applies (§4.3 "regparm/fastcall/vectorcall register budget").
type CallKind int

const (
	CDecl CallKind = iota
	StdCall
	FastCall
	ThisCall
	VectorCall
)

// DefaultRegisterBudget returns the initial integer-register budget for a
// given i386 calling convention.
func DefaultRegisterBudget(kind CallKind) RegisterBudget {
	switch kind {
	case FastCall:
		return RegisterBudget{IntegerRegsFree: 2}
	case ThisCall:
		return RegisterBudget{IntegerRegsFree: 1}
	default:
		return RegisterBudget{IntegerRegsFree: 0}
	}
}

// ClassifyArgument implements §4.3's per-argument policy: scalars that fit
// in one machine word go Direct (consuming a register if the budget
// allows, else going to the stack — both are IR-identical "Direct", the
// budget only gates attribute InReg), and aggregates are either expanded
// into their flat primitive fields (under vectorcall, when the aggregate is
// at most 32 bytes and every leaf is an integer, float or pointer; unions
// are never expanded, and leaves of mixed kinds are not rejected) or passed
// Indirect byval.
func ClassifyArgument(oracle *typeinfo.X86, t *abitype.Type, budget *RegisterBudget, kind CallKind) (arginfo.ArgInfo, error) {
	if t.IsVoid() {
		return arginfo.GetIgnore(), nil
	}

	if t.IsStruct() || t.IsUnion() || t.IsArray() {
		allocSize, err := oracle.AllocSize(t)
		if err != nil {
			return arginfo.ArgInfo{}, err
		}
		align, err := oracle.RequiredAlign(t)
		if err != nil {
			return arginfo.ArgInfo{}, err
		}

		if kind == VectorCall && isAllRegisterSizedPrimitives(t) && allocSize.Bytes() <= 32 {
			return arginfo.GetExpand(t), nil
		}

		return arginfo.GetIndirect(uint32(align), true, false, nil), nil
	}

	if t.IsPromotableInteger() {
		bits, _ := oracle.ResolveInteger(t.IntegerKind())
		it := irtype.I(bits)
		inReg := tryConsumeRegister(budget, kind)
		if inReg {
			return arginfo.GetExtendInReg(it), nil
		}
		return arginfo.GetExtend(it), nil
	}

	lt, err := oracle.LLVMType(t)
	if err != nil {
		return arginfo.ArgInfo{}, err
	}

	inReg := tryConsumeRegister(budget, kind)
	if inReg {
		return arginfo.GetDirectInReg(lt), nil
	}
	return arginfo.GetDirect(lt, 0, nil, false), nil
}

func tryConsumeRegister(budget *RegisterBudget, kind CallKind) bool {
	if kind != FastCall && kind != ThisCall {
		return false
	}
	if budget.IntegerRegsFree <= 0 {
		return false
	}
	budget.IntegerRegsFree--
	return true
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

// ClassifyReturn implements §4.3's return-value policy: scalars return
// Direct; structs return in registers on Darwin/FreeBSD/Win32 when they fit
// the ReturnsInRegisters rule, else via hidden sret pointer (always the
// Linux path).
func ClassifyReturn(oracle *typeinfo.X86, t *abitype.Type) (arginfo.ArgInfo, error) {
	if t.IsVoid() {
		return arginfo.GetIgnore(), nil
	}

	if t.IsStruct() || t.IsUnion() || t.IsArray() {
		allocSize, err := oracle.AllocSize(t)
		if err != nil {
			return arginfo.ArgInfo{}, err
		}
		if oracle.ReturnsInRegisters(t, allocSize.Bits()) {
			lt, err := oracle.LLVMType(t)
			if err != nil {
				return arginfo.ArgInfo{}, err
			}
			return arginfo.GetDirect(lt, 0, nil, false), nil
		}
		align, err := oracle.RequiredAlign(t)
		if err != nil {
			return arginfo.ArgInfo{}, err
		}
		return arginfo.GetIndirect(uint32(align), false, false, nil), nil
	}

	lt, err := oracle.LLVMType(t)
	if err != nil {
		return arginfo.ArgInfo{}, err
	}
	if t.IsPromotableInteger() {
		bits, _ := oracle.ResolveInteger(t.IntegerKind())
		return arginfo.GetExtend(irtype.I(bits)), nil
	}
	return arginfo.GetDirect(lt, 0, nil, false), nil
}

// ClassifyFunction classifies a whole i386 function signature (§4.3).
func ClassifyFunction(oracle *typeinfo.X86, fnType *abitype.FunctionType, kind CallKind) ([]arginfo.ArgInfo, error) {
	retInfo, err := ClassifyReturn(oracle, fnType.ReturnType)
	if err != nil {
		return nil, err
	}

	budget := DefaultRegisterBudget(kind)
	if retInfo.Kind() == arginfo.Indirect {
		// The hidden sret pointer itself occupies the first available
		// register slot under fastcall/thiscall.
		tryConsumeRegister(&budget, kind)
	}

	infos := make([]arginfo.ArgInfo, 0, len(fnType.ArgumentTypes)+1)
	infos = append(infos, retInfo)

	for _, argType := range fnType.ArgumentTypes {
		ai, err := ClassifyArgument(oracle, argType, &budget, kind)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ai)
	}

	return infos, nil
}
