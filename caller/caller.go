// Package caller implements the caller-side half of argument encoding and
// return decoding from spec.md §4.5: given a function's FunctionIRMapping
// and the caller's abstract argument values (each backed by a memory
// address the caller already has, per this module's by-reference argument
// convention), produce the ordered IR argument list a real call instruction
// needs, and decode the IR return value back into the caller's abstract
// result. It generalizes original_source/lib/ValueMapper.cpp's
// CodeGenFunction::EmitCallArgs / EmitCall return handling.
package caller

import (
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/arginfo"
	"github.com/arc-language/llvm-abi/builder"
	"github.com/arc-language/llvm-abi/coerce"
	"github.com/arc-language/llvm-abi/ir"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/arc-language/llvm-abi/mapping"
	"github.com/arc-language/llvm-abi/typeinfo"
)

// Arg is one caller-supplied abstract argument: its abstract type and the
// address of a memory slot already holding a value of that type (the ABI
// layer never receives scalars by raw IR value — it always works from an
// address, matching the teacher's "every argument is backed by an alloca"
// calling convention so that coercion can re-read sub-fields freely).
type Arg struct {
	Type *abitype.Type
	Addr ir.Value
}

// EncodeArgs lowers a caller's abstract arguments into the ordered IR
// argument list a real call instruction should receive, following the
// FunctionIRMapping's slot layout. retSlot is the caller-allocated sret
// destination; it is nil when the return is not Indirect.
func EncodeArgs(b builder.Builder, oracle typeinfo.Oracle, m *mapping.FunctionIRMapping, args []Arg, retSlot ir.Value, bigEndian bool) ([]ir.Value, error) {
	out := make([]ir.Value, m.TotalIRArgs)

	if m.HasStructRetArg {
		out[m.StructRetArgIndex] = retSlot
	}

	for i, am := range m.Arguments {
		ai := am.ArgInfo
		arg := args[i]

		if am.HasPaddingArg {
			out[am.PaddingArgIndex] = ir.Undef(ai.PaddingType())
		}

		first, count := m.IRArgRange(i)

		switch ai.Kind() {
		case arginfo.Ignore, arginfo.InAlloca:
			// no IR operands emitted for this argument
		case arginfo.Indirect:
			slot, err := prepareIndirectArg(b, oracle, ai, arg)
			if err != nil {
				return nil, err
			}
			out[first] = slot
		case arginfo.ExtendInteger, arginfo.Direct:
			argLLVMType, err := oracle.LLVMType(arg.Type)
			if err != nil {
				return nil, err
			}
			coerceTo := ai.CoerceToType()
			srcAddr, srcType := arg.Addr, argLLVMType
			// A nonzero DirectOffset means only the high eightbyte carries
			// real data (the low one classified NoClass); GEP past it and
			// treat what's left as already holding exactly coerceTo,
			// rather than re-diving from the value's base address
			// (§4.2.3/§4.5).
			if off := ai.DirectOffset(); off != 0 {
				srcAddr = b.CreateConstGEP(arg.Addr, uint64(off), "caller.direct.offset")
				srcType = coerceTo
			}
			if st, ok := coerceTo.(*irtype.StructType); ok && ai.Kind() == arginfo.Direct && ai.CanBeFlattened() {
				loaded := coerce.CreateCoercedLoad(b, srcAddr, srcType, st, bigEndian)
				for j := 0; j < count; j++ {
					out[first+j] = b.CreateExtractValue(loaded, j, "caller.flatten")
				}
			} else {
				out[first] = coerce.CreateCoercedLoad(b, srcAddr, srcType, coerceTo, bigEndian)
			}
		case arginfo.Expand:
			leaves, err := expandArg(b, oracle, arg.Addr, arg.Type)
			if err != nil {
				return nil, err
			}
			for j, v := range leaves {
				out[first+j] = v
			}
		}
	}

	return out, nil
}

// prepareIndirectArg materializes the pointer a call's Indirect argument
// slot needs: the caller's own address directly, or — when the ArgInfo
// demands a stricter alignment than the source already has (realign) — a
// freshly-aligned temporary that the value is memcpy'd into (§4.5).
func prepareIndirectArg(b builder.Builder, oracle typeinfo.Oracle, ai arginfo.ArgInfo, arg Arg) (ir.Value, error) {
	if !ai.IndirectRealign() {
		return arg.Addr, nil
	}
	argLLVMType, err := oracle.LLVMType(arg.Type)
	if err != nil {
		return nil, err
	}
	size, err := oracle.AllocSize(arg.Type)
	if err != nil {
		return nil, err
	}
	tmp := b.CreateAlloca(argLLVMType, "indirect.realign")
	b.SetAlignment(tmp, ai.IndirectAlign())
	b.CreateMemCpy(tmp, arg.Addr, size.Bytes(), ai.IndirectAlign())
	return tmp, nil
}

// expandArg recursively flattens an Expand argument's address into its
// ordered leaf IR values, matching mapping.expandedLeafCount's traversal
// (array elements, struct fields, the union's single largest member).
func expandArg(b builder.Builder, oracle typeinfo.Oracle, addr ir.Value, t *abitype.Type) ([]ir.Value, error) {
	switch t.Kind() {
	case abitype.Array:
		elemSize, err := oracle.AllocSize(t.ElementType())
		if err != nil {
			return nil, err
		}
		var out []ir.Value
		for i := int64(0); i < t.ElementCount(); i++ {
			elemAddr := b.CreateConstGEP(addr, uint64(i)*elemSize.Bytes(), "expand.elem")
			leaves, err := expandArg(b, oracle, elemAddr, t.ElementType())
			if err != nil {
				return nil, err
			}
			out = append(out, leaves...)
		}
		return out, nil
	case abitype.Struct:
		structType, err := oracle.LLVMType(t)
		if err != nil {
			return nil, err
		}
		st, _ := structType.(*irtype.StructType)
		var out []ir.Value
		for i, m := range t.Members() {
			fieldAddr := addr
			if st != nil {
				fieldAddr = b.CreateStructGEP(st, addr, i, "expand.field")
			}
			leaves, err := expandArg(b, oracle, fieldAddr, m.MemberType)
			if err != nil {
				return nil, err
			}
			out = append(out, leaves...)
		}
		return out, nil
	case abitype.Union:
		if len(t.Members()) == 0 {
			return nil, nil
		}
		best := t.Members()[0].MemberType
		bestSize, err := oracle.AllocSize(best)
		if err != nil {
			return nil, err
		}
		for _, m := range t.Members()[1:] {
			sz, err := oracle.AllocSize(m.MemberType)
			if err != nil {
				return nil, err
			}
			if sz.Greater(bestSize) {
				best, bestSize = m.MemberType, sz
			}
		}
		return expandArg(b, oracle, addr, best)
	default:
		lt, err := oracle.LLVMType(t)
		if err != nil {
			return nil, err
		}
		return []ir.Value{b.CreateLoad(lt, addr, "expand.leaf")}, nil
	}
}

// DecodeReturn reads a call's IR return value (or, for an Indirect return,
// the sret slot the caller pre-allocated) back into an address holding the
// abstract return type, so the caller can treat every return the same way
// it treats every argument — as a value behind an address.
func DecodeReturn(b builder.Builder, oracle typeinfo.Oracle, ai arginfo.ArgInfo, retType *abitype.Type, irReturn ir.Value, retSlot ir.Value, bigEndian bool) (ir.Value, error) {
	switch ai.Kind() {
	case arginfo.Ignore:
		return nil, nil
	case arginfo.Indirect:
		return retSlot, nil
	case arginfo.ExtendInteger, arginfo.Direct:
		retLLVMType, err := oracle.LLVMType(retType)
		if err != nil {
			return nil, err
		}
		dest := b.CreateAlloca(retLLVMType, "call.ret")
		destPtr, destType := dest, retLLVMType
		if off := ai.DirectOffset(); off != 0 {
			destPtr = b.CreateConstGEP(dest, uint64(off), "call.ret.offset")
			destType = ai.CoerceToType()
		}
		coerce.CreateCoercedStore(b, irReturn, ai.CoerceToType(), destPtr, destType, bigEndian)
		return dest, nil
	default:
		retLLVMType, err := oracle.LLVMType(retType)
		if err != nil {
			return nil, err
		}
		dest := b.CreateAlloca(retLLVMType, "call.ret")
		return dest, nil
	}
}
