package x86_64

import (
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/arginfo"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/arc-language/llvm-abi/typeinfo"
)

// RegisterBudget tracks the integer and SSE register counts still available
// for the current function, per §4.2.5: the classifier decides Direct vs
// Indirect per argument by checking whether enough registers remain for the
// eightbytes that argument would consume, and only commits the decrement
// once the argument is actually placed in registers.
type RegisterBudget struct {
	IntegerRegsFree int
	SseRegsFree     int
}

// DefaultRegisterBudget is the x86_64 System V register file available to
// ordinary (non-varargs-probe) calls: 6 integer argument registers, 8 SSE.
func DefaultRegisterBudget() RegisterBudget {
	return RegisterBudget{IntegerRegsFree: 6, SseRegsFree: 8}
}

// eightbyteCounts reports how many of each register class a Classification
// consumes.
func (c Classification) eightbyteCounts() (ints, sses int) {
	for _, cl := range c.classes {
		switch cl {
		case Integer:
			ints++
		case Sse:
			sses++
			// SseUp does not consume an additional register; it rides
			// along with the preceding Sse eightbyte in the same vector
			// register (§4.2.4).
		}
	}
	return ints, sses
}

// eightbyteIRType picks the IR type for one eightbyte slot of a
// classification, given the source abstract type to recover byte-level
// detail lost by the coarse (Integer/Sse/...) tag — §4.2.4.
func eightbyteIRType(oracle typeinfo.Oracle, cls Class, t *abitype.Type, eightbyteIndex int, allocBytes uint64) (irtype.Type, error) {
	switch cls {
	case NoClass:
		return irtype.Void, nil
	case Integer:
		// An integer eightbyte that isn't the full 8 bytes wide (the tail
		// of a struct, e.g.) is represented at its natural narrower width.
		remaining := allocBytes - uint64(eightbyteIndex)*8
		if remaining >= 8 {
			return irtype.I64, nil
		}
		return irtype.I(int(remaining) * 8), nil
	case Sse:
		return sseEightbyteType(oracle, t, eightbyteIndex, allocBytes)
	case X87:
		return irtype.FP80, nil
	default:
		// ComplexX87, X87Up, SseUp, Memory never head a standalone IR
		// leaf on their own; callers skip them when building the coerce
		// type.
		return nil, nil
	}
}

// sseEightbyteType recovers the precise IR type for one Sse-classified
// eightbyte by inspecting which floating-point fields of t actually occupy
// that eightbyte's byte window (§4.2.4): two adjacent 4-byte floats pack
// into <2 x float>, a double (or any eightbyte-filling tail) becomes
// double, and a lone narrower float becomes float.
func sseEightbyteType(oracle typeinfo.Oracle, t *abitype.Type, eightbyteIndex int, allocBytes uint64) (irtype.Type, error) {
	windowStart := uint64(eightbyteIndex) * 8
	windowEnd := windowStart + 8

	var leaves []floatLeaf
	if err := collectFloatLeaves(oracle, t, 0, windowStart, windowEnd, &leaves); err != nil {
		return nil, err
	}

	if len(leaves) == 2 &&
		leaves[0].kind == abitype.Float && leaves[1].kind == abitype.Float &&
		leaves[1].offset == leaves[0].offset+4 {
		return irtype.NewVector(irtype.Float, 2), nil
	}

	remaining := allocBytes - windowStart
	if remaining >= 8 {
		return irtype.Double, nil
	}
	if len(leaves) == 1 && leaves[0].kind == abitype.Double {
		return irtype.Double, nil
	}
	return irtype.Float, nil
}

// coerceType builds the IR "coerce to" type for a non-Memory classification:
// a sequence of eightbyte-sized IR scalars, wrapped in a struct when there
// is more than one (§4.2.4). The returned offset is nonzero only when the
// single surviving part came from the high eightbyte while the low one
// classified NoClass (e.g. a struct with a field only at explicit offset
// 8 and nothing at offset 0) — §4.2.3/§4.5's "Direct with a direct_offset"
// case, which must GEP past the unused low eightbyte on the load/store
// side rather than start from the value's base address.
func coerceType(oracle typeinfo.Oracle, c Classification, t *abitype.Type) (irtype.Type, uint32, bool, error) {
	allocSize, err := oracle.AllocSize(t)
	if err != nil {
		return nil, 0, false, err
	}
	allocBytes := allocSize.Bytes()

	var parts []irtype.Type
	var offsets []uint32
	for i, cls := range c.classes {
		if cls == NoClass || cls == SseUp || cls == X87Up || cls == ComplexX87 {
			continue
		}
		it, err := eightbyteIRType(oracle, cls, t, i, allocBytes)
		if err != nil {
			return nil, 0, false, err
		}
		if it != nil {
			parts = append(parts, it)
			offsets = append(offsets, uint32(i)*8)
		}
	}

	if len(parts) == 0 {
		return irtype.Void, 0, false, nil
	}
	if len(parts) == 1 {
		return parts[0], offsets[0], false, nil
	}
	return irtype.NewStruct("", parts, false), 0, true, nil
}

// ClassifyArgument implements §4.2.3's per-argument lowering policy: given
// the eightbyte classification of an abstract type and the register budget
// remaining, decide the ArgInfo and commit the registers it consumes.
func ClassifyArgument(oracle typeinfo.Oracle, t *abitype.Type, budget *RegisterBudget, isReturn bool) (arginfo.ArgInfo, error) {
	if t.IsVoid() {
		return arginfo.GetIgnore(), nil
	}

	c, err := Classify(oracle, t, true)
	if err != nil {
		return arginfo.ArgInfo{}, err
	}

	if c.IsMemory() {
		if isReturn {
			return arginfo.GetIndirect(0, false, false, nil), nil
		}
		align, err := oracle.RequiredAlign(t)
		if err != nil {
			return arginfo.ArgInfo{}, err
		}
		// Large-alignment aggregates (>16 bytes natural align, e.g. a
		// struct containing a 256-bit vector) are passed by a realigned
		// hidden pointer; ordinary Memory-class aggregates are passed
		// byval at their natural alignment (§4.2.3).
		if align > 16 {
			return arginfo.GetIndirect(uint32(align), false, true, nil), nil
		}
		return arginfo.GetIndirect(uint32(align), true, false, nil), nil
	}

	// X87/X87Up/ComplexX87 (long double, complex long double) return
	// through the x87 register stack and stay Direct as a return value,
	// but as an argument there is no x87-argument convention to place
	// them in — they always go through memory (§4.2.3).
	if !isReturn && (isX87ish(c.Low()) || isX87ish(c.High())) {
		align, err := oracle.RequiredAlign(t)
		if err != nil {
			return arginfo.ArgInfo{}, err
		}
		return arginfo.GetIndirect(uint32(align), true, false, nil), nil
	}

	ints, sses := c.eightbyteCounts()
	if !isReturn {
		if ints > budget.IntegerRegsFree || sses > budget.SseRegsFree {
			align, err := oracle.RequiredAlign(t)
			if err != nil {
				return arginfo.ArgInfo{}, err
			}
			return arginfo.GetIndirect(uint32(align), true, false, nil), nil
		}
		budget.IntegerRegsFree -= ints
		budget.SseRegsFree -= sses
	}

	coerce, directOffset, canFlatten, err := coerceType(oracle, c, t)
	if err != nil {
		return arginfo.ArgInfo{}, err
	}

	if t.IsPromotableInteger() {
		return arginfo.GetExtend(coerce), nil
	}

	return arginfo.GetDirect(coerce, directOffset, nil, canFlatten), nil
}

// ClassifyFunction classifies a whole abstract function signature into the
// ordered ArgInfo sequence (element 0 is the return value), applying the
// integer/SSE register budget across arguments in declaration order and
// handling the indirect-return "consumes one integer register" rule
// (§4.2.5).
func ClassifyFunction(oracle typeinfo.Oracle, fnType *abitype.FunctionType) ([]arginfo.ArgInfo, error) {
	budget := DefaultRegisterBudget()

	retInfo, err := ClassifyArgument(oracle, fnType.ReturnType, &budget, true)
	if err != nil {
		return nil, err
	}
	if retInfo.Kind() == arginfo.Indirect {
		// The hidden sret pointer is itself passed in an integer
		// register and must be deducted from the budget before
		// argument classification begins.
		budget.IntegerRegsFree--
	}

	infos := make([]arginfo.ArgInfo, 0, len(fnType.ArgumentTypes)+1)
	infos = append(infos, retInfo)

	for _, argType := range fnType.ArgumentTypes {
		ai, err := ClassifyArgument(oracle, argType, &budget, false)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ai)
	}

	return infos, nil
}
