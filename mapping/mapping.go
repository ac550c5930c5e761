// Package mapping converts a classified ArgInfo sequence into the concrete
// IR argument layout: a first-index/count per abstract argument, the sret
// and padding slot positions, and the total IR arity (spec.md §4.4). It is
// a direct generalization of original_source/lib/FunctionIRMapping.cpp's
// getFunctionIRMapping, which walks the ArgInfo array once, threading an
// irArgumentNumber counter and special-casing the "sret lands at IR index
// 1" swap.
package mapping

import (
	"github.com/arc-language/llvm-abi/abierr"
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/arginfo"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/arc-language/llvm-abi/typeinfo"
	"github.com/pkg/errors"
)

// ArgumentMapping is one abstract argument's IR-index bookkeeping.
type ArgumentMapping struct {
	ArgInfo         arginfo.ArgInfo
	HasPaddingArg   bool
	PaddingArgIndex int
	FirstIRArg      int
	NumberOfIRArgs  int
}

// FunctionIRMapping is the full per-function IR layout (§3).
type FunctionIRMapping struct {
	ReturnArgInfo     arginfo.ArgInfo
	HasStructRetArg   bool
	StructRetArgIndex int
	HasInallocaArg    bool
	InallocaArgIndex  int
	Arguments         []ArgumentMapping
	TotalIRArgs       int
}

func (m *FunctionIRMapping) IRArgRange(argIndex int) (first, count int) {
	am := m.Arguments[argIndex]
	return am.FirstIRArg, am.NumberOfIRArgs
}

// expandedLeafCount computes the number of scalar IR leaves an Expand
// ArgInfo flattens an abstract type into (§4.4): arrays by element count,
// structs by field, unions by their single largest member.
func expandedLeafCount(oracle typeinfo.Oracle, t *abitype.Type) (int, error) {
	switch t.Kind() {
	case abitype.Array:
		elemCount, err := expandedLeafCount(oracle, t.ElementType())
		if err != nil {
			return 0, err
		}
		return elemCount * int(t.ElementCount()), nil
	case abitype.Struct:
		total := 0
		for _, m := range t.Members() {
			n, err := expandedLeafCount(oracle, m.MemberType)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case abitype.Union:
		if len(t.Members()) == 0 {
			return 0, nil
		}
		best := t.Members()[0].MemberType
		bestSize, err := oracle.AllocSize(best)
		if err != nil {
			return 0, err
		}
		for _, m := range t.Members()[1:] {
			sz, err := oracle.AllocSize(m.MemberType)
			if err != nil {
				return 0, err
			}
			if sz.Greater(bestSize) {
				best, bestSize = m.MemberType, sz
			}
		}
		return expandedLeafCount(oracle, best)
	default:
		return 1, nil
	}
}

// Build computes the FunctionIRMapping for a classified ArgInfo sequence
// (element 0 is the return).
func Build(oracle typeinfo.Oracle, argInfos []arginfo.ArgInfo) (*FunctionIRMapping, error) {
	if len(argInfos) == 0 {
		return nil, errors.Wrap(abierr.InvalidType, "argInfos must include the return slot")
	}

	m := &FunctionIRMapping{ReturnArgInfo: argInfos[0]}

	irArgNumber := 0
	swapThisWithSRet := false

	if m.ReturnArgInfo.Kind() == arginfo.Indirect {
		swapThisWithSRet = m.ReturnArgInfo.SRetAfterThis()
		m.HasStructRetArg = true
		if swapThisWithSRet {
			m.StructRetArgIndex = 1
		} else {
			m.StructRetArgIndex = irArgNumber
			irArgNumber++
		}
	}

	for i := 1; i < len(argInfos); i++ {
		ai := argInfos[i]
		am := ArgumentMapping{ArgInfo: ai}

		if ai.HasPadding() {
			am.HasPaddingArg = true
			am.PaddingArgIndex = irArgNumber
			irArgNumber++
		}

		switch ai.Kind() {
		case arginfo.ExtendInteger, arginfo.Direct:
			coerce := ai.CoerceToType()
			if ai.Kind() == arginfo.Direct && ai.CanBeFlattened() {
				if st, ok := coerce.(*irtype.StructType); ok {
					am.NumberOfIRArgs = len(st.Fields)
				} else {
					am.NumberOfIRArgs = 1
				}
			} else {
				am.NumberOfIRArgs = 1
			}
		case arginfo.Indirect:
			am.NumberOfIRArgs = 1
		case arginfo.Ignore, arginfo.InAlloca:
			am.NumberOfIRArgs = 0
		case arginfo.Expand:
			n, err := expandedLeafCount(oracle, ai.ExpandToType())
			if err != nil {
				return nil, err
			}
			am.NumberOfIRArgs = n
		}

		if am.NumberOfIRArgs > 0 {
			am.FirstIRArg = irArgNumber
			irArgNumber += am.NumberOfIRArgs
		}

		// Skip over the sret parameter when it lands second — already
		// accounted for above.
		if irArgNumber == 1 && swapThisWithSRet {
			irArgNumber++
		}

		m.Arguments = append(m.Arguments, am)
	}

	m.TotalIRArgs = irArgNumber
	return m, nil
}
