package mapping

import (
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/arginfo"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/arc-language/llvm-abi/typeinfo"
)

// BuildFunctionType constructs the lowered IR function type from a
// FunctionIRMapping: the IR return type, the sret pointer slot, padding
// slots and per-argument IR types in order (§4.4), generalizing
// original_source/lib/FunctionIRMapping.cpp's getFunctionType.
func BuildFunctionType(oracle typeinfo.Oracle, fnType *abitype.FunctionType, m *FunctionIRMapping) (*irtype.FunctionType, error) {
	var resultType irtype.Type
	switch m.ReturnArgInfo.Kind() {
	case arginfo.ExtendInteger, arginfo.Direct:
		resultType = m.ReturnArgInfo.CoerceToType()
	case arginfo.InAlloca:
		if m.ReturnArgInfo.InAllocaSRet() {
			pointee, err := oracle.LLVMType(fnType.ReturnType)
			if err != nil {
				return nil, err
			}
			resultType = irtype.NewPointer(pointee)
		} else {
			resultType = irtype.Void
		}
	case arginfo.Indirect, arginfo.Ignore:
		resultType = irtype.Void
	default:
		resultType = irtype.Void
	}

	argTypes := make([]irtype.Type, m.TotalIRArgs)

	if m.HasStructRetArg {
		pointee, err := oracle.LLVMType(fnType.ReturnType)
		if err != nil {
			return nil, err
		}
		argTypes[m.StructRetArgIndex] = irtype.NewPointer(pointee)
	}

	for i, am := range m.Arguments {
		ai := am.ArgInfo
		argType := fnType.ArgumentTypes[i]

		if am.HasPaddingArg {
			argTypes[am.PaddingArgIndex] = ai.PaddingType()
		}

		first, count := m.IRArgRange(i)
		switch ai.Kind() {
		case arginfo.Ignore, arginfo.InAlloca:
			// no IR slots
		case arginfo.Indirect:
			pointee, err := oracle.LLVMType(argType)
			if err != nil {
				return nil, err
			}
			argTypes[first] = irtype.NewPointer(pointee)
		case arginfo.ExtendInteger, arginfo.Direct:
			coerce := ai.CoerceToType()
			if st, ok := coerce.(*irtype.StructType); ok && ai.Kind() == arginfo.Direct && ai.CanBeFlattened() {
				for j := 0; j < count; j++ {
					argTypes[first+j] = st.Fields[j]
				}
			} else {
				argTypes[first] = coerce
			}
		case arginfo.Expand:
			leaves, err := expandLeafIRTypes(oracle, ai.ExpandToType())
			if err != nil {
				return nil, err
			}
			for j, lt := range leaves {
				argTypes[first+j] = lt
			}
		}
	}

	return &irtype.FunctionType{ReturnType: resultType, ArgumentTypes: argTypes, VarArg: fnType.IsVarArg}, nil
}

// expandLeafIRTypes mirrors expandedLeafCount but returns the IR type of
// each flattened leaf, in order.
func expandLeafIRTypes(oracle typeinfo.Oracle, t *abitype.Type) ([]irtype.Type, error) {
	switch t.Kind() {
	case abitype.Array:
		var out []irtype.Type
		for i := int64(0); i < t.ElementCount(); i++ {
			leaves, err := expandLeafIRTypes(oracle, t.ElementType())
			if err != nil {
				return nil, err
			}
			out = append(out, leaves...)
		}
		return out, nil
	case abitype.Struct:
		var out []irtype.Type
		for _, m := range t.Members() {
			leaves, err := expandLeafIRTypes(oracle, m.MemberType)
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
		return expandLeafIRTypes(oracle, best)
	default:
		lt, err := oracle.LLVMType(t)
		if err != nil {
			return nil, err
		}
		return []irtype.Type{lt}, nil
	}
}

// BuildAttrSet attaches sret/byval/signext-zeroext/inreg/noalias-nocapture
// attributes to the lowered layout (§4.4), preserving existing attributes
// except clearing readnone/readonly whenever any argument is Indirect (the
// hidden pointer observes memory).
func BuildAttrSet(fnType *abitype.FunctionType, m *FunctionIRMapping, existing *irtype.AttrSet) *irtype.AttrSet {
	attrs := irtype.NewAttrSet(m.TotalIRArgs)
	if existing != nil {
		attrs.Return = existing.Return
		for i := 0; i < len(attrs.Args) && i < len(existing.Args); i++ {
			attrs.Args[i] = existing.Args[i]
		}
	}

	anyIndirect := m.ReturnArgInfo.Kind() == arginfo.Indirect

	if m.HasStructRetArg {
		attrs.Args[m.StructRetArgIndex] = attrs.Args[m.StructRetArgIndex].With(irtype.AttrSRet)
	}
	switch m.ReturnArgInfo.Kind() {
	case arginfo.ExtendInteger:
		if signednessOf(fnType.ReturnType) {
			attrs.Return = attrs.Return.With(irtype.AttrSExt)
		} else {
			attrs.Return = attrs.Return.With(irtype.AttrZExt)
		}
	}
	if m.ReturnArgInfo.InReg() {
		attrs.Return = attrs.Return.With(irtype.AttrInReg)
	}

	for i, am := range m.Arguments {
		ai := am.ArgInfo
		first, count := m.IRArgRange(i)
		argType := fnType.ArgumentTypes[i]

		switch ai.Kind() {
		case arginfo.Indirect:
			anyIndirect = true
			if ai.IndirectByVal() {
				attrs.Args[first] = attrs.Args[first].With(irtype.AttrByVal)
				attrs.ByValAlign[first] = ai.IndirectAlign()
			}
			if argType.IsStruct() || argType.IsArray() || argType.IsUnion() {
				attrs.Args[first] = attrs.Args[first].With(irtype.AttrNoAlias).With(irtype.AttrNoCapture)
			}
			if ai.InReg() {
				attrs.Args[first] = attrs.Args[first].With(irtype.AttrInReg)
			}
		case arginfo.ExtendInteger:
			if signednessOf(argType) {
				attrs.Args[first] = attrs.Args[first].With(irtype.AttrSExt)
			} else {
				attrs.Args[first] = attrs.Args[first].With(irtype.AttrZExt)
			}
			if ai.InReg() {
				attrs.Args[first] = attrs.Args[first].With(irtype.AttrInReg)
			}
		case arginfo.Direct:
			if ai.InReg() {
				for j := 0; j < count; j++ {
					attrs.Args[first+j] = attrs.Args[first+j].With(irtype.AttrInReg)
				}
			}
		}
	}

	if anyIndirect {
		attrs.Return = attrs.Return.Without(irtype.AttrReadNone).Without(irtype.AttrReadOnly)
	}

	return attrs
}

func signednessOf(t *abitype.Type) bool {
	switch t.Kind() {
	case abitype.FixedWidthInteger:
		_, signed := t.FixedWidth()
		return signed
	case abitype.UnspecifiedWidthInteger:
		switch t.IntegerKind() {
		case abitype.SChar, abitype.Short, abitype.Int, abitype.Long, abitype.LongLong,
			abitype.SSizeT, abitype.PtrDiffT, abitype.IntPtrT:
			return true
		default:
			return false
		}
	default:
		return false
	}
}
