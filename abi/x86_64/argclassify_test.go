package x86_64

import (
	"testing"

	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/arginfo"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/arc-language/llvm-abi/typeinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyArgumentVoidIsIgnore(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	ai, err := ClassifyArgument(oracle, in.VoidType(), &budget, false)
	require.NoError(t, err)
	assert.Equal(t, arginfo.Ignore, ai.Kind())
}

func TestClassifyArgumentPromotableIntegerExtends(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	ai, err := ClassifyArgument(oracle, in.UnspecifiedInt(abitype.Bool), &budget, false)
	require.NoError(t, err)
	assert.Equal(t, arginfo.ExtendInteger, ai.Kind())
}

func TestClassifyArgumentOrdinaryIntegerIsDirect(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	ai, err := ClassifyArgument(oracle, in.UnspecifiedInt(abitype.Int), &budget, false)
	require.NoError(t, err)
	assert.Equal(t, arginfo.Direct, ai.Kind())
}

func TestClassifyArgumentLargeStructIsIndirectByVal(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	big := in.ArrayOf(in.UnspecifiedInt(abitype.Long), 8) // 64 bytes, Memory class
	ai, err := ClassifyArgument(oracle, big, &budget, false)
	require.NoError(t, err)
	assert.Equal(t, arginfo.Indirect, ai.Kind())
	assert.True(t, ai.IndirectByVal())
}

func TestClassifyArgumentExhaustsIntegerRegisterBudget(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := RegisterBudget{IntegerRegsFree: 0, SseRegsFree: 8}

	ai, err := ClassifyArgument(oracle, in.UnspecifiedInt(abitype.Long), &budget, false)
	require.NoError(t, err)
	assert.Equal(t, arginfo.Indirect, ai.Kind())
	assert.True(t, ai.IndirectByVal())
}

func TestClassifyArgumentCommitsRegisterBudget(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	_, err := ClassifyArgument(oracle, in.UnspecifiedInt(abitype.Long), &budget, false)
	require.NoError(t, err)
	assert.Equal(t, 5, budget.IntegerRegsFree)
	assert.Equal(t, 8, budget.SseRegsFree)

	_, err = ClassifyArgument(oracle, in.FloatType(abitype.Double), &budget, false)
	require.NoError(t, err)
	assert.Equal(t, 5, budget.IntegerRegsFree)
	assert.Equal(t, 7, budget.SseRegsFree)
}

func TestClassifyFunctionSpillsSeventhIntegerArgToMemory(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()

	argTypes := make([]*abitype.Type, 7)
	for i := range argTypes {
		argTypes[i] = in.UnspecifiedInt(abitype.Long)
	}
	fn := &abitype.FunctionType{ReturnType: in.VoidType(), ArgumentTypes: argTypes}

	infos, err := ClassifyFunction(oracle, fn)
	require.NoError(t, err)
	require.Len(t, infos, 8) // return + 7 args

	for i := 1; i <= 6; i++ {
		assert.Equalf(t, arginfo.Direct, infos[i].Kind(), "arg[%d]", i-1)
	}
	assert.Equal(t, arginfo.Indirect, infos[7].Kind())
}

func TestClassifyFunctionIndirectReturnConsumesIntegerRegister(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()

	// A struct bigger than two eightbytes forces Memory-class return,
	// which burns the first integer register for the hidden sret pointer.
	bigReturn := in.ArrayOf(in.UnspecifiedInt(abitype.Long), 8)
	argTypes := make([]*abitype.Type, 6)
	for i := range argTypes {
		argTypes[i] = in.UnspecifiedInt(abitype.Long)
	}
	fn := &abitype.FunctionType{ReturnType: bigReturn, ArgumentTypes: argTypes}

	infos, err := ClassifyFunction(oracle, fn)
	require.NoError(t, err)
	assert.Equal(t, arginfo.Indirect, infos[0].Kind())

	// Only 5 integer registers remain for arguments, so the 6th arg spills.
	for i := 1; i <= 5; i++ {
		assert.Equalf(t, arginfo.Direct, infos[i].Kind(), "arg[%d]", i-1)
	}
	assert.Equal(t, arginfo.Indirect, infos[6].Kind())
}

// void({Float,Float}) must lower its single argument to void(<2 x float>):
// two adjacent 4-byte floats sharing one eightbyte pack into a vector, not
// a plain double.
func TestClassifyArgumentTwoFloatStructCoercesToFloatVector(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	st := in.StructOf("", []abitype.StructMember{
		{MemberType: in.FloatType(abitype.Float)},
		{MemberType: in.FloatType(abitype.Float)},
	})

	ai, err := ClassifyArgument(oracle, st, &budget, false)
	require.NoError(t, err)
	require.Equal(t, arginfo.Direct, ai.Kind())
	assert.Equal(t, "<2 x float>", ai.CoerceToType().String())
}

// Float({Float,Float,Float}) must lower to float(<2 x float>, float): the
// first eightbyte packs the first two floats into a vector, the second
// eightbyte is the lone tail float.
func TestClassifyArgumentThreeFloatStructCoercesToVectorPlusFloat(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	st := in.StructOf("", []abitype.StructMember{
		{MemberType: in.FloatType(abitype.Float)},
		{MemberType: in.FloatType(abitype.Float)},
		{MemberType: in.FloatType(abitype.Float)},
	})

	ai, err := ClassifyArgument(oracle, st, &budget, false)
	require.NoError(t, err)
	require.Equal(t, arginfo.Direct, ai.Kind())
	require.True(t, ai.CanBeFlattened())

	coerceSt, ok := ai.CoerceToType().(*irtype.StructType)
	require.True(t, ok)
	require.Len(t, coerceSt.Fields, 2)
	assert.Equal(t, "<2 x float>", coerceSt.Fields[0].String())
	assert.Equal(t, "float", coerceSt.Fields[1].String())
}

// A single 8-byte double must still coerce to plain double, not a vector.
func TestClassifyArgumentSingleDoubleCoercesToDouble(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	ai, err := ClassifyArgument(oracle, in.FloatType(abitype.Double), &budget, false)
	require.NoError(t, err)
	assert.Equal(t, "double", ai.CoerceToType().String())
}

// void(LongDouble) must pass the long double argument through memory
// (Indirect), not as a Direct fp80 value — the x87 argument convention
// only exists for return values.
func TestClassifyArgumentLongDoubleArgumentIsIndirect(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	ai, err := ClassifyArgument(oracle, in.FloatType(abitype.LongDouble), &budget, false)
	require.NoError(t, err)
	assert.Equal(t, arginfo.Indirect, ai.Kind())
}

// A long double RETURN value stays Direct fp80: the asymmetry is specific
// to argument position.
func TestClassifyArgumentLongDoubleReturnIsDirectFP80(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	ai, err := ClassifyArgument(oracle, in.FloatType(abitype.LongDouble), &budget, true)
	require.NoError(t, err)
	require.Equal(t, arginfo.Direct, ai.Kind())
	assert.Equal(t, "x86_fp80", ai.CoerceToType().String())
}

// A struct with a field only at explicit offset 8 (nothing at offset 0)
// classifies its low eightbyte NoClass and its high eightbyte Integer; the
// single surviving coerce part must carry a direct_offset of 8 so the
// caller/callee GEP past the unused low eightbyte instead of reading from
// the struct's base address.
func TestClassifyArgumentHighEightbyteOnlyRecordsDirectOffset(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	budget := DefaultRegisterBudget()

	st := in.StructOf("", []abitype.StructMember{
		{MemberType: in.UnspecifiedInt(abitype.Int), OffsetIsExplicit: true, ExplicitOffset: 8},
	})

	ai, err := ClassifyArgument(oracle, st, &budget, false)
	require.NoError(t, err)
	require.Equal(t, arginfo.Direct, ai.Kind())
	assert.Equal(t, uint32(8), ai.DirectOffset())
}
