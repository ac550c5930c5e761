package x86_64

import (
	"testing"

	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/typeinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeIsCommutativeAndAssociative(t *testing.T) {
	classes := []Class{NoClass, Integer, Sse, SseUp, X87, X87Up, ComplexX87, Memory}
	for _, a := range classes {
		for _, b := range classes {
			assert.Equalf(t, merge(a, b), merge(b, a), "merge(%v,%v) != merge(%v,%v)", a, b, b, a)
		}
	}
	for _, a := range classes {
		for _, b := range classes {
			for _, c := range classes {
				left := merge(merge(a, b), c)
				right := merge(a, merge(b, c))
				assert.Equalf(t, left, right, "merge not associative for %v,%v,%v", a, b, c)
			}
		}
	}
}

func TestMergeMemoryDominates(t *testing.T) {
	for _, c := range []Class{NoClass, Integer, Sse, SseUp, X87, X87Up, ComplexX87} {
		assert.Equal(t, Memory, merge(Memory, c))
	}
}

func TestMergeNoClassIsIdentity(t *testing.T) {
	for _, c := range []Class{Integer, Sse, SseUp, X87, X87Up, ComplexX87, Memory} {
		assert.Equal(t, c, merge(NoClass, c))
		assert.Equal(t, c, merge(c, NoClass))
	}
}

func TestClassifyScalarInteger(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()

	c, err := Classify(oracle, in.UnspecifiedInt(abitype.Int), true)
	require.NoError(t, err)
	assert.Equal(t, Integer, c.Low())
	assert.False(t, c.IsMemory())
}

func TestClassifyScalarDouble(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()

	c, err := Classify(oracle, in.FloatType(abitype.Double), true)
	require.NoError(t, err)
	assert.Equal(t, Sse, c.Low())
}

func TestClassifyTwoEightbyteStructAllInteger(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	st := in.StructOf("", []abitype.StructMember{
		{MemberType: in.UnspecifiedInt(abitype.Long)},
		{MemberType: in.UnspecifiedInt(abitype.Long)},
	})

	c, err := Classify(oracle, st, true)
	require.NoError(t, err)
	assert.Equal(t, Integer, c.Low())
	assert.Equal(t, Integer, c.High())
	assert.False(t, c.IsMemory())
}

func TestClassifyOversizedAggregateIsMemory(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	arr := in.ArrayOf(in.UnspecifiedInt(abitype.Long), 8) // 64 bytes

	c, err := Classify(oracle, arr, true)
	require.NoError(t, err)
	assert.True(t, c.IsMemory())
}

func TestClassifyMixedIntFloatStructEightbytesAreIndependent(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	// {long, double} -> low eightbyte Integer, high eightbyte Sse.
	st := in.StructOf("", []abitype.StructMember{
		{MemberType: in.UnspecifiedInt(abitype.Long)},
		{MemberType: in.FloatType(abitype.Double)},
	})

	c, err := Classify(oracle, st, true)
	require.NoError(t, err)
	assert.Equal(t, Integer, c.Low())
	assert.Equal(t, Sse, c.High())
}

func TestClassifyAllSseStructStaysInRegisters(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	st := in.StructOf("", []abitype.StructMember{
		{MemberType: in.FloatType(abitype.Double)},
		{MemberType: in.FloatType(abitype.Double)},
	})

	c, err := Classify(oracle, st, true)
	require.NoError(t, err)
	assert.Equal(t, Sse, c.Low())
	assert.Equal(t, Sse, c.High())
}

// A field explicitly placed at offset 8 is a multiple of its own (4-byte)
// alignment; it must not be flagged unaligned just because it differs from
// the naturally-packed offset (1, if the Int8 field were immediately
// followed by the Int32).
func TestClassifyExplicitButAlignedOffsetStaysInRegisters(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	st := in.StructOf("", []abitype.StructMember{
		{MemberType: in.UnspecifiedInt(abitype.SChar)},
		{MemberType: in.UnspecifiedInt(abitype.Int), OffsetIsExplicit: true, ExplicitOffset: 8},
	})

	unaligned, err := hasUnalignedFields(oracle, st)
	require.NoError(t, err)
	assert.False(t, unaligned)

	c, err := Classify(oracle, st, true)
	require.NoError(t, err)
	assert.False(t, c.IsMemory())
}

// A field explicitly placed at an offset that is NOT a multiple of its own
// alignment (e.g. an Int32 pinned to offset 2) is genuinely unaligned and
// must still force the whole aggregate to Memory.
func TestClassifyExplicitUnalignedOffsetIsMemory(t *testing.T) {
	oracle := typeinfo.NewX86_64(false)
	in := abitype.NewInterner()
	st := in.StructOf("", []abitype.StructMember{
		{MemberType: in.UnspecifiedInt(abitype.Int), OffsetIsExplicit: true, ExplicitOffset: 2},
	})

	unaligned, err := hasUnalignedFields(oracle, st)
	require.NoError(t, err)
	assert.True(t, unaligned)

	c, err := Classify(oracle, st, true)
	require.NoError(t, err)
	assert.True(t, c.IsMemory())
}
