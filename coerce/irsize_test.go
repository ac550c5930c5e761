package coerce

import (
	"testing"

	"github.com/arc-language/llvm-abi/irtype"
	"github.com/stretchr/testify/assert"
)

func TestSizeOfScalars(t *testing.T) {
	assert.Equal(t, uint64(1), SizeOf(irtype.I8))
	assert.Equal(t, uint64(4), SizeOf(irtype.I32))
	assert.Equal(t, uint64(8), SizeOf(irtype.I64))
	assert.Equal(t, uint64(4), SizeOf(irtype.Float))
	assert.Equal(t, uint64(8), SizeOf(irtype.Double))
	assert.Equal(t, uint64(8), SizeOf(irtype.NewPointer(irtype.I32)))
}

func TestSizeOfArray(t *testing.T) {
	arr := irtype.NewArray(irtype.I32, 4)
	assert.Equal(t, uint64(16), SizeOf(arr))
}

func TestSizeOfStructWithPadding(t *testing.T) {
	// {i8, i32} needs 3 bytes of padding before the i32 and pads the whole
	// struct up to its own alignment (4), for a total of 8 bytes.
	st := irtype.NewStruct("", []irtype.Type{irtype.I8, irtype.I32}, false)
	assert.Equal(t, uint64(8), SizeOf(st))
	assert.Equal(t, uint64(4), AlignOf(st))
}

func TestSizeOfPackedStructHasNoPadding(t *testing.T) {
	st := irtype.NewStruct("", []irtype.Type{irtype.I8, irtype.I32}, true)
	assert.Equal(t, uint64(5), SizeOf(st))
	assert.Equal(t, uint64(1), AlignOf(st))
}

func TestStructFieldOffset(t *testing.T) {
	st := irtype.NewStruct("", []irtype.Type{irtype.I8, irtype.I32, irtype.I8}, false)
	assert.Equal(t, uint64(0), StructFieldOffset(st, 0))
	assert.Equal(t, uint64(4), StructFieldOffset(st, 1))
	assert.Equal(t, uint64(8), StructFieldOffset(st, 2))
}

func TestArrayElementOffset(t *testing.T) {
	assert.Equal(t, uint64(0), ArrayElementOffset(irtype.I64, 0))
	assert.Equal(t, uint64(16), ArrayElementOffset(irtype.I64, 2))
}

func TestAlignOfNestedStructIsMaxOfFields(t *testing.T) {
	inner := irtype.NewStruct("", []irtype.Type{irtype.Double}, false)
	outer := irtype.NewStruct("", []irtype.Type{irtype.I8, inner}, false)
	assert.Equal(t, uint64(8), AlignOf(outer))
}
