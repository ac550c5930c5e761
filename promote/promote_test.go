package promote

import (
	"testing"

	"github.com/arc-language/llvm-abi/abitype"
	"github.com/stretchr/testify/assert"
)

func TestForVariadicIntegerPromotions(t *testing.T) {
	in := abitype.NewInterner()

	tests := map[string]struct {
		kind       abitype.IntegerKind
		charSigned bool
		want       abitype.IntegerKind
	}{
		"bool -> int":            {kind: abitype.Bool, charSigned: true, want: abitype.Int},
		"schar -> int":           {kind: abitype.SChar, charSigned: true, want: abitype.Int},
		"short -> int":           {kind: abitype.Short, charSigned: true, want: abitype.Int},
		"uchar -> uint":          {kind: abitype.UChar, charSigned: true, want: abitype.UInt},
		"ushort -> uint":         {kind: abitype.UShort, charSigned: true, want: abitype.UInt},
		"signed char -> int":     {kind: abitype.Char, charSigned: true, want: abitype.Int},
		"unsigned char -> uint":  {kind: abitype.Char, charSigned: false, want: abitype.UInt},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := ForVariadic(in, in.UnspecifiedInt(tc.kind), tc.charSigned)
			assert.Equal(t, tc.want, got.IntegerKind())
		})
	}
}

func TestForVariadicFloatPromotions(t *testing.T) {
	in := abitype.NewInterner()

	half := ForVariadic(in, in.FloatType(abitype.HalfFloat), true)
	assert.Equal(t, abitype.Float, half.FloatKind())

	flt := ForVariadic(in, in.FloatType(abitype.Float), true)
	assert.Equal(t, abitype.Double, flt.FloatKind())

	dbl := ForVariadic(in, in.FloatType(abitype.Double), true)
	assert.Equal(t, abitype.Double, dbl.FloatKind())
}

func TestForVariadicLeavesAlreadyWideTypesAlone(t *testing.T) {
	in := abitype.NewInterner()

	long := in.UnspecifiedInt(abitype.Long)
	assert.Same(t, long, ForVariadic(in, long, true))

	ptr := in.PointerType()
	assert.Same(t, ptr, ForVariadic(in, ptr, true))
}

func TestForVariadicIsIdempotent(t *testing.T) {
	in := abitype.NewInterner()

	for _, kind := range []abitype.IntegerKind{abitype.Bool, abitype.Char, abitype.SChar, abitype.UChar, abitype.Short, abitype.UShort, abitype.Int, abitype.Long} {
		once := ForVariadic(in, in.UnspecifiedInt(kind), true)
		twice := ForVariadic(in, once, true)
		assert.Same(t, once, twice)
	}
}

func TestFunctionArgumentsOnlyPromotesVariadicTail(t *testing.T) {
	in := abitype.NewInterner()

	args := []*abitype.Type{
		in.UnspecifiedInt(abitype.SChar), // named, untouched
		in.UnspecifiedInt(abitype.SChar), // variadic, promoted
	}

	out := FunctionArguments(in, args, 1, true)
	assert.Same(t, args[0], out[0])
	assert.Equal(t, abitype.Int, out[1].IntegerKind())
}
