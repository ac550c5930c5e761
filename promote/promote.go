// Package promote implements the variadic-argument type promoter from
// spec.md §4.7: the "default argument promotions" a source language applies
// to narrow types before they cross a `...` boundary, generalizing
// original_source/lib/TypePromotion.cpp's PromoteVarArg.
package promote

import "github.com/arc-language/llvm-abi/abitype"

// ForVariadic returns the promoted type a variadic-call argument of type t
// must be treated as, per the target's integer/float promotion rules:
//   - bool, signed char, short -> int
//   - char -> int or unsigned int, depending on whether the target treats
//     plain char as signed (charSigned)
//   - unsigned char, unsigned short -> unsigned int
//   - float -> double
//
// Any other type (already-wide integers, pointers, aggregates, double,
// long double) promotes to itself.
func ForVariadic(in *abitype.Interner, t *abitype.Type, charSigned bool) *abitype.Type {
	if t.Kind() == abitype.FloatingPoint && t.FloatKind() == abitype.HalfFloat {
		return in.FloatType(abitype.Float)
	}
	if t.Kind() == abitype.FloatingPoint && t.FloatKind() == abitype.Float {
		return in.FloatType(abitype.Double)
	}

	if !t.IsPromotableInteger() {
		return t
	}

	switch t.IntegerKind() {
	case abitype.Bool, abitype.SChar, abitype.Short:
		return in.UnspecifiedInt(abitype.Int)
	case abitype.UChar, abitype.UShort:
		return in.UnspecifiedInt(abitype.UInt)
	case abitype.Char:
		if charSigned {
			return in.UnspecifiedInt(abitype.Int)
		}
		return in.UnspecifiedInt(abitype.UInt)
	default:
		return t
	}
}

// FunctionArguments promotes every fixed-position argument type after the
// declared arity (the variadic tail) in a call-site signature, leaving the
// named prefix and the return type untouched — §4.7's "only the ... tail is
// promoted" rule.
func FunctionArguments(in *abitype.Interner, argTypes []*abitype.Type, namedArgCount int, charSigned bool) []*abitype.Type {
	out := make([]*abitype.Type, len(argTypes))
	for i, t := range argTypes {
		if i < namedArgCount {
			out[i] = t
			continue
		}
		out[i] = ForVariadic(in, t, charSigned)
	}
	return out
}
