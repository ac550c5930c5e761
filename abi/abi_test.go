package abi

import (
	"testing"

	"github.com/arc-language/llvm-abi/abierr"
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownTriple(t *testing.T) {
	_, err := New("sparc-unknown-unknown", "")
	assert.ErrorIs(t, err, abierr.UnsupportedTriple)
}

func TestNewResolvesX86_64(t *testing.T) {
	a, err := New("x86_64-unknown-linux-gnu", "haswell")
	require.NoError(t, err)
	assert.Equal(t, "x86_64", a.Name())
	assert.NotNil(t, a.Interner())
}

func TestNewRejects32BitCPUOnX86_64Triple(t *testing.T) {
	_, err := New("x86_64-unknown-linux-gnu", "i386")
	assert.ErrorIs(t, err, abierr.InvalidArchForMode)
}

func TestWin64IsAnUnimplementedStub(t *testing.T) {
	a, err := New("x86_64-pc-windows-msvc", "")
	require.NoError(t, err)
	assert.Equal(t, "win64", a.Name())
	assert.Nil(t, a.Interner())

	_, err = a.ClassifyArguments(&abitype.FunctionType{ReturnType: nil})
	assert.ErrorIs(t, err, abierr.Unimplemented)
}

func TestFunctionTypeRoundTripsSimpleSignature(t *testing.T) {
	a, err := New("x86_64-unknown-linux-gnu", "")
	require.NoError(t, err)
	in := a.Interner()

	fn := &abitype.FunctionType{
		ReturnType:    in.UnspecifiedInt(abitype.Int),
		ArgumentTypes: []*abitype.Type{in.UnspecifiedInt(abitype.Int), in.PointerType()},
	}

	irFn, err := a.FunctionType(fn)
	require.NoError(t, err)
	assert.Len(t, irFn.ArgumentTypes, 2)
	assert.Equal(t, "i32", irFn.ReturnType.String())
}

func TestFunctionTypeInsertsHiddenSRetForLargeAggregateReturn(t *testing.T) {
	a, err := New("x86_64-unknown-linux-gnu", "")
	require.NoError(t, err)
	in := a.Interner()

	bigStruct := in.ArrayOf(in.UnspecifiedInt(abitype.Long), 8)
	fn := &abitype.FunctionType{ReturnType: bigStruct}

	irFn, err := a.FunctionType(fn)
	require.NoError(t, err)
	require.Len(t, irFn.ArgumentTypes, 1)
	assert.Equal(t, "void", irFn.ReturnType.String())
	assert.Equal(t, "ptr", irFn.ArgumentTypes[0].String())
}

func TestAttributesMarksSRetAndByVal(t *testing.T) {
	a, err := New("x86_64-unknown-linux-gnu", "")
	require.NoError(t, err)
	in := a.Interner()

	bigStruct := in.ArrayOf(in.UnspecifiedInt(abitype.Long), 8)
	fn := &abitype.FunctionType{ReturnType: bigStruct, ArgumentTypes: []*abitype.Type{bigStruct}}

	attrs, err := a.Attributes(fn, nil)
	require.NoError(t, err)
	require.True(t, len(attrs.Args) >= 2)
	assert.True(t, attrs.Args[0].Has(irtype.AttrSRet))
	assert.True(t, attrs.Args[1].Has(irtype.AttrByVal))
	assert.Contains(t, attrs.ByValAlign, 1)
}

func TestI386ClassifiesScalarReturnWithX86Oracle(t *testing.T) {
	a, err := New("i386-pc-linux-gnu", "")
	require.NoError(t, err)
	assert.Equal(t, "i386", a.Name())

	in := a.Interner()
	fn := &abitype.FunctionType{ReturnType: in.UnspecifiedInt(abitype.Int)}
	_, err = a.ClassifyArguments(fn)
	assert.NoError(t, err)
}
