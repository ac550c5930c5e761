// Package builder defines the Builder interface the ABI layer drives to
// emit the stack traffic (allocas, loads, stores, GEPs, bitcasts, extends,
// memcpys) that argument coercion requires. A real implementation wraps an
// actual IR-construction library (core-builder, or an llvm-go-bindings
// style wrapper); per spec.md §1 and §9 ("Global LLVM context"), this
// module never constructs or owns one itself — it is handed one per call.
package builder

import "github.com/arc-language/llvm-abi/irtype"
import "github.com/arc-language/llvm-abi/ir"

// Builder is the injected collaborator. Every method corresponds directly
// to an IR instruction the teacher's own builder exposes (CreateAlloca,
// CreateLoad, CreateStore, CreateGEP, CreateStructGEP, CreateBitCast, ...);
// the ABI layer never emits machine code itself (§1 Non-goals).
type Builder interface {
	// CreateAlloca reserves a stack slot of type t in the current
	// function's entry block and returns a pointer to it.
	CreateAlloca(t irtype.Type, name string) ir.Value

	// SetAlignment raises the alignment of a previously-created alloca;
	// used when an Indirect ArgInfo requires stricter alignment than the
	// abstract type's natural alignment (§4.5).
	SetAlignment(v ir.Value, align uint32)

	CreateLoad(t irtype.Type, ptr ir.Value, name string) ir.Value
	CreateStore(val ir.Value, ptr ir.Value)

	// CreateStructGEP indexes into a first-class struct pointer.
	CreateStructGEP(structType *irtype.StructType, ptr ir.Value, field int, name string) ir.Value

	// CreateBitCast reinterprets a pointer's pointee type without moving data.
	CreateBitCast(val ir.Value, t irtype.Type, name string) ir.Value

	// CreateConstGEP offsets a byte pointer (conceptually an i8* GEP) by a
	// constant byte offset — used to slice off a trailing eightbyte via
	// ArgInfo.DirectOffset (§4.5 "Direct offset").
	CreateConstGEP(ptr ir.Value, byteOffset uint64, name string) ir.Value

	CreateMemCpy(dst, src ir.Value, size uint64, align uint32)

	CreateZExt(val ir.Value, t irtype.Type, name string) ir.Value
	CreateSExt(val ir.Value, t irtype.Type, name string) ir.Value
	CreateTrunc(val ir.Value, t irtype.Type, name string) ir.Value
	CreateFPExt(val ir.Value, t irtype.Type, name string) ir.Value
	CreateFPTrunc(val ir.Value, t irtype.Type, name string) ir.Value
	CreateIntCast(val ir.Value, t irtype.Type, name string) ir.Value
	CreatePtrToInt(val ir.Value, t irtype.Type, name string) ir.Value
	CreateIntToPtr(val ir.Value, t irtype.Type, name string) ir.Value

	CreateInsertValue(agg ir.Value, elt ir.Value, index int, name string) ir.Value
	CreateExtractValue(agg ir.Value, index int, name string) ir.Value

	CreateUndef(t irtype.Type) ir.Value
	ConstInt(t irtype.Type, v int64) ir.Value

	// There is no call method: the ABI layer never emits the call itself —
	// it hands the lowered IR arguments to the embedder-supplied emit
	// closure (§6 create_call).
}
