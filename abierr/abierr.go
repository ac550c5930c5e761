// Package abierr holds the fixed error taxonomy from spec.md §7. Every
// package in this module wraps one of these sentinels with
// github.com/pkg/errors rather than inventing ad-hoc error strings, so
// that embedders can dispatch on errors.Is(err, abierr.Unimplemented)
// regardless of which layer produced it.
package abierr

import "errors"

var (
	// UnsupportedTriple: the target architecture has no ABI implementation.
	UnsupportedTriple = errors.New("abi: unsupported target triple")

	// InvalidCC: the calling-convention tag is incompatible with the target.
	InvalidCC = errors.New("abi: invalid calling convention for target")

	// InvalidType: a malformed abstract type (unaligned non-overlapping
	// struct offsets, zero-count array, unknown integer kind).
	InvalidType = errors.New("abi: invalid abstract type")

	// Unimplemented: a classification path this layer has not implemented
	// (complex-x87 arguments, bitfields, inalloca on non-x86, Win64).
	Unimplemented = errors.New("abi: unimplemented classification path")

	// EmitterContract: the one-shot call-emitting closure passed to
	// CreateCall was not invoked exactly once.
	EmitterContract = errors.New("abi: emit closure must be invoked exactly once")

	// InvalidArchForMode: a 32-bit-only CPU kind selected for a 64-bit triple.
	InvalidArchForMode = errors.New("abi: CPU kind invalid for target address mode")
)
