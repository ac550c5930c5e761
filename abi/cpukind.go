package abi

import "strings"

// CPUKind names a concrete x86 microarchitecture, used only to decide the
// legal-vector-width predicate (AVX-capable or not) and to reject 32-bit-only
// CPUs on a 64-bit triple (§6, supplemented from
// original_source/lib/x86_64/CPUKind.cpp).
type CPUKind string

const (
	CPUGeneric     CPUKind = "generic"
	CPUBonnell     CPUKind = "bonnell"
	CPUSilvermont  CPUKind = "silvermont"
	CPUNehalem     CPUKind = "nehalem"
	CPUSandyBridge CPUKind = "sandybridge"
	CPUIvyBridge   CPUKind = "ivybridge"
	CPUHaswell     CPUKind = "haswell"
	CPUSkylake     CPUKind = "skylake"
	CPUI386        CPUKind = "i386"
	CPUI486        CPUKind = "i486"
	CPUI586        CPUKind = "i586"
)

// legacyAliases maps the CPU-name spellings a front end commonly passes
// (gcc/clang -march= style) onto the canonical CPUKind, per
// original_source/lib/x86_64/CPUKind.cpp's alias table.
var legacyAliases = map[string]CPUKind{
	"atom":        CPUBonnell,
	"bonnell":     CPUBonnell,
	"slm":         CPUSilvermont,
	"silvermont":  CPUSilvermont,
	"corei7":      CPUNehalem,
	"nehalem":     CPUNehalem,
	"corei7-avx":  CPUSandyBridge,
	"sandybridge": CPUSandyBridge,
	"core-avx-i":  CPUIvyBridge,
	"ivybridge":   CPUIvyBridge,
	"core-avx2":   CPUHaswell,
	"haswell":     CPUHaswell,
	"skx":         CPUSkylake,
	"skylake":     CPUSkylake,
	"":            CPUGeneric,
	"generic":     CPUGeneric,
	"i386":        CPUI386,
	"i486":        CPUI486,
	"i586":        CPUI586,
}

// avxCapable is the set of kinds whose native vector width is 256 bits
// (AVX), used when the caller doesn't explicitly pass WithAVX().
var avxCapable = map[CPUKind]bool{
	CPUSandyBridge: true,
	CPUIvyBridge:   true,
	CPUHaswell:     true,
	CPUSkylake:     true,
}

// Is32BitOnly reports whether kind names a CPU that never existed in a
// 64-bit-capable form (§6 "InvalidArchForMode").
func (k CPUKind) Is32BitOnly() bool {
	switch k {
	case CPUI386, CPUI486, CPUI586:
		return true
	default:
		return false
	}
}

// resolveCPUKind normalizes a front-end-supplied CPU name, defaulting
// unknown names to CPUGeneric rather than erroring — an unrecognized CPU
// name degrades to the conservative (non-AVX) legal-vector-width policy
// instead of blocking classification.
func resolveCPUKind(cpuName string, explicitAVX bool) (CPUKind, bool, error) {
	kind, ok := legacyAliases[strings.ToLower(cpuName)]
	if !ok {
		kind = CPUGeneric
	}
	return kind, explicitAVX || avxCapable[kind], nil
}
