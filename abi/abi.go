// Package abi is the top-level facade (spec.md §6): one entry point per
// target triple, dispatching to the x86_64 or i386 classifier by a tagged
// CPUKind rather than a class hierarchy, matching the teacher's
// arch/<isa>-keyed dispatch in codegen.go generalized from "select a
// backend" to "select an ABI".
package abi

import (
	"strings"

	"github.com/arc-language/llvm-abi/abi/x86"
	x8664 "github.com/arc-language/llvm-abi/abi/x86_64"
	"github.com/arc-language/llvm-abi/abierr"
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/arginfo"
	"github.com/arc-language/llvm-abi/builder"
	"github.com/arc-language/llvm-abi/caller"
	"github.com/arc-language/llvm-abi/callee"
	"github.com/arc-language/llvm-abi/ir"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/arc-language/llvm-abi/mapping"
	"github.com/arc-language/llvm-abi/typeinfo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Arch tags which classifier family this ABI instance dispatches to.
type Arch int

const (
	ArchX86_64 Arch = iota
	ArchX86
	ArchWin64
)

// ABI is one target's fully-configured classifier plus its type interner
// and memoizing oracle. Per spec.md §5, a *ABI is not safe for concurrent
// use from multiple goroutines without external synchronization, and two
// ABI instances never share interning or memoization state.
type ABI struct {
	arch    Arch
	triple  string
	cpu     CPUKind
	oracle  typeinfo.Oracle
	interner *abitype.Interner
	plat    typeinfo.Platform
	cc      x86.CallKind
	log     *logrus.Entry
}

// Option configures New per the functional-options pattern (matching the
// teacher's plain-constructor style: no config struct, no DI container).
type Option func(*config)

type config struct {
	hasAVX     bool
	cpu        CPUKind
	charSigned bool
	platform   typeinfo.Platform
	callKind   x86.CallKind
}

func WithAVX() Option { return func(c *config) { c.hasAVX = true } }

func WithCPU(kind CPUKind) Option { return func(c *config) { c.cpu = kind } }

func WithCharSigned(signed bool) Option { return func(c *config) { c.charSigned = signed } }

func WithPlatform(p typeinfo.Platform) Option { return func(c *config) { c.platform = p } }

func WithI386CallKind(k x86.CallKind) Option { return func(c *config) { c.callKind = k } }

// New resolves a target triple and CPU name into a configured ABI
// (spec.md §6). Recognized triple substrings: "x86_64"/"amd64" (System V),
// "i386"/"i686" (the partial 32-bit classifier), "win64"/"x86_64-pc-windows"
// (stub — returns ErrUnimplemented on any classification call).
func New(targetTriple, cpuName string, opts ...Option) (*ABI, error) {
	cfg := config{charSigned: true, platform: typeinfo.Linux}
	for _, o := range opts {
		o(&cfg)
	}

	log := logrus.WithFields(logrus.Fields{"triple": targetTriple, "cpu": cpuName})

	triple := strings.ToLower(targetTriple)
	kind, avx, err := resolveCPUKind(cpuName, cfg.hasAVX)
	if err != nil {
		return nil, err
	}
	if cfg.cpu != "" {
		kind = cfg.cpu
	}

	switch {
	case strings.Contains(triple, "win64") || strings.Contains(triple, "windows"):
		log.Debug("resolved target arch: win64 (stub)")
		return &ABI{arch: ArchWin64, triple: targetTriple, cpu: kind, log: log}, nil

	case strings.Contains(triple, "x86_64") || strings.Contains(triple, "amd64"):
		if kind.Is32BitOnly() {
			return nil, errors.Wrapf(abierr.InvalidArchForMode, "cpu %q is 32-bit-only for triple %q", cpuName, targetTriple)
		}
		oracle := typeinfo.NewX86_64(avx)
		oracle.CharSigned = cfg.charSigned
		log.WithField("avx", avx).Debug("resolved target arch: x86_64 System V")
		return &ABI{
			arch: ArchX86_64, triple: targetTriple, cpu: kind,
			oracle: oracle, interner: abitype.NewInterner(), log: log,
		}, nil

	case strings.Contains(triple, "i386") || strings.Contains(triple, "i686"):
		oracle := typeinfo.NewX86(cfg.platform)
		oracle.CharSigned = cfg.charSigned
		log.WithField("platform", cfg.platform).Debug("resolved target arch: i386")
		return &ABI{
			arch: ArchX86, triple: targetTriple, cpu: kind,
			oracle: oracle, interner: abitype.NewInterner(), plat: cfg.platform,
			cc: cfg.callKind, log: log,
		}, nil

	default:
		return nil, errors.Wrapf(abierr.UnsupportedTriple, "triple %q", targetTriple)
	}
}

// Name reports the resolved architecture label, per §6.
func (a *ABI) Name() string {
	switch a.arch {
	case ArchX86_64:
		return "x86_64"
	case ArchX86:
		return "i386"
	case ArchWin64:
		return "win64"
	default:
		return "unknown"
	}
}

// Interner exposes this ABI's abitype.Interner so front ends build their
// abstract types through it, guaranteeing pointer-equal interning.
func (a *ABI) Interner() *abitype.Interner { return a.interner }

// CallingConvention maps an abstract calling-convention tag onto the
// target's backend CallConv id (§6), rejecting conventions the target
// doesn't support.
func (a *ABI) CallingConvention(cc abitype.CallingConvention) (irtype.CallConv, error) {
	switch a.arch {
	case ArchX86_64:
		switch cc {
		case abitype.CDefault, abitype.CppDefault, abitype.CDecl:
			return irtype.CCX86_64SysV, nil
		default:
			return 0, errors.Wrapf(abierr.InvalidCC, "calling convention %v not valid on x86_64 System V", cc)
		}
	case ArchX86:
		switch cc {
		case abitype.CDefault, abitype.CppDefault, abitype.CDecl:
			return irtype.CCX86Std, nil
		case abitype.StdCall:
			return irtype.CCX86Std, nil
		case abitype.FastCall:
			return irtype.CCX86Fast, nil
		case abitype.ThisCall:
			return irtype.CCX86ThisCall, nil
		case abitype.VectorCall:
			return irtype.CCX86VectorCall, nil
		default:
			return 0, errors.Wrapf(abierr.InvalidCC, "calling convention %v not valid on i386", cc)
		}
	case ArchWin64:
		return 0, errors.Wrap(abierr.Unimplemented, "win64 calling convention resolution")
	default:
		return 0, errors.Wrap(abierr.UnsupportedTriple, "no architecture resolved")
	}
}

// ClassifyArguments exposes the raw ArgInfo sequence (return first) for
// fnType, for diagnostic tools such as cmd/abidump that want to show the
// classification decision independent of the final IR layout.
func (a *ABI) ClassifyArguments(fnType *abitype.FunctionType) ([]arginfo.ArgInfo, error) {
	return a.classify(fnType)
}

// classify produces the raw ArgInfo sequence (return first) for fnType,
// dispatching to the target's classifier.
func (a *ABI) classify(fnType *abitype.FunctionType) ([]arginfo.ArgInfo, error) {
	switch a.arch {
	case ArchX86_64:
		infos, err := x8664.ClassifyFunction(a.oracle, fnType)
		if err != nil {
			return nil, err
		}
		a.log.WithField("nargs", len(fnType.ArgumentTypes)).Debug("classified function (x86_64)")
		return infos, nil
	case ArchX86:
		x86Oracle, _ := a.oracle.(*typeinfo.X86)
		infos, err := x86.ClassifyFunction(x86Oracle, fnType, a.cc)
		if err != nil {
			return nil, err
		}
		a.log.WithField("nargs", len(fnType.ArgumentTypes)).Debug("classified function (i386)")
		return infos, nil
	case ArchWin64:
		return nil, errors.Wrap(abierr.Unimplemented, "win64 classification")
	default:
		return nil, errors.Wrap(abierr.UnsupportedTriple, "no architecture resolved")
	}
}

// FunctionType lowers an abstract function signature to its IR-correct
// concrete form, including sret/padding/flattened-struct slots (§6, §4.4).
func (a *ABI) FunctionType(fnType *abitype.FunctionType) (*irtype.FunctionType, error) {
	infos, err := a.classify(fnType)
	if err != nil {
		return nil, err
	}
	m, err := mapping.Build(a.oracle, infos)
	if err != nil {
		return nil, err
	}
	return mapping.BuildFunctionType(a.oracle, fnType, m)
}

// Attributes computes the attribute set for a lowered signature, merging
// with any attributes the front end already decided (§6, §4.4).
func (a *ABI) Attributes(fnType *abitype.FunctionType, existing *irtype.AttrSet) (*irtype.AttrSet, error) {
	infos, err := a.classify(fnType)
	if err != nil {
		return nil, err
	}
	m, err := mapping.Build(a.oracle, infos)
	if err != nil {
		return nil, err
	}
	return mapping.BuildAttrSet(fnType, m, existing), nil
}

// buildMapping is the shared classify+map step CreateCall and
// CreateFunctionEncoder both need.
func (a *ABI) buildMapping(fnType *abitype.FunctionType) ([]arginfo.ArgInfo, *mapping.FunctionIRMapping, error) {
	infos, err := a.classify(fnType)
	if err != nil {
		return nil, nil, err
	}
	m, err := mapping.Build(a.oracle, infos)
	if err != nil {
		return nil, nil, err
	}
	return infos, m, nil
}

// EmitFunc is the embedder-supplied closure that actually issues the call
// instruction against the lowered IR argument list and returns its IR
// result (§6 CreateCall — the facade never picks the callee itself).
type EmitFunc func(irArgs []ir.Value) (ir.Value, error)

// CreateCall lowers args (the caller's abstract argument addresses, in
// declaration order) into the IR argument list, invokes emit exactly once,
// and decodes the IR result back into an address holding the abstract
// return type (§6).
func (a *ABI) CreateCall(b builder.Builder, fnType *abitype.FunctionType, retSlot ir.Value, args []caller.Arg, emit EmitFunc) (ir.Value, error) {
	_, m, err := a.buildMapping(fnType)
	if err != nil {
		return nil, err
	}

	irArgs, err := caller.EncodeArgs(b, a.oracle, m, args, retSlot, a.oracle.IsBigEndian())
	if err != nil {
		return nil, err
	}

	irReturn, err := emit(irArgs)
	if err != nil {
		return nil, err
	}

	return caller.DecodeReturn(b, a.oracle, m.ReturnArgInfo, fnType.ReturnType, irReturn, retSlot, a.oracle.IsBigEndian())
}

// CreateFunctionEncoder builds the prolog/epilog state machine for a
// function body being lowered against this ABI (§6). fn carries the
// already-lowered IR arguments the embedder's builder produced for this
// function's entry block.
func (a *ABI) CreateFunctionEncoder(b builder.Builder, fnType *abitype.FunctionType, fn *ir.Function) (*callee.Encoder, error) {
	_, m, err := a.buildMapping(fnType)
	if err != nil {
		return nil, err
	}
	return callee.NewEncoder(b, a.oracle, m, fn, a.oracle.IsBigEndian()), nil
}
