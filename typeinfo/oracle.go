// Package typeinfo implements the ABI type-info oracle (spec.md §4.1): the
// per-target authority on sizes, alignments and lowering of abstract types.
// It generalizes the teacher's arch/amd64/abi.go helpers (SizeOf, AlignOf,
// GetStructSize, GetStructFieldOffset, IsPassedInRegisters), which compute
// exactly these quantities for a fixed, concrete type representation, to
// operate over the richer abstract abitype.Type model and to be queried
// per target (x86_64 vs i386) instead of being hard-coded to one ISA.
package typeinfo

import (
	"github.com/arc-language/llvm-abi/abierr"
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/datasize"
	"github.com/arc-language/llvm-abi/irtype"
	"github.com/pkg/errors"
)

// Oracle answers the size/alignment/lowering questions §4.1 lists.
type Oracle interface {
	RawSize(t *abitype.Type) (datasize.Size, error)
	AllocSize(t *abitype.Type) (datasize.Size, error)
	StoreSize(t *abitype.Type) (datasize.Size, error)
	RequiredAlign(t *abitype.Type) (uint64, error)
	PreferredAlign(t *abitype.Type) (uint64, error)
	LLVMType(t *abitype.Type) (irtype.Type, error)
	StructOffsets(members []abitype.StructMember) ([]uint64, error)
	IsLegalVector(t *abitype.Type) bool
	IsBigEndian() bool
	IsCharSigned() bool
	ResolveInteger(kind abitype.IntegerKind) (bits int, signed bool)
}

// memo holds cached per-type query results; typeinfo oracles may
// memoize size/alignment/lowering results per spec.md §5 ("per-ABI
// memoization maps"), but the maps are owned by one Oracle value and never
// shared across instances.
type memo struct {
	rawSize map[*abitype.Type]datasize.Size
	llvm    map[*abitype.Type]irtype.Type
}

func newMemo() *memo {
	return &memo{
		rawSize: make(map[*abitype.Type]datasize.Size),
		llvm:    make(map[*abitype.Type]irtype.Type),
	}
}

// validateStruct checks the §3 invariant that an explicit member offset
// never precedes the running offset computed from earlier members — a
// backwards explicit offset is a malformed type (InvalidType), not a
// classification decision.
func validateStruct(members []abitype.StructMember, align func(*abitype.Type) (uint64, error), size func(*abitype.Type) (datasize.Size, error)) error {
	running := datasize.FromBits(0)
	for i, m := range members {
		a, err := align(m.MemberType)
		if err != nil {
			return err
		}
		natural := running.RoundUpToAlign(a)
		if m.OffsetIsExplicit {
			explicit := datasize.FromBytes(m.ExplicitOffset)
			if explicit.Less(running) {
				return errors.Wrapf(abierr.InvalidType,
					"struct member %d: explicit offset %d precedes running offset %d",
					i, m.ExplicitOffset, running.Bytes())
			}
			running = explicit
		} else {
			running = natural
		}
		sz, err := size(m.MemberType)
		if err != nil {
			return err
		}
		running = running.Add(sz)
	}
	return nil
}
