// Command abidump is a small diagnostic CLI over the ABI facade: given a
// textual function signature, a target triple and a CPU name, it prints
// the classified ArgInfo sequence, the lowered IR function type and the
// attribute set, exercising github.com/arc-language/llvm-abi/abi end to
// end. It plays the role the teacher's examples/main.go plays for the
// codegen backend — a runnable smoke test — generalized to the ABI domain.
package main

import (
	"fmt"
	"os"

	"github.com/arc-language/llvm-abi/abi"
	"github.com/arc-language/llvm-abi/abitype"
	"github.com/arc-language/llvm-abi/format/elf"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagTriple    string
	flagCPU       string
	flagAVX       bool
	flagEmitNote  string
	flagVerbose   bool
)

func main() {
	root := &cobra.Command{
		Use:   "abidump <signature>",
		Short: "Classify and lower a function signature against a target ABI",
		Long: `abidump prints the ArgInfo classification, the lowered IR function
type and the attribute set that the ABI facade computes for a single
function signature, given as a small textual DSL, e.g.:

  abidump "i32(i32,ptr)"
  abidump --triple i386-pc-linux "struct{i32,i32}(ptr,double)"`,
		Args: cobra.ExactArgs(1),
		RunE: runDump,
	}

	root.Flags().StringVar(&flagTriple, "triple", "x86_64-unknown-linux-gnu", "target triple")
	root.Flags().StringVar(&flagCPU, "cpu", "", "CPU name (e.g. haswell, corei7-avx)")
	root.Flags().BoolVar(&flagAVX, "avx", false, "force AVX-width (256-bit) legal vectors")
	root.Flags().StringVar(&flagEmitNote, "emit-note", "", "write an ELF object containing the lowered signature as a SHT_NOTE section to this path")
	root.Flags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	var opts []abi.Option
	if flagAVX {
		opts = append(opts, abi.WithAVX())
	}

	a, err := abi.New(flagTriple, flagCPU, opts...)
	if err != nil {
		return fmt.Errorf("resolving ABI: %w", err)
	}

	interner := a.Interner()
	if interner == nil {
		return fmt.Errorf("target %q has no classifier wired up yet", a.Name())
	}

	fnType, err := parseSignatureArg(interner, args[0])
	if err != nil {
		return fmt.Errorf("parsing signature: %w", err)
	}

	fmt.Printf("target: %s\n", a.Name())
	fmt.Printf("signature: %s\n", fnType.ReturnType)

	infos, err := a.ClassifyArguments(fnType)
	if err != nil {
		return fmt.Errorf("classifying: %w", err)
	}
	fmt.Println("classification:")
	fmt.Printf("  return: %s\n", infos[0].Kind())
	for i, ai := range infos[1:] {
		fmt.Printf("  arg[%d]: %s\n", i, ai.Kind())
	}

	irFn, err := a.FunctionType(fnType)
	if err != nil {
		return fmt.Errorf("lowering function type: %w", err)
	}
	fmt.Printf("lowered IR type: %s\n", irFn)

	attrs, err := a.Attributes(fnType, nil)
	if err != nil {
		return fmt.Errorf("computing attributes: %w", err)
	}
	fmt.Printf("return attrs: %#x\n", attrs.Return)
	for i, ar := range attrs.Args {
		if ar != 0 {
			fmt.Printf("  arg[%d] attrs: %#x\n", i, ar)
		}
	}

	if flagEmitNote != "" {
		if err := emitNoteFile(flagEmitNote, flagTriple, args[0], irFn.String()); err != nil {
			return fmt.Errorf("emitting note object: %w", err)
		}
		fmt.Printf("wrote %s\n", flagEmitNote)
	}

	return nil
}

func parseSignatureArg(in *abitype.Interner, sig string) (*abitype.FunctionType, error) {
	return parseSignature(in, sig)
}

// emitNoteFile writes a minimal ELF relocatable object holding a ".note.abi"
// SHT_NOTE section that records the source signature string and its
// lowered IR type string; WriteTo also adds the target-triple note and the
// string and symbol tables.
func emitNoteFile(path, triple, sourceSig, loweredSig string) error {
	f := elf.NewFile(triple)
	desc := []byte(sourceSig + "\x00" + loweredSig)
	elf.AddNoteSection(f, ".note.abi", "llvm-abi", 1, desc)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	return f.WriteTo(out)
}
