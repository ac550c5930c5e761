package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arc-language/llvm-abi/abitype"
)

// parseSignature parses a small textual type-signature DSL into an
// abitype.FunctionType, so this CLI can drive the facade end-to-end from a
// single command-line string without requiring a real front end. Grammar:
//
//	signature := type "(" [ type { "," type } [ "," "..." ] ] ")"
//	type      := "void" | "ptr" | scalarName | "struct{" type {"," type} "}"
//	           | "union{" type {"," type} "}" | "array[" N "]" type
//
// scalarName is one of the names in scalarKinds/floatKinds below.
func parseSignature(in *abitype.Interner, sig string) (*abitype.FunctionType, error) {
	p := &sigParser{in: in, src: sig}
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.consume('(') {
		return nil, fmt.Errorf("expected '(' after return type at %q", p.rest())
	}
	var args []*abitype.Type
	isVarArg := false
	p.skipSpace()
	if !p.peek(')') {
		for {
			p.skipSpace()
			if p.peekString("...") {
				p.src = p.src[3:]
				isVarArg = true
				break
			}
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, t)
			p.skipSpace()
			if p.consume(',') {
				continue
			}
			break
		}
	}
	p.skipSpace()
	if !p.consume(')') {
		return nil, fmt.Errorf("expected ')' at %q", p.rest())
	}
	return &abitype.FunctionType{ReturnType: ret, ArgumentTypes: args, IsVarArg: isVarArg, CallingConv: abitype.CDefault}, nil
}

type sigParser struct {
	in  *abitype.Interner
	src string
}

func (p *sigParser) rest() string { return p.src }

func (p *sigParser) skipSpace() {
	p.src = strings.TrimLeft(p.src, " \t")
}

func (p *sigParser) peek(c byte) bool {
	return len(p.src) > 0 && p.src[0] == c
}

func (p *sigParser) peekString(s string) bool {
	return strings.HasPrefix(p.src, s)
}

func (p *sigParser) consume(c byte) bool {
	if p.peek(c) {
		p.src = p.src[1:]
		return true
	}
	return false
}

var scalarKinds = map[string]abitype.IntegerKind{
	"bool": abitype.Bool, "char": abitype.Char, "schar": abitype.SChar,
	"uchar": abitype.UChar, "short": abitype.Short, "ushort": abitype.UShort,
	"int": abitype.Int, "uint": abitype.UInt, "long": abitype.Long,
	"ulong": abitype.ULong, "longlong": abitype.LongLong, "ulonglong": abitype.ULongLong,
	"size_t": abitype.SizeT, "ssize_t": abitype.SSizeT, "ptrdiff_t": abitype.PtrDiffT,
	"intptr_t": abitype.IntPtrT, "uintptr_t": abitype.UIntPtrT,
}

var floatKinds = map[string]abitype.FloatKind{
	"half": abitype.HalfFloat, "float": abitype.Float, "double": abitype.Double,
	"longdouble": abitype.LongDouble, "fp128": abitype.Float128,
}

func (p *sigParser) parseType() (*abitype.Type, error) {
	p.skipSpace()
	switch {
	case p.peekString("void"):
		p.src = p.src[len("void"):]
		return p.in.VoidType(), nil
	case p.peekString("ptr") && !(len(p.src) > 3 && isIdentByte(p.src[3])):
		p.src = p.src[len("ptr"):]
		return p.in.PointerType(), nil
	case p.peekString("struct{"):
		p.src = p.src[len("struct{"):]
		return p.parseAggregate(false)
	case p.peekString("union{"):
		p.src = p.src[len("union{"):]
		return p.parseAggregate(true)
	case p.peekString("array["):
		p.src = p.src[len("array["):]
		return p.parseArray()
	case p.peekString("complex"):
		p.src = p.src[len("complex"):]
		p.skipSpace()
		name, err := p.takeIdent()
		if err != nil {
			return nil, err
		}
		fk, ok := floatKinds[name]
		if !ok {
			return nil, fmt.Errorf("unknown complex component %q", name)
		}
		return p.in.ComplexType(fk), nil
	case len(p.src) > 0 && (p.src[0] == 'i' || p.src[0] == 'u') && isFixedWidthToken(p.src):
		return p.parseFixedWidth()
	default:
		name, err := p.takeIdent()
		if err != nil {
			return nil, err
		}
		if ik, ok := scalarKinds[name]; ok {
			return p.in.UnspecifiedInt(ik), nil
		}
		if fk, ok := floatKinds[name]; ok {
			return p.in.FloatType(fk), nil
		}
		return nil, fmt.Errorf("unknown type name %q", name)
	}
}

func isFixedWidthToken(s string) bool {
	i := 1
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i > 1
}

func (p *sigParser) parseFixedWidth() (*abitype.Type, error) {
	signed := p.src[0] == 'i'
	p.src = p.src[1:]
	i := 0
	for i < len(p.src) && p.src[i] >= '0' && p.src[i] <= '9' {
		i++
	}
	bits, err := strconv.Atoi(p.src[:i])
	if err != nil {
		return nil, fmt.Errorf("bad fixed-width integer width: %w", err)
	}
	p.src = p.src[i:]
	return p.in.FixedInt(bits, signed), nil
}

func (p *sigParser) parseAggregate(isUnion bool) (*abitype.Type, error) {
	var members []abitype.StructMember
	var elemTypes []*abitype.Type
	p.skipSpace()
	if !p.peek('}') {
		for {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			members = append(members, abitype.StructMember{MemberType: t})
			elemTypes = append(elemTypes, t)
			p.skipSpace()
			if p.consume(',') {
				continue
			}
			break
		}
	}
	p.skipSpace()
	if !p.consume('}') {
		return nil, fmt.Errorf("expected '}' at %q", p.rest())
	}
	if isUnion {
		return p.in.UnionOf("", elemTypes), nil
	}
	return p.in.StructOf("", members), nil
}

func (p *sigParser) parseArray() (*abitype.Type, error) {
	i := 0
	for i < len(p.src) && p.src[i] >= '0' && p.src[i] <= '9' {
		i++
	}
	count, err := strconv.Atoi(p.src[:i])
	if err != nil {
		return nil, fmt.Errorf("bad array length: %w", err)
	}
	p.src = p.src[i:]
	if !p.consume(']') {
		return nil, fmt.Errorf("expected ']' at %q", p.rest())
	}
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return p.in.ArrayOf(elem, int64(count)), nil
}

func (p *sigParser) takeIdent() (string, error) {
	i := 0
	for i < len(p.src) && (isIdentByte(p.src[i])) {
		i++
	}
	if i == 0 {
		return "", fmt.Errorf("expected identifier at %q", p.rest())
	}
	ident := p.src[:i]
	p.src = p.src[i:]
	return ident, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
