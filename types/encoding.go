package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rubiojr/objcbridge/ffi"
)

// Qualifiers are Objective-C type-encoding prefixes that never change how a
// value is passed: r const, n in, N inout, o out, O bycopy, R byref, V oneway.
const Qualifiers = "rnNoORV"

// ErrMalformed is returned by SplitMethodEncoding for unparsable input.
var ErrMalformed = errors.New("malformed type encoding")

// StripQualifiers removes the leading qualifier characters of enc.
func StripQualifiers(enc string) string {
	return strings.TrimLeft(enc, Qualifiers)
}

// FromEncoding classifies a single Objective-C type encoding. Structs,
// arrays, unions, bitfields and function pointers are not modeled and fall
// back to Pointer.
func FromEncoding(enc string) Type {
	enc = StripQualifiers(enc)
	if enc == "" {
		return Of(Pointer)
	}
	switch enc[0] {
	case 'c', 'C':
		return Of(Char)
	case 'i', 'I':
		return Of(Int)
	case 's', 'S':
		return Of(Short)
	case 'l', 'L', 'q', 'Q':
		return Of(Long)
	case 'f':
		return Of(Float)
	case 'd':
		return Of(Double)
	case 'B':
		return Of(Boolean)
	case 'v':
		return Of(Void)
	case ':':
		return Of(Selector)
	case '#':
		return Of(Class)
	case '@':
		return Of(ID)
	default:
		return Of(Pointer)
	}
}

// FFIKindFromEncoding returns the calling-convention kind of a slot whose
// native declaration has encoding enc.
func FFIKindFromEncoding(enc string) ffi.Kind {
	return FromEncoding(enc).FFIKind()
}

// MethodSignature is a full method encoding split into its elements.
// Args includes the two implicit slots (receiver and selector).
type MethodSignature struct {
	Return string
	Args   []string
}

// SplitMethodEncoding splits a method type encoding such as "v24@0:8i16"
// into the return encoding and one encoding per argument. Frame offsets are
// dropped; element encodings keep their qualifiers.
func SplitMethodEncoding(enc string) (MethodSignature, error) {
	var sig MethodSignature
	if enc == "" {
		return sig, fmt.Errorf("%w: empty method encoding", ErrMalformed)
	}
	pos := 0
	first := true
	for pos < len(enc) {
		end, err := scanElement(enc, pos)
		if err != nil {
			return MethodSignature{}, err
		}
		elem := enc[pos:end]
		pos = skipOffset(enc, end)
		if first {
			sig.Return = elem
			first = false
			continue
		}
		sig.Args = append(sig.Args, elem)
	}
	return sig, nil
}

// scanElement returns the end of the element starting at pos.
func scanElement(enc string, pos int) (int, error) {
	start := pos
	for pos < len(enc) && strings.IndexByte(Qualifiers, enc[pos]) >= 0 {
		pos++
	}
	if pos >= len(enc) {
		return 0, fmt.Errorf("%w at byte %d: qualifiers without a type", ErrMalformed, start)
	}
	switch c := enc[pos]; c {
	case '^':
		return scanElement(enc, pos+1)
	case 'j':
		// complex
		return scanElement(enc, pos+1)
	case '{':
		return scanBalanced(enc, pos, '{', '}')
	case '(':
		return scanBalanced(enc, pos, '(', ')')
	case '[':
		return scanBalanced(enc, pos, '[', ']')
	case 'b':
		pos++
		digits := pos
		for pos < len(enc) && isDigit(enc[pos]) {
			pos++
		}
		if pos == digits {
			return 0, fmt.Errorf("%w at byte %d: bitfield without a width", ErrMalformed, digits)
		}
		return pos, nil
	case '@':
		pos++
		if pos < len(enc) && enc[pos] == '?' {
			pos++
			if pos < len(enc) && enc[pos] == '<' {
				return scanBalanced(enc, pos, '<', '>')
			}
			return pos, nil
		}
		if pos < len(enc) && enc[pos] == '"' {
			return scanQuoted(enc, pos)
		}
		return pos, nil
	default:
		if isDigit(c) || c == '"' {
			return 0, fmt.Errorf("%w at byte %d: unexpected %q", ErrMalformed, pos, c)
		}
		return pos + 1, nil
	}
}

func scanBalanced(enc string, pos int, open, close byte) (int, error) {
	start := pos
	depth := 0
	for pos < len(enc) {
		switch enc[pos] {
		case '"':
			end, err := scanQuoted(enc, pos)
			if err != nil {
				return 0, err
			}
			pos = end
			continue
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return pos + 1, nil
			}
		}
		pos++
	}
	return 0, fmt.Errorf("%w at byte %d: unterminated %q", ErrMalformed, start, open)
}

func scanQuoted(enc string, pos int) (int, error) {
	end := strings.IndexByte(enc[pos+1:], '"')
	if end < 0 {
		return 0, fmt.Errorf("%w at byte %d: unterminated class name", ErrMalformed, pos)
	}
	return pos + 1 + end + 1, nil
}

func skipOffset(enc string, pos int) int {
	if pos < len(enc) && enc[pos] == '-' {
		pos++
	}
	for pos < len(enc) && isDigit(enc[pos]) {
		pos++
	}
	return pos
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
