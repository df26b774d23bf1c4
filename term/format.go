package term

import (
	"strconv"
	"strings"
)

// Format renders t in Erlang syntax, for example {ok,[1,2|tail],<<"x">>}.
func Format(t Term) string {
	var b strings.Builder
	format(&b, t)
	return b.String()
}

func format(b *strings.Builder, t Term) {
	switch v := t.(type) {
	case nil, *nilList:
		b.WriteString("[]")
	case Atom:
		formatAtom(b, string(v))
	case Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Binary:
		formatBinary(b, v)
	case String:
		if len(v) == 0 {
			b.WriteString("[]")
			return
		}
		formatQuoted(b, string(v), '"')
	case Tuple:
		b.WriteByte('{')
		for i, e := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			format(b, e)
		}
		b.WriteByte('}')
	case *List:
		if v == nil {
			b.WriteString("[]")
			return
		}
		if len(v.Elems) == 0 {
			format(b, v.tail())
			return
		}
		b.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			format(b, e)
		}
		if !v.Proper() {
			b.WriteByte('|')
			format(b, v.Tail)
		}
		b.WriteByte(']')
	}
}

var reserved = map[string]bool{
	"after": true, "and": true, "andalso": true, "band": true, "begin": true,
	"bnot": true, "bor": true, "bsl": true, "bsr": true, "bxor": true,
	"case": true, "catch": true, "cond": true, "div": true, "end": true,
	"fun": true, "if": true, "let": true, "maybe": true, "not": true,
	"of": true, "or": true, "orelse": true, "receive": true, "rem": true,
	"try": true, "when": true, "xor": true,
}

// bareAtom reports whether s can be written without quotes.
func bareAtom(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' || reserved[s] {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isAtomChar(s[i]) {
			return false
		}
	}
	return true
}

func isAtomChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '@'
}

func formatAtom(b *strings.Builder, s string) {
	if bareAtom(s) {
		b.WriteString(s)
		return
	}
	formatQuoted(b, s, '\'')
}

func formatQuoted(b *strings.Builder, s string, quote byte) {
	b.WriteByte(quote)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == quote || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			b.WriteString(`\x{`)
			b.WriteString(strconv.FormatUint(uint64(c), 16))
			b.WriteByte('}')
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
}

func formatBinary(b *strings.Builder, v Binary) {
	b.WriteString("<<")
	if len(v) > 0 && printable(v) {
		formatQuoted(b, string(v), '"')
	} else {
		for i, c := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(c)))
		}
	}
	b.WriteString(">>")
}

func printable(v []byte) bool {
	for _, c := range v {
		if c < 0x20 && c != '\n' && c != '\t' && c != '\r' || c >= 0x7f {
			return false
		}
	}
	return true
}
