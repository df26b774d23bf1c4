package term

import (
	"strconv"

	"github.com/wippyai/bert"
	"github.com/wippyai/bert/errors"
)

// Parse reads a single term written in Erlang syntax, the inverse of
// Format. Integers must fit in 32 bits and binary segments are either
// quoted strings or byte values.
func Parse(text string) (Term, error) {
	p := &parser{src: text}
	t, err := p.term()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.fail("unexpected %q after term", p.src[p.pos])
	}
	return t, nil
}

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) fail(format string, args ...any) error {
	return errors.New(errors.PhaseParse, errors.KindInvalidInput).
		Offset(p.pos).
		Detail(format, args...).
		Build()
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) eat(c byte) bool {
	p.skipSpace()
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(c byte) error {
	if !p.eat(c) {
		if p.pos >= len(p.src) {
			return p.fail("expected %q, got end of input", c)
		}
		return p.fail("expected %q, got %q", c, p.src[p.pos])
	}
	return nil
}

func (p *parser) term() (Term, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.fail("unexpected end of input")
	}
	c := p.src[p.pos]
	switch {
	case c == '{':
		return p.tuple()
	case c == '[':
		return p.list()
	case c == '<':
		return p.binary()
	case c == '"':
		s, err := p.quoted('"')
		if err != nil {
			return nil, err
		}
		if s == "" {
			return Nil, nil
		}
		return String(s), nil
	case c == '\'':
		s, err := p.quoted('\'')
		if err != nil {
			return nil, err
		}
		if len(s) > bert.MaxAtom {
			return nil, errors.New(errors.PhaseParse, errors.KindOverflow).
				Offset(p.pos).
				Detail("atom of %d bytes exceeds %d", len(s), bert.MaxAtom).
				Build()
		}
		return Atom(s), nil
	case c == '-' || c >= '0' && c <= '9':
		v, err := p.integer()
		if err != nil {
			return nil, err
		}
		return Int(v), nil
	case c >= 'a' && c <= 'z':
		start := p.pos
		for p.pos < len(p.src) && isAtomChar(p.src[p.pos]) {
			p.pos++
		}
		return Atom(p.src[start:p.pos]), nil
	}
	return nil, p.fail("unexpected %q", c)
}

func (p *parser) enter() error {
	if p.depth >= bert.DefaultMaxDepth {
		return errors.New(errors.PhaseParse, errors.KindTooDeep).
			Offset(p.pos).
			Detail("nesting exceeds %d levels", bert.DefaultMaxDepth).
			Build()
	}
	p.depth++
	return nil
}

func (p *parser) tuple() (Term, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.pos++

	elems := Tuple{}
	if p.eat('}') {
		return elems, nil
	}
	for {
		e, err := p.term()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.eat(',') {
			continue
		}
		if err := p.expect('}'); err != nil {
			return nil, err
		}
		return elems, nil
	}
}

func (p *parser) list() (Term, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.pos++

	if p.eat(']') {
		return Nil, nil
	}
	var elems []Term
	for {
		e, err := p.term()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.eat(',') {
			continue
		}
		break
	}
	var tail Term = Nil
	if p.eat('|') {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		tail = t
	}
	if err := p.expect(']'); err != nil {
		return nil, err
	}
	return &List{Elems: elems, Tail: tail}, nil
}

func (p *parser) binary() (Term, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	data := Binary{}
	if p.closeBinary() {
		return data, nil
	}
	for {
		p.skipSpace()
		if p.peek() == '"' {
			s, err := p.quoted('"')
			if err != nil {
				return nil, err
			}
			data = append(data, s...)
		} else {
			start := p.pos
			v, err := p.integer()
			if err != nil {
				return nil, err
			}
			if v < 0 || v > 255 {
				p.pos = start
				return nil, p.fail("byte value %d out of range", v)
			}
			data = append(data, byte(v))
		}
		if p.eat(',') {
			continue
		}
		if !p.closeBinary() {
			return nil, p.fail("expected \">>\"")
		}
		return data, nil
	}
}

func (p *parser) closeBinary() bool {
	p.skipSpace()
	if p.pos+1 < len(p.src) && p.src[p.pos] == '>' && p.src[p.pos+1] == '>' {
		p.pos += 2
		return true
	}
	return false
}

func (p *parser) integer() (int32, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	digits := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == digits {
		return 0, p.fail("expected digit")
	}
	v, err := strconv.ParseInt(p.src[start:p.pos], 10, 32)
	if err != nil {
		return 0, errors.New(errors.PhaseParse, errors.KindOverflow).
			Offset(start).
			Value(p.src[start:p.pos]).
			Detail("integer %s does not fit in 32 bits", p.src[start:p.pos]).
			Build()
	}
	return int32(v), nil
}

// quoted reads a quoted string starting at the opening quote and
// resolves escapes.
func (p *parser) quoted(quote byte) (string, error) {
	p.pos++
	var out []byte
	for {
		if p.pos >= len(p.src) {
			return "", p.fail("unterminated %c", quote)
		}
		c := p.src[p.pos]
		p.pos++
		if c == quote {
			return string(out), nil
		}
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if p.pos >= len(p.src) {
			return "", p.fail("unterminated escape")
		}
		e := p.src[p.pos]
		p.pos++
		switch e {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 's':
			out = append(out, ' ')
		case '0':
			out = append(out, 0)
		case 'x':
			b, err := p.hexEscape()
			if err != nil {
				return "", err
			}
			out = append(out, b)
		default:
			out = append(out, e)
		}
	}
}

// hexEscape reads \xHH or \x{H..}.
func (p *parser) hexEscape() (byte, error) {
	var digits string
	if p.peek() == '{' {
		end := p.pos + 1
		for end < len(p.src) && p.src[end] != '}' {
			end++
		}
		if end >= len(p.src) {
			return 0, p.fail("unterminated \\x{ escape")
		}
		digits = p.src[p.pos+1 : end]
		p.pos = end + 1
	} else {
		if p.pos+2 > len(p.src) {
			return 0, p.fail("short \\x escape")
		}
		digits = p.src[p.pos : p.pos+2]
		p.pos += 2
	}
	v, err := strconv.ParseUint(digits, 16, 8)
	if err != nil {
		return 0, p.fail("bad \\x escape %q", digits)
	}
	return byte(v), nil
}
