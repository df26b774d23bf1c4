package term

// Term is an Erlang term value. The concrete types are Atom, Int,
// Binary, String, Tuple, List and the Nil singleton.
type Term interface {
	isTerm()
}

// Atom is a symbolic constant such as ok or 'EXIT'.
type Atom string

// Int is a 32-bit signed integer.
type Int int32

// Binary is a raw byte blob.
type Binary []byte

// String is an Erlang string: a list of integers 0..255 carried on the
// wire as bytes.
type String string

// Tuple is a fixed-size sequence of terms.
type Tuple []Term

// List is a list with at least one element. Tail is Nil for a proper
// list; a nil Tail is treated as Nil.
type List struct {
	Tail  Term
	Elems []Term
}

type nilList struct {
	_ byte
}

// Nil is the empty list. Decoding always yields this exact value.
var Nil Term = &nilList{}

func (Atom) isTerm()     {}
func (Int) isTerm()      {}
func (Binary) isTerm()   {}
func (String) isTerm()   {}
func (Tuple) isTerm()    {}
func (*List) isTerm()    {}
func (*nilList) isTerm() {}

// NewList builds a proper list. With no elements it returns Nil.
func NewList(elems ...Term) Term {
	if len(elems) == 0 {
		return Nil
	}
	return &List{Elems: elems, Tail: Nil}
}

// IsNil reports whether t is the empty list.
func IsNil(t Term) bool {
	return t == Nil
}

// Proper reports whether the list ends in Nil.
func (l *List) Proper() bool {
	return l.Tail == nil || l.Tail == Nil
}

func (l *List) tail() Term {
	if l.Tail == nil {
		return Nil
	}
	return l.Tail
}
