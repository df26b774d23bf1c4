package term

import (
	"github.com/wippyai/bert"
	"github.com/wippyai/bert/errors"
)

// Builder folds decoded BERT into Term values.
type Builder struct{}

var _ bert.Builder[Term] = Builder{}

func (Builder) Tuple(elems []Term) (Term, error) {
	return Tuple(elems), nil
}

func (Builder) List(elems []Term, tail Term) (Term, error) {
	if len(elems) == 0 {
		return tail, nil
	}
	return &List{Elems: elems, Tail: tail}, nil
}

func (Builder) Binary(data []byte) (Term, error) {
	return Binary(append([]byte(nil), data...)), nil
}

func (Builder) Atom(name []byte) (Term, error) {
	return Atom(name), nil
}

func (Builder) String(data []byte) (Term, error) {
	if len(data) == 0 {
		return Nil, nil
	}
	return String(data), nil
}

func (Builder) Integer(v int32) (Term, error) {
	return Int(v), nil
}

func (Builder) Nil() Term {
	return Nil
}

// Describe returns a descriptor that writes t. The descriptor only
// reads t, so it is safe for the two-pass writer as long as t is not
// modified concurrently. A nil Term, a nil *List and an empty String
// are written as the empty list.
// Call Validate first when t comes from untrusted code: the writer
// panics on atoms longer than 65535 bytes.
func Describe(t Term) bert.Descriptor {
	return func(w *bert.Writer) {
		describe(w, t)
	}
}

func describe(w *bert.Writer, t Term) {
	switch v := t.(type) {
	case nil, *nilList:
		w.Nil()
	case Atom:
		w.AtomName(string(v))
	case Int:
		w.Int(int32(v))
	case Binary:
		w.Binary(v)
	case String:
		if len(v) == 0 {
			w.Nil()
			return
		}
		if len(v) <= bert.MaxString {
			w.String([]byte(v))
			return
		}
		// Too long for STRING_EXT: send the integer list instead.
		w.List(len(v))
		for i := 0; i < len(v); i++ {
			w.SmallInteger(v[i])
		}
		w.Nil()
	case Tuple:
		w.Tuple(len(v))
		for _, e := range v {
			describe(w, e)
		}
	case *List:
		if v == nil {
			w.Nil()
			return
		}
		if len(v.Elems) == 0 {
			describe(w, v.tail())
			return
		}
		w.List(len(v.Elems))
		for _, e := range v.Elems {
			describe(w, e)
		}
		describe(w, v.tail())
	}
}

// Validate checks that t can be written.
func Validate(t Term) error {
	return validate(t, 0)
}

func validate(t Term, depth int) error {
	switch v := t.(type) {
	case Atom:
		if len(v) > bert.MaxAtom {
			return errors.Overflow(errors.PhaseEncode, len(v), "atom length")
		}
	case Binary:
		if uint64(len(v)) > bert.MaxLengthField {
			return errors.Overflow(errors.PhaseEncode, len(v), "binary length")
		}
	case String:
		if len(v) > bert.MaxString && depth >= bert.DefaultMaxDepth {
			return tooDeep()
		}
	case Tuple:
		if depth >= bert.DefaultMaxDepth {
			return tooDeep()
		}
		for _, e := range v {
			if err := validate(e, depth+1); err != nil {
				return err
			}
		}
	case *List:
		if v == nil {
			return nil
		}
		if len(v.Elems) == 0 {
			return validate(v.tail(), depth)
		}
		if depth >= bert.DefaultMaxDepth {
			return tooDeep()
		}
		for _, e := range v.Elems {
			if err := validate(e, depth+1); err != nil {
				return err
			}
		}
		return validate(v.tail(), depth+1)
	}
	return nil
}

func tooDeep() error {
	return errors.New(errors.PhaseEncode, errors.KindTooDeep).
		Detail("nesting exceeds %d levels", bert.DefaultMaxDepth).
		Build()
}

// Encode writes t as a bare term.
func Encode(t Term) ([]byte, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	return bert.Encode(bert.NewWriter(nil), Describe(t)), nil
}

// EncodeExternal writes t with the external format version byte.
func EncodeExternal(t Term) ([]byte, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	return bert.EncodeExternal(bert.NewWriter(nil), Describe(t)), nil
}

// Decode reads a bare term occupying all of data.
func Decode(data []byte, opts ...bert.DecodeOption) (Term, error) {
	return bert.DecodeBytes[Term](data, Builder{}, opts...)
}

// DecodeExternal reads an external format term, compressed or not.
func DecodeExternal(data []byte, opts ...bert.DecodeOption) (Term, error) {
	return bert.DecodeExternal[Term](data, Builder{}, opts...)
}
