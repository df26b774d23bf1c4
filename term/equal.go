package term

import "bytes"

// Equal reports whether a and b denote the same Erlang term. Lists are
// compared by content: a String equals the list of its byte values, and
// a list whose tail is another list equals the concatenated list.
func Equal(a, b Term) bool {
	a, b = collapse(a), collapse(b)
	if ae, at, ok := flatten(a); ok {
		be, bt, ok := flatten(b)
		if !ok || len(ae) != len(be) {
			return false
		}
		for i := range ae {
			if !Equal(ae[i], be[i]) {
				return false
			}
		}
		if IsNil(at) || IsNil(bt) {
			return IsNil(at) && IsNil(bt)
		}
		return Equal(at, bt)
	}

	switch x := a.(type) {
	case Atom:
		y, ok := b.(Atom)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Binary:
		y, ok := b.(Binary)
		return ok && bytes.Equal(x, y)
	case Tuple:
		y, ok := b.(Tuple)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// flatten expands a list-like term into its elements and final
// non-list tail. ok is false when t is not a list.
func flatten(t Term) (elems []Term, tail Term, ok bool) {
	for list := false; ; list = true {
		switch v := t.(type) {
		case nil, *nilList:
			return elems, Nil, true
		case String:
			for i := 0; i < len(v); i++ {
				elems = append(elems, Int(v[i]))
			}
			return elems, Nil, true
		case *List:
			if v == nil {
				return elems, Nil, true
			}
			elems = append(elems, v.Elems...)
			t = v.tail()
		default:
			if !list {
				return nil, nil, false
			}
			return elems, t, true
		}
	}
}

// collapse replaces a List with no elements by its tail, which is how
// such a list is written.
func collapse(t Term) Term {
	for {
		l, ok := t.(*List)
		if !ok || l == nil || len(l.Elems) > 0 {
			return t
		}
		t = l.tail()
	}
}
