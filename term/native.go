package term

import "github.com/wippyai/bert/errors"

// ToNative converts t into plain Go values suitable for JSON, YAML or
// CBOR encoders. Atoms and strings become string, integers int64,
// binaries []byte, tuples and proper lists []any. An improper list
// becomes a map with "elems" and "tail" keys.
func ToNative(t Term) (any, error) {
	switch v := t.(type) {
	case nil:
		return nil, errors.InvalidInput(errors.PhaseConvert, "nil term")
	case *nilList:
		return []any{}, nil
	case Atom:
		return string(v), nil
	case Int:
		return int64(v), nil
	case Binary:
		return []byte(v), nil
	case String:
		return string(v), nil
	case Tuple:
		return nativeSlice(v)
	case *List:
		if v == nil {
			return []any{}, nil
		}
		if len(v.Elems) == 0 {
			return ToNative(v.tail())
		}
		elems, err := nativeSlice(v.Elems)
		if err != nil {
			return nil, err
		}
		if v.Proper() {
			return elems, nil
		}
		tail, err := ToNative(v.Tail)
		if err != nil {
			return nil, err
		}
		return map[string]any{"elems": elems, "tail": tail}, nil
	default:
		return nil, errors.New(errors.PhaseConvert, errors.KindInvalidInput).
			Detail("unsupported term type %T", t).
			Build()
	}
}

func nativeSlice(ts []Term) ([]any, error) {
	out := make([]any, len(ts))
	for i, e := range ts {
		v, err := ToNative(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
