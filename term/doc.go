// Package term provides a dynamic Go representation of BERT terms on top
// of the fold decoder and two-pass writer in package bert.
//
// Decoding:
//
//	t, err := term.DecodeExternal(data)
//	fmt.Println(term.Format(t)) // {ok,[1,2,3]}
//
// Encoding:
//
//	t, _ := term.Parse(`{reply,<<"hi">>}`)
//	data, err := term.EncodeExternal(t)
//
// Lists are represented by List with at least one element and a tail.
// The empty list is the Nil singleton, so IsNil can compare by identity.
// Improper lists keep their non-nil tail. String holds STRING_EXT
// payloads and compares equal to the integer list with the same bytes.
//
// ToNative converts a term into maps, slices and scalars that standard
// serializers (JSON, YAML, CBOR) accept.
package term
