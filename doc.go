// Package bert implements the BERT (Binary ERlang Term) wire format.
//
// The package is a protocol toolkit, not a term library: it owns tag
// semantics and traversal order, while the caller owns the byte source,
// the byte sink and the in-memory term type.
//
// # Architecture Overview
//
//	bert/            Decoder fold, two-pass writer, external envelope
//	├── term/        A ready-made dynamic term type built on the core
//	├── frame/       Length-prefixed packet transport over io streams
//	├── errors/      Structured error types
//	└── cmd/bert/    Command line encoder, decoder and inspector
//
// # Decoding
//
// Decoding is a right fold. The decoder reads a tag, decodes the
// children, and hands them to a caller-supplied Builder:
//
//	type Builder[T any] interface {
//	    Tuple(elems []T) (T, error)
//	    List(elems []T, tail T) (T, error)
//	    Binary(data []byte) (T, error)
//	    Atom(name []byte) (T, error)
//	    String(data []byte) (T, error)
//	    Integer(v int32) (T, error)
//	    Nil() T
//	}
//
//	v, err := bert.DecodeBytes(data, myBuilder)
//
// Byte arguments are views into the input. Nil must return one shared
// value; the decoder never builds an empty list on its own. Malformed
// input (unknown tag, truncated field, length past the end of input,
// nesting deeper than WithMaxDepth) returns an *errors.Error and no
// constructor runs for the offending term.
//
// # Encoding
//
// A term is described by a Descriptor, a function issuing primitive
// write calls:
//
//	okReply := func(w *bert.Writer) {
//	    w.SmallTuple(2)
//	    w.SmallAtom([]byte("ok"))
//	    w.Binary(payload)
//	}
//
// The wire format is length-prefixed, so WritePacket runs the
// descriptor twice: a measuring pass (WriteSub) that only counts bytes,
// then an emitting pass into the caller's buffer:
//
//	w := bert.NewWriter(nil)
//	err := bert.WritePacket(w, 4, okReply, func(w *bert.Writer, packet []byte) error {
//	    _, err := conn.Write(packet)
//	    return err
//	})
//
// The descriptor MUST produce the same calls on both runs. It must not
// read mutable state, drain channels or iterators, or depend on
// anything that changes between the two invocations. If the emitting
// pass writes a different number of bytes than was measured, the
// writer panics with an *errors.Error of kind contract, because the
// length prefix already promised a size to the peer. Writer misuse
// (small tuple arity over 255, oversized atoms, empty packets, an
// unsupported prefix width) panics the same way.
//
// # External Format
//
// Terms exchanged with Erlang nodes start with the version byte 131.
// DecodeExternal accepts plain and zlib compressed envelopes;
// EncodeExternal and Compress produce them.
//
// # Thread Safety
//
// Decoding and encoding are synchronous and keep no shared state. A
// Writer must be used by one goroutine at a time.
package bert
