// Package frame carries BERT terms over byte streams as length-prefixed
// packets, the framing used by Erlang ports opened with {packet, N}.
//
// Each packet is a big-endian length prefix of 1, 2, 4 or 8 bytes
// followed by that many payload bytes. Writer builds packets with the
// two-pass writer in package bert, so the prefix is written in place
// without copying the payload. Reader bounds every payload by a
// configurable maximum before allocating.
//
//	w, _ := frame.NewWriter(conn, 4)
//	err := w.SendExternal(term.Describe(reply))
//
//	r, _ := frame.NewReader(conn, 4)
//	req, err := frame.ReadTerm[term.Term](r, term.Builder{})
//
// Neither type is safe for concurrent use.
package frame
