package bert

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/bert/errors"
)

// Descriptor describes one term by issuing primitive write calls on w.
//
// A descriptor is always invoked twice per WritePacket or Encode call:
// once against a counting sink to measure the term, then again to emit
// it. Both invocations MUST make the same sequence of calls with the
// same arguments. A descriptor that reads mutable state, consumes an
// iterator, or otherwise branches differently on the second run breaks
// the length prefix. The writer detects a byte-count mismatch and
// panics, but an equal-length difference cannot be detected.
type Descriptor func(w *Writer)

// DoneFunc receives the completed packet, length prefix included.
// packet aliases the writer's buffer.
type DoneFunc func(w *Writer, packet []byte) error

// Writer emits the primitive BERT shapes into a caller-owned buffer.
// In a measuring pass the same calls only count bytes.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	buf      []byte
	size     int
	counting bool
}

// NewWriter creates a Writer appending to buf, which may be nil.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf[:0]}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset empties the buffer, keeping its capacity.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// Measuring reports whether the current pass only counts bytes.
func (w *Writer) Measuring() bool {
	return w.counting
}

// WriteSub measures d: it runs d once against a counting sink and
// returns the number of bytes d would push. Nothing is written.
// It may be called from inside another descriptor.
func WriteSub(w *Writer, d Descriptor) int {
	counting, size := w.counting, w.size
	defer func() {
		w.counting, w.size = counting, size
	}()
	w.counting, w.size = true, 0
	d(w)
	return w.size
}

// Encode measures d, grows the buffer to fit and emits d once more.
// It returns the bytes emitted by this call.
func Encode(w *Writer, d Descriptor) []byte {
	if w.counting {
		violation("Encode called during a measuring pass")
	}
	size := WriteSub(w, d)
	start := len(w.buf)
	w.buf = slices.Grow(w.buf, size)
	w.emit(d, size, start)
	return w.buf[start:]
}

// WritePacket writes d as a packet: a width-byte big-endian length
// prefix followed by the payload. The payload is measured with
// WriteSub, the buffer is grown to hold exactly width+size more bytes,
// and d is run a second time to emit. done, if not nil, is then called
// with the finished packet.
//
// width must be 1, 2, 4 or 8 and d must write at least one byte;
// violating either panics. A payload too long for the prefix returns
// an error and writes nothing.
func WritePacket(w *Writer, width int, d Descriptor, done DoneFunc) error {
	if w.counting {
		violation("WritePacket called during a measuring pass")
	}
	switch width {
	case 1, 2, 4, 8:
	default:
		violation("packet length prefix width %d not in {1,2,4,8}", width)
	}

	size := WriteSub(w, d)
	if size == 0 {
		violation("packet descriptor wrote no bytes")
	}
	if width < 8 && uint64(size) >= 1<<(8*uint(width)) {
		return errors.Overflow(errors.PhaseEncode, size, prefixName(width))
	}

	start := len(w.buf)
	w.buf = slices.Grow(w.buf, width+size)
	w.putUint(uint64(size), width)
	w.emit(d, size, start)

	Logger().Debug("packet written",
		zap.Int("width", width),
		zap.Int("payload", size),
	)

	if done == nil {
		return nil
	}
	return done(w, w.buf[start:])
}

// emit runs the second pass and checks it against the measured size.
// On mismatch the partial output is discarded before panicking.
func (w *Writer) emit(d Descriptor, size, start int) {
	saved := w.size
	w.size = 0
	d(w)
	emitted := w.size
	w.size = saved
	if emitted != size {
		w.buf = w.buf[:start]
		violation("descriptor measured %d bytes but emitted %d", size, emitted)
	}
}

func violation(format string, args ...any) {
	err := errors.Contract(format, args...)
	Logger().Error("bert writer contract violation", zap.Error(err))
	panic(err)
}

func prefixName(width int) string {
	return fmt.Sprintf("%d-byte length prefix", width)
}

// Byte pushes one raw byte.
func (w *Writer) Byte(b byte) {
	w.size++
	if !w.counting {
		w.buf = append(w.buf, b)
	}
}

// Raw pushes raw bytes.
func (w *Writer) Raw(p []byte) {
	w.size += len(p)
	if !w.counting {
		w.buf = append(w.buf, p...)
	}
}

func (w *Writer) putUint(v uint64, size int) {
	for i := size - 1; i >= 0; i-- {
		w.Byte(byte(v >> (8 * uint(i))))
	}
}

// Uint writes v big-endian in exactly size bytes, 1 to 4.
func (w *Writer) Uint(v uint32, size int) {
	if size < 1 || size > 4 {
		violation("uint size %d not in 1..4", size)
	}
	if size < 4 && v >= 1<<(8*uint(size)) {
		violation("value %d does not fit in %d bytes", v, size)
	}
	w.putUint(uint64(v), size)
}

// Version writes the external format version byte.
func (w *Writer) Version() {
	w.Byte(TagVersion)
}

// SmallTuple starts a tuple of n elements, n <= 255. Exactly n terms
// must follow.
func (w *Writer) SmallTuple(n int) {
	if n < 0 || n > MaxSmallTuple {
		violation("small tuple arity %d out of range", n)
	}
	w.Byte(TagSmallTuple)
	w.Byte(byte(n))
}

// LargeTuple starts a tuple of n elements with a 4-byte arity.
func (w *Writer) LargeTuple(n int) {
	w.Byte(TagLargeTuple)
	w.Uint(checkLength("tuple arity", n), 4)
}

// Tuple starts a tuple of n elements using the smallest header.
func (w *Writer) Tuple(n int) {
	if n >= 0 && n <= MaxSmallTuple {
		w.SmallTuple(n)
		return
	}
	w.LargeTuple(n)
}

// SmallAtom writes an atom of at most 255 bytes.
func (w *Writer) SmallAtom(name []byte) {
	if len(name) > MaxSmallAtom {
		violation("small atom length %d exceeds %d", len(name), MaxSmallAtom)
	}
	w.Byte(TagSmallAtom)
	w.Byte(byte(len(name)))
	w.Raw(name)
}

// Atom writes an atom with a 2-byte length.
func (w *Writer) Atom(name []byte) {
	if len(name) > MaxAtom {
		violation("atom length %d exceeds %d", len(name), MaxAtom)
	}
	w.Byte(TagAtom)
	w.Uint(uint32(len(name)), 2)
	w.Raw(name)
}

// AtomName writes name using the smallest atom header.
func (w *Writer) AtomName(name string) {
	if len(name) <= MaxSmallAtom {
		w.SmallAtom([]byte(name))
		return
	}
	w.Atom([]byte(name))
}

// Binary writes a binary with a 4-byte length.
func (w *Writer) Binary(data []byte) {
	w.Byte(TagBinary)
	w.Uint(checkLength("binary length", len(data)), 4)
	w.Raw(data)
}

// String writes an Erlang string of at most 65535 bytes.
func (w *Writer) String(data []byte) {
	if len(data) > MaxString {
		violation("string length %d exceeds %d", len(data), MaxString)
	}
	w.Byte(TagString)
	w.Uint(uint32(len(data)), 2)
	w.Raw(data)
}

// List starts a list of n elements. Exactly n terms and then one tail
// term must follow; use Nil for a proper list.
func (w *Writer) List(n int) {
	w.Byte(TagList)
	w.Uint(checkLength("list length", n), 4)
}

// Nil writes the empty list.
func (w *Writer) Nil() {
	w.Byte(TagNil)
}

// SmallInteger writes an integer in 0..255.
func (w *Writer) SmallInteger(v uint8) {
	w.Byte(TagSmallInteger)
	w.Byte(v)
}

// Integer writes a signed 32-bit integer.
func (w *Writer) Integer(v int32) {
	w.Byte(TagInteger)
	w.Uint(uint32(v), 4)
}

// Int writes v using the smallest integer tag.
func (w *Writer) Int(v int32) {
	if v >= 0 && v <= MaxSmallInt {
		w.SmallInteger(uint8(v))
		return
	}
	w.Integer(v)
}

func checkLength(what string, n int) uint32 {
	if n < 0 || uint64(n) > MaxLengthField {
		violation("%s %d out of range", what, n)
	}
	return uint32(n)
}
