package bert

import (
	"bufio"
	"io"

	"github.com/wippyai/bert/errors"
)

// Source is the byte cursor consumed by the decoder.
// The position only moves forward.
type Source interface {
	// ReadByte returns the next byte and advances by one.
	ReadByte() (byte, error)
	// Peek returns the next n bytes without consuming them. It fails
	// when fewer than n bytes remain. The slice is only valid until the
	// next call on the Source.
	Peek(n int) ([]byte, error)
	// Advance skips n bytes.
	Advance(n int) error
	// Offset returns the number of bytes consumed so far.
	Offset() int
}

// Lengther is implemented by sources that know how many bytes remain.
// The decoder uses it to reject element counts that cannot fit.
type Lengther interface {
	Len() int
}

// BytesSource is a zero-copy Source over an in-memory buffer.
type BytesSource struct {
	data []byte
	pos  int
}

// NewBytesSource creates a Source reading data from the start.
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

// ReadByte reads a single byte and advances the position.
func (s *BytesSource) ReadByte() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, errors.Truncated(errors.PhaseDecode, s.pos, 1, 0)
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

// Peek returns a view of the next n bytes. The view's capacity is
// clipped so appending to it never writes into the source.
func (s *BytesSource) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, s.pos, "negative length")
	}
	if n > len(s.data)-s.pos {
		return nil, errors.Truncated(errors.PhaseDecode, s.pos, n, len(s.data)-s.pos)
	}
	return s.data[s.pos : s.pos+n : s.pos+n], nil
}

// Advance skips n bytes.
func (s *BytesSource) Advance(n int) error {
	if n < 0 {
		return errors.InvalidData(errors.PhaseDecode, s.pos, "negative advance")
	}
	if n > len(s.data)-s.pos {
		return errors.Truncated(errors.PhaseDecode, s.pos, n, len(s.data)-s.pos)
	}
	s.pos += n
	return nil
}

// Offset returns the current byte position.
func (s *BytesSource) Offset() int {
	return s.pos
}

// Len returns the number of unread bytes.
func (s *BytesSource) Len() int {
	return len(s.data) - s.pos
}

// readChunk bounds how much a ReaderSource reads ahead at once, so a
// bogus length field costs at most what the stream actually holds.
const readChunk = 64 * 1024

// ReaderSource is a Source over an io.Reader, consumed lazily.
// Peeks larger than the bufio buffer are staged in a read-ahead slice.
type ReaderSource struct {
	r     *bufio.Reader
	ahead []byte
	pos   int
}

// NewReaderSource wraps r. An existing *bufio.Reader is used as is.
func NewReaderSource(r io.Reader) *ReaderSource {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &ReaderSource{r: br}
}

// ReadByte reads a single byte and advances the position.
func (s *ReaderSource) ReadByte() (byte, error) {
	if len(s.ahead) > 0 {
		b := s.ahead[0]
		s.ahead = s.ahead[1:]
		s.pos++
		return b, nil
	}
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, s.wrapError(1, 0, err)
	}
	s.pos++
	return b, nil
}

// Peek returns the next n bytes without consuming them.
func (s *ReaderSource) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, s.pos, "negative length")
	}
	if len(s.ahead) >= n {
		return s.ahead[:n:n], nil
	}
	if len(s.ahead) == 0 && n <= s.r.Size() {
		buf, err := s.r.Peek(n)
		if err != nil {
			return nil, s.wrapError(n, len(buf), err)
		}
		return buf, nil
	}
	for len(s.ahead) < n {
		chunk := min(n-len(s.ahead), readChunk)
		start := len(s.ahead)
		s.ahead = append(s.ahead, make([]byte, chunk)...)
		got, err := io.ReadFull(s.r, s.ahead[start:])
		s.ahead = s.ahead[:start+got]
		if err != nil {
			return nil, s.wrapError(n, len(s.ahead), err)
		}
	}
	return s.ahead[:n:n], nil
}

// Advance skips n bytes.
func (s *ReaderSource) Advance(n int) error {
	if n < 0 {
		return errors.InvalidData(errors.PhaseDecode, s.pos, "negative advance")
	}
	if k := min(n, len(s.ahead)); k > 0 {
		s.ahead = s.ahead[k:]
		s.pos += k
		n -= k
	}
	if n == 0 {
		return nil
	}
	skipped, err := s.r.Discard(n)
	s.pos += skipped
	if err != nil {
		return s.wrapError(n, skipped, err)
	}
	return nil
}

// Offset returns the current byte position.
func (s *ReaderSource) Offset() int {
	return s.pos
}

func (s *ReaderSource) wrapError(want, have int, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF || err == bufio.ErrBufferFull {
		return errors.Truncated(errors.PhaseDecode, s.pos, want, have)
	}
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Offset(s.pos).
		Detail("read source").
		Cause(err).
		Build()
}
