package frame

import (
	"encoding/binary"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/bert"
	"github.com/wippyai/bert/errors"
)

// DefaultMaxPacketSize bounds packet payloads unless overridden.
const DefaultMaxPacketSize = 16 << 20

// Reader reads length-prefixed packets from an io.Reader.
type Reader struct {
	r       io.Reader
	width   int
	maxSize uint64
	offset  int
	hdr     [8]byte
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPacketSize sets the largest payload ReadPacket accepts.
func WithMaxPacketSize(n uint64) ReaderOption {
	return func(r *Reader) {
		r.maxSize = n
	}
}

// NewReader returns a Reader expecting a width-byte length prefix.
func NewReader(r io.Reader, width int, opts ...ReaderOption) (*Reader, error) {
	if err := checkWidth(width); err != nil {
		return nil, err
	}
	rd := &Reader{
		r:       r,
		width:   width,
		maxSize: DefaultMaxPacketSize,
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd, nil
}

// ReadPacket reads one packet and returns its payload. It returns
// io.EOF, unwrapped, when the stream ends cleanly between packets.
func (r *Reader) ReadPacket() ([]byte, error) {
	start := r.offset
	hdr := r.hdr[:r.width]
	n, err := io.ReadFull(r.r, hdr)
	r.offset += n
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, r.readError(err, start, r.width, n, "read packet prefix")
	}

	var size uint64
	switch r.width {
	case 1:
		size = uint64(hdr[0])
	case 2:
		size = uint64(binary.BigEndian.Uint16(hdr))
	case 4:
		size = uint64(binary.BigEndian.Uint32(hdr))
	default:
		size = binary.BigEndian.Uint64(hdr)
	}
	if size > r.maxSize {
		return nil, errors.TooLarge(errors.PhaseFrame, start, size, r.maxSize)
	}

	payload := make([]byte, size)
	n, err = io.ReadFull(r.r, payload)
	r.offset += n
	if err != nil {
		return nil, r.readError(err, start, int(size), n, "read packet payload")
	}

	Logger().Debug("packet received",
		zap.Int("width", r.width),
		zap.Uint64("size", size),
		zap.Int("offset", start),
	)
	return payload, nil
}

// Offset returns the number of bytes consumed from the stream.
func (r *Reader) Offset() int {
	return r.offset
}

func (r *Reader) readError(err error, start, want, have int, detail string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Truncated(errors.PhaseFrame, start, want, have)
	}
	return errors.New(errors.PhaseFrame, errors.KindIO).
		Offset(start).
		Detail(detail).
		Cause(err).
		Build()
}

// ReadTerm reads one packet holding an external format term and
// decodes it with b. Compressed terms are accepted.
func ReadTerm[T any](r *Reader, b bert.Builder[T], opts ...bert.DecodeOption) (T, error) {
	payload, err := r.ReadPacket()
	if err != nil {
		var zero T
		return zero, err
	}
	return bert.DecodeExternal(payload, b, opts...)
}
