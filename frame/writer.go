package frame

import (
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/bert"
	"github.com/wippyai/bert/errors"
)

// Writer sends length-prefixed packets to an io.Writer.
type Writer struct {
	w     io.Writer
	enc   *bert.Writer
	width int
	sent  int
}

// NewWriter returns a Writer using a width-byte length prefix.
func NewWriter(w io.Writer, width int) (*Writer, error) {
	if err := checkWidth(width); err != nil {
		return nil, err
	}
	return &Writer{
		w:     w,
		enc:   bert.NewWriter(make([]byte, 0, 512)),
		width: width,
	}, nil
}

// Send writes the bytes described by d as one packet. The packet is
// assembled in an internal buffer and handed to the underlying writer
// in a single Write call.
func (w *Writer) Send(d bert.Descriptor) error {
	w.enc.Reset()
	return bert.WritePacket(w.enc, w.width, d, w.flush)
}

// SendExternal sends d prefixed with the external format version byte.
func (w *Writer) SendExternal(d bert.Descriptor) error {
	return w.Send(func(bw *bert.Writer) {
		bw.Version()
		d(bw)
	})
}

// Sent returns the number of packets written so far.
func (w *Writer) Sent() int {
	return w.sent
}

func (w *Writer) flush(_ *bert.Writer, packet []byte) error {
	if _, err := w.w.Write(packet); err != nil {
		return errors.Wrap(errors.PhaseFrame, errors.KindIO, err, "write packet")
	}
	w.sent++
	Logger().Debug("packet sent",
		zap.Int("width", w.width),
		zap.Int("size", len(packet)-w.width),
		zap.Int("seq", w.sent),
	)
	return nil
}

func checkWidth(width int) error {
	switch width {
	case 1, 2, 4, 8:
		return nil
	}
	return errors.New(errors.PhaseFrame, errors.KindInvalidInput).
		Value(width).
		Detail("length prefix width %d not in {1,2,4,8}", width).
		Build()
}
