package bert

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/wippyai/bert/errors"
)

// MaxInflate bounds the declared size of a compressed term.
const MaxInflate = 64 << 20

// DecodeExternal decodes a term in external format: the version byte
// followed by either a plain term or a zlib compressed envelope.
// Offsets in errors for compressed input refer to the inflated term.
func DecodeExternal[T any](data []byte, b Builder[T], opts ...DecodeOption) (T, error) {
	var zero T
	body, err := Unwrap(data)
	if err != nil {
		return zero, err
	}
	return DecodeBytes(body, b, opts...)
}

// Unwrap strips the version byte and inflates a compressed envelope,
// returning the bytes of the bare term.
func Unwrap(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.Truncated(errors.PhaseDecode, 0, 1, 0)
	}
	if data[0] != TagVersion {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Offset(0).
			Tag(data[0]).
			Detail("missing version byte %d", TagVersion).
			Build()
	}
	body := data[1:]
	if len(body) == 0 || body[0] != TagCompressed {
		return body, nil
	}
	return inflate(body[1:])
}

func inflate(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, errors.Truncated(errors.PhaseDecode, 2, 4, len(data))
	}
	size := binary.BigEndian.Uint32(data)
	if size > MaxInflate {
		return nil, errors.TooLarge(errors.PhaseDecode, 2, uint64(size), MaxInflate)
	}

	zr, err := zlib.NewReader(bytes.NewReader(data[4:]))
	if err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Offset(6).
			Detail("open zlib stream").
			Cause(err).
			Build()
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Offset(6).
			Detail("inflate %d bytes", size).
			Cause(err).
			Build()
	}
	var extra [1]byte
	if n, _ := zr.Read(extra[:]); n != 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, 6, "inflated data longer than declared size")
	}
	return out, nil
}

// Compress converts an external-format term into the compressed
// envelope: version, tag 80, the uncompressed size and zlib data.
// level is a zlib level such as zlib.DefaultCompression.
func Compress(external []byte, level int) ([]byte, error) {
	if len(external) < 2 || external[0] != TagVersion {
		return nil, errors.InvalidInput(errors.PhaseEncode, "input is not an external-format term")
	}
	if external[1] == TagCompressed {
		return nil, errors.InvalidInput(errors.PhaseEncode, "input is already compressed")
	}
	term := external[1:]

	var buf bytes.Buffer
	buf.WriteByte(TagVersion)
	buf.WriteByte(TagCompressed)
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(term)))
	buf.Write(size[:])

	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidInput, err, "zlib level")
	}
	if _, err := zw.Write(term); err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "deflate")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "deflate")
	}
	return buf.Bytes(), nil
}

// EncodeExternal measures and emits d preceded by the version byte.
func EncodeExternal(w *Writer, d Descriptor) []byte {
	return Encode(w, func(w *Writer) {
		w.Version()
		d(w)
	})
}
