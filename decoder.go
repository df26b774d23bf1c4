package bert

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/wippyai/bert/errors"
)

// Builder constructs values of the caller's term type T. The decoder
// calls it bottom-up: every child is built before its parent.
//
// Byte arguments are views into the Source, not copies, and are only
// valid for the duration of the call. Implementations that keep them
// must copy.
type Builder[T any] interface {
	// Tuple builds a tuple from its decoded elements.
	Tuple(elems []T) (T, error)
	// List builds a list from its decoded elements and tail. The tail
	// is Nil() for proper lists and any other term for improper ones.
	List(elems []T, tail T) (T, error)
	Binary(data []byte) (T, error)
	Atom(name []byte) (T, error)
	// String builds an Erlang string: a list of small integers sent
	// compactly as raw bytes.
	String(data []byte) (T, error)
	Integer(v int32) (T, error)
	// Nil returns the empty list. It must return the same value every
	// time; the decoder never constructs an empty list itself.
	Nil() T
}

// DecodeConfig holds decoder limits.
type DecodeConfig struct {
	MaxDepth    int
	MaxElements int
}

// DecodeOption configures a decode call.
type DecodeOption func(*DecodeConfig)

// WithMaxDepth bounds the nesting depth of tuples and lists.
func WithMaxDepth(n int) DecodeOption {
	return func(c *DecodeConfig) {
		c.MaxDepth = n
	}
}

// WithMaxElements bounds the arity of a single tuple or list.
func WithMaxElements(n int) DecodeOption {
	return func(c *DecodeConfig) {
		c.MaxElements = n
	}
}

func newDecodeConfig(opts []DecodeOption) DecodeConfig {
	cfg := DecodeConfig{
		MaxDepth:    DefaultMaxDepth,
		MaxElements: DefaultMaxElements,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Decode reads one term from src and folds it through b.
// On error no partial result is returned.
func Decode[T any](src Source, b Builder[T], opts ...DecodeOption) (T, error) {
	d := &decoder[T]{
		src: src,
		b:   b,
		cfg: newDecodeConfig(opts),
	}
	if l, ok := src.(Lengther); ok {
		d.remaining = l.Len
	}
	v, err := d.term()
	if err != nil {
		Logger().Debug("decode failed", zap.Int("offset", src.Offset()), zap.Error(err))
		var zero T
		return zero, err
	}
	return v, nil
}

// DecodeBytes decodes exactly one term occupying all of data.
func DecodeBytes[T any](data []byte, b Builder[T], opts ...DecodeOption) (T, error) {
	src := NewBytesSource(data)
	v, err := Decode(src, b, opts...)
	if err != nil {
		return v, err
	}
	if src.Len() != 0 {
		var zero T
		return zero, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Offset(src.Offset()).
			Detail("%d trailing bytes after term", src.Len()).
			Build()
	}
	return v, nil
}

type decoder[T any] struct {
	src       Source
	b         Builder[T]
	remaining func() int
	cfg       DecodeConfig
	depth     int
}

func (d *decoder[T]) term() (T, error) {
	var zero T
	off := d.src.Offset()
	tag, err := d.src.ReadByte()
	if err != nil {
		return zero, err
	}

	switch tag {
	case TagSmallInteger:
		v, err := d.readUint(1)
		if err != nil {
			return zero, err
		}
		return d.built(off, tag)(d.b.Integer(int32(v)))

	case TagInteger:
		v, err := d.readUint(4)
		if err != nil {
			return zero, err
		}
		return d.built(off, tag)(d.b.Integer(int32(v)))

	case TagSmallTuple, TagLargeTuple:
		width := 1
		if tag == TagLargeTuple {
			width = 4
		}
		arity, err := d.readUint(width)
		if err != nil {
			return zero, err
		}
		elems, err := d.elements(off, tag, arity, 0)
		if err != nil {
			return zero, err
		}
		return d.built(off, tag)(d.b.Tuple(elems))

	case TagList:
		count, err := d.readUint(4)
		if err != nil {
			return zero, err
		}
		elems, err := d.elements(off, tag, count, 1)
		if err != nil {
			return zero, err
		}
		d.depth++
		tail, err := d.term()
		d.depth--
		if err != nil {
			return zero, err
		}
		return d.built(off, tag)(d.b.List(elems, tail))

	case TagNil:
		return d.b.Nil(), nil

	case TagBinary:
		return d.blob(off, tag, 4, d.b.Binary)

	case TagAtom, TagAtomUTF8:
		return d.blob(off, tag, 2, d.b.Atom)

	case TagSmallAtom, TagSmallAtomUTF8:
		return d.blob(off, tag, 1, d.b.Atom)

	case TagString:
		return d.blob(off, tag, 2, d.b.String)

	default:
		return zero, errors.UnknownTag(off, tag)
	}
}

// elements decodes n child terms one level deeper. extra is the number
// of terms that must still follow the elements (the list tail).
func (d *decoder[T]) elements(off int, tag byte, n uint32, extra int) ([]T, error) {
	if d.depth >= d.cfg.MaxDepth {
		return nil, errors.TooDeep(off, d.cfg.MaxDepth)
	}
	if uint64(n) > uint64(d.cfg.MaxElements) {
		return nil, errors.New(errors.PhaseDecode, errors.KindTooLarge).
			Offset(off).
			Tag(tag).
			Detail("%d elements exceeds limit %d", n, d.cfg.MaxElements).
			Value(n).
			Build()
	}
	// Every term occupies at least one byte.
	if d.remaining != nil {
		if have := d.remaining(); uint64(n)+uint64(extra) > uint64(have) {
			return nil, errors.New(errors.PhaseDecode, errors.KindTruncated).
				Offset(off).
				Tag(tag).
				Detail("%d elements declared, %d bytes available", n, have).
				Value(n).
				Build()
		}
	}

	d.depth++
	defer func() { d.depth-- }()

	elems := make([]T, 0, min(n, 1024))
	for i := uint32(0); i < n; i++ {
		v, err := d.term()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return elems, nil
}

// blob handles the length-prefixed shapes. The constructor sees a view
// of the payload, then the cursor moves past it.
func (d *decoder[T]) blob(off int, tag byte, width int, build func([]byte) (T, error)) (T, error) {
	var zero T
	size, err := d.readUint(width)
	if err != nil {
		return zero, err
	}
	n := int(size)
	if n < 0 || uint64(n) != uint64(size) {
		return zero, errors.TooLarge(errors.PhaseDecode, off, uint64(size), uint64(maxInt))
	}
	data, err := d.src.Peek(n)
	if err != nil {
		return zero, err
	}
	v, err := build(data)
	if err != nil {
		return zero, errors.BuilderFailed(off, tag, err)
	}
	if err := d.src.Advance(n); err != nil {
		return zero, err
	}
	return v, nil
}

// readUint reads a big-endian unsigned field of width bytes.
func (d *decoder[T]) readUint(width int) (uint32, error) {
	buf, err := d.src.Peek(width)
	if err != nil {
		return 0, err
	}
	var v uint32
	switch width {
	case 1:
		v = uint32(buf[0])
	case 2:
		v = uint32(binary.BigEndian.Uint16(buf))
	default:
		v = binary.BigEndian.Uint32(buf)
	}
	if err := d.src.Advance(width); err != nil {
		return 0, err
	}
	return v, nil
}

func (d *decoder[T]) built(off int, tag byte) func(T, error) (T, error) {
	return func(v T, err error) (T, error) {
		if err != nil {
			var zero T
			return zero, errors.BuilderFailed(off, tag, err)
		}
		return v, nil
	}
}

const maxInt = int(^uint(0) >> 1)
