package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode  Phase = "decode"  // bytes to term
	PhaseEncode  Phase = "encode"  // term to bytes
	PhaseFrame   Phase = "frame"   // packet transport
	PhaseParse   Phase = "parse"   // Erlang term text
	PhaseConvert Phase = "convert" // term to native values
)

// Kind categorizes the error
type Kind string

const (
	KindTruncated    Kind = "truncated"
	KindUnknownTag   Kind = "unknown_tag"
	KindTooDeep      Kind = "too_deep"
	KindTooLarge     Kind = "too_large"
	KindOverflow     Kind = "overflow"
	KindContract     Kind = "contract"
	KindInvalidData  Kind = "invalid_data"
	KindInvalidInput Kind = "invalid_input"
	KindBuilder      Kind = "builder"
	KindIO           Kind = "io"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Offset int
	Tag    byte
	HasTag bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.HasTag {
		fmt.Fprintf(&b, " (tag %d)", e.Tag)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder. The offset is unset until Offset is called.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Offset sets the byte offset the error refers to
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Tag sets the tag byte being processed
func (b *Builder) Tag(tag byte) *Builder {
	b.err.Tag = tag
	b.err.HasTag = true
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is matching. Only Phase and Kind are compared.
var (
	ErrTruncated   = &Error{Phase: PhaseDecode, Kind: KindTruncated}
	ErrUnknownTag  = &Error{Phase: PhaseDecode, Kind: KindUnknownTag}
	ErrTooDeep     = &Error{Phase: PhaseDecode, Kind: KindTooDeep}
	ErrTooLarge    = &Error{Phase: PhaseDecode, Kind: KindTooLarge}
	ErrContract    = &Error{Phase: PhaseEncode, Kind: KindContract}
	ErrOverflow    = &Error{Phase: PhaseEncode, Kind: KindOverflow}
	ErrFrameTooBig = &Error{Phase: PhaseFrame, Kind: KindTooLarge}
)

// Convenience constructors for common error patterns

// Truncated creates an error for a read past the end of the input
func Truncated(phase Phase, offset, want, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Offset: offset,
		Detail: fmt.Sprintf("need %d bytes, %d available", want, have),
		Value:  want,
	}
}

// UnknownTag creates an unrecognized tag error
func UnknownTag(offset int, tag byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownTag,
		Offset: offset,
		Tag:    tag,
		HasTag: true,
		Detail: "unsupported term tag",
		Value:  tag,
	}
}

// TooDeep creates a nesting depth error
func TooDeep(offset, limit int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTooDeep,
		Offset: offset,
		Detail: fmt.Sprintf("nesting exceeds %d levels", limit),
		Value:  limit,
	}
}

// TooLarge creates a size limit error
func TooLarge(phase Phase, offset int, size, limit uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTooLarge,
		Offset: offset,
		Detail: fmt.Sprintf("size %d exceeds limit %d", size, limit),
		Value:  size,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, value any, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Offset: -1,
		Detail: fmt.Sprintf("value %v overflows %s", value, target),
		Value:  value,
	}
}

// Contract creates a contract violation error. These are raised with panic.
func Contract(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindContract,
		Offset: -1,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, offset int, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Offset: offset,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Offset: -1,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: -1,
		Detail: detail,
		Cause:  cause,
	}
}

// BuilderFailed wraps an error returned by a caller-supplied constructor
func BuilderFailed(offset int, tag byte, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBuilder,
		Offset: offset,
		Tag:    tag,
		HasTag: true,
		Detail: "constructor failed",
		Cause:  cause,
	}
}
