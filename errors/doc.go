// Package errors provides structured error types for the bert module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the byte offset, the tag being processed, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTruncated).
//		Offset(12).
//		Tag(109).
//		Detail("binary length %d exceeds input", 100).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownTag(offset, tag)
//	err := errors.Truncated(errors.PhaseDecode, offset, 100, 10)
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match any Error with the same Phase and Kind:
//
//	if errors.Is(err, errors.ErrTruncated) { ... }
package errors
