// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"time"
)

// Normalize ensures a generation failure is always represented as a
// StandardError so the job record carries a stable code, the offending
// identifiers and the retryable flag.
func Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}

	var unknown *UnknownFeatureError
	if stderrors.As(err, &unknown) {
		return NewUnknownFeatureError(unknown.Slugs)
	}

	var dup *DuplicateModelError
	if stderrors.As(err, &dup) {
		return NewDuplicateModelError(dup.Model, dup.FirstSource, dup.SecondSource)
	}

	var walk *TreeWalkError
	if stderrors.As(err, &walk) {
		return NewTreeWalkFailedError(walk.Path, walk.Err)
	}

	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether a failed run may be re-queued as-is.
func IsRetryable(err error) bool {
	return Normalize(err).Retryable
}
