package bplus

import "github.com/cockroachdb/errors"

var (
	// ErrAllocationFailure reports that a split could not obtain a new node.
	// The tree is left exactly as it was before the failed call.
	ErrAllocationFailure = errors.New("node allocation failed")

	// ErrSizeMismatch reports a key or value whose length differs from the
	// configured key/value size. Nothing is touched.
	ErrSizeMismatch = errors.New("key or value size mismatch")

	// ErrInvariantViolation marks corrupted buffers or a malformed comparator.
	ErrInvariantViolation = errors.New("b+tree invariant violated")

	ErrInvalidConfig = errors.New("invalid tree configuration")
	ErrNodeNotFound  = errors.New("node not found")
	ErrKeyNotFound   = errors.New("key not found")
	ErrCorruptPage   = errors.New("corrupt page")
	ErrStoreClosed   = errors.New("node store is closed")
)

// invariantf builds an assertion failure that also matches ErrInvariantViolation.
func invariantf(format string, args ...interface{}) error {
	return errors.Mark(errors.AssertionFailedf(format, args...), ErrInvariantViolation)
}
