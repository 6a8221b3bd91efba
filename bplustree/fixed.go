package bplus

import "github.com/cockroachdb/errors"

// Fixed right-pads b with zero bytes to size. Longer input is rejected with
// ErrSizeMismatch rather than truncated.
func Fixed(b []byte, size int) ([]byte, error) {
	if len(b) > size {
		return nil, errors.Wrapf(ErrSizeMismatch, "%d bytes do not fit in %d", len(b), size)
	}
	out := make([]byte, size)
	copy(out, b)
	return out, nil
}
