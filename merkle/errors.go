package merkle

import "errors"

var (
	// ErrEmptyTree is returned when a tree is requested for a zero-length stream.
	// Such a tree would have no root.
	ErrEmptyTree = errors.New("empty tree: zero-length input has no root")
	// ErrStream wraps failures to read or seek the underlying byte stream.
	ErrStream = errors.New("stream error")
	// ErrBlockSize is returned for non-positive block sizes.
	ErrBlockSize = errors.New("block size must be positive")
)
