// Package xerrors defines the small, shared error taxonomy leaf
// packages return so callers can classify a failure with errors.Is
// instead of string matching.
package xerrors

import "errors"

var (
	// ErrOutOfMemory signals an allocation failure in a leaf package
	// (deque node, growing buffer). Go never fails a small allocation
	// in practice, but the sentinel is kept so callers built against
	// the original design's error taxonomy still compile and behave
	// the same under errors.Is.
	ErrOutOfMemory = errors.New("xerrors: out of memory")

	// ErrInvalidState signals an operation against a deque with no
	// elements, or a node handle that does not belong to the deque it
	// was presented to.
	ErrInvalidState = errors.New("xerrors: invalid state")

	// ErrIO wraps any socket or file I/O failure a leaf package hits.
	ErrIO = errors.New("xerrors: io error")

	// ErrSystem wraps fork/setsid/signal installation failures at
	// startup.
	ErrSystem = errors.New("xerrors: system error")
)
