// Package store implements the append-only byte log the server both
// writes client records and timestamp records into, and reads back
// out as the reply snapshot. A Store is a thin wrapper around a
// filesystem path: every Append and every SendSnapshot opens its own
// file descriptor, because the invariant the caller must preserve is
// logical ordering of writes and reads as seen through the
// filesystem, not exclusive descriptor ownership. Callers are
// responsible for holding a mutex across the {append, send-snapshot}
// pair for a single record — Store itself does not lock, by design,
// so the file mutex can also cover the send step without Store
// needing to know about sockets.
package store

import (
	"fmt"
	"io"
	"os"

	"aesdsocket/internal/xerrors"
)

const sendBufferSize = 1024

// Store is a file at a fixed path, created on first append.
type Store struct {
	path string
}

// New returns a Store backed by path. It does not touch the
// filesystem; the file is created lazily on the first Append.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append opens the store write-append-create, writes data, and
// closes. A short write (n < len(data)) is reported via the returned
// int, together with the write error; the caller logs it but does not
// treat it as fatal —
// the caller's reply will simply reflect what was actually written,
// matching the original design's "partial writes are logged but not
// automatically retried" contract.
func (s *Store) Append(data []byte) (int, error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s for append: %v", xerrors.ErrIO, s.path, err)
	}
	defer f.Close()

	n, err := f.Write(data)
	if err != nil {
		return n, fmt.Errorf("%w: write %s: %v", xerrors.ErrIO, s.path, err)
	}
	return n, nil
}

// SendSnapshot opens the store read-only and streams its full
// contents to w in fixed-size buffer reads, looping on short writes to
// w exactly as the original design loops on short send(). It always
// closes the store file, including on error paths.
func (s *Store) SendSnapshot(w io.Writer) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: open %s for read: %v", xerrors.ErrIO, s.path, err)
	}
	defer f.Close()

	buf := make([]byte, sendBufferSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if werr := writeAll(w, buf[:n]); werr != nil {
				return fmt.Errorf("%w: send snapshot: %v", xerrors.ErrIO, werr)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("%w: read %s: %v", xerrors.ErrIO, s.path, readErr)
		}
	}
}

// writeAll loops until every byte of buf has been written, matching
// the original design's short-send handling.
func writeAll(w io.Writer, buf []byte) error {
	written := 0
	for written < len(buf) {
		n, err := w.Write(buf[written:])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("write returned 0 with no error")
		}
		written += n
	}
	return nil
}

// Size stats the store file and returns its current size, or 0 if it
// does not exist yet. Used only for telemetry.
func (s *Store) Size() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Delete removes the store file. A missing file is reported as an
// error to the caller (to log) but is not otherwise treated as fatal
// — matching the spec's "best effort" shutdown deletion.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("%w: remove %s: %v", xerrors.ErrIO, s.path, err)
	}
	return nil
}
