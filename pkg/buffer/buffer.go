// Package buffer provides the response body sink: memory-backed storage that
// spills to a temporary file above a configurable threshold.
package buffer

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/sorales/go-httpipe/pkg/constants"
	"github.com/sorales/go-httpipe/pkg/errors"
)

// Buffer accumulates body bytes in memory, spooling to a temporary file once
// the memory limit is exceeded.
type Buffer struct {
	mem    bytes.Buffer
	file   *os.File
	path   string
	size   int64
	limit  int64
	mu     sync.Mutex
	closed bool
}

// New creates a Buffer with the provided memory limit. A non-positive limit
// selects the default.
func New(limit int64) *Buffer {
	if limit <= 0 {
		limit = constants.DefaultBodyMemLimit
	}
	return &Buffer{limit: limit}
}

// Write stores the provided bytes, spilling to disk once above the memory
// threshold.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errors.NewIOError("writing to closed buffer", nil)
	}

	b.size += int64(len(p))

	if b.file == nil && int64(b.mem.Len()+len(p)) <= b.limit {
		return b.mem.Write(p)
	}

	if b.file == nil {
		tmp, err := os.CreateTemp("", "httpipe-body-*.tmp")
		if err != nil {
			return 0, errors.NewIOError("creating spill file", err)
		}
		b.file = tmp
		b.path = tmp.Name()
		if b.mem.Len() > 0 {
			if _, err := tmp.Write(b.mem.Bytes()); err != nil {
				b.closeLocked()
				return 0, errors.NewIOError("writing spill file", err)
			}
		}
		b.mem.Reset()
	}

	n, err := b.file.Write(p)
	if err != nil {
		return n, errors.NewIOError("writing spill file", err)
	}
	return n, nil
}

// Bytes returns the in-memory data. Empty once the payload has spilled;
// use Reader or String for spilled payloads.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.file != nil {
		return nil
	}
	return b.mem.Bytes()
}

// String returns the full accumulated payload as a string, reading the spill
// file when necessary.
func (b *Buffer) String() string {
	r, err := b.Reader()
	if err != nil {
		return ""
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// Size returns the total number of bytes written.
func (b *Buffer) Size() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Spilled reports whether the payload has spilled to disk.
func (b *Buffer) Spilled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file != nil
}

// Reader returns a fresh reader over the stored data.
func (b *Buffer) Reader() (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.NewIOError("reading closed buffer", nil)
	}
	if b.file != nil {
		if err := b.file.Sync(); err != nil {
			return nil, errors.NewIOError("syncing spill file", err)
		}
		f, err := os.Open(b.path)
		if err != nil {
			return nil, errors.NewIOError("opening spill file", err)
		}
		return f, nil
	}
	return io.NopCloser(bytes.NewReader(b.mem.Bytes())), nil
}

// Close releases the spill file, if any. Idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

func (b *Buffer) closeLocked() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.file != nil {
		err := b.file.Close()
		if removeErr := os.Remove(b.path); removeErr != nil && err == nil {
			err = removeErr
		}
		b.file = nil
		b.path = ""
		if err != nil {
			return errors.NewIOError("closing spill file", err)
		}
	}
	return nil
}

// Reset clears the buffer for reuse across request cycles.
func (b *Buffer) Reset() error {
	if err := b.Close(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mem.Reset()
	b.size = 0
	b.closed = false
	return nil
}
