package buffer

import (
	"bytes"
	"io"
	"testing"
)

func TestWriteInMemory(t *testing.T) {
	b := New(1024)
	defer b.Close()

	if _, err := b.Write([]byte("hello ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := b.Write([]byte("world")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if b.Spilled() {
		t.Error("small payload should not spill")
	}
	if got := string(b.Bytes()); got != "hello world" {
		t.Errorf("Bytes = %q, want hello world", got)
	}
	if b.Size() != 11 {
		t.Errorf("Size = %d, want 11", b.Size())
	}
}

func TestSpillToDisk(t *testing.T) {
	b := New(8)
	defer b.Close()

	payload := bytes.Repeat([]byte("x"), 64)
	if _, err := b.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	if !b.Spilled() {
		t.Fatal("payload over the limit should spill")
	}
	if b.Bytes() != nil {
		t.Error("Bytes should be empty after spilling")
	}

	r, err := b.Reader()
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("spilled payload did not round-trip")
	}
	if got := b.String(); got != string(payload) {
		t.Error("String should read the spilled payload")
	}
}

func TestCloseIdempotent(t *testing.T) {
	b := New(4)
	b.Write(bytes.Repeat([]byte("y"), 32))

	if err := b.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := b.Write([]byte("z")); err == nil {
		t.Error("write after close should fail")
	}
}

func TestReset(t *testing.T) {
	b := New(1024)
	b.Write([]byte("first"))

	if err := b.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if b.Size() != 0 {
		t.Errorf("Size after reset = %d, want 0", b.Size())
	}
	if _, err := b.Write([]byte("second")); err != nil {
		t.Fatalf("write after reset: %v", err)
	}
	if got := string(b.Bytes()); got != "second" {
		t.Errorf("Bytes = %q, want second", got)
	}
	b.Close()
}
