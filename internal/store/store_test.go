package store

import (
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Tags  []string `json:"tags"`
}

// TestMetaRoundTrip checks property 6 (FsStore round-trip) for the meta
// sidecar: saving then opening yields an equal value.
func TestMetaRoundTrip(t *testing.T) {
	h := NewHandle(filepath.Join(t.TempDir(), "entity"))
	in := sample{Name: "prob1", Score: 12.5, Tags: []string{"a", "b"}}
	if err := h.SaveMeta(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	var out sample
	if err := h.LoadMeta(&out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Name != in.Name || out.Score != in.Score || len(out.Tags) != len(in.Tags) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

// TestWriteFileAtomicRoundTrip checks a plain file written through
// WriteFileAtomic reads back identically.
func TestWriteFileAtomicRoundTrip(t *testing.T) {
	h := NewHandle(t.TempDir())
	data := []byte("hello sandbox")
	if err := h.WriteFileAtomic("greeting.txt", data); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := h.OpenFile("greeting.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	buf := make([]byte, len(data))
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != string(data) {
		t.Fatalf("got %q, want %q", buf, data)
	}
}

// TestCompressedRoundTrip checks WriteCompressed/ReadCompressed restore
// the original bytes exactly.
func TestCompressedRoundTrip(t *testing.T) {
	h := NewHandle(t.TempDir())
	data := []byte("a payload large enough to be worth gzip, repeated. " +
		"a payload large enough to be worth gzip, repeated.")
	if err := h.WriteCompressed("payload.gz", data); err != nil {
		t.Fatalf("write compressed: %v", err)
	}
	got, err := h.ReadCompressed("payload.gz")
	if err != nil {
		t.Fatalf("read compressed: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("round trip mismatch")
	}
}

func TestJoinNestsUnderParent(t *testing.T) {
	h := NewHandle("/tmp/root")
	child := h.Join("data")
	if child.Path() != filepath.Join("/tmp/root", "data") {
		t.Fatalf("unexpected join path: %s", child.Path())
	}
}
