package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"zroj/internal/lang"
	"zroj/internal/sandbox/result"
	"zroj/internal/sandbox/runner"
)

// countingRunner fakes compilation: every Compile call writes the bytes
// "binary" at the RunSpec's destination (the last argv element, which the
// template substituted ${dest} into) unless the source file (the third
// argv element from the end) holds the sentinel failContent, and counts
// how many times it was invoked.
type countingRunner struct {
	calls       int
	failContent string
}

func (r *countingRunner) Compile(ctx context.Context, req runner.CompileRequest) (result.CompileResult, error) {
	r.calls++
	dest := req.RunSpec.Cmd[len(req.RunSpec.Cmd)-1]
	src := req.RunSpec.Cmd[len(req.RunSpec.Cmd)-3]
	data, err := os.ReadFile(src)
	if err != nil {
		return result.CompileResult{}, err
	}
	if string(data) == r.failContent {
		return result.CompileResult{OK: false, ExitCode: 1, Error: "compile error"}, nil
	}
	if err := os.WriteFile(dest, []byte("binary"), 0755); err != nil {
		return result.CompileResult{}, err
	}
	return result.CompileResult{OK: true, ExitCode: 0}, nil
}

func (r *countingRunner) Run(ctx context.Context, req runner.RunRequest) (result.TestcaseResult, error) {
	return result.TestcaseResult{}, nil
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return p
}

// TestCacheDeterministicHit checks property 2: a second GetExec for the
// same (language, source) returns the same path without recompiling.
func TestCacheDeterministicHit(t *testing.T) {
	dir := t.TempDir()
	r := &countingRunner{}
	c := New(8, dir, r)
	opt := lang.New(lang.BuiltinGnuCppO2("c++17"))
	src := writeSource(t, t.TempDir(), "a.cpp", "int main(){}")

	p1, err := c.GetExec(context.Background(), "sub1", opt, src)
	if err != nil {
		t.Fatalf("first GetExec: %v", err)
	}
	p2, err := c.GetExec(context.Background(), "sub2", opt, src)
	if err != nil {
		t.Fatalf("second GetExec: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("expected identical cache path, got %q and %q", p1, p2)
	}
	if r.calls != 1 {
		t.Fatalf("expected exactly one compile invocation, got %d", r.calls)
	}
}

// TestCacheNegativeCaching checks property 3: a compile failure is
// reported identically on a second call, without invoking the compiler
// again.
func TestCacheNegativeCaching(t *testing.T) {
	dir := t.TempDir()
	r := &countingRunner{failContent: "broken"}
	c := New(8, dir, r)
	opt := lang.New(lang.BuiltinGnuCppO2("c++17"))
	src := writeSource(t, t.TempDir(), "broken.cpp", "broken")

	_, err1 := c.GetExec(context.Background(), "sub1", opt, src)
	_, err2 := c.GetExec(context.Background(), "sub2", opt, src)
	if err1 == nil || err2 == nil {
		t.Fatalf("expected both calls to report the cached compile failure")
	}
	if err1.Error() != err2.Error() {
		t.Fatalf("expected identical error message, got %q and %q", err1, err2)
	}
	if r.calls != 1 {
		t.Fatalf("expected exactly one compile invocation despite two misses... err lookups, got %d", r.calls)
	}
}

// TestCacheLRUEviction checks property 1: once the cache is full, the
// least-recently-used entry is evicted to make room for a new one.
func TestCacheLRUEviction(t *testing.T) {
	dir := t.TempDir()
	r := &countingRunner{}
	c := New(2, dir, r)
	opt := lang.New(lang.BuiltinGnuCppO2("c++17"))

	srcDir := t.TempDir()
	srcA := writeSource(t, srcDir, "a.cpp", "source A")
	srcB := writeSource(t, srcDir, "b.cpp", "source B")
	srcC := writeSource(t, srcDir, "c.cpp", "source C")

	pathA, err := c.GetExec(context.Background(), "subA", opt, srcA)
	if err != nil {
		t.Fatalf("compile A: %v", err)
	}
	if _, err := c.GetExec(context.Background(), "subB", opt, srcB); err != nil {
		t.Fatalf("compile B: %v", err)
	}
	// Touch A again so B becomes the least-recently-used entry.
	if _, err := c.GetExec(context.Background(), "subA2", opt, srcA); err != nil {
		t.Fatalf("re-touch A: %v", err)
	}
	if _, err := c.GetExec(context.Background(), "subC", opt, srcC); err != nil {
		t.Fatalf("compile C: %v", err)
	}

	if _, err := os.Stat(pathA); err != nil {
		t.Fatalf("expected A's artifact to remain cached: %v", err)
	}
	calls := r.calls
	// A hit must not trigger a recompile.
	if _, err := c.GetExec(context.Background(), "subA3", opt, srcA); err != nil {
		t.Fatalf("final A lookup: %v", err)
	}
	if r.calls != calls {
		t.Fatalf("expected A to remain a cache hit, triggered a recompile")
	}
}
