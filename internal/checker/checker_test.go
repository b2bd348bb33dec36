package checker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestFileCmpExactMatch(t *testing.T) {
	dir := t.TempDir()
	out := writeTemp(t, dir, "out.txt", "3\n")
	ans := writeTemp(t, dir, "ans.txt", "3\n")
	ok, _, err := (FileCmp{}).Check(context.Background(), out, ans, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected exact match to pass")
	}
}

func TestFileCmpMismatch(t *testing.T) {
	dir := t.TempDir()
	out := writeTemp(t, dir, "out.txt", "4\n")
	ans := writeTemp(t, dir, "ans.txt", "3\n")
	ok, _, err := (FileCmp{}).Check(context.Background(), out, ans, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch to fail")
	}
}

// TestAutoCmpFloatWithinAbsEps mirrors the float-tolerance scenario: an
// output of 0.0 against an answer of 0.0001 should match under a loose
// absolute epsilon.
func TestAutoCmpFloatWithinAbsEps(t *testing.T) {
	dir := t.TempDir()
	out := writeTemp(t, dir, "out.txt", "0.0\n")
	ans := writeTemp(t, dir, "ans.txt", "0.0001\n")
	c := AutoCmp{FloatAbsEps: 1e-3}
	ok, _, err := c.Check(context.Background(), out, ans, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match within abs eps 1e-3")
	}
}

// TestAutoCmpFloatOutsideAbsEps tightens the epsilon so the same pair now
// fails: the checker is only as tolerant as its configured epsilon.
func TestAutoCmpFloatOutsideAbsEps(t *testing.T) {
	dir := t.TempDir()
	out := writeTemp(t, dir, "out.txt", "0.0\n")
	ans := writeTemp(t, dir, "ans.txt", "0.0001\n")
	c := AutoCmp{FloatAbsEps: 1e-5}
	ok, _, err := c.Check(context.Background(), out, ans, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch outside abs eps 1e-5")
	}
}

func TestAutoCmpTokenCountMismatch(t *testing.T) {
	dir := t.TempDir()
	out := writeTemp(t, dir, "out.txt", "1 2\n")
	ans := writeTemp(t, dir, "ans.txt", "1 2 3\n")
	ok, msg, err := (AutoCmp{}).Check(context.Background(), out, ans, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || msg == "" {
		t.Fatalf("expected token count mismatch to fail with a message")
	}
}

func TestAutoCmpWhitespaceTolerant(t *testing.T) {
	dir := t.TempDir()
	out := writeTemp(t, dir, "out.txt", "  1   2  \n")
	ans := writeTemp(t, dir, "ans.txt", "1 2\n")
	ok, _, err := (AutoCmp{}).Check(context.Background(), out, ans, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected whitespace-only differences to match")
	}
}

func TestResolveDispatchesOnCheckerKind(t *testing.T) {
	root := t.TempDir()

	if _, ok := mustResolve(t, "", root).(AutoCmp); !ok {
		t.Fatalf("expected empty checker name to resolve to AutoCmp")
	}
	if _, ok := mustResolve(t, "auto", root).(AutoCmp); !ok {
		t.Fatalf("expected %q to resolve to AutoCmp", "auto")
	}
	if _, ok := mustResolve(t, "filecmp", root).(FileCmp); !ok {
		t.Fatalf("expected %q to resolve to FileCmp", "filecmp")
	}

	tl, ok := mustResolve(t, "testlib:bin/checker", root).(TestlibChecker)
	if !ok {
		t.Fatalf("expected %q to resolve to TestlibChecker", "testlib:bin/checker")
	}
	if tl.BinaryPath != filepath.Join(root, "bin/checker") {
		t.Fatalf("expected testlib binary path relative to problem root, got %q", tl.BinaryPath)
	}

	cb, ok := mustResolve(t, "cabi:checker/main.cpp", root).(CABIChecker)
	if !ok {
		t.Fatalf("expected %q to resolve to CABIChecker", "cabi:checker/main.cpp")
	}
	if cb.SourcePath != filepath.Join(root, "checker/main.cpp") {
		t.Fatalf("expected cabi source path relative to problem root, got %q", cb.SourcePath)
	}
}

func TestResolveRejectsUnknownKind(t *testing.T) {
	if _, err := Resolve("not-a-real-checker", t.TempDir()); err == nil {
		t.Fatalf("expected an error for an unknown checker kind")
	}
}

func mustResolve(t *testing.T, name, root string) Checker {
	t.Helper()
	c, err := Resolve(name, root)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", name, err)
	}
	return c
}

func TestCompareByLineLineCountMismatch(t *testing.T) {
	dir := t.TempDir()
	out := writeTemp(t, dir, "out.txt", "1\n2\n")
	ans := writeTemp(t, dir, "ans.txt", "1\n")
	ok, msg, err := (FileCmp{}).Check(context.Background(), out, ans, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected extra output line to fail")
	}
	if msg != "incorrect number of lines" {
		t.Fatalf("unexpected message: %q", msg)
	}
}
