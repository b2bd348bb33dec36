package checker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckerSOName(t *testing.T) {
	cases := map[string]string{
		"main-pre.cpp":      "main-pre.so",
		"/a/b/checker.c":    "checker.so",
		"quine-checker.rs":  "quine-checker.so",
		"no_extension_file": "no_extension_file.so",
	}
	for in, want := range cases {
		if got := checkerSOName(in); got != want {
			t.Errorf("checkerSOName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompileArgsForPicksCompilerByExtension(t *testing.T) {
	name, args := compileArgsFor("checker.cpp", "/tmp/checker.so")
	if name != "g++" {
		t.Fatalf("expected g++ for .cpp, got %q", name)
	}
	if len(args) == 0 {
		t.Fatalf("expected non-empty compile args")
	}

	name, _ = compileArgsFor("checker.rs", "/tmp/checker.so")
	if name != "rustc" {
		t.Fatalf("expected rustc for .rs, got %q", name)
	}

	name, _ = compileArgsFor("checker.c", "/tmp/checker.so")
	if name != "cc" {
		t.Fatalf("expected cc for .c, got %q", name)
	}
}

// TestLinkTestFilesCreatesFixedNames verifies the S7 quine-checker
// convention: a CABI checker reads ./output (and, for S7, a
// main-pre*.{c,cpp,rs,py,s} source file) from its working directory
// rather than through argv.
func TestLinkTestFilesCreatesFixedNames(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "raw-output.txt")
	answerPath := filepath.Join(dir, "raw-answer.txt")
	if err := os.WriteFile(outputPath, []byte("hello"), 0644); err != nil {
		t.Fatalf("write output: %v", err)
	}
	if err := os.WriteFile(answerPath, []byte("hello"), 0644); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	if err := linkTestFiles(dir, outputPath, answerPath, ""); err != nil {
		t.Fatalf("linkTestFiles: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "output"))
	if err != nil {
		t.Fatalf("read ./output link: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected linked output to read through to the real file, got %q", data)
	}
	if _, err := os.Lstat(filepath.Join(dir, "input")); err == nil {
		t.Fatalf("expected no ./input link when inputPath is empty")
	}
}
