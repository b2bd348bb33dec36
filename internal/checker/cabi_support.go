package checker

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CABIHeader is the header asset handed to problem authors writing a
// CABI{source} checker, declaring the check() entry point their source
// must export.
//
//go:embed cabi_header.h
var CABIHeader string

// checkerSOName derives the compiled shared object's name from its
// source file, so repeated judging of the same problem reuses one
// cached build instead of recompiling per submission.
func checkerSOName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".so"
}

// compileArgsFor picks the compiler and flags for a CABI checker source
// file based on its extension, defaulting to a C compiler.
func compileArgsFor(sourcePath, soPath string) (string, []string) {
	switch filepath.Ext(sourcePath) {
	case ".cpp", ".cc", ".cxx":
		return "g++", []string{"-shared", "-fPIC", "-O2", sourcePath, "-o", soPath}
	case ".rs":
		return "rustc", []string{"--crate-type", "cdylib", "-O", "-o", soPath, sourcePath}
	default:
		return "cc", []string{"-shared", "-fPIC", "-O2", sourcePath, "-o", soPath}
	}
}

// linkTestFiles symlinks a test's output/answer/input paths into the
// fixed names (./output, ./answer, ./input) a CABI checker reads from
// its working directory. A link left by an earlier test in the same
// directory is removed and re-created to point at this test's file.
func linkTestFiles(testDir, outputPath, answerPath, inputPath string) error {
	links := map[string]string{
		"output": outputPath,
		"answer": answerPath,
		"input":  inputPath,
	}
	for name, target := range links {
		if target == "" {
			continue
		}
		link := filepath.Join(testDir, name)
		if _, err := os.Lstat(link); err == nil {
			_ = os.Remove(link)
		}
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("link %s: %w", name, err)
		}
	}
	return nil
}
