//go:build (linux || darwin) && cgo

package checker

/*
#include <dlfcn.h>
#include <stdlib.h>

typedef float (*zroj_check_fn)(void);

static float zroj_call_check(void *fn) {
	return ((zroj_check_fn)fn)();
}
*/
import "C"

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"unsafe"

	"zroj/pkg/errors"
)

const checkSymbol = "check"

// cabiMu serializes CABI checks: calling check() requires chdir'ing the
// whole process into the test's working directory, which is inherently
// global state. Submissions are already judged one test at a time per
// worker, but the CABI checker itself is not safe to call concurrently
// from two workers sharing this process.
var cabiMu sync.Mutex

// CABIChecker implements the CABI{source} checker variant: a problem
// author's source file compiled once into a shared object exposing
// `extern "C" float check(void)`, then dlopen/dlsym'd and invoked with
// the working directory set to the test's own run directory so check()
// can read ./input, ./output, ./answer itself. The return value is a
// score in [0,1]; anything below 1 is treated as incorrect.
type CABIChecker struct {
	// SourcePath is the checker's source file (.c, .cpp, or .rs).
	SourcePath string
	// CacheDir holds the compiled shared object, keyed by source file
	// name, so a problem's checker is only built once per worker process.
	CacheDir string
}

func (c CABIChecker) Check(ctx context.Context, outputPath, answerPath, inputPath string) (bool, string, error) {
	soPath, err := c.ensureCompiled(ctx)
	if err != nil {
		return false, "", errors.Wrap(err, errors.CheckerLoad)
	}

	testDir := filepath.Dir(outputPath)
	if err := linkTestFiles(testDir, outputPath, answerPath, inputPath); err != nil {
		return false, "", errors.Wrap(err, errors.CheckerLoad)
	}

	score, err := callCheck(soPath, testDir)
	if err != nil {
		return false, "", errors.Wrap(err, errors.CheckerFailed)
	}
	if score >= 1 {
		return true, "check() returned 1.0", nil
	}
	return false, fmt.Sprintf("check() returned %.3f", score), nil
}

func (c CABIChecker) ensureCompiled(ctx context.Context) (string, error) {
	cacheDir := c.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Dir(c.SourcePath)
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("create checker cache dir: %w", err)
	}
	soPath := filepath.Join(cacheDir, checkerSOName(c.SourcePath))
	if _, err := os.Stat(soPath); err == nil {
		return soPath, nil
	}

	name, args := compileArgsFor(c.SourcePath, soPath)
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("compile CABI checker %s: %w: %s", c.SourcePath, err, out)
	}
	return soPath, nil
}

// callCheck dlopens soPath, looks up checkSymbol, and invokes it with
// the process's working directory set to workDir.
func callCheck(soPath, workDir string) (float32, error) {
	cabiMu.Lock()
	defer cabiMu.Unlock()

	prevWD, err := os.Getwd()
	if err != nil {
		return 0, fmt.Errorf("getwd: %w", err)
	}
	if err := os.Chdir(workDir); err != nil {
		return 0, fmt.Errorf("chdir %s: %w", workDir, err)
	}
	defer os.Chdir(prevWD)

	cPath := C.CString(soPath)
	defer C.free(unsafe.Pointer(cPath))
	handle := C.dlopen(cPath, C.RTLD_NOW)
	if handle == nil {
		return 0, fmt.Errorf("dlopen %s failed", soPath)
	}
	defer C.dlclose(handle)

	cSym := C.CString(checkSymbol)
	defer C.free(unsafe.Pointer(cSym))
	sym := C.dlsym(handle, cSym)
	if sym == nil {
		return 0, fmt.Errorf("dlsym %s in %s failed", checkSymbol, soPath)
	}

	return float32(C.zroj_call_check(sym)), nil
}
