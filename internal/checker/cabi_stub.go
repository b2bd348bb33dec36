//go:build !((linux || darwin) && cgo)

package checker

import (
	"context"
	"fmt"
)

// CABIChecker is unavailable on this platform/build: CABI{source}
// checkers are dlopen'd native shared objects, which requires cgo on
// linux or darwin. See cabi.go for the real implementation.
type CABIChecker struct {
	SourcePath string
	CacheDir   string
}

func (c CABIChecker) Check(ctx context.Context, outputPath, answerPath, inputPath string) (bool, string, error) {
	return false, "", fmt.Errorf("CABI checkers require cgo on linux or darwin, unsupported on this build")
}
