package checker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// defaultFloatAbsEps and defaultFloatRelEps are the tolerances AutoCmp
// uses when a problem selects it without tuning its own epsilons.
const (
	defaultFloatAbsEps = 1e-6
	defaultFloatRelEps = 1e-6
)

// Checker mirrors sandbox.Checker's method set without importing the
// sandbox package, avoiding an import cycle (sandbox already imports
// nothing from checker, but checker is the one package every Resolve
// caller wants to keep free of sandbox's dependency graph). Any value
// satisfying sandbox.Checker also satisfies this interface and vice versa.
type Checker interface {
	Check(ctx context.Context, outputPath, answerPath, inputPath string) (ok bool, message string, err error)
}

// Resolve builds the Checker named by a problem's Meta.Checker field.
// The empty string and "auto" both select AutoCmp with the judge's
// default tolerance. "filecmp" selects FileCmp. "testlib:<path>" and
// "cabi:<path>" load an external checker binary or CABI{source} shared
// object from a path relative to problemRoot.
func Resolve(name string, problemRoot string) (Checker, error) {
	kind, arg, _ := strings.Cut(name, ":")
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "auto", "autocmp":
		return AutoCmp{FloatAbsEps: defaultFloatAbsEps, FloatRelEps: defaultFloatRelEps}, nil
	case "filecmp":
		return FileCmp{}, nil
	case "testlib":
		if arg == "" {
			return nil, fmt.Errorf("testlib checker requires a binary path, got %q", name)
		}
		return TestlibChecker{BinaryPath: filepath.Join(problemRoot, arg)}, nil
	case "cabi":
		if arg == "" {
			return nil, fmt.Errorf("cabi checker requires a source path, got %q", name)
		}
		return CABIChecker{
			SourcePath: filepath.Join(problemRoot, arg),
			CacheDir:   filepath.Join(problemRoot, ".checker-cache"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown checker kind %q", kind)
	}
}
