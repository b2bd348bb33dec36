package checker

import (
	"context"
	"os/exec"

	"zroj/pkg/errors"
)

// testlib exit codes, as defined by Mike Mirzayanov's testlib.h.
const (
	testlibOK             = 0
	testlibWrongAnswer    = 1
	testlibPresentationErr = 2
	testlibFail           = 3
)

// TestlibChecker runs an externally compiled testlib-style checker binary
// as `checker <input> <output> <answer>` and interprets its exit code. The
// binary itself is expected to have already been built and sandboxed the
// same way a submission is; this type only interprets the result.
type TestlibChecker struct {
	BinaryPath string
	Args       []string
}

func (t TestlibChecker) Check(ctx context.Context, outputPath, answerPath, inputPath string) (bool, string, error) {
	args := append([]string{}, t.Args...)
	args = append(args, inputPath, outputPath, answerPath)
	cmd := exec.CommandContext(ctx, t.BinaryPath, args...)
	out, err := cmd.CombinedOutput()

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return false, "", errors.Wrap(err, errors.CheckerLoad)
		}
		exitCode = exitErr.ExitCode()
	}

	switch exitCode {
	case testlibOK:
		return true, string(out), nil
	case testlibWrongAnswer, testlibPresentationErr:
		return false, string(out), nil
	default:
		return false, string(out), errors.New(errors.CheckerFailed).WithMessage("checker crashed").WithDetail("exit_code", exitCode)
	}
}
