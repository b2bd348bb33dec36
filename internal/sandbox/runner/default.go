package runner

import (
	"context"

	"zroj/internal/sandbox/engine"
	"zroj/internal/sandbox/result"
)

// DefaultRunner drives compile and run workflows through a sandbox Engine,
// classifying the raw RunResult against the task's resource limits. It does
// not itself decide AC/WA: that verdict is assigned by a checker once the
// runner has produced output.
type DefaultRunner struct {
	Engine engine.Engine
}

// NewDefaultRunner wraps a sandbox Engine in a Runner.
func NewDefaultRunner(eng engine.Engine) *DefaultRunner {
	return &DefaultRunner{Engine: eng}
}

func (r *DefaultRunner) Compile(ctx context.Context, req CompileRequest) (result.CompileResult, error) {
	runResult, err := r.Engine.Run(ctx, req.RunSpec)
	if err != nil {
		return result.CompileResult{}, err
	}
	return result.CompileResult{
		OK:       runResult.ExitCode == 0,
		ExitCode: runResult.ExitCode,
		TimeMs:   runResult.TimeMs,
		MemoryKB: runResult.MemoryKB,
		Error:    runResult.Stderr,
	}, nil
}

func (r *DefaultRunner) Run(ctx context.Context, req RunRequest) (result.TestcaseResult, error) {
	runResult, err := r.Engine.Run(ctx, req.RunSpec)
	if err != nil {
		return result.TestcaseResult{}, err
	}

	tc := result.TestcaseResult{
		TestID:   req.TestID,
		TimeMs:   runResult.TimeMs,
		MemoryKB: runResult.MemoryKB,
		OutputKB: runResult.OutputKB,
		ExitCode: runResult.ExitCode,
		Stdout:   runResult.Stdout,
		Stderr:   runResult.Stderr,
	}
	tc.Verdict = classify(runResult, req)
	return tc, nil
}

// classify maps a raw RunResult to the terminal verdicts the runner itself
// can determine: exceeding a limit, tripping the sandbox's syscall
// denylist, or crashing. AC/WA is left to the checker stage, signaled
// here as the empty verdict.
//
// Verdicts are checked in a fixed order: SIGSYS first (the installed
// seccomp filter killed it for a denylisted syscall), then memory (an OOM
// kill, usage over the limit, or SIGSEGV with memory at the ceiling),
// then time, then output. Within each resource, measured usage over the
// limit is checked before the signal tied to it, so a run whose usage
// exceeds an earlier resource's limit takes that verdict whatever signal
// it died from. A signal with no matching resource pressure, or no
// signal at all with a non-zero exit, both fall through to RE.
func classify(rr result.RunResult, req RunRequest) result.Verdict {
	limits := req.RunSpec.Limits
	switch {
	case rr.Signaled && rr.Signal == result.SignalSIGSYS:
		return result.VerdictDangerousSyscall
	case rr.OomKilled, limits.MemoryMB > 0 && rr.MemoryKB > limits.MemoryMB*1024:
		return result.VerdictMLE
	case rr.Signaled && rr.Signal == result.SignalSIGSEGV && limits.MemoryMB > 0 && rr.MemoryKB >= limits.MemoryMB*1024:
		return result.VerdictMLE
	case limits.CPUTimeMs > 0 && rr.TimeMs > limits.CPUTimeMs:
		return result.VerdictTLE
	case rr.Signaled && rr.Signal == result.SignalSIGXCPU:
		return result.VerdictTLE
	case limits.WallTimeMs > 0 && rr.WallTimeMs > limits.WallTimeMs:
		return result.VerdictTLE
	case rr.Signaled && rr.Signal == result.SignalSIGKILL && limits.WallTimeMs > 0 && rr.WallTimeMs >= limits.WallTimeMs:
		return result.VerdictTLE
	case limits.OutputMB > 0 && rr.OutputKB > limits.OutputMB*1024:
		return result.VerdictOLE
	case rr.Signaled && rr.Signal == result.SignalSIGXFSZ:
		return result.VerdictOLE
	case rr.ExitCode != 0 || rr.Signaled:
		return result.VerdictRE
	default:
		return ""
	}
}
