package runner

import (
	"testing"

	"zroj/internal/sandbox/result"
	"zroj/internal/sandbox/spec"
)

func TestClassifySeccompKillIsDangerousSyscall(t *testing.T) {
	rr := result.RunResult{Signaled: true, Signal: result.SignalSIGSYS, ExitCode: -1}
	req := RunRequest{RunSpec: spec.RunSpec{Limits: spec.ResourceLimit{MemoryMB: 256}}}

	if got := classify(rr, req); got != result.VerdictDangerousSyscall {
		t.Fatalf("expected DangerousSyscall for a SIGSYS kill, got %v", got)
	}
}

func TestClassifyOrdinaryCrashIsRuntimeError(t *testing.T) {
	rr := result.RunResult{ExitCode: 139}
	req := RunRequest{RunSpec: spec.RunSpec{Limits: spec.ResourceLimit{}}}

	if got := classify(rr, req); got != result.VerdictRE {
		t.Fatalf("expected RE for a non-zero exit, got %v", got)
	}
}

func TestClassifyMemoryCeilingWinsOverSignal(t *testing.T) {
	rr := result.RunResult{Signaled: true, Signal: result.SignalSIGSEGV, MemoryKB: 300 * 1024}
	req := RunRequest{RunSpec: spec.RunSpec{Limits: spec.ResourceLimit{MemoryMB: 256}}}

	if got := classify(rr, req); got != result.VerdictMLE {
		t.Fatalf("expected MLE for a SIGSEGV at the memory ceiling, got %v", got)
	}
}

func TestClassifyWithinLimitsIsUnclassified(t *testing.T) {
	rr := result.RunResult{ExitCode: 0, MemoryKB: 10, TimeMs: 5, WallTimeMs: 5}
	req := RunRequest{RunSpec: spec.RunSpec{Limits: spec.ResourceLimit{MemoryMB: 256, CPUTimeMs: 1000, WallTimeMs: 2000}}}

	if got := classify(rr, req); got != "" {
		t.Fatalf("expected an unclassified (empty) verdict for a clean run, got %v", got)
	}
}
