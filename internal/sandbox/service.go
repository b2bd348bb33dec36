package sandbox

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"zroj/internal/sandbox/observer"
	"zroj/internal/sandbox/result"
	"zroj/internal/sandbox/runner"
	"zroj/internal/sandbox/spec"
	"zroj/pkg/logger"

	"go.uber.org/zap"
)

// Checker decides whether a program's output matches the expected answer
// for one test case. Implementations live in the checker package; this
// interface exists here to avoid an import cycle between sandbox and
// checker (checker results feed back into a JudgeResult).
type Checker interface {
	Check(ctx context.Context, outputPath, answerPath, inputPath string) (ok bool, message string, err error)
}

// KillRegistry tracks in-flight submissions so Kill can be implemented
// without a direct dependency on a specific engine.
type KillRegistry interface {
	KillSubmission(ctx context.Context, submissionID string) error
}

type defaultService struct {
	runner   runner.Runner
	kill     KillRegistry
	checker  Checker
	reporter StatusReporter
	metrics  observer.MetricsRecorder
}

// NewService builds the sandbox Service from a Runner, a checker, and
// optional status/metrics hooks.
func NewService(r runner.Runner, kill KillRegistry, checker Checker, reporter StatusReporter, metrics observer.MetricsRecorder) Service {
	return &defaultService{runner: r, kill: kill, checker: checker, reporter: reporter, metrics: metrics}
}

func (s *defaultService) Judge(ctx context.Context, req JudgeRequest) (result.JudgeResult, error) {
	receivedAt := time.Now().UnixMilli()
	out := result.JudgeResult{
		SubmissionID: req.SubmissionID,
		Status:       result.StatusRunning,
		Language:     req.Language.ID,
		Timestamps:   result.Timestamps{ReceivedAt: receivedAt},
	}
	s.report(ctx, req, out, 0)

	if req.Language.CompileEnabled {
		compileSpec, err := compileRunSpec(req)
		if err != nil {
			return result.JudgeResult{}, err
		}
		compileResult, err := s.runner.Compile(ctx, runner.CompileRequest{
			SubmissionID: req.SubmissionID,
			Language:     req.Language,
			Profile:      req.CompileProfile,
			RunSpec:      compileSpec,
		})
		if err != nil {
			return result.JudgeResult{}, err
		}
		out.Compile = &compileResult
		if s.metrics != nil {
			s.metrics.ObserveCompile(ctx, req.Language.ID, compileResult.OK, compileResult.TimeMs, compileResult.MemoryKB)
		}
		if !compileResult.OK {
			out.Status = result.StatusFinished
			out.Verdict = result.VerdictCE
			out.Timestamps.FinishedAt = time.Now().UnixMilli()
			return out, nil
		}
	}

	var summary result.SummaryStat
	worst := result.VerdictAC
	for i, tc := range req.Tests {
		tcResult, err := s.runTest(ctx, req, tc)
		if err != nil {
			return result.JudgeResult{}, err
		}
		out.Tests = append(out.Tests, tcResult)
		summary.TotalTimeMs += tcResult.TimeMs
		if tcResult.MemoryKB > summary.MaxMemoryKB {
			summary.MaxMemoryKB = tcResult.MemoryKB
		}
		summary.TotalScore += tcResult.Score
		if tcResult.Verdict != result.VerdictAC && summary.FailedTestID == "" {
			summary.FailedTestID = tc.TestID
			worst = tcResult.Verdict
		}
		if s.metrics != nil {
			s.metrics.ObserveRun(ctx, req.Language.ID, string(tcResult.Verdict), tcResult.TimeMs, tcResult.MemoryKB, tcResult.OutputKB)
		}
		s.report(ctx, req, out, i+1)
	}

	out.Summary = summary
	out.Score = summary.TotalScore
	out.Status = result.StatusFinished
	out.Verdict = worst
	out.Timestamps.FinishedAt = time.Now().UnixMilli()
	s.report(ctx, req, out, len(req.Tests))
	return out, nil
}

func (s *defaultService) runTest(ctx context.Context, req JudgeRequest, tc TestcaseSpec) (result.TestcaseResult, error) {
	outputPath := filepath.Join(req.WorkRoot, tc.TestID, "output.txt")
	testWorkDir := filepath.Join(req.WorkRoot, tc.TestID)

	runSpec, err := req.LangOption.RunSpec(binaryPath(req), testWorkDir, nil)
	if err != nil {
		return result.TestcaseResult{}, fmt.Errorf("build run spec: %w", err)
	}
	runSpec.SubmissionID = req.SubmissionID
	runSpec.TestID = tc.TestID
	runSpec.WorkDir = testWorkDir
	runSpec.StdinPath = tc.InputPath
	runSpec.StdoutPath = outputPath
	runSpec.Profile = req.RunProfile.RootFS
	runSpec.Limits = tc.Limits

	tcResult, err := s.runner.Run(ctx, runner.RunRequest{
		SubmissionID: req.SubmissionID,
		TestID:       tc.TestID,
		Language:     req.Language,
		Profile:      req.RunProfile,
		RunSpec:      runSpec,
	})
	if err != nil {
		return result.TestcaseResult{}, err
	}
	tcResult.SubtaskID = tc.SubtaskID

	if tcResult.Verdict != "" {
		return tcResult, nil
	}
	chk := req.Checker
	if chk == nil {
		chk = s.checker
	}
	if chk == nil {
		tcResult.Verdict = result.VerdictSE
		return tcResult, nil
	}

	ok, msg, err := chk.Check(ctx, outputPath, tc.AnswerPath, tc.InputPath)
	if err != nil {
		logger.Warn(ctx, "checker error", zap.String("test_id", tc.TestID), zap.Error(err))
		tcResult.Verdict = result.VerdictSE
		return tcResult, nil
	}
	if ok {
		tcResult.Verdict = result.VerdictAC
		tcResult.Score = tc.Score
	} else {
		tcResult.Verdict = result.VerdictWA
	}
	tcResult.CheckerLogPath = msg
	return tcResult, nil
}

func (s *defaultService) Kill(ctx context.Context, submissionID string) error {
	if s.kill == nil {
		return fmt.Errorf("kill not supported by this service")
	}
	return s.kill.KillSubmission(ctx, submissionID)
}

func (s *defaultService) report(ctx context.Context, req JudgeRequest, out result.JudgeResult, done int) {
	if s.reporter == nil {
		return
	}
	_ = s.reporter.ReportStatus(ctx, StatusUpdate{
		SubmissionID: req.SubmissionID,
		Status:       out.Status,
		Language:     req.Language.ID,
		TotalTests:   len(req.Tests),
		DoneTests:    done,
		ReceivedAt:   out.Timestamps.ReceivedAt,
		FinishedAt:   out.Timestamps.FinishedAt,
	})
}

// binaryPath is where a compiled submission's executable lives, or the
// source path itself for a language that runs directly without a
// compile step.
func binaryPath(req JudgeRequest) string {
	if !req.Language.CompileEnabled {
		return req.SourcePath
	}
	return filepath.Join(req.WorkRoot, req.Language.BinaryFile)
}

func compileRunSpec(req JudgeRequest) (spec.RunSpec, error) {
	rs, err := req.LangOption.CompileSpec(req.SourcePath, binaryPath(req), req.WorkRoot)
	if err != nil {
		return spec.RunSpec{}, fmt.Errorf("build compile spec: %w", err)
	}
	rs.SubmissionID = req.SubmissionID
	rs.TestID = "compile"
	rs.WorkDir = req.WorkRoot
	rs.Profile = req.CompileProfile.RootFS
	rs.Limits = req.CompileProfile.DefaultLimits
	return rs, nil
}
