package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"zroj/internal/lang"
	"zroj/internal/sandbox/profile"
	"zroj/internal/sandbox/result"
	"zroj/internal/sandbox/runner"
)

// recordingRunner captures every RunSpec.Cmd it is asked to execute, and
// simulates a real compiler/program by writing the requested stdout file
// when one is given.
type recordingRunner struct {
	compileCmds [][]string
	runCmds     [][]string
	runVerdict  func(testID string) (int, string)
}

func (r *recordingRunner) Compile(ctx context.Context, req runner.CompileRequest) (result.CompileResult, error) {
	r.compileCmds = append(r.compileCmds, req.RunSpec.Cmd)
	return result.CompileResult{OK: true, ExitCode: 0}, nil
}

func (r *recordingRunner) Run(ctx context.Context, req runner.RunRequest) (result.TestcaseResult, error) {
	r.runCmds = append(r.runCmds, req.RunSpec.Cmd)
	exitCode := 0
	stdout := "default"
	if r.runVerdict != nil {
		exitCode, stdout = r.runVerdict(req.TestID)
	}
	if req.RunSpec.StdoutPath != "" {
		_ = os.WriteFile(req.RunSpec.StdoutPath, []byte(stdout), 0644)
	}
	return result.TestcaseResult{TestID: req.TestID, ExitCode: exitCode, Stdout: stdout}, nil
}

type fixedChecker struct {
	ok bool
}

func (c fixedChecker) Check(ctx context.Context, outputPath, answerPath, inputPath string) (bool, string, error) {
	return c.ok, "", nil
}

// TestJudgeBuildsNonEmptyCompileAndRunCommands guards against the
// regression where compile/run RunSpecs were built with no Cmd at all:
// every compile and test invocation handed to the runner must carry a
// real argv derived from the language's command templates.
func TestJudgeBuildsNonEmptyCompileAndRunCommands(t *testing.T) {
	workRoot := t.TempDir()
	langSpec := lang.BuiltinGnuCppO2("c++17")
	opt := lang.New(langSpec)

	r := &recordingRunner{}
	svc := NewService(r, nil, fixedChecker{ok: true}, nil, nil)

	answerPath := filepath.Join(workRoot, "answer.txt")
	if err := os.WriteFile(answerPath, []byte("3\n"), 0644); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	req := JudgeRequest{
		SubmissionID:   "sub-1",
		Language:       langSpec,
		LangOption:     opt,
		CompileProfile: profile.TaskProfile{LanguageID: langSpec.ID, TaskType: profile.TaskTypeCompile},
		RunProfile:     profile.TaskProfile{LanguageID: langSpec.ID, TaskType: profile.TaskTypeRun},
		WorkRoot:       workRoot,
		SourcePath:     filepath.Join(workRoot, langSpec.SourceFile),
		Tests: []TestcaseSpec{
			{TestID: "1", AnswerPath: answerPath},
		},
	}

	out, err := svc.Judge(context.Background(), req)
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if out.Verdict != result.VerdictAC {
		t.Fatalf("expected AC, got %v", out.Verdict)
	}

	if len(r.compileCmds) != 1 || len(r.compileCmds[0]) == 0 {
		t.Fatalf("expected a non-empty compile argv, got %v", r.compileCmds)
	}
	if r.compileCmds[0][0] != "g++" {
		t.Fatalf("expected g++ as the compiler in the compile argv, got %v", r.compileCmds[0])
	}
	if len(r.runCmds) != 1 || len(r.runCmds[0]) == 0 {
		t.Fatalf("expected a non-empty run argv, got %v", r.runCmds)
	}
}

// TestJudgeReportsCompileErrorWithoutRunning ensures a failed compile
// short-circuits the test loop and reports CE.
func TestJudgeReportsCompileErrorWithoutRunning(t *testing.T) {
	workRoot := t.TempDir()
	langSpec := lang.BuiltinGnuCppO2("c++17")
	opt := lang.New(langSpec)

	r := &failingCompileRunner{}
	svc := NewService(r, nil, fixedChecker{ok: true}, nil, nil)

	req := JudgeRequest{
		SubmissionID: "sub-2",
		Language:     langSpec,
		LangOption:   opt,
		WorkRoot:     workRoot,
		SourcePath:   filepath.Join(workRoot, langSpec.SourceFile),
		Tests:        []TestcaseSpec{{TestID: "1"}},
	}

	out, err := svc.Judge(context.Background(), req)
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if out.Verdict != result.VerdictCE {
		t.Fatalf("expected CE, got %v", out.Verdict)
	}
	if len(out.Tests) != 0 {
		t.Fatalf("expected no tests to run after a failed compile, got %d", len(out.Tests))
	}
}

// TestJudgeRequestCheckerOverridesServiceDefault confirms a per-request
// Checker (the per-problem dispatch a worker resolves from the
// problem's own Meta.Checker field) is used ahead of the Service's own
// default checker.
func TestJudgeRequestCheckerOverridesServiceDefault(t *testing.T) {
	workRoot := t.TempDir()
	langSpec := lang.BuiltinGnuCppO2("c++17")
	langSpec.CompileEnabled = false
	opt := lang.New(langSpec)

	r := &recordingRunner{}
	svc := NewService(r, nil, fixedChecker{ok: false}, nil, nil)

	req := JudgeRequest{
		SubmissionID: "sub-4",
		Language:     langSpec,
		LangOption:   opt,
		WorkRoot:     workRoot,
		SourcePath:   filepath.Join(workRoot, langSpec.SourceFile),
		Tests:        []TestcaseSpec{{TestID: "1"}},
		Checker:      fixedChecker{ok: true},
	}

	out, err := svc.Judge(context.Background(), req)
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if out.Verdict != result.VerdictAC {
		t.Fatalf("expected the request's own checker to override the service default and yield AC, got %v", out.Verdict)
	}
}

type failingCompileRunner struct{}

func (failingCompileRunner) Compile(ctx context.Context, req runner.CompileRequest) (result.CompileResult, error) {
	return result.CompileResult{OK: false, ExitCode: 1, Error: "syntax error"}, nil
}

func (failingCompileRunner) Run(ctx context.Context, req runner.RunRequest) (result.TestcaseResult, error) {
	return result.TestcaseResult{}, nil
}

// TestJudgeWrongAnswerWhenCheckerRejects confirms the checker's verdict
// is used when the runner itself doesn't classify a terminal verdict.
func TestJudgeWrongAnswerWhenCheckerRejects(t *testing.T) {
	workRoot := t.TempDir()
	langSpec := lang.BuiltinGnuCppO2("c++17")
	langSpec.CompileEnabled = false
	opt := lang.New(langSpec)

	r := &recordingRunner{}
	svc := NewService(r, nil, fixedChecker{ok: false}, nil, nil)

	req := JudgeRequest{
		SubmissionID: "sub-3",
		Language:     langSpec,
		LangOption:   opt,
		WorkRoot:     workRoot,
		SourcePath:   filepath.Join(workRoot, langSpec.SourceFile),
		Tests:        []TestcaseSpec{{TestID: "1"}},
	}

	out, err := svc.Judge(context.Background(), req)
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if out.Verdict != result.VerdictWA {
		t.Fatalf("expected WA, got %v", out.Verdict)
	}
}
