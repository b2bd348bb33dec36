package runner

import (
	"context"

	"zroj/internal/sandbox/profile"
	"zroj/internal/sandbox/result"
	"zroj/internal/sandbox/spec"
)

// CompileRequest describes one compilation task.
type CompileRequest struct {
	SubmissionID string
	Language     profile.LanguageSpec
	Profile      profile.TaskProfile
	RunSpec      spec.RunSpec
}

// RunRequest describes one execution task.
type RunRequest struct {
	SubmissionID string
	TestID       string
	Language     profile.LanguageSpec
	Profile      profile.TaskProfile
	RunSpec      spec.RunSpec
}

// Runner orchestrates compile and run workflows.
type Runner interface {
	Compile(ctx context.Context, req CompileRequest) (result.CompileResult, error)
	Run(ctx context.Context, req RunRequest) (result.TestcaseResult, error)
}

// CppCompileRequest carries C++-specific compile flags (e.g. -O2,
// -std=c++17, sanitizer toggles) next to the base compile request.
// CompileCpp does not add ExtraFlags to the command; the compile argv is
// RunSpec.Cmd as given.
type CppCompileRequest struct {
	CompileRequest
	ExtraFlags []string
}

// CppRunRequest is the C++ run request; C++ binaries run the same as any
// other compiled language, so no extra fields are needed today.
type CppRunRequest struct {
	RunRequest
}
