package judge

import (
	"context"
	"fmt"
	"path/filepath"

	"zroj/internal/lang"
	"zroj/internal/problem"
	"zroj/internal/report"
	"zroj/internal/sandbox"
	"zroj/internal/sandbox/profile"
	"zroj/internal/sandbox/result"
	"zroj/internal/sandbox/spec"
	"zroj/pkg/errors"
)

// Submission describes one user program to judge against a problem's
// taskset.
type Submission struct {
	ID             string
	Language       profile.LanguageSpec
	LangOption     lang.Option
	SourcePath     string
	WorkRoot       string
	CompileProfile profile.TaskProfile
	RunProfile     profile.TaskProfile
	// Checker is the problem's configured answer checker, resolved from
	// its Meta.Checker field. Nil falls back to the sandbox Service's
	// own default.
	Checker sandbox.Checker
}

// Pipeline drives one submission through compile and every test case of a
// problem's taskset, folding results into a report.JudgeReport.
type Pipeline struct {
	Service sandbox.Service
}

// NewPipeline builds a Pipeline around a sandbox Service.
func NewPipeline(svc sandbox.Service) *Pipeline {
	return &Pipeline{Service: svc}
}

// JudgeFull runs a submission against the pretest, full, and extra
// tasksets of an OJData. The pretest and extra passes are skipped when
// their taskset is empty; the full data pass always runs, even on an
// empty taskset.
func (p *Pipeline) JudgeFull(ctx context.Context, sub Submission, data problem.OJData[problem.Task, problem.Meta], problemRoot string) (report.FullJudgeReport, error) {
	var out report.FullJudgeReport

	if hasTests(data.Pre) {
		r, err := p.JudgeTaskset(ctx, sub, data.Meta, data.Pre, problemRoot)
		if err != nil {
			return out, err
		}
		out.Pre = &r
	}

	dataReport, err := p.JudgeTaskset(ctx, sub, data.Meta, data.Data, problemRoot)
	if err != nil {
		return out, err
	}
	out.Data = dataReport

	if hasTests(data.Extra) {
		r, err := p.JudgeTaskset(ctx, sub, data.Meta, data.Extra, problemRoot)
		if err != nil {
			return out, err
		}
		out.Extra = &r
	}

	return out, nil
}

func hasTests(ts problem.Taskset[problem.Task]) bool {
	if ts.Kind == problem.KindTests {
		return len(ts.Tests) > 0
	}
	for _, st := range ts.Subtasks {
		if len(st.Tasks) > 0 {
			return true
		}
	}
	return false
}

// JudgeTaskset runs one taskset (flat tests or subtasks-with-deps) and
// returns the aggregate report for it.
func (p *Pipeline) JudgeTaskset(ctx context.Context, sub Submission, meta problem.Meta, ts problem.Taskset[problem.Task], problemRoot string) (report.JudgeReport, error) {
	if ts.Kind == problem.KindTests {
		return p.judgeFlat(ctx, sub, meta, ts.Tests, problemRoot)
	}
	return p.judgeSubtasks(ctx, sub, meta, ts, problemRoot)
}

func (p *Pipeline) judgeFlat(ctx context.Context, sub Submission, meta problem.Meta, tasks []problem.Task, problemRoot string) (report.JudgeReport, error) {
	tests := buildTestcaseSpecs(tasks, "", meta, problemRoot)
	judgeResult, err := p.runJudge(ctx, sub, meta, tests)
	if err != nil {
		return report.JudgeReport{}, err
	}

	summarizer := NewSummarizer(meta.Rule)
	taskReports := make([]report.TaskReport, 0, len(judgeResult.Tests))
	weight := equalWeight(len(tasks))
	for _, tc := range judgeResult.Tests {
		tr := testcaseToReport(tc)
		taskReports = append(taskReports, tr)
		summarizer.Update(TaskMeta{Status: tr.Status, TimeMs: uint64(tc.TimeMs), Memory: uint64(tc.MemoryKB), ScoreRate: scoreRateOf(tr.Status)}, weight)
	}

	agg := summarizer.Report()
	return report.JudgeReport{
		Status: agg.Status,
		TimeMs: agg.TimeMs,
		Memory: agg.Memory,
		Detail: report.JudgeDetail{Kind: report.DetailTests, Tests: taskReports},
	}, nil
}

func (p *Pipeline) judgeSubtasks(ctx context.Context, sub Submission, meta problem.Meta, ts problem.Taskset[problem.Task], problemRoot string) (report.JudgeReport, error) {
	dependeeFailed := make(map[int]bool)
	subtaskMetas := make([]TaskMeta, len(ts.Subtasks))
	subtaskReports := make([]report.SubtaskReport, len(ts.Subtasks))
	overall := NewSummarizer(problem.RuleSum)

	for idx, st := range ts.Subtasks {
		if meta.Rule == problem.RuleMinimum && skippedByDeps(idx, ts.Deps, dependeeFailed) {
			subtaskReports[idx] = report.SubtaskReport{
				Status: report.Status{Name: report.StatusCustom, CustomMessage: "skipped: dependency failed"},
			}
			subtaskMetas[idx] = TaskMeta{Status: subtaskReports[idx].Status}
			dependeeFailed[idx] = true
			overall.Update(subtaskMetas[idx], st.Score)
			continue
		}

		tests := buildTestcaseSpecs(st.Tasks, fmt.Sprintf("sub%d", idx), meta, problemRoot)
		judgeResult, err := p.runJudge(ctx, sub, meta, tests)
		if err != nil {
			return report.JudgeReport{}, err
		}

		sm := NewSummarizer(meta.Rule)
		taskReports := make([]report.TaskReport, 0, len(judgeResult.Tests))
		weight := subtaskWeight(meta.Rule, st.Score, len(st.Tasks))
		for _, tc := range judgeResult.Tests {
			tr := testcaseToReport(tc)
			taskReports = append(taskReports, tr)
			sm.Update(TaskMeta{Status: tr.Status, TimeMs: uint64(tc.TimeMs), Memory: uint64(tc.MemoryKB), ScoreRate: scoreRateOf(tr.Status)}, weight)
			if sm.Skippable() {
				break
			}
		}

		subMeta := sm.Report()
		subtaskMetas[idx] = subMeta
		dependeeFailed[idx] = subMeta.ScoreRate < scoreEps
		subtaskReports[idx] = report.SubtaskReport{
			Status: subMeta.Status,
			TimeMs: subMeta.TimeMs,
			Memory: subMeta.Memory,
			Tasks:  taskReports,
		}
		overall.Update(subMeta, 1)
	}

	agg := overall.Report()
	return report.JudgeReport{
		Status: agg.Status,
		TimeMs: agg.TimeMs,
		Memory: agg.Memory,
		Detail: report.JudgeDetail{Kind: report.DetailSubtask, Subtasks: subtaskReports},
	}, nil
}

func skippedByDeps(idx int, deps []problem.DepRelation, failed map[int]bool) bool {
	for _, d := range deps {
		if d.Depender == idx && failed[d.Dependee] {
			return true
		}
	}
	return false
}

func equalWeight(n int) float64 {
	if n == 0 {
		return 0
	}
	return 1.0 / float64(n)
}

// subtaskWeight returns the per-test weight handed to the Summarizer:
// under Sum, each test contributes an equal share of the subtask's score;
// under Minimum, each test's normalized rate is multiplied directly by
// the subtask's full score and the worst one wins.
func subtaskWeight(rule problem.Rule, subtaskScore float64, numTasks int) float64 {
	if rule == problem.RuleMinimum {
		return subtaskScore
	}
	return subtaskScore * equalWeight(numTasks)
}

func scoreRateOf(status report.Status) float64 {
	switch status.Name {
	case report.StatusAccepted:
		return 1.0
	case report.StatusPartial:
		if status.PartialTotal == 0 {
			return 0
		}
		return status.PartialScore / status.PartialTotal
	default:
		return 0
	}
}

func testcaseToReport(tc result.TestcaseResult) report.TaskReport {
	tr := report.TaskReport{
		Status: verdictToStatus(tc.Verdict),
		TimeMs: uint64(tc.TimeMs),
		Memory: uint64(tc.MemoryKB),
	}
	if tc.Stdout != "" {
		tr.AddPayload("stdout", tc.Stdout)
	}
	if tc.Stderr != "" {
		tr.AddPayload("stderr", tc.Stderr)
	}
	return tr
}

func verdictToStatus(v result.Verdict) report.Status {
	switch v {
	case result.VerdictAC:
		return report.Status{Name: report.StatusAccepted}
	case result.VerdictWA:
		return report.Status{Name: report.StatusWrongAnswer}
	case result.VerdictTLE:
		return report.Status{Name: report.StatusTimeLimitExceeded}
	case result.VerdictMLE:
		return report.Status{Name: report.StatusMemoryLimitExceeded}
	case result.VerdictOLE:
		return report.Status{Name: report.StatusOutputLimitExceeded}
	case result.VerdictRE:
		return report.Status{Name: report.StatusRuntimeError}
	case result.VerdictCE:
		return report.Status{Name: report.StatusCompileError}
	case result.VerdictDangerousSyscall:
		return report.Status{Name: report.StatusDangerousSyscall}
	default:
		return report.Status{Name: report.StatusCustom, CustomMessage: string(v)}
	}
}

func buildTestcaseSpecs(tasks []problem.Task, subtaskID string, meta problem.Meta, problemRoot string) []sandbox.TestcaseSpec {
	specs := make([]sandbox.TestcaseSpec, 0, len(tasks))
	for _, t := range tasks {
		specs = append(specs, sandbox.TestcaseSpec{
			TestID:     t.Name,
			InputPath:  filepath.Join(problemRoot, t.InputPath),
			AnswerPath: filepath.Join(problemRoot, t.AnswerPath),
			SubtaskID:  subtaskID,
			Limits: spec.ResourceLimit{
				CPUTimeMs: meta.TimeLimitMs,
				MemoryMB:  meta.MemoryMB,
				OutputMB:  meta.OutputMB,
			},
		})
	}
	return specs
}

func (p *Pipeline) runJudge(ctx context.Context, sub Submission, meta problem.Meta, tests []sandbox.TestcaseSpec) (result.JudgeResult, error) {
	if p.Service == nil {
		return result.JudgeResult{}, errors.New(errors.JudgerSandbox).WithMessage("no sandbox service configured")
	}
	res, err := p.Service.Judge(ctx, sandbox.JudgeRequest{
		SubmissionID:   sub.ID,
		Language:       sub.Language,
		LangOption:     sub.LangOption,
		CompileProfile: sub.CompileProfile,
		RunProfile:     sub.RunProfile,
		WorkRoot:       sub.WorkRoot,
		SourcePath:     sub.SourcePath,
		Tests:          tests,
		Checker:        sub.Checker,
	})
	if err == nil && res.Verdict == result.VerdictCE && len(res.Tests) == 0 {
		for _, tc := range tests {
			res.Tests = append(res.Tests, result.TestcaseResult{TestID: tc.TestID, SubtaskID: tc.SubtaskID, Verdict: result.VerdictCE})
		}
	}
	return res, err
}
