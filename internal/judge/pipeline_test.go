package judge

import (
	"context"
	"testing"

	"zroj/internal/problem"
	"zroj/internal/report"
	"zroj/internal/sandbox"
	"zroj/internal/sandbox/result"
)

// fakeService answers every Judge call with a fixed verdict keyed by
// test ID, standing in for a real sandbox.Service so pipeline logic can
// be tested without compiling or running anything.
type fakeService struct {
	verdicts map[string]result.Verdict
	calls    int
}

func (f *fakeService) Judge(ctx context.Context, req sandbox.JudgeRequest) (result.JudgeResult, error) {
	f.calls++
	out := result.JudgeResult{Status: result.StatusFinished}
	for _, tc := range req.Tests {
		v, ok := f.verdicts[tc.TestID]
		if !ok {
			v = result.VerdictAC
		}
		out.Tests = append(out.Tests, result.TestcaseResult{TestID: tc.TestID, Verdict: v, SubtaskID: tc.SubtaskID})
	}
	return out, nil
}

func (f *fakeService) Kill(ctx context.Context, submissionID string) error { return nil }

// TestJudgeSubtasksSkipsDependentOnFailure exercises scenario S6: a
// two-subtask set with subtask 1 depending on subtask 0, Rule::Minimum,
// where subtask 0 always scores zero. Subtask 1 must never actually be
// judged (its tests are skipped) and the overall status must not be
// accepted.
func TestJudgeSubtasksSkipsDependentOnFailure(t *testing.T) {
	svc := &fakeService{verdicts: map[string]result.Verdict{"t0": result.VerdictWA, "t1": result.VerdictAC}}
	p := NewPipeline(svc)

	ts := problem.Taskset[problem.Task]{
		Kind: problem.KindSubtasks,
		Subtasks: []problem.Subtask[problem.Task]{
			{Tasks: []problem.Task{{Name: "t0"}}, Score: 50},
			{Tasks: []problem.Task{{Name: "t1"}}, Score: 50},
		},
		Deps: []problem.DepRelation{{Depender: 1, Dependee: 0}},
	}
	meta := problem.Meta{Rule: problem.RuleMinimum}

	rep, err := p.JudgeTaskset(context.Background(), Submission{}, meta, ts, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if svc.calls != 1 {
		t.Fatalf("expected subtask 1 to be skipped without a sandbox call, got %d calls", svc.calls)
	}
	if len(rep.Detail.Subtasks) != 2 {
		t.Fatalf("expected 2 subtask reports, got %d", len(rep.Detail.Subtasks))
	}
	if rep.Detail.Subtasks[1].Status.Name != report.StatusCustom {
		t.Fatalf("expected subtask 1 marked skipped, got %v", rep.Detail.Subtasks[1].Status.Name)
	}
	if rep.Status.Name == report.StatusAccepted {
		t.Fatalf("overall status must not be accepted when subtask 0 failed")
	}
}

// TestJudgeFlatAcceptedAggregatesCleanly is a minimal end-to-end sanity
// check along the lines of S1: every test accepted should aggregate to
// an accepted JudgeReport with a flat test detail.
func TestJudgeFlatAcceptedAggregatesCleanly(t *testing.T) {
	svc := &fakeService{verdicts: map[string]result.Verdict{}}
	p := NewPipeline(svc)

	tasks := []problem.Task{{Name: "1"}, {Name: "2"}}
	meta := problem.Meta{Rule: problem.RuleSum}

	rep, err := p.JudgeTaskset(context.Background(), Submission{}, meta, problem.NewTestsTaskset(tasks), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Status.Name != report.StatusAccepted {
		t.Fatalf("expected accepted, got %v", rep.Status.Name)
	}
	if rep.Detail.Kind != report.DetailTests || len(rep.Detail.Tests) != 2 {
		t.Fatalf("unexpected detail: %+v", rep.Detail)
	}
}
