package judge

import (
	"testing"

	"zroj/internal/problem"
	"zroj/internal/report"
)

func acMeta(timeMs, memory uint64) TaskMeta {
	return TaskMeta{Status: report.Status{Name: report.StatusAccepted}, TimeMs: timeMs, Memory: memory, ScoreRate: 1.0}
}

func waMeta(timeMs, memory uint64) TaskMeta {
	return TaskMeta{Status: report.Status{Name: report.StatusWrongAnswer}, TimeMs: timeMs, Memory: memory, ScoreRate: 0}
}

// TestSummarizerSumMonotonicallyIncreases checks property 8: under Sum,
// score never decreases as more accepted tests are folded in, while time
// and memory track the running maximum.
func TestSummarizerSumMonotonicallyIncreases(t *testing.T) {
	s := NewSummarizer(problem.RuleSum)
	prevScore := s.Report().ScoreRate
	for i, tm := range []TaskMeta{acMeta(10, 100), acMeta(30, 50), acMeta(20, 200)} {
		s.Update(tm, 1)
		r := s.Report()
		if r.ScoreRate < prevScore {
			t.Fatalf("update %d: score decreased from %v to %v", i, prevScore, r.ScoreRate)
		}
		prevScore = r.ScoreRate
	}
	final := s.Report()
	if final.TimeMs != 30 {
		t.Fatalf("expected max time 30, got %d", final.TimeMs)
	}
	if final.Memory != 200 {
		t.Fatalf("expected max memory 200, got %d", final.Memory)
	}
}

// TestSummarizerMinimumMonotonicallyDecreases checks the Minimum half of
// property 8: score never increases, and a single failing test can only
// push it down or leave it unchanged.
func TestSummarizerMinimumMonotonicallyDecreases(t *testing.T) {
	s := NewSummarizer(problem.RuleMinimum)
	prevScore := s.Report().ScoreRate
	for i, tm := range []TaskMeta{acMeta(5, 10), waMeta(5, 10), acMeta(5, 10)} {
		s.Update(tm, 10)
		r := s.Report()
		if r.ScoreRate > prevScore {
			t.Fatalf("update %d: score increased from %v to %v", i, prevScore, r.ScoreRate)
		}
		prevScore = r.ScoreRate
	}
}

// TestSummarizerSkippableOnlyUnderMinimum checks property 9's
// precondition: Sum never reports skippable regardless of how bad a
// result is, since every test still contributes its own share.
func TestSummarizerSkippableOnlyUnderMinimum(t *testing.T) {
	s := NewSummarizer(problem.RuleSum)
	s.Update(waMeta(5, 10), 10)
	if s.Skippable() {
		t.Fatalf("Sum rule must never report skippable")
	}
}

// TestSummarizerMinimumSkipsAfterZeroScore directly checks property 9:
// once a Minimum subtask's running score drops below the epsilon, it
// reports skippable so the caller stops judging further tests in it.
func TestSummarizerMinimumSkipsAfterZeroScore(t *testing.T) {
	s := NewSummarizer(problem.RuleMinimum)
	if s.Skippable() {
		t.Fatalf("fresh summarizer must not be skippable")
	}
	s.Update(waMeta(5, 10), 10)
	if !s.Skippable() {
		t.Fatalf("expected skippable after a zero-scoring test under Minimum")
	}
}

// TestSummarizerWorstStatusWins ensures an accepted test cannot paper
// over an earlier failure's status.
func TestSummarizerWorstStatusWins(t *testing.T) {
	s := NewSummarizer(problem.RuleSum)
	s.Update(waMeta(1, 1), 1)
	s.Update(acMeta(1, 1), 1)
	if s.Report().Status.Name != report.StatusWrongAnswer {
		t.Fatalf("expected wrong_answer to dominate, got %v", s.Report().Status.Name)
	}
}
