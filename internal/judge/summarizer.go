// Package judge orchestrates a full submission: compiling through the
// cache, running each test case through the sandbox, checking output, and
// folding per-test results up into subtask and submission-level reports
// via Summarizer.
package judge

import (
	"math"

	"zroj/internal/problem"
	"zroj/internal/report"
)

// scoreEps is the tolerance below which a Rule::Minimum subtask's running
// score is treated as zero for the purposes of short-circuiting further
// tests in that subtask.
const scoreEps = 1e-6

// TaskMeta is the aggregate result Summarizer folds test cases into and
// emits for a subtask or submission.
type TaskMeta struct {
	Status    report.Status
	TimeMs    uint64
	Memory    uint64
	ScoreRate float64
}

// Summarizer folds a sequence of per-test TaskMeta updates into one
// aggregate TaskMeta, following a subtask's scoring Rule: status is
// worst-wins, time and memory are maxed, and score is either summed or
// minimized depending on the rule.
type Summarizer struct {
	status report.Status
	timeMs uint64
	memory uint64
	score  float64
	rule   problem.Rule
}

// NewSummarizer starts a fresh aggregate for the given rule. A Sum rule
// starts at score 0 (nothing earned yet); a Minimum rule starts at +Inf
// (no test seen yet), so its first Update sets the score and later ones
// can only lower it.
func NewSummarizer(rule problem.Rule) *Summarizer {
	score := 0.0
	if rule == problem.RuleMinimum {
		score = math.Inf(1)
	}
	return &Summarizer{
		status: report.Status{Name: report.StatusAccepted},
		rule:   rule,
		score:  score,
	}
}

// Update folds in one test case's result and its weight within the
// subtask (taskScore is the most points this test can contribute: the
// per-test weight the caller picked for the rule).
func (s *Summarizer) Update(r TaskMeta, taskScore float64) {
	s.status = report.Worse(s.status, r.Status)
	if r.TimeMs > s.timeMs {
		s.timeMs = r.TimeMs
	}
	if r.Memory > s.memory {
		s.memory = r.Memory
	}
	score := r.ScoreRate * taskScore
	switch s.rule {
	case problem.RuleSum:
		s.score += score
	case problem.RuleMinimum:
		if score < s.score {
			s.score = score
		}
	}
}

// Skippable reports whether remaining test cases in this subtask can be
// skipped: true only for a Minimum rule whose running score has already
// dropped to (near) zero, since no later test can raise it back up.
func (s *Summarizer) Skippable() bool {
	return s.rule == problem.RuleMinimum && s.score < scoreEps
}

// Report returns the current aggregate as a TaskMeta.
func (s *Summarizer) Report() TaskMeta {
	return TaskMeta{
		Status:    s.status,
		TimeMs:    s.timeMs,
		Memory:    s.memory,
		ScoreRate: s.score,
	}
}
