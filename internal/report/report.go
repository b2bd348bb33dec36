// Package report defines the result shapes the judger hands back to its
// caller: a Status verdict, per-task and per-subtask reports, and the
// unified JudgeReport that bundles them with truncated payload text for
// display.
package report

// TaskReport is the result of judging one test case.
type TaskReport struct {
	Status  Status       `json:"status"`
	TimeMs  uint64       `json:"time_ms"`
	Memory  uint64       `json:"memory_kb"`
	Payload []NamedField `json:"payload"`
}

// NamedField is one labeled piece of payload text (stdin, stdout, answer,
// checker message, ...).
type NamedField struct {
	Name string   `json:"name"`
	Text TruncStr `json:"text"`
}

// AddPayload appends a truncated named field to the task report.
func (t *TaskReport) AddPayload(name, content string) {
	t.Payload = append(t.Payload, NamedField{Name: name, Text: NewTruncStrDefault(content)})
}

// SubtaskReport aggregates the TaskReports belonging to one subtask.
type SubtaskReport struct {
	Status Status       `json:"status"`
	TimeMs uint64       `json:"time_ms"`
	Memory uint64       `json:"memory_kb"`
	Tasks  []TaskReport `json:"tasks"`
}

// DetailKind distinguishes whether a JudgeReport's detail is grouped by
// subtask or is a flat list of test cases.
type DetailKind string

const (
	DetailSubtask DetailKind = "subtask"
	DetailTests   DetailKind = "tests"
)

// JudgeDetail carries either a flat test list or a subtask breakdown,
// mirroring the two Taskset modes a problem can be configured with.
type JudgeDetail struct {
	Kind     DetailKind      `json:"kind"`
	Subtasks []SubtaskReport `json:"subtasks,omitempty"`
	Tests    []TaskReport    `json:"tests,omitempty"`
}

// JudgeReport is the unified result handed back for one submission.
type JudgeReport struct {
	Status Status      `json:"status"`
	TimeMs uint64      `json:"time_ms"`
	Memory uint64      `json:"memory_kb"`
	Detail JudgeDetail `json:"detail"`
}

// FullJudgeReport bundles the three evaluation passes a submission can go
// through: the sample/pretest pass (Pre), the full data pass (Data), and
// any extra hack/stress tests (Extra). Pre and Extra are nil when the
// problem was not judged against those tasksets.
type FullJudgeReport struct {
	Pre   *JudgeReport `json:"pre,omitempty"`
	Data  JudgeReport  `json:"data"`
	Extra *JudgeReport `json:"extra,omitempty"`
}
