package report

// Name identifies a verdict a single task or submission can carry. Status
// is a tagged union in spirit: most names carry no extra data, but
// CompileError carries the sandbox failure detail and Partial carries the
// achieved/total score pair.
type Name string

const (
	StatusAccepted            Name = "ok"
	StatusCompileError        Name = "compile_error"
	StatusCustom              Name = "custom"
	StatusDangerousSyscall    Name = "dangerous_syscall"
	StatusMemoryLimitExceeded Name = "memory_limit_exceeded"
	StatusOutputLimitExceeded Name = "output_limit_exceeded"
	StatusPartial             Name = "partial"
	StatusPresentationError   Name = "presentation_error"
	StatusRuntimeError        Name = "runtime_error"
	StatusTimeLimitExceeded   Name = "time_limit_exceeded"
	StatusWrongAnswer         Name = "wrong_answer"
)

// Status is the verdict carried by a TaskReport, SubtaskReport, or
// JudgeReport.
type Status struct {
	Name Name `json:"name"`

	// CompileDetail holds the sandbox failure reason when Name is
	// StatusCompileError.
	CompileDetail string `json:"compile_detail,omitempty"`
	// CustomMessage holds the judge-defined message when Name is
	// StatusCustom.
	CustomMessage string `json:"custom_message,omitempty"`
	// PartialScore and PartialTotal are set when Name is StatusPartial.
	PartialScore float64 `json:"partial_score,omitempty"`
	PartialTotal float64 `json:"partial_total,omitempty"`
}

// severity ranks statuses from best to worst so Worse can pick the one
// that should dominate an aggregate report. Accepted is always best;
// everything else ties at "failing" except Partial, whose own score
// determines ranking relative to other Partials.
var severity = map[Name]int{
	StatusAccepted:            0,
	StatusPartial:             1,
	StatusPresentationError:   2,
	StatusWrongAnswer:         3,
	StatusTimeLimitExceeded:   3,
	StatusMemoryLimitExceeded: 3,
	StatusOutputLimitExceeded: 3,
	StatusRuntimeError:        3,
	StatusDangerousSyscall:    4,
	StatusCompileError:        5,
	StatusCustom:              3,
}

// Worse returns whichever of a, b should dominate when aggregating task
// results into a parent report (status-worst-wins).
func Worse(a, b Status) Status {
	sa, sb := severity[a.Name], severity[b.Name]
	switch {
	case sa > sb:
		return a
	case sb > sa:
		return b
	case a.Name == StatusPartial && b.Name == StatusPartial:
		if a.PartialScore <= b.PartialScore {
			return a
		}
		return b
	default:
		return a
	}
}
