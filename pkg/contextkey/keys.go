// Package contextkey defines the context keys used to correlate log lines
// with a particular judge run across sandbox, judger, and queue packages.
package contextkey

// key is a private type to avoid context key collisions across packages.
type key string

const (
	TraceID      key = "trace_id"
	RequestID    key = "request_id"
	JudgeID      key = "judge_id"
	SubmissionID key = "submission_id"
	WorkerID     key = "worker_id"
)
