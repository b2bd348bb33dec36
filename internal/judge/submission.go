package judge

import (
	"path/filepath"

	"zroj/internal/store"
)

// sourceFileName is the file a submission's source code is stored under
// inside its own Handle, independent of the language's own SourceFile
// naming convention (a submission's on-disk layout shouldn't change when
// its language does).
const sourceFileName = "source"

// SubmissionRecord is the small piece of state a queued submission needs
// beyond its own ID: which problem it targets and which language its
// source is written in. The source code itself and the eventual report
// live alongside it under the same Handle.
type SubmissionRecord struct {
	ProblemID  string `json:"problem_id"`
	LanguageID string `json:"language_id"`
}

// SaveSubmissionRecord persists rec's metadata and source under h.
func SaveSubmissionRecord(h store.Handle, rec SubmissionRecord, source []byte) error {
	if err := h.SaveMeta(rec); err != nil {
		return err
	}
	return h.WriteFileAtomic(sourceFileName, source)
}

// LoadSubmissionRecord restores a SubmissionRecord previously written by
// SaveSubmissionRecord.
func LoadSubmissionRecord(h store.Handle) (SubmissionRecord, error) {
	var rec SubmissionRecord
	err := h.LoadMeta(&rec)
	return rec, err
}

// SourcePath is the host filesystem path a submission's source code is
// stored at inside h, the same path SaveSubmissionRecord wrote it to.
func SourcePath(h store.Handle) string {
	return filepath.Join(h.Path(), sourceFileName)
}
