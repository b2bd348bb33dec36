package report

import (
	"encoding/json"

	"zroj/internal/store"
	"zroj/pkg/errors"
)

// reportFileName is the gzip-compressed JSON file a FullJudgeReport is
// persisted under inside a submission's Handle.
const reportFileName = "report.json.gz"

// Save persists r as gzip-compressed JSON, since a submission with many
// tests and large stdout/stderr payloads can otherwise dominate a
// submission directory's disk footprint.
func (r FullJudgeReport) Save(h store.Handle) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, errors.StoreSerdeJSON)
	}
	return h.WriteCompressed(reportFileName, data)
}

// LoadFullJudgeReport restores a FullJudgeReport previously written by Save.
func LoadFullJudgeReport(h store.Handle) (FullJudgeReport, error) {
	var out FullJudgeReport
	data, err := h.ReadCompressed(reportFileName)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, errors.Wrap(err, errors.StoreSerdeJSON)
	}
	return out, nil
}
