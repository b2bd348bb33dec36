package report

import "fmt"

// TruncDefaultLen is the default character budget used when truncating
// stdin/stdout/answer payloads for display in a submission's report.
const TruncDefaultLen = 1024

// TruncStr holds text bounded to a character count, remembering how many
// characters were cut so the UI can show "...(N characters truncated)".
type TruncStr struct {
	Text      string `json:"str"`
	Limit     int    `json:"limit"`
	Truncated int    `json:"truncated"`
}

// NewTruncStr truncates s to at most limit runes.
func NewTruncStr(s string, limit int) TruncStr {
	runes := []rune(s)
	if len(runes) <= limit {
		return TruncStr{Text: s, Limit: limit, Truncated: 0}
	}
	return TruncStr{
		Text:      string(runes[:limit]),
		Limit:     limit,
		Truncated: len(runes) - limit,
	}
}

// NewTruncStrDefault truncates s to TruncDefaultLen runes.
func NewTruncStrDefault(s string) TruncStr {
	return NewTruncStr(s, TruncDefaultLen)
}

// String renders the truncated text, appending a truncation notice when
// characters were cut.
func (t TruncStr) String() string {
	if t.Truncated == 0 {
		return t.Text
	}
	return fmt.Sprintf("%s...(%d characters truncated)", t.Text, t.Truncated)
}
