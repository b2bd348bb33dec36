package report

import "testing"

func TestNewTruncStrShortString(t *testing.T) {
	ts := NewTruncStr("hello", 10)
	if ts.Text != "hello" || ts.Truncated != 0 {
		t.Fatalf("unexpected: %+v", ts)
	}
}

func TestNewTruncStrTruncates(t *testing.T) {
	ts := NewTruncStr("hello world", 5)
	if len([]rune(ts.Text)) != 5 {
		t.Fatalf("expected 5 runes, got %d", len([]rune(ts.Text)))
	}
	if ts.Truncated != len([]rune("hello world"))-5 {
		t.Fatalf("unexpected truncated count: %d", ts.Truncated)
	}
}

func TestNewTruncStrMultibyte(t *testing.T) {
	s := "日本語テスト"
	ts := NewTruncStr(s, 3)
	if got := len([]rune(ts.Text)); got != 3 {
		t.Fatalf("expected 3 runes kept, got %d", got)
	}
	want := len([]rune(s)) - 3
	if ts.Truncated != want {
		t.Fatalf("expected truncated=%d, got %d", want, ts.Truncated)
	}
}

func TestNewTruncStrExactLimit(t *testing.T) {
	ts := NewTruncStr("abcde", 5)
	if ts.Truncated != 0 || ts.Text != "abcde" {
		t.Fatalf("unexpected: %+v", ts)
	}
}

func TestStringAppendsNoticeOnlyWhenTruncated(t *testing.T) {
	plain := NewTruncStr("abc", 10)
	if plain.String() != "abc" {
		t.Fatalf("expected untruncated string unchanged, got %q", plain.String())
	}
	cut := NewTruncStr("abcdef", 3)
	if cut.String() == "abc" {
		t.Fatalf("expected truncation notice appended")
	}
}
