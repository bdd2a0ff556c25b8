package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello", 5) != "hello" {
		t.Error("exact length unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("日本語のテキスト", 3); got != "日本語..." {
		t.Errorf("multibyte: got %q", got)
	}
	if got := Truncate("café au lait", 4); got != "café..." {
		t.Errorf("accented: got %q", got)
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := map[string]string{
		"":                       "",
		"  one  ":                "one",
		"one\n\ntwo\tthree":      "one two three",
		"# Title\n\nFirst para.": "# Title First para.",
	}
	for in, want := range tests {
		if got := CollapseSpace(in); got != want {
			t.Errorf("CollapseSpace(%q) = %q, want %q", in, got, want)
		}
	}
}
