package utils

import (
	"testing"
)

func TestShortenString(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "hello..."},
		{"hello", 10, "hello"},
		{"", 3, ""},
		{"abcdef", 0, "abcdef"},
		{"abcdef", 6, "abcdef"},
		{"abcdef", 3, "abc..."},
	}

	for _, tt := range tests {
		result := ShortenString(tt.input, tt.length)
		if result != tt.expected {
			t.Errorf("ShortenString(%q, %d) = %q; want %q", tt.input, tt.length, result, tt.expected)
		}
	}
}

func TestClosestMatch(t *testing.T) {
	candidates := []string{"navigate", "click", "fill", "select", "wait", "double_click"}
	tests := []struct {
		input      string
		expected   string
		expectedOk bool
	}{
		{"clik", "click", true},
		{"navigte", "navigate", true},
		{"Fill", "fill", true},
		{"selectt", "select", true},
		{"doubleclick", "double_click", true},
		{"xyz", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		result, ok := ClosestMatch(tt.input, candidates)
		if result != tt.expected || ok != tt.expectedOk {
			t.Errorf("ClosestMatch(%q) = (%q, %v); want (%q, %v)", tt.input, result, ok, tt.expected, tt.expectedOk)
		}
	}
}

func TestClosestMatch_NoCandidates(t *testing.T) {
	if _, ok := ClosestMatch("click", nil); ok {
		t.Error("expected no match without candidates")
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"login-flow", "login-flow"},
		{"login flow", "login-flow"},
		{"https://example.com/login", "https-example.com-login"},
		{"  ", "unnamed"},
		{"a/b\\c", "a-b-c"},
	}

	for _, tt := range tests {
		if result := SafeFilename(tt.input); result != tt.expected {
			t.Errorf("SafeFilename(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}
