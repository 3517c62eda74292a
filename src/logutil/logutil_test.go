package logutil

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Hello World", "Hello World"},
		{"line one\nline two\t!", `line one\nline two\t!`},
		{"grüße", "grüße"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100) + "..."},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
