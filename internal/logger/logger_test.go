package logger

import "testing"

func TestMask(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "short value fully hidden", in: "abc", want: "****"},
		{name: "eight chars fully hidden", in: "abcdefgh", want: "****"},
		{name: "long value keeps prefix and length", in: "EwBwA8l6BAAU", want: "EwBw…(12 chars)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mask(tt.in); got != tt.want {
				t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if _, ok := parseLevel("verbose"); ok {
		t.Error("parseLevel(\"verbose\") should not be recognised")
	}
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		if _, ok := parseLevel(lvl); !ok {
			t.Errorf("parseLevel(%q) should be recognised", lvl)
		}
	}
}
