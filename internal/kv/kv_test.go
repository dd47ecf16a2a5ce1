package kv

import "testing"

func TestNamespace(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "pocket-access-token"},
		{prefix: "p2d", want: "p2d:pocket-access-token"},
		{prefix: "p2d:", want: "p2d:pocket-access-token"},
	}

	for _, tt := range tests {
		if got := Namespace(tt.prefix, "pocket-access-token"); got != tt.want {
			t.Errorf("Namespace(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
