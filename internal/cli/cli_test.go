package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
)

func TestExecuteVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "pocket2drive ") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestLoadConfigReturnsErrorInsteadOfPanicking(t *testing.T) {
	t.Setenv("P2D_SECRET", "")
	t.Setenv("P2D_CONFIG_FILE", "")

	if _, err := loadConfig(); err == nil {
		t.Fatal("loadConfig() should fail without required settings")
	}
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name string
		res  domain.SyncResult
		want string
	}{
		{
			name: "nothing new",
			res:  domain.Synced(nil),
			want: "Nothing new.\n",
		},
		{
			name: "appended",
			res:  domain.Synced([]string{"https://x", "https://y"}),
			want: "Appended 2 item(s):\n  https://x\n  https://y\n",
		},
		{
			name: "reauthorization",
			res:  domain.NeedsReauthorization(domain.ProviderOneDrive, "https://login.example/authorize"),
			want: "OneDrive access token expired. Log in at https://login.example/authorize\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printResult(&buf, tt.res)
			if buf.String() != tt.want {
				t.Errorf("printResult() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
