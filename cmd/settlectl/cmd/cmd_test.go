package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/splitledger/internal/auth"
)

const tripYAML = `
groups:
  - id: trip
    name: Trip
    members: [{id: alice}, {id: bob}, {id: carol}]
expenses:
  - {group: trip, payer: alice, amount: "90.00", split_evenly: [alice, bob, carol]}
`

// run executes settlectl with args against a SQLite database in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "ledger.db"))

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImportBalancesPlan(t *testing.T) {
	dir := t.TempDir()
	fixturePath := filepath.Join(dir, "trip.yaml")
	if err := os.WriteFile(fixturePath, []byte(tripYAML), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	out, err := run(t, dir, "import", fixturePath)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "Imported 1 groups, 1 expenses, 0 settlements") {
		t.Errorf("import output = %q", out)
	}

	out, err = run(t, dir, "balances", "trip")
	if err != nil {
		t.Fatalf("balances failed: %v", err)
	}
	for _, want := range []string{"60.00", "-30.00", "90.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("balances output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, dir, "plan", "trip")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	want := "bob -> alice: 30.00\ncarol -> alice: 30.00\n"
	if out != want {
		t.Errorf("plan output = %q, want %q", out, want)
	}

	if _, err := run(t, dir, "plan", "missing"); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "even",
			args: []string{"split", "--total", "1.00", "carol", "alice", "bob"},
			want: "alice: 0.34\nbob: 0.33\ncarol: 0.33\n",
		},
		{
			name: "shares",
			args: []string{"split", "--total", "90", "--shares", "alice=2,bob=1", "alice", "bob"},
			want: "alice: 60.00\nbob: 30.00\n",
		},
		{
			name: "whole units",
			args: []string{"split", "--exponent", "0", "--total", "5", "a", "b"},
			want: "a: 3\nb: 2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, t.TempDir(), tt.args...)
			if err != nil {
				t.Fatalf("split failed: %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}

	if _, err := run(t, t.TempDir(), "split", "--total", "1.005", "a"); err == nil {
		t.Error("expected error for sub-cent total")
	}
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	out, err := run(t, t.TempDir(), "token", "alice")
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}

	claims, err := auth.NewJWTManager("cli-secret", 0).Validate(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.MemberID != "alice" {
		t.Errorf("member = %q, want alice", claims.MemberID)
	}
}
