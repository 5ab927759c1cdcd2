package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmdSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	want := map[string]bool{"up": false, "down": false, "seed": false, "status": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if cmd.PersistentFlags().Lookup("dsn") == nil {
		t.Fatal("--dsn flag not found")
	}
}

func TestUpStatusDownOnSQLiteFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "db", "advocacia.db")

	if out, err := run(t, "up", "--dsn", dsn); err != nil {
		t.Fatalf("up: %v (%s)", err, out)
	}
	if out, err := run(t, "seed", "--dsn", dsn); err != nil {
		t.Fatalf("seed: %v (%s)", err, out)
	}

	out, err := run(t, "status", "--dsn", dsn)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if strings.TrimSpace(out) != "0001_init.up.sql" {
		t.Fatalf("unexpected status output: %q", out)
	}

	if out, err := run(t, "down", "--dsn", dsn); err != nil {
		t.Fatalf("down: %v (%s)", err, out)
	}
	out, err = run(t, "status", "--dsn", dsn)
	if err != nil {
		t.Fatalf("status after down: %v", err)
	}
	if strings.TrimSpace(out) != "" {
		t.Fatalf("expected no applied migrations, got %q", out)
	}
}

func TestRejectsExtraArgs(t *testing.T) {
	if _, err := run(t, "up", "extra", "--dsn", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatal("expected error for unexpected argument")
	}
}
