package main

import "testing"

func TestRunVersionCommand(t *testing.T) {
	if code := run([]string{"version"}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if code := run([]string{"unknown-command"}); code == 0 {
		t.Fatalf("expected non-zero exit code for unknown command")
	}
}

func TestRunMissingConfigValues(t *testing.T) {
	t.Setenv("GRAPHCTL_CONFIG", t.TempDir()+"/missing.yaml")
	t.Setenv("AAD_CLIENT_ID", "")
	t.Setenv("AAD_TENANT_ID", "")
	if code := run([]string{"me"}); code != 1 {
		t.Fatalf("expected exit code 1 without client and tenant IDs, got %d", code)
	}
}
