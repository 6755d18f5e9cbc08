package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestGetVersion tests version string resolution.
func TestGetVersion(t *testing.T) {
	if v := getVersion(); v == "" {
		t.Error("expected non-empty version")
	}

	// ldflags value wins over build info
	version = "v1.2.3"
	defer func() { version = "" }()
	if v := getVersion(); v != "v1.2.3" {
		t.Errorf("expected 'v1.2.3', got %q", v)
	}
}

// TestGetCommit tests commit hash resolution.
func TestGetCommit(t *testing.T) {
	if c := getCommit(); c == "" {
		t.Error("expected non-empty commit")
	}

	commit = "abcdef1234567890"
	defer func() { commit = "" }()
	if c := getCommit(); c != "abcdef1234567890" {
		t.Errorf("expected ldflags commit, got %q", c)
	}
}

// TestGetDate tests build date resolution.
func TestGetDate(t *testing.T) {
	if d := getDate(); d == "" {
		t.Error("expected non-empty date")
	}
}

// TestNewVersionCmd tests the version command output.
func TestNewVersionCmd(t *testing.T) {
	cmd := NewVersionCmd()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	output := buf.String()
	if !strings.Contains(output, "sitesift version") {
		t.Errorf("expected version line, got %q", output)
	}
	if !strings.Contains(output, "commit:") {
		t.Errorf("expected commit line, got %q", output)
	}
	if !strings.Contains(output, "built:") {
		t.Errorf("expected build date line, got %q", output)
	}
}
