package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestIntegration_BuildBinary verifies that ghx compiles and that the
// non-interactive commands run without a terminal.
func TestIntegration_BuildBinary(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	binName := "ghx"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	binPath := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-ldflags", "-X github.com/runger/ghexplorer/internal/cmd.Version=1.2.3", "-o", binPath, ".")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, out)
	}

	root := findModuleRoot(t)
	fixture := filepath.Join(root, "internal", "cmd", "testdata", "users.yaml")
	home := t.TempDir()
	env := append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(home, "config"),
		"XDG_DATA_HOME="+filepath.Join(home, "data"),
		"GH_TOKEN=",
		"GITHUB_TOKEN=",
		"NO_COLOR=1",
	)

	run := func(args ...string) (string, error) {
		c := exec.Command(binPath, args...)
		c.Env = env
		b, err := c.CombinedOutput()
		return string(b), err
	}

	t.Run("version", func(t *testing.T) {
		output, err := run("version")
		if err != nil {
			t.Fatalf("version failed: %v\n%s", err, output)
		}
		if !strings.Contains(output, "ghx 1.2.3") {
			t.Errorf("version output = %q", output)
		}
	})

	t.Run("help_lists_commands", func(t *testing.T) {
		output, err := run("--help")
		if err != nil {
			t.Fatalf("--help failed: %v\n%s", err, output)
		}
		for _, name := range []string{"search", "repos", "script", "config", "version"} {
			if !strings.Contains(output, name) {
				t.Errorf("--help should mention %q, got:\n%s", name, output)
			}
		}
	})

	t.Run("search_fixture", func(t *testing.T) {
		output, err := run("search", "--fixture", fixture, "octo")
		if err != nil {
			t.Fatalf("search failed: %v\n%s", err, output)
		}
		if !strings.Contains(output, "octodog") {
			t.Errorf("search output = %q", output)
		}
	})

	t.Run("search_failure_exit_code", func(t *testing.T) {
		output, err := run("search", "--fixture", fixture, "boom")
		var exitErr *exec.ExitError
		if err == nil || !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			t.Fatalf("expected exit 1, got %v\n%s", err, output)
		}
		if !strings.Contains(output, "search failed") {
			t.Errorf("stderr should explain the failure, got %q", output)
		}
	})

	t.Run("unknown_provider", func(t *testing.T) {
		output, err := run("search", "--provider", "gitlab", "octo")
		if err == nil {
			t.Fatalf("expected failure, got:\n%s", output)
		}
	})
}

// findModuleRoot finds the Go module root by looking for go.mod.
func findModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("cannot get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("cannot find go.mod in any parent directory")
		}
		dir = parent
	}
}
