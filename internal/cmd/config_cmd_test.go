package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/runger/ghexplorer/internal/config"
)

func TestConfigCmd_List(t *testing.T) {
	path := withFixtureEnv(t)
	t.Setenv("GH_TOKEN", "ghp_secret")

	output := captureStdout(t, func() {
		if err := runConfig(configCmd, nil); err != nil {
			t.Fatalf("runConfig error: %v", err)
		}
	})

	for _, key := range config.ListKeys() {
		if !strings.Contains(output, key+" = ") {
			t.Errorf("Expected key %q in output", key)
		}
	}
	if !strings.Contains(output, "search.debounce_ms = 5") {
		t.Errorf("expected file value in output: %q", output)
	}
	if !strings.Contains(output, "GitHub token: set from environment") {
		t.Errorf("expected token status in output: %q", output)
	}
	if strings.Contains(output, "ghp_secret") {
		t.Error("token must never be printed")
	}
	if !strings.Contains(output, path) {
		t.Errorf("expected config path in output: %q", output)
	}
}

func TestConfigCmd_Get(t *testing.T) {
	withFixtureEnv(t)

	output := captureStdout(t, func() {
		if err := runConfig(configCmd, []string{"listing.page_size"}); err != nil {
			t.Fatalf("runConfig error: %v", err)
		}
	})
	if strings.TrimSpace(output) != "5" {
		t.Errorf("listing.page_size = %q, want 5", output)
	}

	output = captureStdout(t, func() {
		if err := runConfig(configCmd, []string{"log.file"}); err != nil {
			t.Fatalf("runConfig error: %v", err)
		}
	})
	if !strings.Contains(output, "(not set)") {
		t.Errorf("empty value should print (not set), got %q", output)
	}

	if err := runConfig(configCmd, []string{"nope.nothing"}); err == nil {
		t.Error("expected an error for an unknown key")
	}
}

func TestConfigCmd_Set(t *testing.T) {
	path := withFixtureEnv(t)
	t.Setenv("GHX_DEBUG", "1")
	t.Setenv("GH_TOKEN", "ghp_secret")

	output := captureStdout(t, func() {
		if err := runConfig(configCmd, []string{"listing.page_size", "20"}); err != nil {
			t.Fatalf("runConfig error: %v", err)
		}
	})
	if !strings.Contains(output, "listing.page_size = 20") {
		t.Errorf("unexpected output %q", output)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	saved := string(data)
	if !strings.Contains(saved, "page_size: 20") {
		t.Errorf("page size not saved: %s", saved)
	}
	if strings.Contains(saved, "ghp_secret") {
		t.Error("token must not be saved")
	}
	if strings.Contains(saved, "level: debug") {
		t.Error("GHX_DEBUG must not be saved")
	}
}

func TestConfigCmd_SetInvalid(t *testing.T) {
	withFixtureEnv(t)

	tests := [][]string{
		{"log.level", "loud"},
		{"provider.name", "gitlab"},
		{"github.token", "abc"},
		{"search.debounce_ms", "soon"},
	}
	for _, args := range tests {
		if err := runConfig(configCmd, args); err == nil {
			t.Errorf("runConfig(%v) should fail", args)
		}
	}
}
