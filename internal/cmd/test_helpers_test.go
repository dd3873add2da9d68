package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type commandGlobals struct {
	config     string
	provider   string
	fixture    string
	noCache    bool
	wait       time.Duration
	colorMode  string
	searchJSON bool
	reposJSON  bool
	reposPages int
	reposAll   bool
	scriptJSON bool
}

func snapshotGlobals() commandGlobals {
	return commandGlobals{
		config:     flagConfig,
		provider:   flagProvider,
		fixture:    flagFixture,
		noCache:    flagNoCache,
		wait:       flagWait,
		colorMode:  colorMode,
		searchJSON: searchJSON,
		reposJSON:  reposJSON,
		reposPages: reposPages,
		reposAll:   reposAll,
		scriptJSON: scriptJSON,
	}
}

func restoreGlobals(g commandGlobals) {
	flagConfig = g.config
	flagProvider = g.provider
	flagFixture = g.fixture
	flagNoCache = g.noCache
	flagWait = g.wait
	colorMode = g.colorMode
	searchJSON = g.searchJSON
	reposJSON = g.reposJSON
	reposPages = g.reposPages
	reposAll = g.reposAll
	scriptJSON = g.scriptJSON
}

// withFixtureEnv points every command at testdata/users.yaml with short
// delays, isolated XDG directories and no colors. It returns the config path.
func withFixtureEnv(t *testing.T) string {
	t.Helper()

	old := snapshotGlobals()
	t.Cleanup(func() { restoreGlobals(old) })

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, k := range []string{"GHX_CONFIG", "GHX_DEBUG", "GHX_LOG_LEVEL", "GH_TOKEN", "GITHUB_TOKEN"} {
		t.Setenv(k, "")
	}

	fixture, err := filepath.Abs(filepath.Join("testdata", "users.yaml"))
	if err != nil {
		t.Fatalf("Abs failed: %v", err)
	}
	configFile := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`search:
  debounce_ms: 5
listing:
  page_size: 5
  retry_delay_ms: 1
provider:
  name: fixture
  fixture_path: %s
`, fixture)
	if err := os.WriteFile(configFile, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	restoreGlobals(commandGlobals{
		config:     configFile,
		wait:       5 * time.Second,
		colorMode:  "never",
		reposPages: 1,
	})
	disableColors()
	t.Cleanup(func() {
		if !shouldDisableColors() {
			enableColors()
		}
	})
	return configFile
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()
	_ = w.Close()
	os.Stdout = old
	out := <-outC
	_ = r.Close()
	return out
}
