//go:build !windows

// Package expect drives the ghx binary in a pseudo terminal using go-expect.
//
// Tests build the binary once, point it at a fixture file and an isolated
// config, then type at it the way a user would.
package expect

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
)

// ContainerTestSem limits concurrent tests in containers to reduce resource contention.
var ContainerTestSem = make(chan struct{}, 2)

// AcquireTestSlot limits parallelism in container environments.
// Call this after t.Parallel() in tests that are timing-sensitive.
// On local machines, this is a no-op.
func AcquireTestSlot(t *testing.T) {
	if IsRunningInContainer() {
		ContainerTestSem <- struct{}{}
		t.Cleanup(func() { <-ContainerTestSem })
	}
}

// IsRunningInContainer detects if we're running inside a Docker container.
func IsRunningInContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		if strings.Contains(content, "docker") || strings.Contains(content, "lxc") {
			return true
		}
	}
	return false
}

// Key constants for special keys (ANSI escape sequences)
const (
	KeyUp     = "\x1b[A"
	KeyDown   = "\x1b[B"
	KeyEscape = "\x1b"
	KeyEnter  = "\r"
	KeyTab    = "\t"
	KeyCtrlC  = "\x03"
	KeyCtrlD  = "\x04"
	KeyCtrlR  = "\x12"
)

var (
	buildOnce sync.Once
	buildPath string
	buildErr  error
)

// BuildBinary compiles cmd/ghx once per test run and returns its path.
func BuildBinary(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "ghx-expect-*")
		if err != nil {
			buildErr = err
			return
		}
		buildPath = filepath.Join(dir, "ghx")
		cmd := exec.Command("go", "build", "-o", buildPath, "./cmd/ghx")
		cmd.Dir = ModuleRoot(t)
		cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("go build failed: %w\n%s", err, out)
		}
	})
	if buildErr != nil {
		t.Fatal(buildErr)
	}
	return buildPath
}

// ModuleRoot finds the Go module root by looking for go.mod.
func ModuleRoot(t *testing.T) string {
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

// FixtureEnv writes a config that serves the shared test fixture with short
// delays and returns the environment and the --config argument for it.
func FixtureEnv(t *testing.T) (env []string, configFlag string) {
	t.Helper()
	dir := t.TempDir()
	fixture := filepath.Join(ModuleRoot(t), "internal", "cmd", "testdata", "users.yaml")
	configFile := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`search:
  debounce_ms: 20
listing:
  page_size: 5
  retry_delay_ms: 1
provider:
  name: fixture
  fixture_path: %s
`, fixture)
	if err := os.WriteFile(configFile, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env = []string{
		"XDG_CONFIG_HOME=" + filepath.Join(dir, "config"),
		"XDG_DATA_HOME=" + filepath.Join(dir, "data"),
		"GH_TOKEN=",
		"GITHUB_TOKEN=",
		"NO_COLOR=1",
	}
	return env, "--config=" + configFile
}

// Session is one ghx process attached to a pseudo terminal.
type Session struct {
	Console *expect.Console
	Timeout time.Duration
	cmd     *exec.Cmd
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	timeout    time.Duration
	env        []string
	showOutput bool
}

// WithTimeout sets the default timeout for expect operations.
func WithTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.timeout = d
	}
}

// WithEnv adds environment variables to the process.
func WithEnv(env ...string) SessionOption {
	return func(c *sessionConfig) {
		c.env = append(c.env, env...)
	}
}

// WithOutput enables output to stdout for debugging.
func WithOutput(show bool) SessionOption {
	return func(c *sessionConfig) {
		c.showOutput = show
	}
}

// Start runs bin with args on a fresh pty. The pty becomes the process's
// controlling terminal so that /dev/tty resolves to it.
func Start(bin string, args []string, opts ...SessionOption) (*Session, error) {
	cfg := &sessionConfig{
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	consoleOpts := []expect.ConsoleOpt{expect.WithDefaultTimeout(cfg.timeout)}
	if cfg.showOutput {
		consoleOpts = append(consoleOpts, expect.WithStdout(os.Stdout))
	}
	console, err := expect.NewConsole(consoleOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create console: %w", err)
	}

	cmd := exec.Command(bin, args...) //nolint:gosec // G204: bin is built by the test
	cmd.Stdin = console.Tty()
	cmd.Stdout = console.Tty()
	cmd.Stderr = console.Tty()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, cfg.env...)
	// Ensure TERM is set for proper terminal handling
	cmd.Env = append(cmd.Env, "TERM=xterm-256color", "COLUMNS=100", "LINES=30")

	if err := cmd.Start(); err != nil {
		console.Close()
		return nil, fmt.Errorf("failed to start ghx: %w", err)
	}
	// The child holds its own copy of the tty.
	console.Tty().Close()

	return &Session{Console: console, Timeout: cfg.timeout, cmd: cmd}, nil
}

// Send sends text without a newline.
func (s *Session) Send(text string) error {
	_, err := s.Console.Send(text)
	return err
}

// SendLine sends text followed by a newline.
func (s *Session) SendLine(text string) error {
	_, err := s.Console.SendLine(text)
	return err
}

// SendKey sends a special key (use Key* constants).
func (s *Session) SendKey(key string) error {
	_, err := s.Console.Send(key)
	return err
}

// Expect waits for an exact string match in the output.
func (s *Session) Expect(str string) (string, error) {
	return s.Console.ExpectString(str)
}

// ExpectTimeout waits for an exact string match with a specific timeout.
func (s *Session) ExpectTimeout(str string, timeout time.Duration) (string, error) {
	return s.Console.Expect(expect.String(str), expect.WithTimeout(timeout))
}

// ExpectRegex waits for a regex pattern match in the output.
func (s *Session) ExpectRegex(pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regex: %w", err)
	}
	return s.Console.Expect(expect.Regexp(re))
}

// ExpectEOF waits for the process to close the terminal.
func (s *Session) ExpectEOF() (string, error) {
	return s.Console.ExpectEOF()
}

// Wait waits for the process to exit and returns its error.
func (s *Session) Wait() error {
	return s.cmd.Wait()
}

// Close terminates the process and the console.
func (s *Session) Close() error {
	if s.cmd != nil && s.cmd.Process != nil && s.cmd.ProcessState == nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	return s.Console.Close()
}

// SkipIfShort skips the test if running in short mode.
func SkipIfShort(t interface {
	Skip(args ...interface{})
}, reason string) {
	if testing.Short() {
		t.Skip("skipping in short mode: " + reason)
	}
}
