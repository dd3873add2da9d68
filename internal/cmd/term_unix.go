//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cmd

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// getTermWidthIoctl returns the width of the terminal on stdout, or 0.
func getTermWidthIoctl() int {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 0
	}
	return int(ws.Col)
}

// checkTTY verifies that the process has a controlling terminal and that
// stdin is attached to a terminal.
func checkTTY() error {
	f, err := os.Open("/dev/tty")
	if err != nil {
		return fmt.Errorf("no TTY available: %w", err)
	}
	f.Close()
	if _, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), ioctlReadTermios); err != nil {
		return fmt.Errorf("stdin is not a terminal, use 'ghx script' for piped input")
	}
	return nil
}
