package cmd

import (
	"testing"
)

func withColorState(t *testing.T) {
	t.Helper()
	origMode := colorMode
	origRed, origCyan, origReset := colorRed, colorCyan, colorReset
	t.Cleanup(func() {
		colorMode = origMode
		colorRed, colorCyan, colorReset = origRed, origCyan, origReset
	})
}

func TestApplyColorMode(t *testing.T) {
	tests := []struct {
		mode    string
		start   func()
		colored bool
	}{
		{"always", disableColors, true},
		{"never", enableColors, false},
		// stdout is a pipe under go test
		{"auto", enableColors, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			withColorState(t)
			t.Setenv("NO_COLOR", "")
			tt.start()

			colorMode = tt.mode
			applyColorMode()

			if got := colorCyan != ""; got != tt.colored {
				t.Errorf("applyColorMode(%q): colored = %v, want %v", tt.mode, got, tt.colored)
			}
			if (colorReset != "") != tt.colored {
				t.Errorf("applyColorMode(%q) left reset inconsistent", tt.mode)
			}
		})
	}
}

func TestShouldDisableColors(t *testing.T) {
	t.Run("NO_COLOR", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		if !shouldDisableColors() {
			t.Error("shouldDisableColors should return true when NO_COLOR is set")
		}
	})
	t.Run("TERM=dumb", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		t.Setenv("TERM", "dumb")
		if !shouldDisableColors() {
			t.Error("shouldDisableColors should return true when TERM=dumb")
		}
	})
}

func TestTerminalWidth(t *testing.T) {
	if getTermWidthIoctl() > 0 {
		t.Skip("stdout is a terminal")
	}

	tests := []struct {
		columns string
		want    int
	}{
		{"", 80},
		{"120", 120},
		{"notanumber", 80},
		{"-5", 80},
	}
	for _, tt := range tests {
		t.Setenv("COLUMNS", tt.columns)
		if got := terminalWidth(); got != tt.want {
			t.Errorf("terminalWidth() with COLUMNS=%q = %d, want %d", tt.columns, got, tt.want)
		}
	}
}

func TestCheckTERM(t *testing.T) {
	t.Setenv("TERM", "dumb")
	if err := checkTERM(); err == nil {
		t.Error("checkTERM should reject TERM=dumb")
	}
	t.Setenv("TERM", "xterm-256color")
	if err := checkTERM(); err != nil {
		t.Errorf("checkTERM(xterm-256color) = %v", err)
	}
}

func TestCheckTermWidth(t *testing.T) {
	if getTermWidthIoctl() > 0 {
		t.Skip("stdout is a terminal")
	}
	t.Setenv("COLUMNS", "")
	if err := checkTermWidth(); err != nil {
		t.Errorf("checkTermWidth without a terminal = %v", err)
	}
	t.Setenv("COLUMNS", "12")
	if err := checkTermWidth(); err == nil {
		t.Error("checkTermWidth should reject 12 columns")
	}
}
