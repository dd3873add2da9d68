// Package config provides configuration management for ghexplorer.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "ghexplorer"

// Paths holds all the path configurations for ghexplorer.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/ghexplorer)
	ConfigDir string

	// DataDir is the directory for data files (~/.local/share/ghexplorer)
	DataDir string
}

// DefaultPaths returns the default paths based on XDG Base Directory spec.
// On Windows, it uses %APPDATA% instead.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}

		return &Paths{
			ConfigDir: filepath.Join(appData, appName),
			DataDir:   filepath.Join(localAppData, appName),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	return &Paths{
		ConfigDir: filepath.Join(configHome, appName),
		DataDir:   filepath.Join(dataHome, appName),
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// JournalFile returns the path to the SQLite telemetry journal.
func (p *Paths) JournalFile() string {
	return filepath.Join(p.DataDir, "journal.db")
}

// LogDir returns the path to the log directory.
func (p *Paths) LogDir() string {
	return filepath.Join(p.DataDir, "logs")
}

// LogFile returns the path to the log file.
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogDir(), "ghx.log")
}

// EnsureDirectories creates all necessary directories.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.ConfigDir,
		p.DataDir,
		p.LogDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// LogFileFor resolves the log file for cfg, falling back to the default location.
func (p *Paths) LogFileFor(cfg *Config) string {
	if cfg != nil && cfg.Log.File != "" {
		return cfg.Log.File
	}
	return p.LogFile()
}

// JournalFileFor resolves the journal path for cfg, falling back to the default location.
func (p *Paths) JournalFileFor(cfg *Config) string {
	if cfg != nil && cfg.Telemetry.JournalPath != "" {
		return cfg.Telemetry.JournalPath
	}
	return p.JournalFile()
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
