package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/ghexplorer/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config [key] [value]",
	Short:   "Get or set configuration values",
	GroupID: groupSetup,
	Long: `Get or set ghx configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/ghexplorer/config.yaml (XDG compliant).
The GitHub token is read from GH_TOKEN or GITHUB_TOKEN and never saved.

Keys are in the format: section.key
Sections: search, listing, cache, github, provider, log, telemetry

Examples:
  ghx config                          # List all keys
  ghx config search.debounce_ms       # Get the debounce delay
  ghx config listing.page_size 20     # Fetch 20 repositories per page
  ghx config telemetry.sink journal   # Record events in a local database`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// configFilePath is the file ghx config reads and writes.
func configFilePath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if v := os.Getenv("GHX_CONFIG"); v != "" {
		return v
	}
	return config.DefaultPaths().ConfigFile()
}

func runConfig(cmd *cobra.Command, args []string) error {
	applyColorMode()

	path := configFilePath()
	load := config.LoadFromFile
	if len(args) == 2 {
		// Environment overrides must not end up in the file.
		load = config.ReadFromFile
	}
	cfg, err := load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch len(args) {
	case 0:
		// List all keys
		return listConfig(cfg, path)
	case 1:
		// Get value
		return getConfig(cfg, args[0])
	case 2:
		// Set value
		return setConfig(cfg, path, args[0], args[1])
	}

	return nil
}

func listConfig(cfg *config.Config, path string) error {
	fmt.Printf("%sConfiguration Keys%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Println()

	keys := config.ListKeys()
	var failedKeys []string
	for _, key := range keys {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}

		// Format empty values
		displayValue := value
		if displayValue == "" {
			displayValue = colorDim + "(not set)" + colorReset
		}

		fmt.Printf("  %s%s%s = %s\n", colorCyan, key, colorReset, displayValue)
	}

	if len(failedKeys) > 0 {
		fmt.Printf("\n%sWarning:%s Failed to retrieve keys: %s\n", colorYellow, colorReset, strings.Join(failedKeys, ", "))
	}

	token := colorDim + "(not set)" + colorReset
	if cfg.GitHub.Token != "" {
		token = colorGreen + "set from environment" + colorReset
	}
	fmt.Println()
	fmt.Printf("GitHub token: %s\n", token)
	fmt.Printf("Config file:  %s\n", path)

	return nil
}

func getConfig(cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Printf("%s(not set)%s\n", colorDim, colorReset)
	} else {
		fmt.Println(value)
	}

	return nil
}

func setConfig(cfg *config.Config, path, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	fmt.Printf("%s%s%s = %s\n", colorCyan, key, colorReset, value)
	fmt.Printf("Saved to: %s\n", path)

	return nil
}
