package cmd

import (
	"github.com/spf13/cobra"
)

// Command groups shown in help output.
const (
	groupCore  = "core"
	groupSetup = "setup"
)

var rootCmd = &cobra.Command{
	Use:   "ghx",
	Short: "explore GitHub users and their repositories from the terminal",
	Long: `ghx - explore GitHub users and their repositories from the terminal
  - type to search users, results follow as you type
  - select a user to page through their repositories
  - failed requests can be retried a few times before giving up

Run without a subcommand to start the interactive explorer.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Explore:"},
		&cobra.Group{ID: groupSetup, Title: "Setup:"},
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default $XDG_CONFIG_HOME/ghexplorer/config.yaml)")
	pf.StringVar(&flagProvider, "provider", "", "provider to use: auto, github or fixture")
	pf.StringVar(&flagFixture, "fixture", "", "YAML fixture file to serve instead of GitHub")
	pf.BoolVar(&flagNoCache, "no-cache", false, "disable the response cache")
	pf.StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")

	rootCmd.Flags().StringVarP(&tuiQuery, "query", "q", "", "initial search query")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
