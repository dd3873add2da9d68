package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/ghexplorer/internal/explorer"
	"github.com/runger/ghexplorer/internal/tui"
)

// minTermWidth is the narrowest terminal the explorer renders in.
const minTermWidth = 20

var tuiQuery string

var tuiCmd = &cobra.Command{
	Use:     "tui",
	Short:   "Start the interactive explorer",
	GroupID: groupCore,
	Long: `Start the interactive explorer.

Type to search GitHub users. Enter or ↓ moves into the results, enter
selects a user and loads their repositories, scrolling past the last row
loads the next page. ctrl+r retries a failed request, esc steps back and
quits from the query line.

Examples:
  ghx tui                      # Start with an empty query
  ghx tui --query octocat      # Start searching right away
  ghx --fixture users.yaml     # Explore a local fixture`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiQuery, "query", "q", "", "initial search query")
}

func runTUI(cmd *cobra.Command, args []string) error {
	if err := checkTTY(); err != nil {
		return err
	}
	if err := checkTERM(); err != nil {
		return err
	}
	if err := checkTermWidth(); err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).ColorProfile())

	ecfg := a.engineConfig()
	ecfg.Context = cmd.Context()
	engine := explorer.NewEngine(ecfg)
	model := tui.NewModel(engine).WithQuery(tuiQuery)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if ctx := cmd.Context(); ctx != nil {
		opts = append(opts, tea.WithContext(ctx))
	}
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		engine.Shutdown()
		return fmt.Errorf("explorer failed: %w", err)
	}
	return nil
}

// checkTERM verifies that the TERM environment variable is not "dumb".
func checkTERM() error {
	if os.Getenv("TERM") == "dumb" {
		return fmt.Errorf("TERM=dumb is not supported")
	}
	return nil
}

// checkTermWidth verifies that the terminal is wide enough to render in.
func checkTermWidth() error {
	if w := terminalWidth(); w < minTermWidth {
		return fmt.Errorf("terminal too narrow (%d columns, need at least %d)", w, minTermWidth)
	}
	return nil
}
