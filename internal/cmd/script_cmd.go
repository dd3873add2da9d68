package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/ghexplorer/internal/explorer"
	"github.com/runger/ghexplorer/internal/script"
)

var scriptJSON bool

var scriptCmd = &cobra.Command{
	Use:     "script [file]",
	Short:   "Run explorer intents from a file or stdin",
	GroupID: groupCore,
	Long: `Run explorer intents, one per line, from a file or stdin.

Lines are split with shell quoting rules. Blank lines and lines starting
with # are ignored. The script stops at the first failing line.

  type <text>              feed input text, debounced
  search <text>            type, then wait for the search to settle
  select <index|login>     select a result by 1-based index or login
  more                     request the next page of repositories
  retry query|selection    retry the last failed request
  wait                     wait until nothing is pending
  show                     print the current state
  sleep <ms>               pause

Examples:
  ghx script session.ghx
  printf 'search octo\nselect 1\nwait\nshow\n' | ghx script
  ghx script --json --fixture users.yaml session.ghx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().BoolVar(&scriptJSON, "json", false, "print show output as JSON")
	scriptCmd.Flags().DurationVar(&flagWait, "timeout", 0, "maximum time for each wait (default 30s)")
}

func runScript(cmd *cobra.Command, args []string) error {
	applyColorMode()

	var in io.Reader = cmd.InOrStdin()
	name := "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in, name = f, args[0]
	}

	steps, err := script.Parse(in)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(steps) == 0 {
		return nil
	}

	return runSession(cmd, func(ctx context.Context, a *app, s *explorer.Session) error {
		r := script.NewRunner(script.RunnerConfig{
			Driver:      s,
			Out:         cmd.OutOrStdout(),
			JSON:        scriptJSON,
			WaitTimeout: flagWait,
			Logger:      a.logger,
		})
		if err := r.Run(ctx, steps); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}
