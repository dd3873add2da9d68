package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/ghexplorer/internal/explorer"
	"github.com/runger/ghexplorer/internal/sanitize"
	"github.com/runger/ghexplorer/internal/script"
	"github.com/runger/ghexplorer/internal/store"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Short:   "Search GitHub users",
	GroupID: groupCore,
	Long: `Search GitHub users and print the best matches.

The query goes through the same debounced, cancellable request path as
the interactive explorer. At most search.max_results users are shown.

Examples:
  ghx search octo                 # Users matching "octo"
  ghx search --json octo          # Output as JSON
  ghx search --provider fixture --fixture users.yaml octo`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().DurationVar(&flagWait, "timeout", 0, "maximum time to wait for results (default 30s)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	applyColorMode()
	query := args[0]

	return runSession(cmd, func(ctx context.Context, a *app, s *explorer.Session) error {
		if err := s.SubmitQueryText(query); err != nil {
			return err
		}
		snap, err := waitIdle(ctx, s)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if searchJSON {
			if err := script.WriteJSON(out, viewOf(s, snap)); err != nil {
				return err
			}
		}

		q := snap.Query
		if q.Status == store.StatusFailed {
			return fmt.Errorf("search failed: %s", sanitize.Clean(q.ErrorMessage))
		}
		if searchJSON {
			return nil
		}
		if len(q.Results) == 0 {
			fmt.Fprintln(out, "No results found.")
			return nil
		}
		fmt.Fprintf(out, "%s%s%s\n", colorBold, strings.TrimSpace(q.Text), colorReset)
		script.WriteCandidates(out, q.Results)
		return nil
	})
}
