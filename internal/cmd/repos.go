package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/ghexplorer/internal/explorer"
	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/sanitize"
	"github.com/runger/ghexplorer/internal/script"
	"github.com/runger/ghexplorer/internal/store"
)

var (
	reposJSON  bool
	reposPages int
	reposAll   bool
)

var reposCmd = &cobra.Command{
	Use:     "repos <login>",
	Short:   "List a user's repositories",
	GroupID: groupCore,
	Long: `List the repositories of a GitHub user, most recently updated first.

The user is found through a search for the login, then selected exactly as
in the interactive explorer. Pages are fetched listing.page_size at a time;
failed pages are retried in the background listing.auto_retries times.

Examples:
  ghx repos octocat               # First page
  ghx repos octocat --pages 3     # First three pages
  ghx repos octocat --all --json  # Everything, as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runRepos,
}

func init() {
	reposCmd.Flags().BoolVar(&reposJSON, "json", false, "output results as JSON")
	reposCmd.Flags().IntVarP(&reposPages, "pages", "p", 1, "number of pages to fetch")
	reposCmd.Flags().BoolVar(&reposAll, "all", false, "fetch every page")
	reposCmd.Flags().DurationVar(&flagWait, "timeout", 0, "maximum time to wait for each page (default 30s)")
	reposCmd.MarkFlagsMutuallyExclusive("pages", "all")
}

func runRepos(cmd *cobra.Command, args []string) error {
	applyColorMode()
	login := args[0]
	if reposPages < 1 && !reposAll {
		return fmt.Errorf("--pages must be at least 1")
	}

	return runSession(cmd, func(ctx context.Context, a *app, s *explorer.Session) error {
		owner, err := findUser(ctx, s, login)
		if err != nil {
			return err
		}

		if err := s.SelectCandidate(owner); err != nil {
			return err
		}
		snap, err := waitIdle(ctx, s)
		if err != nil {
			return err
		}
		for fetched := 1; snap.Listing.Status == store.StatusReady && snap.Listing.HasMore(); fetched++ {
			if !reposAll && fetched >= reposPages {
				break
			}
			if err := s.RequestNextPage(); err != nil {
				return err
			}
			if snap, err = waitIdle(ctx, s); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		l := snap.Listing
		if reposJSON {
			if err := script.WriteJSON(out, viewOf(s, snap)); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "%s%s%s  %d of %d repositories\n",
				colorBold, sanitize.Clean(owner.DisplayName), colorReset, len(l.Items), l.TotalCount)
			script.WriteItems(out, l.Items)
			if l.HasMore() {
				fmt.Fprintf(out, "%s  (more available, use --all)%s\n", colorDim, colorReset)
			}
		}
		if l.Status == store.StatusFailed {
			return fmt.Errorf("listing failed: %s", sanitize.Clean(l.ErrorMessage))
		}
		return nil
	})
}

// findUser searches for login and returns the candidate whose name matches
// it exactly, ignoring case.
func findUser(ctx context.Context, s *explorer.Session, login string) (provider.Candidate, error) {
	if err := s.SubmitQueryText(login); err != nil {
		return provider.Candidate{}, err
	}
	snap, err := waitIdle(ctx, s)
	if err != nil {
		return provider.Candidate{}, err
	}
	if snap.Query.Status == store.StatusFailed {
		return provider.Candidate{}, fmt.Errorf("search failed: %s", sanitize.Clean(snap.Query.ErrorMessage))
	}
	for _, c := range snap.Query.Results {
		if strings.EqualFold(c.DisplayName, strings.TrimSpace(login)) {
			return c, nil
		}
	}
	return provider.Candidate{}, fmt.Errorf("user %q not found", login)
}
