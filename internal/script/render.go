package script

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/sanitize"
	"github.com/runger/ghexplorer/internal/store"
)

const descriptionWidth = 60

// View is what show prints: the state plus both retry counters.
type View struct {
	Snapshot     store.Snapshot `json:"state"`
	SearchRetry  retry.Status   `json:"search_retry"`
	ListingRetry retry.Status   `json:"listing_retry"`
}

// WriteJSON writes v as one JSON document.
func WriteJSON(w io.Writer, v View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteText writes a human-readable rendering of v. Remote strings are
// cleaned before they reach the terminal.
func WriteText(w io.Writer, v View) error {
	var b strings.Builder
	q := v.Snapshot.Query
	l := v.Snapshot.Listing

	fmt.Fprintf(&b, "query %q %s", q.Text, q.Status)
	if q.Status == store.StatusReady {
		fmt.Fprintf(&b, " (%d results)", len(q.Results))
	}
	b.WriteString("\n")
	if q.Status == store.StatusFailed {
		fmt.Fprintf(&b, "  error: %s  [%s]\n", sanitize.Clean(q.ErrorMessage), RetryHint(v.SearchRetry))
	}
	WriteCandidates(&b, q.Results)

	if q.Selected != nil {
		fmt.Fprintf(&b, "listing %s page %d %s (%d of %d)\n",
			sanitize.Clean(q.Selected.DisplayName), l.Page, l.Status, len(l.Items), l.TotalCount)
		if l.Status == store.StatusFailed {
			fmt.Fprintf(&b, "  error: %s  [%s]\n", sanitize.Clean(l.ErrorMessage), RetryHint(v.ListingRetry))
		}
		WriteItems(&b, l.Items)
		if l.HasMore() && l.Status != store.StatusPending {
			b.WriteString("  (more available)\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCandidates lists candidates numbered from 1, matching select's indexes.
func WriteCandidates(w io.Writer, cs []provider.Candidate) {
	for i, c := range cs {
		fmt.Fprintf(w, "  %d. %s  %s\n", i+1, sanitize.Clean(c.DisplayName), sanitize.Clean(c.ProfileRef))
	}
}

// WriteItems lists repositories one per line.
func WriteItems(w io.Writer, items []provider.Item) {
	for _, it := range items {
		lang := "-"
		if it.PrimaryLanguage != nil && *it.PrimaryLanguage != "" {
			lang = sanitize.Clean(*it.PrimaryLanguage)
		}
		fmt.Fprintf(w, "  - %s  ★ %d  %s  %s\n",
			sanitize.Clean(it.FullName), it.StarCount, lang, it.UpdatedAt.Format("2006-01-02"))
		if it.Description != nil && *it.Description != "" {
			fmt.Fprintf(w, "      %s\n", sanitize.Truncate(sanitize.Clean(*it.Description), descriptionWidth))
		}
	}
}

// RetryHint is the retry affordance shown next to a failure.
func RetryHint(s retry.Status) string {
	if s.Exhausted || !s.CanRetry {
		return retry.ErrExhausted.Error()
	}
	return fmt.Sprintf("retry (%d left)", s.Remaining)
}
