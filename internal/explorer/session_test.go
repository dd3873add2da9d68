package explorer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/store"
)

func newFixture(t *testing.T) *provider.Fixture {
	t.Helper()
	var repos []provider.Item
	for i := 0; i < 15; i++ {
		repos = append(repos, provider.Item{ID: int64(100 + i), Name: "repo"})
	}
	return provider.NewFixture(provider.FixtureData{
		LatencyMs: 5,
		Users: []provider.FixtureUser{
			{Candidate: provider.Candidate{ID: 1, DisplayName: "octocat"}, Repos: repos},
			{Candidate: provider.Candidate{ID: 2, DisplayName: "octodog"}},
		},
	})
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(context.Background(), Config{
		Provider:  newFixture(t),
		Store:     store.New(10),
		Debounce:  5 * time.Millisecond,
		AutoRetry: &retry.Auto{Retries: 0},
	})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_SearchSelectAndPage(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.SubmitQueryText("octo"))
	assert.Equal(t, store.StatusPending, s.Snapshot().Query.Status, "intent is applied before SubmitQueryText returns")

	snap, err := s.WaitIdle(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.StatusReady, snap.Query.Status)
	require.Len(t, snap.Query.Results, 2)

	require.NoError(t, s.SelectCandidate(snap.Query.Results[0]))
	snap, err = s.WaitIdle(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Listing.Items, 10)
	assert.True(t, snap.Listing.HasMore())

	require.NoError(t, s.RequestNextPage())
	snap, err = s.WaitIdle(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Listing.Items, 15)
	assert.False(t, snap.Listing.HasMore())
	assert.Equal(t, 0, s.RetryStatus(retry.ActionSelectCandidate).Attempts)
}

func TestSession_SubscribeSeesTransitions(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	seen := make(chan store.Status, 16)
	unsubscribe := s.Subscribe(func(snap store.Snapshot) {
		select {
		case seen <- snap.Query.Status:
		default:
		}
	})
	defer unsubscribe()

	require.NoError(t, s.SubmitQueryText("octocat"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.Wait(ctx, func(snap store.Snapshot) bool { return snap.Query.Status == store.StatusReady })
	require.NoError(t, err)

	var statuses []store.Status
	for len(seen) > 0 {
		statuses = append(statuses, <-seen)
	}
	require.NotEmpty(t, statuses)
	assert.Equal(t, store.StatusPending, statuses[0])
	assert.Equal(t, store.StatusReady, statuses[len(statuses)-1])
}

func TestSession_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Wait(ctx, func(store.Snapshot) bool { return false })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSession_ClosedSessionRejectsIntents(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.SubmitQueryText("octo"), ErrClosed)
	assert.ErrorIs(t, s.RetryLastQuery(), ErrClosed)
	_, err := s.Wait(context.Background(), func(store.Snapshot) bool { return false })
	assert.ErrorIs(t, err, ErrClosed)
}
