package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/ghexplorer/internal/failure"
)

const fixtureYAML = `
fail_queries: [boom]
fail_logins: [flaky]
users:
  - id: 1
    login: octocat
    avatar_url: https://avatars/1
    html_url: https://github.com/octocat
    repos:
      - {id: 10, name: hello, stargazers_count: 3, language: Go, updated_at: 2024-05-01T00:00:00Z}
      - {id: 11, name: world, description: second}
      - {id: 12, name: third}
  - id: 2
    login: octodog
  - id: 3
    login: flaky
`

func TestFixture_Search(t *testing.T) {
	t.Parallel()

	f, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	assert.True(t, f.Available())

	got, err := f.SearchByText(context.Background(), "OCTO", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "octocat", got[0].DisplayName)
	assert.Equal(t, "https://github.com/octocat", got[0].ProfileRef)

	limited, err := f.SearchByText(context.Background(), "octo", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = f.SearchByText(context.Background(), "boom", 5)
	assert.Equal(t, failure.KindNetwork, failure.KindOf(err))
}

func TestFixture_ListPages(t *testing.T) {
	t.Parallel()

	f, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	parent := Candidate{ID: 1, DisplayName: "octocat"}

	p1, err := f.ListByParent(context.Background(), parent, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, p1.TotalCount)
	require.Len(t, p1.Items, 2)
	assert.Equal(t, "octocat/hello", p1.Items[0].FullName)
	assert.Equal(t, "octocat", p1.Items[0].OwnerName)
	assert.Equal(t, 3, p1.Items[0].StarCount)
	require.NotNil(t, p1.Items[1].Description)
	assert.Equal(t, "second", *p1.Items[1].Description)

	p2, err := f.ListByParent(context.Background(), parent, 2, 2)
	require.NoError(t, err)
	require.Len(t, p2.Items, 1)
	assert.Equal(t, int64(12), p2.Items[0].ID)

	p9, err := f.ListByParent(context.Background(), parent, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, p9.Items)

	_, err = f.ListByParent(context.Background(), Candidate{ID: 99, DisplayName: "ghost"}, 1, 2)
	assert.Equal(t, failure.KindNotFound, failure.KindOf(err))

	_, err = f.ListByParent(context.Background(), Candidate{ID: 3, DisplayName: "flaky"}, 1, 2)
	assert.True(t, failure.Retryable(err))
}

func TestFixture_LatencyHonoursCancel(t *testing.T) {
	t.Parallel()

	f := NewFixture(FixtureData{LatencyMs: 10_000, Users: []FixtureUser{{Candidate: Candidate{ID: 1, DisplayName: "a"}}}})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.SearchByText(ctx, "a", 5)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, failure.KindTimedOut, failure.KindOf(err))
}

func TestLoadFixture(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o644))
	f, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, "fixture", f.Name())

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
