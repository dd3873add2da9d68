package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runger/ghexplorer/internal/failure"
)

// FixtureData is the on-disk format of the fixture provider.
//
//	latency_ms: 150
//	fail_queries: [boom]
//	users:
//	  - id: 1
//	    login: octocat
//	    repos:
//	      - {id: 10, name: hello, stargazers_count: 3}
type FixtureData struct {
	LatencyMs   int           `yaml:"latency_ms"`
	FailQueries []string      `yaml:"fail_queries"`
	FailLogins  []string      `yaml:"fail_logins"`
	Users       []FixtureUser `yaml:"users"`
}

// FixtureUser is a canned user with its repositories.
type FixtureUser struct {
	Candidate `yaml:",inline"`
	Repos     []Item `yaml:"repos"`
}

// Fixture serves canned data with optional artificial latency. Queries and
// logins listed under fail_* fail with a network error.
type Fixture struct {
	data    FixtureData
	latency time.Duration
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture builds a fixture from YAML.
func ParseFixture(raw []byte) (*Fixture, error) {
	var data FixtureData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return NewFixture(data), nil
}

// NewFixture builds a fixture from in-memory data.
func NewFixture(data FixtureData) *Fixture {
	for i := range data.Users {
		u := &data.Users[i]
		for j := range u.Repos {
			r := &u.Repos[j]
			r.OwnerName = u.DisplayName
			r.OwnerAvatarRef = u.AvatarRef
			if r.FullName == "" {
				r.FullName = u.DisplayName + "/" + r.Name
			}
		}
	}
	return &Fixture{data: data, latency: time.Duration(data.LatencyMs) * time.Millisecond}
}

// Name returns "fixture".
func (f *Fixture) Name() string { return "fixture" }

// Available reports whether any users are loaded.
func (f *Fixture) Available() bool { return len(f.data.Users) > 0 }

// SearchByText matches logins case-insensitively by substring, in file order.
func (f *Fixture) SearchByText(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if contains(f.data.FailQueries, query) {
		return nil, failure.New(failure.KindNetwork, "search users", fmt.Errorf("fixture failure for %q", query))
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToLower(query)
	var out []Candidate
	for _, u := range f.data.Users {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(u.DisplayName), q) {
			out = append(out, u.Candidate)
		}
	}
	return out, nil
}

// ListByParent pages through the parent's repositories in file order.
func (f *Fixture) ListByParent(ctx context.Context, parent Candidate, page, pageSize int) (Page, error) {
	const op = "list repositories"
	if err := f.wait(ctx); err != nil {
		return Page{}, err
	}
	if contains(f.data.FailLogins, parent.DisplayName) {
		return Page{}, failure.New(failure.KindNetwork, op, fmt.Errorf("fixture failure for %q", parent.DisplayName))
	}
	var user *FixtureUser
	for i := range f.data.Users {
		if f.data.Users[i].ID == parent.ID || strings.EqualFold(f.data.Users[i].DisplayName, parent.DisplayName) {
			user = &f.data.Users[i]
			break
		}
	}
	if user == nil {
		return Page{}, failure.FromStatus(op, 404, "Not Found", nil)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	start := (page - 1) * pageSize
	if start > len(user.Repos) {
		start = len(user.Repos)
	}
	end := start + pageSize
	if end > len(user.Repos) {
		end = len(user.Repos)
	}
	items := make([]Item, end-start)
	copy(items, user.Repos[start:end])
	return Page{Items: items, TotalCount: len(user.Repos)}, nil
}

func (f *Fixture) wait(ctx context.Context) error {
	if f.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(f.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

var _ Provider = (*Fixture)(nil)
