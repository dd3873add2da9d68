// Package provider implements the remote directory adapters: a text search
// over users and a paginated listing of one user's repositories.
package provider

import (
	"context"
	"time"
)

// Default page sizes.
const (
	DefaultSearchLimit = 5
	DefaultPageSize    = 10
)

// Provider is the remote directory the orchestrators talk to. Calls must
// honour ctx cancellation; failures should be classified with the failure
// package so callers can tell transient errors from terminal ones.
type Provider interface {
	// Name returns the provider name (e.g., "github", "fixture")
	Name() string

	// Available reports whether the provider can serve requests.
	Available() bool

	// SearchByText returns up to limit candidates in the provider's
	// relevance order.
	SearchByText(ctx context.Context, query string, limit int) ([]Candidate, error)

	// ListByParent returns one page (1-based) of items owned by parent.
	ListByParent(ctx context.Context, parent Candidate, page, pageSize int) (Page, error)
}

// Candidate is a user returned by a text search. Identity is ID.
type Candidate struct {
	ID          int64  `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"login"`
	AvatarRef   string `json:"avatar_ref" yaml:"avatar_url"`
	ProfileRef  string `json:"profile_ref" yaml:"html_url"`
}

// Item is a repository belonging to a Candidate.
type Item struct {
	ID              int64     `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	FullName        string    `json:"full_name" yaml:"full_name"`
	Description     *string   `json:"description" yaml:"description"`
	ProfileRef      string    `json:"profile_ref" yaml:"html_url"`
	StarCount       int       `json:"star_count" yaml:"stargazers_count"`
	PrimaryLanguage *string   `json:"primary_language" yaml:"language"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"updated_at"`
	OwnerName       string    `json:"owner_name" yaml:"-"`
	OwnerAvatarRef  string    `json:"owner_avatar_ref" yaml:"-"`
}

// Page is one page of a listing plus the total the provider reported.
type Page struct {
	Items      []Item `json:"items"`
	TotalCount int    `json:"total_count"`
}
