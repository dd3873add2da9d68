package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"

	"github.com/runger/ghexplorer/internal/failure"
)

// GitHubConfig configures the GitHub REST provider.
type GitHubConfig struct {
	// Host is the GitHub host. Default: github.com
	Host string
	// Token is the API token. When empty go-gh resolves it from GH_TOKEN,
	// GITHUB_TOKEN or the gh CLI's stored credentials.
	Token string
	// Timeout bounds each HTTP round trip; the orchestrators apply their
	// own deadlines on top.
	Timeout time.Duration
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// GitHub searches users and lists their repositories over the REST API.
type GitHub struct {
	rest   *api.RESTClient
	err    error
	logger *slog.Logger

	// totals holds exact repository counts learned from a user's last
	// page, keyed by login and page size. Page 1 refreshes the entry.
	totals sync.Map
}

// NewGitHub creates the provider. A client that cannot be built (usually a
// missing token) leaves the provider unavailable rather than failing.
func NewGitHub(cfg GitHubConfig) *GitHub {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := api.ClientOptions{
		Host:      cfg.Host,
		AuthToken: cfg.Token,
		Timeout:   cfg.Timeout,
		Transport: cfg.Transport,
		Headers: map[string]string{
			"Accept":               "application/vnd.github+json",
			"X-GitHub-Api-Version": "2022-11-28",
		},
	}
	rest, err := api.NewRESTClient(opts)
	if err != nil {
		logger.Debug("github provider unavailable", "error", err)
	}
	return &GitHub{rest: rest, err: err, logger: logger}
}

// Name returns "github".
func (g *GitHub) Name() string { return "github" }

// Available reports whether a REST client could be built.
func (g *GitHub) Available() bool { return g.err == nil && g.rest != nil }

type ghUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

type ghSearchUsers struct {
	TotalCount int      `json:"total_count"`
	Items      []ghUser `json:"items"`
}

type ghRepo struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Description     *string    `json:"description"`
	HTMLURL         string     `json:"html_url"`
	StargazersCount *int       `json:"stargazers_count"`
	Language        *string    `json:"language"`
	UpdatedAt       *time.Time `json:"updated_at"`
	Owner           ghUser     `json:"owner"`
}

func (u ghUser) candidate() Candidate {
	return Candidate{
		ID:          u.ID,
		DisplayName: u.Login,
		AvatarRef:   u.AvatarURL,
		ProfileRef:  u.HTMLURL,
	}
}

func (r ghRepo) item(now time.Time) Item {
	it := Item{
		ID:              r.ID,
		Name:            r.Name,
		FullName:        r.FullName,
		Description:     r.Description,
		ProfileRef:      r.HTMLURL,
		PrimaryLanguage: r.Language,
		UpdatedAt:       now,
		OwnerName:       r.Owner.Login,
		OwnerAvatarRef:  r.Owner.AvatarURL,
	}
	if r.StargazersCount != nil && *r.StargazersCount > 0 {
		it.StarCount = *r.StargazersCount
	}
	if r.UpdatedAt != nil {
		it.UpdatedAt = *r.UpdatedAt
	}
	return it
}

// SearchByText queries search/users.
func (g *GitHub) SearchByText(ctx context.Context, query string, limit int) ([]Candidate, error) {
	const op = "search users"
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(limit))

	var body ghSearchUsers
	if _, err := g.get(ctx, op, "search/users?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(body.Items))
	for _, u := range body.Items {
		out = append(out, u.candidate())
	}
	return out, nil
}

// ListByParent lists users/{login}/repos, most recently updated first.
func (g *GitHub) ListByParent(ctx context.Context, parent Candidate, page, pageSize int) (Page, error) {
	const op = "list repositories"
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	params := url.Values{}
	params.Set("sort", "updated")
	params.Set("direction", "desc")
	params.Set("per_page", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))
	path := fmt.Sprintf("users/%s/repos?%s", url.PathEscape(parent.DisplayName), params.Encode())

	var repos []ghRepo
	header, err := g.get(ctx, op, path, &repos)
	if err != nil {
		return Page{}, err
	}

	now := time.Now()
	items := make([]Item, 0, len(repos))
	for _, r := range repos {
		items = append(items, r.item(now))
	}
	total := totalCount(header, page, pageSize, len(items))
	if last := lastPage(header); last > page && header.Get("X-Total-Count") == "" {
		total = g.exactTotal(ctx, parent.DisplayName, params, page, last, pageSize, total)
	}
	return Page{Items: items, TotalCount: total}, nil
}

// exactTotal replaces the Link-header estimate with the real count by
// reading the size of the last page. The result is remembered so later
// pages of the same listing cost one request. On failure the estimate is
// kept.
func (g *GitHub) exactTotal(ctx context.Context, login string, params url.Values, page, last, pageSize, estimate int) int {
	const op = "count repositories"
	key := fmt.Sprintf("%s/%d", login, pageSize)
	if page > 1 {
		if n, ok := g.totals.Load(key); ok {
			return n.(int)
		}
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(last))
	var repos []ghRepo
	if _, err := g.get(ctx, op, fmt.Sprintf("users/%s/repos?%s", url.PathEscape(login), q.Encode()), &repos); err != nil {
		g.logger.Debug("keeping estimated total", "login", login, "estimate", estimate, "error", err)
		return estimate
	}
	n := (last-1)*pageSize + len(repos)
	g.totals.Store(key, n)
	return n
}

// get performs a GET and decodes the JSON body into v, returning the
// response headers.
func (g *GitHub) get(ctx context.Context, op, path string, v any) (http.Header, error) {
	if !g.Available() {
		return nil, failure.New(failure.KindUnauthorized, op, g.err)
	}

	start := time.Now()
	resp, err := g.rest.RequestWithContext(ctx, http.MethodGet, path, nil)
	g.logger.Debug("github request",
		"op", op,
		"path", path,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	if err != nil {
		return nil, classify(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(op, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, failure.New(failure.KindUnknown, op, fmt.Errorf("decode response: %w", err))
	}
	return resp.Header, nil
}

// classify maps transport and HTTP errors onto the failure taxonomy.
func classify(op string, err error) error {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		fe := failure.FromStatus(op, httpErr.StatusCode, httpErr.Message, httpErr.Headers)
		fe.Err = err
		return fe
	}
	switch failure.KindOf(err) {
	case failure.KindAborted, failure.KindTimedOut:
		return err
	case failure.KindUnknown:
		// Anything the transport could not classify is treated as a
		// network failure so it stays retryable.
		return failure.New(failure.KindNetwork, op, err)
	default:
		return failure.New(failure.KindOf(err), op, err)
	}
}

var lastPageRE = regexp.MustCompile(`[?&]page=(\d+)[^>]*>;\s*rel="last"`)

// lastPage returns the page number of the Link header's rel="last"
// entry, or 0.
func lastPage(h http.Header) int {
	if h == nil {
		return 0
	}
	m := lastPageRE.FindStringSubmatch(h.Get("Link"))
	if m == nil {
		return 0
	}
	last, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return last
}

// totalCount derives the number of items across all pages. X-Total-Count
// wins. A Link header's last page gives an upper bound of last*pageSize,
// since the last page may be short; ListByParent replaces it with the
// exact count. Otherwise the current page is taken to be the last one.
func totalCount(h http.Header, page, pageSize, got int) int {
	if h != nil {
		if v := h.Get("X-Total-Count"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				return n
			}
		}
	}
	if last := lastPage(h); last > page {
		return last * pageSize
	}
	return (page-1)*pageSize + got
}

var _ Provider = (*GitHub)(nil)
