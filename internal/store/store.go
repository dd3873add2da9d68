// Package store holds the shared query and listing state. The store is the
// single source of truth read by renderers; only the orchestrators call its
// mutation methods, and each mutation is applied atomically and announced
// to subscribers before the next one starts.
package store

import (
	"sync"

	"github.com/runger/ghexplorer/internal/provider"
)

// Status of one state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// QueryState is the search side of the store. ErrorMessage is empty unless
// Status is StatusFailed.
type QueryState struct {
	Text         string               `json:"text"`
	Status       Status               `json:"status"`
	Results      []provider.Candidate `json:"results"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Selected     *provider.Candidate  `json:"selected,omitempty"`
}

// ListingState is the repository listing of the selected candidate.
type ListingState struct {
	Items        []provider.Item `json:"items"`
	Status       Status          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	// Page is the last committed page (1 before anything is committed).
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	// PendingPage is the page in flight, 0 when none.
	PendingPage int `json:"pending_page,omitempty"`
}

// HasMore reports whether another page exists.
func (l ListingState) HasMore() bool {
	return l.Page*l.PageSize < l.TotalCount
}

// Snapshot is a complete, consistent view of the store. Its slices are
// shared with the store and must not be modified.
type Snapshot struct {
	Version uint64       `json:"version"`
	Query   QueryState   `json:"query"`
	Listing ListingState `json:"listing"`
}

// Store is safe for concurrent readers. Subscribers run synchronously on the
// mutating goroutine and must not call mutation methods themselves.
type Store struct {
	// notifyMu serializes mutate+notify so subscribers observe mutations in order.
	notifyMu sync.Mutex

	mu       sync.RWMutex
	snap     Snapshot
	subs     []subscription
	nextSub  int
	pageSize int
}

type subscription struct {
	id int
	fn func(Snapshot)
}

// New creates a store whose listing uses pageSize items per page.
func New(pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = provider.DefaultPageSize
	}
	return &Store{
		pageSize: pageSize,
		snap: Snapshot{
			Listing: emptyListing(pageSize),
		},
	}
}

func emptyListing(pageSize int) ListingState {
	return ListingState{Status: StatusIdle, Page: 1, PageSize: pageSize}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			subs := make([]subscription, 0, len(s.subs))
			for _, sub := range s.subs {
				if sub.id != id {
					subs = append(subs, sub)
				}
			}
			s.subs = subs
		})
	}
}

// mutate applies fn under the write lock and notifies subscribers. fn
// returns false to leave the state untouched (no version bump, no notify).
func (s *Store) mutate(fn func(*Snapshot) bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := s.snap
	if !fn(&next) {
		s.mu.Unlock()
		return false
	}
	next.Version++
	s.snap = next
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next)
	}
	return true
}

// BeginQuery marks a search for text as in flight. Existing results stay
// visible until the search settles.
func (s *Store) BeginQuery(text string) {
	s.mutate(func(st *Snapshot) bool {
		st.Query.Text = text
		st.Query.Status = StatusPending
		st.Query.ErrorMessage = ""
		return true
	})
}

// CommitQuery replaces the results of a successful search.
func (s *Store) CommitQuery(text string, results []provider.Candidate) {
	out := make([]provider.Candidate, len(results))
	copy(out, results)
	s.mutate(func(st *Snapshot) bool {
		st.Query.Text = text
		st.Query.Status = StatusReady
		st.Query.Results = out
		st.Query.ErrorMessage = ""
		return true
	})
}

// FailQuery records a failed search; results are cleared.
func (s *Store) FailQuery(text, message string) {
	s.mutate(func(st *Snapshot) bool {
		st.Query.Text = text
		st.Query.Status = StatusFailed
		st.Query.Results = []provider.Candidate{}
		st.Query.ErrorMessage = message
		return true
	})
}

// ClearQuery returns the search side to Idle with no results. The
// selection is kept.
func (s *Store) ClearQuery() {
	s.mutate(func(st *Snapshot) bool {
		st.Query.Text = ""
		st.Query.Status = StatusIdle
		st.Query.Results = []provider.Candidate{}
		st.Query.ErrorMessage = ""
		return true
	})
}

// SelectCandidate changes the selection and resets the listing to its
// empty Idle form.
func (s *Store) SelectCandidate(c provider.Candidate) {
	s.mutate(func(st *Snapshot) bool {
		selected := c
		st.Query.Selected = &selected
		st.Listing = emptyListing(s.pageSize)
		return true
	})
}

// BeginListing marks page as in flight for the selected candidate.
func (s *Store) BeginListing(parentID int64, page int) bool {
	return s.mutate(func(st *Snapshot) bool {
		if !selectedIs(st, parentID) {
			return false
		}
		st.Listing.Status = StatusPending
		st.Listing.PendingPage = page
		st.Listing.ErrorMessage = ""
		return true
	})
}

// CommitListingPage appends a page for parentID. Pages for anything other
// than the current selection are refused. A page longer than the page size
// is cut to it so the listing never holds more than page*pageSize items.
func (s *Store) CommitListingPage(parentID int64, page int, items []provider.Item, total int) bool {
	if len(items) > s.pageSize {
		items = items[:s.pageSize]
	}
	return s.mutate(func(st *Snapshot) bool {
		if !selectedIs(st, parentID) {
			return false
		}
		prev := st.Listing.Items
		if page <= 1 {
			prev = nil
		}
		merged := make([]provider.Item, 0, len(prev)+len(items))
		merged = append(merged, prev...)
		merged = append(merged, items...)

		st.Listing.Items = merged
		st.Listing.Status = StatusReady
		st.Listing.ErrorMessage = ""
		st.Listing.Page = page
		st.Listing.TotalCount = total
		st.Listing.PendingPage = 0
		return true
	})
}

// FailListing records a failed page fetch. Items already loaded are kept.
func (s *Store) FailListing(parentID int64, message string) bool {
	return s.mutate(func(st *Snapshot) bool {
		if !selectedIs(st, parentID) {
			return false
		}
		st.Listing.Status = StatusFailed
		st.Listing.ErrorMessage = message
		st.Listing.PendingPage = 0
		return true
	})
}

func selectedIs(st *Snapshot, id int64) bool {
	return st.Query.Selected != nil && st.Query.Selected.ID == id
}
