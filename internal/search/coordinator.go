// Package search implements the search coordinator: a debounced query
// pipeline that keeps at most one search in flight, discards results that
// arrive for a superseded query string, and maintains a bounded list of
// recent queries.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/simp-lee/shopsync/internal/domain"
	"github.com/simp-lee/shopsync/internal/pkg"
)

const (
	defaultDebounce  = 300 * time.Millisecond
	defaultPageSize  = 20
	defaultRecentCap = 10
)

// SearchFunc executes one search. Typically a closure over Store.Search or
// Resource.Search.
type SearchFunc[T any] func(ctx context.Context, query string, req domain.PageRequest) (*domain.PageResult[T], error)

// SuggestFunc returns completion suggestions for a partial query.
type SuggestFunc func(ctx context.Context, query string) ([]string, error)

// State is a copy of the coordinator's result state.
type State[T any] struct {
	Query       string // query the results belong to
	Results     []T
	Loading     bool
	Err         error
	Recent      []string
	Suggestions []string // from the latest successful Suggest call
}

// Option configures a Coordinator.
type Option[T any] func(*Coordinator[T])

// WithDebounce sets the keystroke collapse interval. Zero searches on every
// SetQuery, which keeps tests deterministic.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(c *Coordinator[T]) { c.debounce = d }
}

// WithPageSize sets how many results each search requests.
func WithPageSize[T any](n int) Option[T] {
	return func(c *Coordinator[T]) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRecentCap bounds the recent-query list.
func WithRecentCap[T any](n int) Option[T] {
	return func(c *Coordinator[T]) {
		if n > 0 {
			c.recentCap = n
		}
	}
}

// WithSuggest wires a suggestion source for Suggest.
func WithSuggest[T any](fn SuggestFunc) Option[T] {
	return func(c *Coordinator[T]) { c.suggest = fn }
}

// WithHistory wires persistent query history. Recorded terms survive
// restarts; the in-memory recent list is still the source for State.
func WithHistory[T any](h *History) Option[T] {
	return func(c *Coordinator[T]) { c.history = h }
}

// WithLogger sets the coordinator's logger.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(c *Coordinator[T]) {
		if log != nil {
			c.log = log
		}
	}
}

// Coordinator drives searches for one input source. SetQuery is safe to
// call on every keystroke: triggers are debounced, at most one search is in
// flight, and a result that comes back for a query the user has since
// changed is discarded and the latest query re-dispatched.
type Coordinator[T any] struct {
	search  SearchFunc[T]
	suggest SuggestFunc
	history *History
	log     *slog.Logger
	deb     *pkg.Debouncer

	debounce  time.Duration
	pageSize  int
	recentCap int

	mu       sync.Mutex
	current  string // latest requested query, trimmed
	inFlight bool
	loading  bool
	query       string // query the current results belong to
	results     []T
	err         error
	recent      []string
	suggestions []string
}

// NewCoordinator creates a coordinator over the given search function.
func NewCoordinator[T any](search SearchFunc[T], opts ...Option[T]) *Coordinator[T] {
	c := &Coordinator[T]{
		search:    search,
		log:       slog.Default(),
		debounce:  defaultDebounce,
		pageSize:  defaultPageSize,
		recentCap: defaultRecentCap,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.deb = pkg.NewDebouncer(c.debounce)
	return c
}

// State returns a copy of the coordinator state.
func (c *Coordinator[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State[T]{
		Query:       c.query,
		Results:     append([]T(nil), c.results...),
		Loading:     c.loading,
		Err:         c.err,
		Recent:      append([]string(nil), c.recent...),
		Suggestions: append([]string(nil), c.suggestions...),
	}
}

// SetQuery records the user's current query and schedules a search through
// the debouncer. A blank or whitespace-only query clears the results and
// cancels any pending trigger without calling the backend.
func (c *Coordinator[T]) SetQuery(ctx context.Context, query string) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		c.deb.Stop()
		c.mu.Lock()
		c.current = ""
		c.query = ""
		c.results = nil
		c.err = nil
		c.loading = false
		c.suggestions = nil
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.current = trimmed
	c.loading = true
	c.mu.Unlock()

	c.deb.Trigger(func() {
		go c.dispatch(ctx)
	})
}

// SearchNow runs the current query immediately, bypassing the debouncer.
// Used for explicit submits (enter key, search button).
func (c *Coordinator[T]) SearchNow(ctx context.Context, query string) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return
	}
	c.deb.Stop()
	c.mu.Lock()
	c.current = trimmed
	c.loading = true
	c.mu.Unlock()
	c.dispatch(ctx)
}

// dispatch runs searches until a result lands for the latest query. If the
// query changed while a search was in flight, the stale result is dropped
// and the loop goes again with the new query.
func (c *Coordinator[T]) dispatch(ctx context.Context) {
	for {
		c.mu.Lock()
		if c.inFlight || c.current == "" {
			c.mu.Unlock()
			return
		}
		query := c.current
		c.inFlight = true
		req := domain.PageRequest{PageSize: c.pageSize}
		c.mu.Unlock()

		result, err := c.search(ctx, query, req)

		c.mu.Lock()
		c.inFlight = false
		if query != c.current {
			// The user kept typing; this result answers an old question.
			c.mu.Unlock()
			c.log.DebugContext(ctx, "stale search result discarded",
				slog.String("query", query),
			)
			continue
		}
		c.loading = false
		if err != nil {
			c.err = err
			c.mu.Unlock()
			return
		}
		c.err = nil
		c.query = query
		c.results = result.Items
		c.rememberLocked(query)
		c.mu.Unlock()

		if c.history != nil {
			if err := c.history.Record(ctx, query); err != nil {
				c.log.WarnContext(ctx, "failed to record search history",
					slog.String("query", query),
					slog.Any("error", err),
				)
			}
		}
		return
	}
}

// Suggest returns completion suggestions for a partial query, or nil when
// no suggestion source is wired. Successful suggestions are kept on the
// state until the next Suggest call or a query clear.
func (c *Coordinator[T]) Suggest(ctx context.Context, query string) ([]string, error) {
	if c.suggest == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}
	suggestions, err := c.suggest(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.suggestions = append([]string(nil), suggestions...)
	c.mu.Unlock()
	return suggestions, nil
}

// Popular returns the most frequently recorded query terms, or nil when no
// persistent history is wired.
func (c *Coordinator[T]) Popular(ctx context.Context, limit int) ([]string, error) {
	if c.history == nil {
		return nil, nil
	}
	return c.history.Popular(ctx, limit)
}

// Stop cancels any pending debounced search. An in-flight search still
// completes and its result is applied normally.
func (c *Coordinator[T]) Stop() {
	c.deb.Stop()
}

// rememberLocked moves query to the front of the recent list, dropping any
// earlier occurrence and evicting the oldest entry past the cap. Caller
// holds c.mu.
func (c *Coordinator[T]) rememberLocked(query string) {
	recent := make([]string, 0, len(c.recent)+1)
	recent = append(recent, query)
	for _, q := range c.recent {
		if q != query {
			recent = append(recent, q)
		}
	}
	if len(recent) > c.recentCap {
		recent = recent[:c.recentCap]
	}
	c.recent = recent
}
