// Package scroll implements the infinite-scroll engine: strictly ordered
// page accumulation with a single in-flight load, a debounced scroll
// trigger, and virtual-window math for fixed-height rows.
package scroll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/simp-lee/shopsync/internal/domain"
	"github.com/simp-lee/shopsync/internal/pkg"
)

const (
	defaultPageSize  = 20
	defaultDebounce  = 300 * time.Millisecond
	defaultThreshold = 200
)

// PageFunc loads one page of items. Typically a closure over
// Store.FetchList or Resource.List.
type PageFunc[T any] func(ctx context.Context, req domain.PageRequest) (*domain.PageResult[T], error)

// State is a copy of the engine's accumulated state.
type State[T any] struct {
	Items   []T
	Page    int // last completed page, zero-based; -1 before the first load
	Loading bool
	HasMore bool
	Err     error
	Total   int
}

// Option configures an Engine.
type Option[T any] func(*Engine[T])

// WithPageSize sets how many items each page requests.
func WithPageSize[T any](n int) Option[T] {
	return func(e *Engine[T]) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithDebounce sets the trigger collapse interval. Zero makes Trigger
// load synchronously on the calling goroutine's dispatch.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(e *Engine[T]) { e.debounce = d }
}

// WithThreshold sets how many pixels before the bottom a scroll position
// starts the next load.
func WithThreshold[T any](px int) Option[T] {
	return func(e *Engine[T]) {
		if px >= 0 {
			e.threshold = px
		}
	}
}

// WithWindow sets the virtual-window geometry used by Window.
func WithWindow[T any](cfg WindowConfig) Option[T] {
	return func(e *Engine[T]) { e.window = cfg }
}

// WithLogger sets the engine's logger.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(e *Engine[T]) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine accumulates pages in strict order. At most one load is in flight;
// LoadMore while loading, after the end of data, or while disabled is a
// no-op. A failed page load keeps the accumulated items and hasMore so the
// same page can be retried.
type Engine[T any] struct {
	fetch PageFunc[T]
	log   *slog.Logger
	deb   *pkg.Debouncer

	pageSize  int
	debounce  time.Duration
	threshold int
	window    WindowConfig

	mu        sync.Mutex
	items     []T
	page      int
	loadCount int
	loading   bool
	hasMore   bool
	err       error
	total     int
	disabled  bool
	epoch     uint64
}

// NewEngine creates an engine over the given page loader.
func NewEngine[T any](fetch PageFunc[T], opts ...Option[T]) *Engine[T] {
	e := &Engine[T]{
		fetch:     fetch,
		log:       slog.Default(),
		pageSize:  defaultPageSize,
		debounce:  defaultDebounce,
		threshold: defaultThreshold,
		window:    WindowConfig{ItemHeight: 1},
		page:      -1,
		hasMore:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.deb = pkg.NewDebouncer(e.debounce)
	return e
}

// State returns a copy of the engine state. The items slice is shared
// structurally but never mutated in place by the engine.
func (e *Engine[T]) State() State[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State[T]{
		Items:   e.items,
		Page:    e.page,
		Loading: e.loading,
		HasMore: e.hasMore,
		Err:     e.err,
		Total:   e.total,
	}
}

// LoadMore loads the next page and appends it. It returns the number of
// items appended. Calls made while a load is in flight, after the end of
// data, or while the engine is disabled return immediately with zero.
func (e *Engine[T]) LoadMore(ctx context.Context) (int, error) {
	e.mu.Lock()
	if e.loading || !e.hasMore || e.disabled {
		e.mu.Unlock()
		return 0, nil
	}
	e.loading = true
	next := 0
	if e.loadCount > 0 {
		next = e.page + 1
	}
	epoch := e.epoch
	req := domain.PageRequest{Page: next, PageSize: e.pageSize}
	e.mu.Unlock()

	result, err := e.fetch(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()

	if epoch != e.epoch {
		// Reset happened while the load was in flight; drop the result.
		e.log.DebugContext(ctx, "discarding page from before reset",
			slog.Int("page", next),
		)
		return 0, nil
	}
	e.loading = false

	if err != nil {
		// The accumulated items and hasMore survive so the same page can
		// be retried.
		e.err = err
		return 0, err
	}
	e.err = nil
	e.loadCount++
	e.page = next

	if next == 0 {
		e.items = append([]T(nil), result.Items...)
	} else {
		e.items = append(e.items, result.Items...)
	}
	e.hasMore = result.HasMore
	if result.Total > 0 {
		e.total = result.Total
	}
	if result.Info != nil {
		e.total = result.Info.TotalItems
	}
	return len(result.Items), nil
}

// Trigger requests the next page through the debouncer. Bursts of triggers
// within the debounce interval collapse into a single LoadMore.
func (e *Engine[T]) Trigger(ctx context.Context) {
	e.deb.Trigger(func() {
		go func() {
			if _, err := e.LoadMore(ctx); err != nil {
				e.log.ErrorContext(ctx, "page load failed", slog.Any("error", err))
			}
		}()
	})
}

// HandleScroll feeds a scroll position to the engine. When the position is
// within the threshold of the content bottom it triggers a load.
// scrollHeight is the full content height in pixels.
func (e *Engine[T]) HandleScroll(ctx context.Context, scrollTop, containerHeight, scrollHeight int) {
	if scrollTop+containerHeight >= scrollHeight-e.threshold {
		e.Trigger(ctx)
	}
}

// Window computes the visible index range for the given scroll position
// using the configured geometry.
func (e *Engine[T]) Window(scrollTop int) Window {
	e.mu.Lock()
	total := len(e.items)
	e.mu.Unlock()
	return e.window.Visible(scrollTop, total)
}

// Reset discards all accumulated state, cancels any pending trigger, and
// suppresses the result of any in-flight load.
func (e *Engine[T]) Reset() {
	e.deb.Stop()
	e.mu.Lock()
	e.items = nil
	e.page = -1
	e.loadCount = 0
	e.loading = false
	e.hasMore = true
	e.err = nil
	e.total = 0
	e.epoch++
	e.mu.Unlock()
}

// Refresh resets the engine and reloads the first page.
func (e *Engine[T]) Refresh(ctx context.Context) (int, error) {
	e.Reset()
	return e.LoadMore(ctx)
}

// Disable makes subsequent LoadMore and Trigger calls no-ops. In-flight
// loads still complete.
func (e *Engine[T]) Disable() {
	e.mu.Lock()
	e.disabled = true
	e.mu.Unlock()
}

// Enable re-arms a disabled engine.
func (e *Engine[T]) Enable() {
	e.mu.Lock()
	e.disabled = false
	e.mu.Unlock()
}

// Stop cancels any pending debounced trigger.
func (e *Engine[T]) Stop() {
	e.deb.Stop()
}
