// Package store implements the async resource store: a per-resource-type
// mirror of server state with lifecycle flags per operation, cache coherence
// between the list, the detail cache, and the current detail view, and
// synchronous subscriber notification after every committed transition.
//
// The store is the single writer for its slice. Results of overlapping
// fetches are applied in completion order behind a monotonic sequence guard:
// a response issued before, but resolved after, a newer one is discarded
// instead of clobbering fresher data. There is no network cancellation;
// superseded responses complete and their effect is suppressed.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/simp-lee/shopsync/internal/domain"
)

// Status is the lifecycle state of one logical operation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Operation names the logical operations tracked per slice.
type Operation string

const (
	OpFetchList Operation = "fetch_list"
	OpFetchOne  Operation = "fetch_one"
	OpCreate    Operation = "create"
	OpUpdate    Operation = "update"
	OpDelete    Operation = "delete"
	OpSearch    Operation = "search"
)

// OperationState is the lifecycle flag pair for one operation.
type OperationState struct {
	Status Status
	Err    error
}

// Outcome reports whether an async result was committed or suppressed by the
// sequence guard. A discarded result is not an error and is never surfaced
// to subscribers.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeDiscardedStale
)

// Snapshot is an immutable copy of a slice's state, handed to subscribers
// and returned by State. Mutating a snapshot has no effect on the store.
type Snapshot[T domain.Entity] struct {
	Items       []T
	ByID        map[uint]T
	Detail      *T
	SearchItems []T
	Pagination  *domain.PageInfo
	Lifecycle   map[Operation]OperationState
}

// Op returns the lifecycle state for the given operation, defaulting to idle.
func (s Snapshot[T]) Op(op Operation) OperationState {
	if state, ok := s.Lifecycle[op]; ok {
		return state
	}
	return OperationState{Status: StatusIdle}
}

// Subscriber receives slice snapshots after each committed transition.
type Subscriber[T domain.Entity] func(Snapshot[T])

// Store owns one resource slice. All writes funnel through its operations;
// consumers read via State or Subscribe and never mutate shared data.
type Store[T domain.Entity] struct {
	name   string
	client domain.ResourceClient[T]
	log    *slog.Logger

	mu          sync.Mutex
	items       []T
	byID        map[uint]T
	detail      *T
	searchItems []T
	pageInfo    *domain.PageInfo
	lifecycle   map[Operation]OperationState

	// Sequence guards: issued counts up per call, applied records the last
	// committed call. Results with seq < applied are stale.
	listIssued    uint64
	listApplied   uint64
	searchIssued  uint64
	searchApplied uint64

	subs      map[int]Subscriber[T]
	nextSubID int
}

// New creates an empty store for one resource slice. The name appears in
// log lines only.
func New[T domain.Entity](name string, client domain.ResourceClient[T], log *slog.Logger) *Store[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Store[T]{
		name:      name,
		client:    client,
		log:       log,
		byID:      make(map[uint]T),
		lifecycle: make(map[Operation]OperationState),
		subs:      make(map[int]Subscriber[T]),
	}
}

// Subscribe registers a callback invoked synchronously after every committed
// state transition, and returns its unsubscribe function. The callback runs
// outside the store lock, so it may call back into the store.
func (s *Store[T]) Subscribe(fn Subscriber[T]) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// State returns a snapshot of the slice.
func (s *Store[T]) State() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// FetchList loads one list page. On success the slice's items and pagination
// are replaced; on failure the previous items stay available and the error
// lands in the fetch_list lifecycle. Overlapping calls resolve by the
// sequence guard: the most recently issued call wins regardless of
// completion order.
func (s *Store[T]) FetchList(ctx context.Context, req domain.PageRequest) (*domain.PageResult[T], error) {
	seq := s.beginList()

	result, err := s.client.List(ctx, req)
	outcome := s.finishList(seq, result, err)
	if outcome == OutcomeDiscardedStale {
		s.log.DebugContext(ctx, "stale list result discarded",
			slog.String("slice", s.name),
			slog.Uint64("seq", seq),
		)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchOne loads a single entity into the detail cache and the current
// detail view. The list is not touched.
func (s *Store[T]) FetchOne(ctx context.Context, id uint) (*T, error) {
	s.begin(OpFetchOne)

	item, err := s.client.GetByID(ctx, id)
	if err != nil {
		s.fail(OpFetchOne, err)
		return nil, err
	}

	s.commit(func() {
		s.byID[(*item).EntityID()] = *item
		detail := *item
		s.detail = &detail
		s.lifecycle[OpFetchOne] = OperationState{Status: StatusSuccess}
	})
	return item, nil
}

// Create persists a new entity. On success it is prepended to the list,
// inserted into the detail cache, and any known total count grows by one.
func (s *Store[T]) Create(ctx context.Context, payload *T) (*T, error) {
	s.begin(OpCreate)

	created, err := s.client.Create(ctx, payload)
	if err != nil {
		s.fail(OpCreate, err)
		return nil, err
	}

	s.commit(func() {
		s.items = append([]T{*created}, s.items...)
		s.byID[(*created).EntityID()] = *created
		if s.pageInfo != nil {
			s.pageInfo.TotalItems++
		}
		s.lifecycle[OpCreate] = OperationState{Status: StatusSuccess}
	})
	return created, nil
}

// Update replaces the entity everywhere the slice holds a copy: the list
// (position preserved), the detail cache, and the current detail view if it
// matches. The replacement is atomic with respect to readers.
func (s *Store[T]) Update(ctx context.Context, id uint, payload *T) (*T, error) {
	s.begin(OpUpdate)

	updated, err := s.client.Update(ctx, id, payload)
	if err != nil {
		s.fail(OpUpdate, err)
		return nil, err
	}

	s.commit(func() {
		for i := range s.items {
			if s.items[i].EntityID() == id {
				s.items[i] = *updated
				break
			}
		}
		if _, ok := s.byID[id]; ok {
			s.byID[id] = *updated
		}
		if s.detail != nil && (*s.detail).EntityID() == id {
			detail := *updated
			s.detail = &detail
		}
		s.lifecycle[OpUpdate] = OperationState{Status: StatusSuccess}
	})
	return updated, nil
}

// Delete removes the entity from the list and the detail cache, decrements
// any known total count, and clears the current detail view if it held the
// deleted entity.
func (s *Store[T]) Delete(ctx context.Context, id uint) error {
	s.begin(OpDelete)

	if err := s.client.Delete(ctx, id); err != nil {
		s.fail(OpDelete, err)
		return err
	}

	s.commit(func() {
		kept := s.items[:0:len(s.items)]
		for _, item := range s.items {
			if item.EntityID() != id {
				kept = append(kept, item)
			}
		}
		s.items = kept
		delete(s.byID, id)
		if s.pageInfo != nil && s.pageInfo.TotalItems > 0 {
			s.pageInfo.TotalItems--
		}
		if s.detail != nil && (*s.detail).EntityID() == id {
			s.detail = nil
		}
		s.lifecycle[OpDelete] = OperationState{Status: StatusSuccess}
	})
	return nil
}

// Search loads one page of free-text matches into the slice's search view.
// It shares FetchList's sequence-guard semantics but never touches the main
// list.
func (s *Store[T]) Search(ctx context.Context, query string, req domain.PageRequest) (*domain.PageResult[T], error) {
	seq := s.beginSearch()

	result, err := s.client.Search(ctx, query, req)
	outcome := s.finishSearch(seq, result, err)
	if outcome == OutcomeDiscardedStale {
		s.log.DebugContext(ctx, "stale search result discarded",
			slog.String("slice", s.name),
			slog.Uint64("seq", seq),
		)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// beginList marks fetch_list pending and hands out the call's sequence number.
func (s *Store[T]) beginList() uint64 {
	var seq uint64
	s.commit(func() {
		s.listIssued++
		seq = s.listIssued
		s.lifecycle[OpFetchList] = OperationState{Status: StatusPending}
	})
	return seq
}

// finishList applies a completed fetch_list call unless a newer call already
// committed.
func (s *Store[T]) finishList(seq uint64, result *domain.PageResult[T], err error) Outcome {
	outcome := OutcomeApplied
	s.commit(func() {
		if seq < s.listApplied {
			outcome = OutcomeDiscardedStale
			return
		}
		s.listApplied = seq

		if err != nil {
			// Keep the stale-but-available items.
			s.lifecycle[OpFetchList] = OperationState{Status: StatusError, Err: err}
			return
		}

		s.items = append([]T(nil), result.Items...)
		for _, item := range result.Items {
			s.byID[item.EntityID()] = item
		}
		if result.Info != nil {
			info := *result.Info
			s.pageInfo = &info
		} else {
			s.pageInfo = nil
		}
		s.lifecycle[OpFetchList] = OperationState{Status: StatusSuccess}
	})
	return outcome
}

// beginSearch marks search pending and hands out the call's sequence number.
func (s *Store[T]) beginSearch() uint64 {
	var seq uint64
	s.commit(func() {
		s.searchIssued++
		seq = s.searchIssued
		s.lifecycle[OpSearch] = OperationState{Status: StatusPending}
	})
	return seq
}

// finishSearch applies a completed search call unless a newer call already
// committed.
func (s *Store[T]) finishSearch(seq uint64, result *domain.PageResult[T], err error) Outcome {
	outcome := OutcomeApplied
	s.commit(func() {
		if seq < s.searchApplied {
			outcome = OutcomeDiscardedStale
			return
		}
		s.searchApplied = seq

		if err != nil {
			s.lifecycle[OpSearch] = OperationState{Status: StatusError, Err: err}
			return
		}

		s.searchItems = append([]T(nil), result.Items...)
		s.lifecycle[OpSearch] = OperationState{Status: StatusSuccess}
	})
	return outcome
}

// begin marks an unguarded operation pending.
func (s *Store[T]) begin(op Operation) {
	s.commit(func() {
		s.lifecycle[op] = OperationState{Status: StatusPending}
	})
}

// fail records an operation failure. Entity state is left untouched.
func (s *Store[T]) fail(op Operation, err error) {
	s.commit(func() {
		s.lifecycle[op] = OperationState{Status: StatusError, Err: err}
	})
}

// commit runs mutate under the store lock, then notifies subscribers with
// the resulting snapshot outside the lock. Subscribers observe only fully
// committed transitions.
func (s *Store[T]) commit(mutate func()) {
	s.mu.Lock()
	mutate()
	snap := s.snapshotLocked()
	subs := make([]Subscriber[T], 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// snapshotLocked copies the slice state. Caller holds s.mu.
func (s *Store[T]) snapshotLocked() Snapshot[T] {
	byID := make(map[uint]T, len(s.byID))
	for k, v := range s.byID {
		byID[k] = v
	}
	lifecycle := make(map[Operation]OperationState, len(s.lifecycle))
	for k, v := range s.lifecycle {
		lifecycle[k] = v
	}

	var detail *T
	if s.detail != nil {
		d := *s.detail
		detail = &d
	}
	var pageInfo *domain.PageInfo
	if s.pageInfo != nil {
		info := *s.pageInfo
		pageInfo = &info
	}

	return Snapshot[T]{
		Items:       append([]T(nil), s.items...),
		ByID:        byID,
		Detail:      detail,
		SearchItems: append([]T(nil), s.searchItems...),
		Pagination:  pageInfo,
		Lifecycle:   lifecycle,
	}
}
