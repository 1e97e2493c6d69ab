package scroll

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/simp-lee/shopsync/internal/domain"
)

// pagedSource serves totalItems fixed strings in pages, recording each
// requested page number.
type pagedSource struct {
	mu         sync.Mutex
	totalItems int
	pages      []int
	failNext   error
	block      chan struct{} // when set, List blocks until closed
}

func (s *pagedSource) fetch(_ context.Context, req domain.PageRequest) (*domain.PageResult[string], error) {
	s.mu.Lock()
	s.pages = append(s.pages, req.Page)
	fail := s.failNext
	s.failNext = nil
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if fail != nil {
		return nil, fail
	}

	start := req.Page * req.PageSize
	if start > s.totalItems {
		start = s.totalItems
	}
	end := start + req.PageSize
	if end > s.totalItems {
		end = s.totalItems
	}
	items := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, fmt.Sprintf("item-%d", i))
	}
	return &domain.PageResult[string]{
		Items:   items,
		HasMore: end < s.totalItems,
		Total:   s.totalItems,
	}, nil
}

func (s *pagedSource) requestedPages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.pages...)
}

func TestAccumulatesPagesInOrder(t *testing.T) {
	src := &pagedSource{totalItems: 57}
	e := NewEngine(src.fetch, WithPageSize[string](20), WithDebounce[string](0))

	ctx := context.Background()
	wantCounts := []int{20, 20, 17}
	for i, want := range wantCounts {
		n, err := e.LoadMore(ctx)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		if n != want {
			t.Errorf("page %d appended %d items; want %d", i, n, want)
		}
	}

	state := e.State()
	if len(state.Items) != 57 {
		t.Errorf("len(Items)=%d; want 57", len(state.Items))
	}
	if state.Items[0] != "item-0" || state.Items[56] != "item-56" {
		t.Error("items out of order")
	}
	if state.HasMore {
		t.Error("HasMore=true after the final page")
	}
	if state.Page != 2 {
		t.Errorf("Page=%d; want 2", state.Page)
	}
	if state.Total != 57 {
		t.Errorf("Total=%d; want 57", state.Total)
	}
	if got := src.requestedPages(); len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("requested pages %v; want [0 1 2]", got)
	}
}

func TestLoadMoreAfterEndIsNoOp(t *testing.T) {
	src := &pagedSource{totalItems: 5}
	e := NewEngine(src.fetch, WithPageSize[string](20))

	ctx := context.Background()
	if _, err := e.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	n, err := e.LoadMore(ctx)
	if err != nil || n != 0 {
		t.Errorf("LoadMore after end: n=%d err=%v; want 0, nil", n, err)
	}
	if got := src.requestedPages(); len(got) != 1 {
		t.Errorf("%d requests issued; want 1", len(got))
	}
}

func TestSingleInFlightLoad(t *testing.T) {
	src := &pagedSource{totalItems: 57, block: make(chan struct{})}
	e := NewEngine(src.fetch, WithPageSize[string](20))

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.LoadMore(ctx)
	}()

	// Wait for the first load to be in flight.
	for {
		if len(src.requestedPages()) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	n, err := e.LoadMore(ctx)
	if err != nil || n != 0 {
		t.Errorf("concurrent LoadMore: n=%d err=%v; want 0, nil", n, err)
	}

	close(src.block)
	<-done

	if got := src.requestedPages(); len(got) != 1 {
		t.Errorf("%d requests issued; want 1", len(got))
	}
}

func TestFailedLoadPreservesStateAndRetries(t *testing.T) {
	src := &pagedSource{totalItems: 57}
	e := NewEngine(src.fetch, WithPageSize[string](20))

	ctx := context.Background()
	if _, err := e.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	src.mu.Lock()
	src.failNext = boom
	src.mu.Unlock()

	if _, err := e.LoadMore(ctx); !errors.Is(err, boom) {
		t.Fatalf("err=%v; want boom", err)
	}

	state := e.State()
	if len(state.Items) != 20 {
		t.Errorf("len(Items)=%d after failure; want 20 preserved", len(state.Items))
	}
	if !state.HasMore {
		t.Error("HasMore=false after failure; want true for retry")
	}
	if !errors.Is(state.Err, boom) {
		t.Errorf("state.Err=%v; want boom", state.Err)
	}

	// The retry requests the same page again.
	n, err := e.LoadMore(ctx)
	if err != nil || n != 20 {
		t.Fatalf("retry: n=%d err=%v; want 20, nil", n, err)
	}
	if got := src.requestedPages(); got[len(got)-1] != 1 {
		t.Errorf("retried page %d; want 1", got[len(got)-1])
	}
	if state := e.State(); state.Err != nil {
		t.Errorf("state.Err=%v after successful retry; want nil", state.Err)
	}
}

func TestTriggerCollapsesBursts(t *testing.T) {
	var calls atomic.Int32
	fetch := func(_ context.Context, req domain.PageRequest) (*domain.PageResult[string], error) {
		calls.Add(1)
		return &domain.PageResult[string]{Items: []string{"a"}, HasMore: true}, nil
	}
	e := NewEngine(fetch, WithDebounce[string](30*time.Millisecond))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		e.Trigger(ctx)
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("burst of 5 triggers produced %d loads; want 1", got)
	}
}

func TestHandleScrollThreshold(t *testing.T) {
	tests := []struct {
		name         string
		scrollTop    int
		container    int
		scrollHeight int
		wantLoad     bool
	}{
		{"far from bottom", 0, 600, 3000, false},
		{"just above threshold", 2199, 600, 3000, false},
		{"at threshold", 2200, 600, 3000, true},
		{"at bottom", 2400, 600, 3000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			fetch := func(context.Context, domain.PageRequest) (*domain.PageResult[string], error) {
				calls.Add(1)
				return &domain.PageResult[string]{HasMore: true}, nil
			}
			e := NewEngine(fetch, WithDebounce[string](0), WithThreshold[string](200))

			e.HandleScroll(context.Background(), tt.scrollTop, tt.container, tt.scrollHeight)
			time.Sleep(20 * time.Millisecond)

			loaded := calls.Load() > 0
			if loaded != tt.wantLoad {
				t.Errorf("loaded=%v; want %v", loaded, tt.wantLoad)
			}
		})
	}
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	src := &pagedSource{totalItems: 57, block: make(chan struct{})}
	e := NewEngine(src.fetch, WithPageSize[string](20))

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.LoadMore(ctx)
	}()
	for {
		if len(src.requestedPages()) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	e.Reset()
	close(src.block)
	<-done

	state := e.State()
	if len(state.Items) != 0 {
		t.Errorf("len(Items)=%d after reset; want 0", len(state.Items))
	}
	if state.Page != -1 {
		t.Errorf("Page=%d after reset; want -1", state.Page)
	}
	if !state.HasMore {
		t.Error("HasMore=false after reset; want true")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	src := &pagedSource{totalItems: 57}
	e := NewEngine(src.fetch, WithPageSize[string](20))

	ctx := context.Background()
	e.LoadMore(ctx)
	e.LoadMore(ctx)

	e.Reset()
	first := e.State()
	e.Reset()
	second := e.State()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("state changed across double reset: %+v vs %+v", first, second)
	}
	fresh := NewEngine(src.fetch, WithPageSize[string](20)).State()
	if !reflect.DeepEqual(second, fresh) {
		t.Errorf("reset state=%+v; want fresh-engine state %+v", second, fresh)
	}
}

func TestRefreshReplacesFirstPage(t *testing.T) {
	src := &pagedSource{totalItems: 57}
	e := NewEngine(src.fetch, WithPageSize[string](20))

	ctx := context.Background()
	e.LoadMore(ctx)
	e.LoadMore(ctx)

	n, err := e.Refresh(ctx)
	if err != nil || n != 20 {
		t.Fatalf("Refresh: n=%d err=%v; want 20, nil", n, err)
	}
	state := e.State()
	if len(state.Items) != 20 || state.Page != 0 {
		t.Errorf("len(Items)=%d Page=%d; want 20, 0", len(state.Items), state.Page)
	}
}

func TestDisabledEngineIgnoresLoads(t *testing.T) {
	src := &pagedSource{totalItems: 57}
	e := NewEngine(src.fetch, WithPageSize[string](20))

	e.Disable()
	n, err := e.LoadMore(context.Background())
	if err != nil || n != 0 {
		t.Errorf("disabled LoadMore: n=%d err=%v; want 0, nil", n, err)
	}
	if len(src.requestedPages()) != 0 {
		t.Error("disabled engine issued a request")
	}

	e.Enable()
	if n, _ := e.LoadMore(context.Background()); n != 20 {
		t.Errorf("re-enabled LoadMore appended %d; want 20", n)
	}
}

func TestWindowVisible(t *testing.T) {
	cfg := WindowConfig{ItemHeight: 50, ContainerHeight: 600, Overscan: 3}

	tests := []struct {
		name      string
		scrollTop int
		total     int
		want      Window
	}{
		{"top of list", 0, 1000, Window{Start: 0, End: 15, OffsetTop: 0}},
		{"mid list", 5000, 1000, Window{Start: 97, End: 115, OffsetTop: 4850}},
		{"clamped at end", 49700, 1000, Window{Start: 991, End: 1000, OffsetTop: 49550}},
		{"negative scroll", -200, 1000, Window{Start: 0, End: 15, OffsetTop: 0}},
		{"fewer rows than viewport", 0, 5, Window{Start: 0, End: 5, OffsetTop: 0}},
		{"empty list", 0, 0, Window{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.Visible(tt.scrollTop, tt.total); got != tt.want {
				t.Errorf("Visible(%d, %d)=%+v; want %+v", tt.scrollTop, tt.total, got, tt.want)
			}
		})
	}
}

func TestContentHeight(t *testing.T) {
	cfg := WindowConfig{ItemHeight: 50}
	if got := cfg.ContentHeight(1000); got != 50000 {
		t.Errorf("ContentHeight(1000)=%d; want 50000", got)
	}
	if got := cfg.ContentHeight(-1); got != 0 {
		t.Errorf("ContentHeight(-1)=%d; want 0", got)
	}
}
