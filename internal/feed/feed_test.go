package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type row struct {
	ID int
}

func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{ID: i + 1}
	}
	return out
}

// remote wraps a slice so the feed treats it as a remote dataset
func remote(data []row) Source[row] {
	s := SliceSource[row]{Rows: data}
	return SourceFunc[row](s.Fetch)
}

// bottom returns metrics for a viewport parked at the end of count rows
func bottom(count, client int) Metrics {
	top := count - client
	if top < 0 {
		top = 0
	}
	return Metrics{ScrollTop: top, ScrollHeight: count, ClientHeight: client}
}

func testConfig() Config {
	c := RowConfig(10)
	c.Prefetch = false
	return c
}

// drive scrolls to the bottom and synchronously completes the load, if any
func drive(t *testing.T, f *Feed[row], now time.Time) Decision {
	t.Helper()
	d, ticket, ok := f.Scroll(bottom(f.Count(), 5), now)
	if !ok {
		return d
	}
	if _, applied := f.Complete(f.Fetch(ticket)()); !applied {
		t.Fatalf("Complete() ignored a current ticket")
	}
	return d
}

func TestFeed_PagesThroughDataset(t *testing.T) {
	f := New(context.Background(), remote(rows(25)), testConfig())
	now := time.Unix(0, 0)

	want := []int{10, 20, 25}
	for i, w := range want {
		now = now.Add(time.Second)
		// Each step scrolls further down so the monitor reports Down
		if d := drive(t, f, now); d != Load {
			t.Fatalf("step %d: decision = %v, want load", i, d)
		}
		if f.Count() != w {
			t.Errorf("step %d: Count() = %d, want %d", i, f.Count(), w)
		}
	}

	now = now.Add(time.Second)
	if d := drive(t, f, now); d != Idle {
		t.Errorf("after end: decision = %v, want idle", d)
	}
	if f.Count() != 25 {
		t.Errorf("after end: Count() = %d, want 25", f.Count())
	}
	if f.HasMore() {
		t.Error("HasMore() = true at end of dataset")
	}
}

func TestFeed_InMemoryStartsWithInitialPage(t *testing.T) {
	f := New[row](context.Background(), SliceSource[row]{Rows: rows(25)}, testConfig())
	if f.Count() != 10 {
		t.Fatalf("Count() at mount = %d, want 10", f.Count())
	}

	now := time.Unix(0, 0)
	for i, w := range []int{20, 25} {
		now = now.Add(time.Second)
		if d := drive(t, f, now); d != Load {
			t.Fatalf("step %d: decision = %v, want load", i, d)
		}
		if f.Count() != w {
			t.Errorf("step %d: Count() = %d, want %d", i, f.Count(), w)
		}
	}
	if f.HasMore() {
		t.Error("HasMore() = true at end of dataset")
	}
}

func TestFeed_CountNeverExceedsDataset(t *testing.T) {
	for _, size := range []int{0, 1, 9, 10, 11, 25, 101} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			f := New(context.Background(), remote(rows(size)), testConfig())
			now := time.Unix(0, 0)
			for i := 0; i < 20; i++ {
				now = now.Add(time.Second)
				drive(t, f, now)
				if f.Count() < 0 || f.Count() > size {
					t.Fatalf("Count() = %d, want within [0, %d]", f.Count(), size)
				}
			}
			if f.Count() != size {
				t.Errorf("Count() = %d, want %d once fully scrolled", f.Count(), size)
			}
		})
	}
}

func TestFeed_ShortPageEndsDataset(t *testing.T) {
	calls := 0
	src := SourceFunc[row](func(ctx context.Context, req Request) (Page[row], error) {
		calls++
		if req.Offset > 0 {
			return Page[row]{Total: 100}, nil
		}
		// The server claims 100 rows but only has three
		return Page[row]{Items: rows(3), Total: 100}, nil
	})
	f := New[row](context.Background(), src, testConfig())
	now := time.Unix(0, 0)

	drive(t, f, now)
	if f.Count() != 3 || f.Total() != 3 || f.HasMore() {
		t.Errorf("Count(), Total(), HasMore() = %d, %d, %v; want 3, 3, false", f.Count(), f.Total(), f.HasMore())
	}

	drive(t, f, now.Add(time.Second))
	if calls != 1 {
		t.Errorf("source called %d times, want 1", calls)
	}
}

func TestFeed_OneLoadInFlight(t *testing.T) {
	f := New(context.Background(), remote(rows(100)), testConfig())
	now := time.Unix(0, 0)

	first, ok := f.LoadMore(false, now)
	if !ok {
		t.Fatal("first LoadMore() refused")
	}
	for i := 0; i < 5; i++ {
		if _, ok := f.LoadMore(false, now); ok {
			t.Fatalf("LoadMore() #%d started a second fetch", i+2)
		}
		if _, _, ok := f.Scroll(bottom(0, 5), now.Add(time.Hour)); ok {
			t.Fatalf("Scroll() #%d started a second fetch", i+2)
		}
	}

	f.Complete(f.Fetch(first)())
	if f.Count() != 10 {
		t.Errorf("Count() = %d, want 10", f.Count())
	}
}

func TestFeed_MinLoadInterval(t *testing.T) {
	cfg := testConfig()
	cfg.MinLoadInterval = 800 * time.Millisecond
	f := New(context.Background(), remote(rows(100)), cfg)
	now := time.Unix(0, 0)

	drive(t, f, now)
	if f.Count() != 10 {
		t.Fatalf("Count() = %d, want 10", f.Count())
	}

	// Second load-triggering event inside the interval
	d := drive(t, f, now.Add(300*time.Millisecond))
	if d != Idle {
		t.Errorf("decision inside interval = %v, want idle", d)
	}
	if f.Count() != 10 {
		t.Errorf("Count() = %d, want 10 (exactly one advancement)", f.Count())
	}

	wait, ok := f.Deferred(now.Add(300 * time.Millisecond))
	if !ok || wait != 500*time.Millisecond {
		t.Errorf("Deferred() = %v, %v; want 500ms, true", wait, ok)
	}

	// Resume before the interval does nothing, after it loads
	if _, _, ok := f.Resume(bottom(10, 5), now.Add(700*time.Millisecond)); ok {
		t.Error("Resume() loaded before the interval elapsed")
	}
	d, ticket, ok := f.Resume(bottom(10, 5), now.Add(900*time.Millisecond))
	if !ok || d != Load {
		t.Fatalf("Resume() = %v, %v; want load, true", d, ok)
	}
	f.Complete(f.Fetch(ticket)())
	if f.Count() != 20 {
		t.Errorf("Count() = %d, want 20", f.Count())
	}
}

func TestFeed_ResetRestoresInitialPage(t *testing.T) {
	cfg := testConfig()
	cfg.InitialPageSize = 5
	f := New[row](context.Background(), SliceSource[row]{Rows: rows(40)}, cfg)
	if f.Count() != 5 {
		t.Fatalf("Count() = %d, want initial page 5", f.Count())
	}

	now := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		now = now.Add(time.Second)
		ticket, ok := f.LoadMore(false, now)
		if !ok {
			t.Fatalf("LoadMore() #%d refused", i)
		}
		f.Complete(f.Fetch(ticket)())
	}
	if f.Count() != 35 {
		t.Fatalf("Count() = %d, want 35", f.Count())
	}

	f.Reset(SliceSource[row]{Rows: rows(3)})
	if f.Count() != 3 {
		t.Errorf("Count() after reset to 3 rows = %d, want 3", f.Count())
	}
	f.Reset(SliceSource[row]{Rows: rows(50)})
	if f.Count() != 5 {
		t.Errorf("Count() after reset = %d, want 5", f.Count())
	}
	if f.State() != StateIdle {
		t.Errorf("State() after reset = %v, want idle", f.State())
	}
}

func TestFeed_StaleResultIgnored(t *testing.T) {
	f := New(context.Background(), remote(rows(30)), testConfig())
	now := time.Unix(0, 0)

	ticket, ok := f.LoadMore(false, now)
	if !ok {
		t.Fatal("LoadMore() refused")
	}
	fetch := f.Fetch(ticket)

	f.Reset(remote(rows(5)))
	res := fetch()
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("fetch after reset: err = %v, want context.Canceled", res.Err)
	}
	if _, applied := f.Complete(res); applied {
		t.Error("Complete() applied a result from before the reset")
	}
	if f.Count() != 0 {
		t.Errorf("Count() = %d, want 0", f.Count())
	}
	if f.Busy() {
		t.Error("Busy() = true after reset")
	}
}

func TestFeed_ErrorBlocksUntilRetry(t *testing.T) {
	fail := true
	src := SourceFunc[row](func(ctx context.Context, req Request) (Page[row], error) {
		if fail {
			return Page[row]{}, errors.New("boom")
		}
		return SliceSource[row]{Rows: rows(30)}.Fetch(ctx, req)
	})
	f := New[row](context.Background(), src, testConfig())
	now := time.Unix(0, 0)

	drive(t, f, now)
	if f.Err() == nil {
		t.Fatal("Err() = nil after failed fetch")
	}
	if f.Count() != 0 {
		t.Errorf("Count() = %d after failure, want 0", f.Count())
	}
	if f.State() != StateIdle {
		t.Errorf("State() = %v after failure, want idle", f.State())
	}

	if d := drive(t, f, now.Add(time.Hour)); d != Idle {
		t.Errorf("decision while failed = %v, want idle", d)
	}

	fail = false
	ticket, ok := f.Retry(now.Add(time.Hour))
	if !ok {
		t.Fatal("Retry() refused")
	}
	f.Complete(f.Fetch(ticket)())
	if f.Err() != nil || f.Count() != 10 {
		t.Errorf("after retry: Err() = %v, Count() = %d; want nil, 10", f.Err(), f.Count())
	}
}

func TestFeed_PrefetchHasNoLoadingIndicator(t *testing.T) {
	cfg := RowConfig(10)
	cfg.LoadDistance = 0
	cfg.PrefetchDistance = 5
	f := New[row](context.Background(), SliceSource[row]{Rows: rows(100)}, cfg)
	now := time.Unix(0, 0)

	f.Scroll(Metrics{ScrollTop: 0, ScrollHeight: 10, ClientHeight: 4}, now)
	d, ticket, ok := f.Scroll(Metrics{ScrollTop: 3, ScrollHeight: 10, ClientHeight: 4}, now.Add(time.Second))
	if !ok || d != Prefetch {
		t.Fatalf("Scroll() = %v, %v; want prefetch", d, ok)
	}
	if f.Loading() {
		t.Error("Loading() = true during prefetch")
	}
	if f.State() != StatePrefetching {
		t.Errorf("State() = %v, want prefetching", f.State())
	}
	f.Complete(f.Fetch(ticket)())
	if f.Count() != 20 {
		t.Errorf("Count() = %d, want 20", f.Count())
	}
}

func TestFeed_UpwardScrollDoesNotLoad(t *testing.T) {
	f := New[row](context.Background(), SliceSource[row]{Rows: rows(100)}, testConfig())
	now := time.Unix(0, 0)

	if _, _, ok := f.Scroll(Metrics{ScrollTop: 8, ScrollHeight: 30, ClientHeight: 5}, now); ok {
		t.Fatal("Scroll() far from the end started a fetch")
	}
	// Up, but landing inside the load band
	d, _, ok := f.Scroll(Metrics{ScrollTop: 4, ScrollHeight: 10, ClientHeight: 5}, now.Add(time.Second))
	if ok || d != Idle {
		t.Errorf("Scroll() up = %v, %v; want idle", d, ok)
	}
	if f.Direction() != Up {
		t.Errorf("Direction() = %v, want up", f.Direction())
	}
}

func TestFeed_RefreshReplacesInPlace(t *testing.T) {
	data := rows(30)
	f := New(context.Background(), remote(data), testConfig())
	drive(t, f, time.Unix(0, 0))

	refresh, ok := f.Refetch()
	if !ok {
		t.Fatal("Refetch() refused with rows displayed")
	}
	data[0] = row{ID: 99}
	r := refresh()
	if n, ok := f.ApplyRefresh(r); !ok || n != 10 {
		t.Errorf("ApplyRefresh() = %d, %v; want 10, true", n, ok)
	}
	if got, _ := f.At(0); got.ID != 99 {
		t.Errorf("At(0) = %v, want ID 99", got)
	}
	if f.Count() != 10 {
		t.Errorf("Count() = %d, want 10", f.Count())
	}

	f.Reload()
	if _, ok := f.ApplyRefresh(r); ok {
		t.Error("ApplyRefresh() applied a refresh from before the reload")
	}
}

func TestFeed_CloseStopsLoading(t *testing.T) {
	f := New(context.Background(), remote(rows(30)), testConfig())
	f.Close()
	if _, ok := f.LoadMore(false, time.Unix(0, 0)); ok {
		t.Error("LoadMore() after Close() started a fetch")
	}
}

func TestSliceSource_Latency(t *testing.T) {
	src := SliceSource[row]{Rows: rows(5), Latency: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Fetch(ctx, Request{Offset: 0, Limit: 5})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() err = %v, want context.Canceled", err)
	}

	page, err := SliceSource[row]{Rows: rows(5)}.Fetch(context.Background(), Request{Offset: 3, Limit: 10})
	if err != nil {
		t.Fatalf("Fetch() err = %v", err)
	}
	if len(page.Items) != 2 || page.Total != 5 {
		t.Errorf("Fetch() = %d items, total %d; want 2, 5", len(page.Items), page.Total)
	}
}
