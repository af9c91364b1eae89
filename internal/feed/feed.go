// Package feed implements infinite scrolling for lists and tables.
//
// A Feed ties four pieces together:
//
//   - a [Monitor] that derives scroll direction from consecutive offsets
//   - an [Evaluator] that turns a scroll position into load/prefetch/idle
//   - a [Loader] that allows one fetch in flight and throttles fetch starts
//   - a [Window] that holds the dataset and the displayed prefix
//
// Feeds are not safe for concurrent use. The owner (a Bubble Tea model)
// mutates the feed from its update loop and runs the closures returned by
// [Feed.Fetch] elsewhere; those closures never touch feed state.
package feed

import (
	"context"
	"time"
)

// Result is the outcome of a fetch started with Feed.Fetch
type Result[T any] struct {
	Ticket Ticket
	Page   Page[T]
	Err    error
}

// Refresh is the outcome of a fetch started with Feed.Refetch
type Refresh[T any] struct {
	Generation uint64
	Page       Page[T]
	Err        error
}

// Feed is an infinitely scrolling view over a Source
type Feed[T any] struct {
	cfg     Config
	eval    Evaluator
	monitor *Monitor
	loader  *Loader
	window  *Window[T]
	source  Source[T]

	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	err      error
	deferred time.Time
	band     Band
	closed   bool
}

// New creates a feed over source. Nothing is displayed until the first
// scroll event triggers the initial load. The feed's fetches are cancelled
// when ctx is done, when the feed is reset and when it is closed.
func New[T any](ctx context.Context, source Source[T], cfg Config) *Feed[T] {
	cfg = cfg.normalize()
	f := &Feed[T]{
		cfg:     cfg,
		eval:    NewEvaluator(cfg),
		monitor: NewMonitor(cfg.EpsilonBeforeLoad, cfg.EpsilonAfterLoad),
		loader:  NewLoader(cfg.PageSize, cfg.InitialPageSize),
		window:  NewWindow[T](nil, -1, 0),
		parent:  ctx,
	}
	f.Reset(source)
	return f
}

// Reset swaps in a new source (or the same one, to reload). Any fetch in
// flight is cancelled and its result will be ignored. In-memory sources
// display their initial page immediately; remote sources start empty.
func (f *Feed[T]) Reset(source Source[T]) {
	if f.cancel != nil {
		f.cancel()
	}
	f.ctx, f.cancel = context.WithCancel(f.parent)
	f.source = source
	f.loader.Reset()
	f.monitor.Reset()
	f.err = nil
	f.deferred = time.Time{}
	f.band = BandNone

	switch s := source.(type) {
	case SliceSource[T]:
		f.window.Reset(s.Rows, len(s.Rows), f.cfg.InitialPageSize)
	case *SliceSource[T]:
		f.window.Reset(s.Rows, len(s.Rows), f.cfg.InitialPageSize)
	default:
		f.window.Reset(nil, -1, 0)
	}
}

// Reload resets the feed over its current source
func (f *Feed[T]) Reload() {
	f.Reset(f.source)
}

// Close cancels everything in flight. A closed feed never loads again.
func (f *Feed[T]) Close() {
	f.closed = true
	f.loader.Reset()
	if f.cancel != nil {
		f.cancel()
	}
}

// Scroll records a scroll event and decides whether to load. When it
// returns true the caller must run Fetch(ticket) and hand the result to
// Complete.
func (f *Feed[T]) Scroll(m Metrics, now time.Time) (Decision, Ticket, bool) {
	dir := f.monitor.Observe(m.ScrollTop)
	return f.evaluate(m, dir, now)
}

// Pull is a scroll event where the user pushed past the end of the content
// (a key press on the last row, say). It always counts as travelling down.
func (f *Feed[T]) Pull(m Metrics, now time.Time) (Decision, Ticket, bool) {
	f.monitor.Observe(m.ScrollTop)
	return f.evaluate(m, Down, now)
}

// Deferred reports whether a load was throttled by MinLoadInterval and how
// long until Resume may start it.
func (f *Feed[T]) Deferred(now time.Time) (time.Duration, bool) {
	if f.deferred.IsZero() {
		return 0, false
	}
	wait := f.deferred.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

// Resume re-evaluates a throttled load once its interval has passed
func (f *Feed[T]) Resume(m Metrics, now time.Time) (Decision, Ticket, bool) {
	if f.deferred.IsZero() || now.Before(f.deferred) {
		return Idle, Ticket{}, false
	}
	f.deferred = time.Time{}
	return f.evaluate(m, Down, now)
}

func (f *Feed[T]) evaluate(m Metrics, dir Direction, now time.Time) (Decision, Ticket, bool) {
	f.band = f.eval.Band(m)
	v := f.eval.Evaluate(Input{
		Metrics:   m,
		Direction: dir,
		InFlight:  f.loader.InFlight(),
		HasMore:   f.window.HasMore(),
		Failed:    f.err != nil,
		LastLoad:  f.loader.LastStart(),
		Now:       now,
	})
	if v.Wait > 0 {
		f.deferred = now.Add(v.Wait)
	}
	if v.Decision == Idle {
		return Idle, Ticket{}, false
	}

	t, ok := f.LoadMore(v.Decision == Prefetch, now)
	if !ok {
		return Idle, Ticket{}, false
	}
	return v.Decision, t, true
}

// LoadMore starts a fetch of the next page unconditionally, subject only to
// the in-flight flag and the end of the dataset.
func (f *Feed[T]) LoadMore(prefetch bool, now time.Time) (Ticket, bool) {
	if f.closed || !f.window.HasMore() {
		return Ticket{}, false
	}
	t, ok := f.loader.Begin(prefetch, f.window.Count(), f.window.Total(), now)
	if ok {
		f.deferred = time.Time{}
	}
	return t, ok
}

// Retry clears a failed fetch and immediately starts it again
func (f *Feed[T]) Retry(now time.Time) (Ticket, bool) {
	if f.err == nil {
		return Ticket{}, false
	}
	f.err = nil
	return f.LoadMore(false, now)
}

// Fetch returns a closure that performs the fetch for t. The closure only
// reads values captured here, so it can run on any goroutine.
func (f *Feed[T]) Fetch(t Ticket) func() Result[T] {
	ctx, src := f.ctx, f.source
	return func() Result[T] {
		page, err := src.Fetch(ctx, Request{Offset: t.Offset, Limit: t.Limit, Prefetch: t.Prefetch})
		return Result[T]{Ticket: t, Page: page, Err: err}
	}
}

// Complete applies a finished fetch. It returns the number of newly visible
// rows and false if the result was stale and ignored.
func (f *Feed[T]) Complete(r Result[T]) (int, bool) {
	if !f.loader.Finish(r.Ticket) {
		return 0, false
	}
	if r.Err != nil {
		f.err = r.Err
		return 0, true
	}
	f.err = nil
	n := f.window.Store(r.Ticket.Offset, r.Page.Items, r.Ticket.Limit, r.Page.Total)
	f.monitor.MarkLoaded()
	return n, true
}

// Refetch returns a closure that re-reads the displayed prefix, for live
// views that refresh rows in place. It returns false when nothing is
// displayed yet.
func (f *Feed[T]) Refetch() (func() Refresh[T], bool) {
	count := f.window.Count()
	if count == 0 || f.closed {
		return nil, false
	}
	ctx, src, gen := f.ctx, f.source, f.loader.Generation()
	return func() Refresh[T] {
		page, err := src.Fetch(ctx, Request{Offset: 0, Limit: count, Prefetch: true})
		return Refresh[T]{Generation: gen, Page: page, Err: err}
	}, true
}

// ApplyRefresh overwrites displayed rows with refreshed data. Stale
// refreshes and failed refreshes leave the rows untouched.
func (f *Feed[T]) ApplyRefresh(r Refresh[T]) (int, bool) {
	if r.Generation != f.loader.Generation() || r.Err != nil {
		return 0, false
	}
	return f.window.Replace(0, r.Page.Items), true
}

// Visible returns the displayed rows
func (f *Feed[T]) Visible() []T {
	return f.window.Visible()
}

// At returns the displayed row at i
func (f *Feed[T]) At(i int) (T, bool) {
	return f.window.At(i)
}

// Count returns the number of displayed rows
func (f *Feed[T]) Count() int {
	return f.window.Count()
}

// Total returns the dataset length, or -1 if not known yet
func (f *Feed[T]) Total() int {
	return f.window.Total()
}

// HasMore reports whether more rows can be loaded
func (f *Feed[T]) HasMore() bool {
	return f.window.HasMore()
}

// State returns the loader state
func (f *Feed[T]) State() State {
	return f.loader.State()
}

// Loading reports whether a visible (non-prefetch) load is in flight
func (f *Feed[T]) Loading() bool {
	return f.loader.State() == StateLoading
}

// Busy reports whether any fetch is in flight
func (f *Feed[T]) Busy() bool {
	return f.loader.InFlight()
}

// NearBottom reports whether the last scroll event landed in a threshold band
func (f *Feed[T]) NearBottom() bool {
	return f.band != BandNone
}

// Err returns the error of the last failed fetch, cleared by Retry or Reset
func (f *Feed[T]) Err() error {
	return f.err
}

// Direction returns the last observed scroll direction
func (f *Feed[T]) Direction() Direction {
	return f.monitor.Direction()
}

// Generation changes every time the dataset is replaced
func (f *Feed[T]) Generation() uint64 {
	return f.loader.Generation()
}

// Config returns the effective configuration
func (f *Feed[T]) Config() Config {
	return f.cfg
}
