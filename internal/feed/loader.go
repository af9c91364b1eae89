package feed

import "time"

// State is the loader's position in its state machine
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePrefetching
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePrefetching:
		return "prefetching"
	default:
		return "idle"
	}
}

// Ticket identifies one fetch. Tickets from an older generation are
// discarded when they complete.
type Ticket struct {
	Generation uint64
	Offset     int
	Limit      int
	Prefetch   bool
}

// Loader guards fetches with a single in-flight flag and remembers when the
// last fetch started for interval gating.
type Loader struct {
	pageSize    int
	initialSize int

	state      State
	current    Ticket
	generation uint64
	lastStart  time.Time
}

// NewLoader creates a loader that fetches pageSize rows at a time, and
// initialSize rows for the first page.
func NewLoader(pageSize, initialSize int) *Loader {
	if pageSize <= 0 {
		pageSize = DefaultConfig().PageSize
	}
	if initialSize <= 0 {
		initialSize = pageSize
	}
	return &Loader{pageSize: pageSize, initialSize: initialSize}
}

// Begin starts a fetch after displayCount rows. total is the dataset length,
// or negative when unknown. It returns false without side effects if a fetch
// is already in flight or everything is displayed.
func (l *Loader) Begin(prefetch bool, displayCount, total int, now time.Time) (Ticket, bool) {
	if l.state != StateIdle {
		return Ticket{}, false
	}
	if total >= 0 && displayCount >= total {
		return Ticket{}, false
	}

	limit := l.pageSize
	if displayCount == 0 {
		limit = l.initialSize
	}
	if total >= 0 && total-displayCount < limit {
		limit = total - displayCount
	}

	l.current = Ticket{
		Generation: l.generation,
		Offset:     displayCount,
		Limit:      limit,
		Prefetch:   prefetch,
	}
	if prefetch {
		l.state = StatePrefetching
	} else {
		l.state = StateLoading
	}
	l.lastStart = now
	return l.current, true
}

// Finish clears the in-flight flag for t. It returns false if t is stale
// (the loader was reset after t was issued) or is not the current fetch.
func (l *Loader) Finish(t Ticket) bool {
	if t.Generation != l.generation || l.state == StateIdle || t != l.current {
		return false
	}
	l.state = StateIdle
	return true
}

// Reset abandons any fetch in flight and starts a new generation
func (l *Loader) Reset() {
	l.generation++
	l.state = StateIdle
	l.current = Ticket{}
	l.lastStart = time.Time{}
}

// State returns the current state
func (l *Loader) State() State {
	return l.state
}

// InFlight reports whether a fetch is running
func (l *Loader) InFlight() bool {
	return l.state != StateIdle
}

// LastStart returns when the most recent fetch started
func (l *Loader) LastStart() time.Time {
	return l.lastStart
}

// Generation returns the current generation
func (l *Loader) Generation() uint64 {
	return l.generation
}
