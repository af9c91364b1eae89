package feed

import "time"

// Metrics describes a scroll container the way the DOM does:
// ScrollTop is the offset of the first visible unit, ClientHeight the size of
// the viewport and ScrollHeight the size of everything rendered.
type Metrics struct {
	ScrollTop    int
	ScrollHeight int
	ClientHeight int
}

// Percentage returns how far the bottom edge of the viewport has travelled
// through the content, in percent. Empty content counts as fully scrolled.
func (m Metrics) Percentage() float64 {
	if m.ScrollHeight <= 0 {
		return 100
	}
	return float64(m.ScrollTop+m.ClientHeight) / float64(m.ScrollHeight) * 100
}

// Remaining returns the distance between the bottom of the viewport and the
// end of the content.
func (m Metrics) Remaining() int {
	return m.ScrollHeight - (m.ScrollTop + m.ClientHeight)
}

// Unfilled reports whether the content is too short to scroll at all
func (m Metrics) Unfilled() bool {
	return m.ScrollHeight <= m.ClientHeight
}

// Band is the threshold zone the viewport currently sits in
type Band int

const (
	BandNone Band = iota
	BandPrefetch
	BandLoad
)

// Decision is the outcome of evaluating a scroll event
type Decision int

const (
	Idle Decision = iota
	Prefetch
	Load
)

func (d Decision) String() string {
	switch d {
	case Load:
		return "load"
	case Prefetch:
		return "prefetch"
	default:
		return "idle"
	}
}

// Input is everything the evaluator looks at besides the configuration
type Input struct {
	Metrics   Metrics
	Direction Direction
	InFlight  bool
	HasMore   bool
	Failed    bool
	LastLoad  time.Time
	Now       time.Time
}

// Verdict is a Decision plus, for throttled decisions, how long until the
// same scroll position would be allowed to load.
type Verdict struct {
	Decision Decision
	Wait     time.Duration
}

// Evaluator turns scroll positions into load decisions
type Evaluator struct {
	cfg Config
}

// NewEvaluator creates an evaluator for the given configuration
func NewEvaluator(cfg Config) Evaluator {
	return Evaluator{cfg: cfg.normalize()}
}

// Band classifies the scroll position
func (e Evaluator) Band(m Metrics) Band {
	if e.cfg.Mode == ModeDistance {
		remaining := m.Remaining()
		switch {
		case remaining <= e.cfg.LoadDistance:
			return BandLoad
		case remaining <= e.cfg.PrefetchDistance:
			return BandPrefetch
		}
		return BandNone
	}

	pct := m.Percentage()
	switch {
	case pct >= e.cfg.LoadPercent:
		return BandLoad
	case pct >= e.cfg.PrefetchPercent:
		return BandPrefetch
	}
	return BandNone
}

// Evaluate decides whether the scroll position should trigger a load.
// Loads only happen while travelling down (content that does not fill the
// viewport counts as travelling down), with no fetch in flight, more rows
// available, no unacknowledged failure, and MinLoadInterval elapsed since the
// previous load started.
func (e Evaluator) Evaluate(in Input) Verdict {
	if in.InFlight || !in.HasMore || in.Failed {
		return Verdict{Decision: Idle}
	}

	dir := in.Direction
	if in.Metrics.Unfilled() {
		dir = Down
	}
	if dir != Down {
		return Verdict{Decision: Idle}
	}

	var want Decision
	switch e.Band(in.Metrics) {
	case BandLoad:
		want = Load
	case BandPrefetch:
		if !e.cfg.Prefetch {
			return Verdict{Decision: Idle}
		}
		want = Prefetch
	default:
		return Verdict{Decision: Idle}
	}

	if !in.LastLoad.IsZero() {
		elapsed := in.Now.Sub(in.LastLoad)
		if elapsed < e.cfg.MinLoadInterval {
			return Verdict{Decision: Idle, Wait: e.cfg.MinLoadInterval - elapsed}
		}
	}

	return Verdict{Decision: want}
}
