package feed

// Direction is the direction of travel of a scroll container
type Direction int

const (
	None Direction = iota
	Down
	Up
)

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return "none"
	}
}

// Monitor derives scroll direction by comparing consecutive offsets.
//
// Movements smaller than the current epsilon are reported as None and are not
// recorded, so tiny movements accumulate until they cross the threshold.
// The epsilon widens once the first page has loaded to suppress jitter.
type Monitor struct {
	last      int
	observed  bool
	loaded    bool
	direction Direction

	epsilonBefore int
	epsilonAfter  int
}

// NewMonitor creates a monitor with the given jitter thresholds (in units)
// for before and after the first completed load.
func NewMonitor(epsilonBefore, epsilonAfter int) *Monitor {
	if epsilonBefore < 1 {
		epsilonBefore = 1
	}
	if epsilonAfter < 1 {
		epsilonAfter = 1
	}
	return &Monitor{epsilonBefore: epsilonBefore, epsilonAfter: epsilonAfter}
}

// Observe records a scroll offset and returns the direction of travel.
// The first observation after creation or Reset always reports Down so
// the initial load attempt is never suppressed.
func (m *Monitor) Observe(offset int) Direction {
	if !m.observed {
		m.observed = true
		m.last = offset
		m.direction = Down
		return m.direction
	}

	delta := offset - m.last
	if abs(delta) < m.epsilon() {
		m.direction = None
		return m.direction
	}

	m.last = offset
	if delta > 0 {
		m.direction = Down
	} else {
		m.direction = Up
	}
	return m.direction
}

// Direction returns the last reported direction
func (m *Monitor) Direction() Direction {
	return m.direction
}

// Offset returns the last recorded offset
func (m *Monitor) Offset() int {
	return m.last
}

// MarkLoaded switches the monitor to its post-load epsilon
func (m *Monitor) MarkLoaded() {
	m.loaded = true
}

// Reset forgets all observations, as on mount
func (m *Monitor) Reset() {
	m.last = 0
	m.observed = false
	m.loaded = false
	m.direction = None
}

func (m *Monitor) epsilon() int {
	if m.loaded {
		return m.epsilonAfter
	}
	return m.epsilonBefore
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
