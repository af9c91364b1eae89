package feed

import (
	"fmt"
	"time"
)

// Mode selects how scroll position is compared against thresholds
type Mode int

const (
	// ModePercent compares the scrolled percentage against LoadPercent/PrefetchPercent
	ModePercent Mode = iota
	// ModeDistance compares the remaining distance against LoadDistance/PrefetchDistance
	ModeDistance
)

func (m Mode) String() string {
	if m == ModeDistance {
		return "distance"
	}
	return "percent"
}

// ParseMode parses "percent" or "distance"
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "percent":
		return ModePercent, nil
	case "distance", "pixel", "pixels":
		return ModeDistance, nil
	}
	return ModePercent, fmt.Errorf("unknown scroll mode %q (want percent or distance)", s)
}

// Config holds the tuning knobs of a Feed. Distances are in abstract units:
// pixels in a graphical list, rows in a terminal table.
type Config struct {
	PageSize        int
	InitialPageSize int

	Mode             Mode
	LoadPercent      float64
	PrefetchPercent  float64
	LoadDistance     int
	PrefetchDistance int

	MinLoadInterval time.Duration
	Prefetch        bool

	EpsilonBeforeLoad int
	EpsilonAfterLoad  int
}

// DefaultConfig returns the defaults for pixel-based lists
func DefaultConfig() Config {
	return Config{
		PageSize:          10,
		InitialPageSize:   10,
		Mode:              ModePercent,
		LoadPercent:       90,
		PrefetchPercent:   75,
		LoadDistance:      300,
		PrefetchDistance:  600,
		MinLoadInterval:   800 * time.Millisecond,
		Prefetch:          true,
		EpsilonBeforeLoad: 1,
		EpsilonAfterLoad:  5,
	}
}

// RowConfig returns defaults for terminal tables where one unit is one row
func RowConfig(pageSize int) Config {
	c := DefaultConfig()
	c.PageSize = pageSize
	c.InitialPageSize = pageSize
	c.Mode = ModeDistance
	c.LoadDistance = 2
	c.PrefetchDistance = pageSize / 2
	c.EpsilonAfterLoad = 1
	return c.normalize()
}

// normalize fills zero values with defaults and repairs inverted bands
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.InitialPageSize <= 0 {
		c.InitialPageSize = c.PageSize
	}
	if c.LoadPercent <= 0 {
		c.LoadPercent = d.LoadPercent
	}
	if c.PrefetchPercent <= 0 {
		c.PrefetchPercent = d.PrefetchPercent
	}
	if c.PrefetchPercent > c.LoadPercent {
		c.PrefetchPercent = c.LoadPercent
	}
	if c.LoadDistance < 0 {
		c.LoadDistance = 0
	}
	if c.PrefetchDistance < c.LoadDistance {
		c.PrefetchDistance = c.LoadDistance
	}
	if c.MinLoadInterval < 0 {
		c.MinLoadInterval = 0
	}
	if c.EpsilonBeforeLoad <= 0 {
		c.EpsilonBeforeLoad = d.EpsilonBeforeLoad
	}
	if c.EpsilonAfterLoad <= 0 {
		c.EpsilonAfterLoad = d.EpsilonAfterLoad
	}
	return c
}
