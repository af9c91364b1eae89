// Package config loads fleetdash settings from
// $XDG_CONFIG_HOME/fleetdash/config.toml and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/fleetdash/fleetdash/internal/feed"
)

const (
	DefaultServer          = "http://localhost:8080"
	DefaultPageSize        = 25
	DefaultRefreshInterval = 5 * time.Second
)

// Duration is a time.Duration written as a Go duration string ("800ms")
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config represents the parsed config.toml
type Config struct {
	Server          string   `toml:"server"`
	PageSize        int      `toml:"page_size"`
	InitialPageSize int      `toml:"initial_page_size"`
	RefreshInterval Duration `toml:"refresh_interval"`
	Telemetry       *bool    `toml:"telemetry"` // nil defaults to true
	// TelemetryKey and TelemetryEndpoint override the release build's PostHog project
	TelemetryKey      string `toml:"telemetry_key"`
	TelemetryEndpoint string `toml:"telemetry_endpoint"`
	Debug           bool     `toml:"debug"`
	Scroll          Scroll   `toml:"scroll"`

	// Token comes from FLEETDASH_TOKEN or the session store, never the file
	Token string `toml:"-"`
}

// Scroll tunes infinite scrolling. Unset fields keep the row defaults;
// percentages of zero are treated as unset.
type Scroll struct {
	Mode             string    `toml:"mode"`
	LoadPercent      float64   `toml:"load_percent"`
	PrefetchPercent  float64   `toml:"prefetch_percent"`
	LoadDistance     *int      `toml:"load_distance"`
	PrefetchDistance *int      `toml:"prefetch_distance"`
	MinLoadInterval  *Duration `toml:"min_load_interval"`
	Prefetch         *bool     `toml:"prefetch"` // nil defaults to true
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Server:          DefaultServer,
		PageSize:        DefaultPageSize,
		RefreshInterval: Duration(DefaultRefreshInterval),
		Scroll:          Scroll{Mode: "distance"},
	}
}

// Load reads the config file at path on top of the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from FLEETDASH_* variables
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("FLEETDASH_SERVER"); v != "" {
		c.Server = v
	}
	if v := getenv("FLEETDASH_TOKEN"); v != "" {
		c.Token = v
	}
	if v := getenv("FLEETDASH_TELEMETRY_KEY"); v != "" {
		c.TelemetryKey = v
	}
	if v := getenv("FLEETDASH_TELEMETRY_ENDPOINT"); v != "" {
		c.TelemetryEndpoint = v
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an http(s) URL, got %q", c.Server)
	}
	if c.PageSize < 0 || c.InitialPageSize < 0 {
		return errors.New("page sizes must not be negative")
	}
	if _, err := feed.ParseMode(c.Scroll.Mode); err != nil {
		return err
	}
	for _, d := range []*int{c.Scroll.LoadDistance, c.Scroll.PrefetchDistance} {
		if d != nil && *d < 0 {
			return errors.New("scroll distances must not be negative")
		}
	}
	if d := c.Scroll.MinLoadInterval; d != nil && *d < 0 {
		return errors.New("min_load_interval must not be negative")
	}
	return nil
}

// ServerURL returns the server without a trailing slash
func (c *Config) ServerURL() string {
	return strings.TrimRight(c.Server, "/")
}

// TelemetryEnabled reports whether the config file allows telemetry
func (c *Config) TelemetryEnabled() bool {
	return c.Telemetry == nil || *c.Telemetry
}

// Refresh returns the live refresh interval for the devices view
func (c *Config) Refresh() time.Duration {
	if c.RefreshInterval <= 0 {
		return DefaultRefreshInterval
	}
	return time.Duration(c.RefreshInterval)
}

// ScrollConfig returns the feed configuration in row units
func (c *Config) ScrollConfig() (feed.Config, error) {
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	fc := feed.RowConfig(pageSize)
	if c.InitialPageSize > 0 {
		fc.InitialPageSize = c.InitialPageSize
	}

	mode, err := feed.ParseMode(c.Scroll.Mode)
	if err != nil {
		return feed.Config{}, err
	}
	fc.Mode = mode

	s := c.Scroll
	if s.LoadPercent > 0 {
		fc.LoadPercent = s.LoadPercent
	}
	if s.PrefetchPercent > 0 {
		fc.PrefetchPercent = s.PrefetchPercent
	}
	if s.LoadDistance != nil {
		fc.LoadDistance = *s.LoadDistance
	}
	if s.PrefetchDistance != nil {
		fc.PrefetchDistance = *s.PrefetchDistance
	}
	if s.MinLoadInterval != nil {
		fc.MinLoadInterval = time.Duration(*s.MinLoadInterval)
	}
	if s.Prefetch != nil {
		fc.Prefetch = *s.Prefetch
	}
	if fc.PrefetchDistance < fc.LoadDistance {
		fc.PrefetchDistance = fc.LoadDistance
	}
	if fc.PrefetchPercent > fc.LoadPercent {
		fc.PrefetchPercent = fc.LoadPercent
	}
	return fc, nil
}
