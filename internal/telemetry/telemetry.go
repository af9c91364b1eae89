package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"

	"github.com/fleetdash/fleetdash/internal/logging"
	"github.com/fleetdash/fleetdash/internal/version"
)

const defaultEndpoint = "https://eu.i.posthog.com"

// buildKey is injected at release build time with
// -ldflags "-X github.com/fleetdash/fleetdash/internal/telemetry.buildKey=phc_..."
var buildKey = ""

// Settings selects where events go. An empty Key falls back to the key
// baked into release builds; with neither, nothing is sent.
type Settings struct {
	Enabled  bool
	Key      string
	Endpoint string
}

var (
	client     posthog.Client
	distinctId string

	baseProps = posthog.NewProperties().
			Set("goos", runtime.GOOS).
			Set("goarch", runtime.GOARCH).
			Set("term", os.Getenv("TERM")).
			Set("shell", filepath.Base(os.Getenv("SHELL"))).
			Set("version", version.Version).
			Set("go_version", runtime.Version())
)

// Init starts the PostHog client unless telemetry is disabled by the config
// file or the environment.
func Init(s Settings) {
	key := s.Key
	if key == "" {
		key = buildKey
	}
	if !s.Enabled || key == "" || isDisabled(os.Getenv) {
		return
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	c, err := posthog.NewWithConfig(key, posthog.Config{
		Endpoint: endpoint,
		Logger:   logger{},
	})
	if err != nil {
		logging.Logger.Error("Failed to initialize PostHog client", "error", err)
		return
	}
	client = c
	distinctId = getDistinctId()
}

func isDisabled(getenv func(string) string) bool {
	if v, _ := strconv.ParseBool(getenv("FLEETDASH_TELEMETRY_DISABLED")); v {
		return true
	}
	if v, _ := strconv.ParseBool(getenv("DO_NOT_TRACK")); v {
		return true
	}
	return false
}

// getDistinctId hashes the machine id so the raw id never leaves the host
func getDistinctId() string {
	id, err := machineid.ProtectedID("fleetdash")
	if err != nil {
		return "unknown"
	}
	return id
}

func send(event string, props ...any) {
	if client == nil {
		return
	}
	err := client.Enqueue(posthog.Capture{
		DistinctId: distinctId,
		Event:      event,
		Properties: pairsToProps(props...).Merge(baseProps),
	})
	if err != nil {
		logging.Logger.Error("Failed to enqueue PostHog event", "event", event, "props", props, "error", err)
		return
	}
}

func Error(err any, props ...any) {
	if client == nil {
		return
	}
	props = append(
		[]any{
			"$exception_list",
			[]map[string]string{
				{"type": reflect.TypeOf(err).String(), "value": fmt.Sprintf("%v", err)},
			},
		},
		props...,
	)
	send("$exception", props...)
}

func Flush() {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logging.Logger.Error("Failed to flush PostHog events", "error", err)
	}
	client = nil
}

func pairsToProps(props ...any) posthog.Properties {
	p := posthog.NewProperties()

	if !isEven(len(props)) {
		logging.Logger.Error("Event properties must be provided as key-value pairs", "props", props)
		return p
	}

	for i := 0; i < len(props); i += 2 {
		key, ok := props[i].(string)
		if !ok {
			logging.Logger.Error("Event property key must be a string", "key", props[i])
			continue
		}
		p = p.Set(key, props[i+1])
	}
	return p
}

func isEven(n int) bool {
	return n%2 == 0
}
