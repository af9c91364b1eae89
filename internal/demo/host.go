package demo

import (
	"math"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/fleetdash/fleetdash/internal/api"
	"github.com/fleetdash/fleetdash/internal/logging"
)

// hostSampler reads the machine running the demo server so one device in the
// table reports real numbers.
type hostSampler func(now time.Time) api.Record

func localDevice(now time.Time) api.Record {
	rec := api.Record{
		"id":       seedID(api.Device, -1),
		"name":     "localhost",
		"status":   "online",
		"ip":       "127.0.0.1",
		"firmware": "host",
		"lastSeen": now.UTC().Format(time.RFC3339),
	}
	if name, err := os.Hostname(); err == nil {
		rec["hostname"] = name
	}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		rec["cpu"] = math.Round(pct[0]*10) / 10
	} else if err != nil {
		logging.Logger.Debug("cpu sample failed", "error", err)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		rec["memory"] = math.Round(vm.UsedPercent*10) / 10
	}
	if up, err := host.Uptime(); err == nil {
		rec["uptime"] = (time.Duration(up) * time.Second).String()
	}
	return rec
}
