package demo

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fleetdash/fleetdash/internal/api"
)

// Counts is how many records of each resource the demo server seeds
type Counts map[api.Resource]int

// DefaultCounts seeds enough rows that every table needs several pages
var DefaultCounts = Counts{
	api.User:     120,
	api.Role:     6,
	api.Place:    18,
	api.Group:    40,
	api.Device:   480,
	api.Map:      30,
	api.Firmware: 25,
}

var (
	roleNames  = []string{"admin", "operator", "viewer", "installer", "auditor", "support"}
	cities     = []string{"Lisbon", "Porto", "Madrid", "Lyon", "Milan", "Zurich", "Oslo", "Tallinn", "Gdansk"}
	models     = []string{"GW-100", "GW-200", "SENSE-T", "SENSE-H", "RELAY-4"}
	statuses   = []string{"online", "online", "online", "degraded", "offline"}
	epoch      = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	idSpace    = uuid.MustParse("6f0c1c2e-7a0b-4c59-9a53-0b0c6ce5f4d1")
	seenSpread = 8
)

// seedID returns a stable id so reseeding yields the same dataset
func seedID(res api.Resource, i int) string {
	return uuid.NewSHA1(idSpace, []byte(fmt.Sprintf("%s/%d", res, i))).String()
}

// seed builds the initial dataset
func seed(counts Counts) map[api.Resource][]api.Record {
	data := make(map[api.Resource][]api.Record, len(api.Resources))
	for _, res := range api.Resources {
		n := counts[res]
		rows := make([]api.Record, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, seedRecord(res, i, counts))
		}
		data[res] = rows
	}
	return data
}

func seedRecord(res api.Resource, i int, counts Counts) api.Record {
	id := seedID(res, i)
	pick := func(list []string, salt int) string {
		return list[(i*7+salt)%len(list)]
	}
	ref := func(other api.Resource) string {
		if counts[other] == 0 {
			return ""
		}
		return seedID(other, i%counts[other])
	}

	switch res {
	case api.User:
		name := fmt.Sprintf("user%03d", i+1)
		return api.Record{
			"id":        id,
			"username":  name,
			"email":     name + "@fleet.example",
			"role":      pick(roleNames, 0),
			"lastLogin": epoch.Add(time.Duration(i*37) * time.Hour).Format(time.RFC3339),
		}
	case api.Role:
		return api.Record{
			"id":          id,
			"name":        roleNames[i%len(roleNames)],
			"description": "Built-in " + roleNames[i%len(roleNames)] + " role",
			"permissions": float64(len(roleNames) - i%len(roleNames)),
		}
	case api.Place:
		return api.Record{
			"id":      id,
			"name":    fmt.Sprintf("%s site %d", pick(cities, 0), i/len(cities)+1),
			"address": fmt.Sprintf("%d Harbour Road, %s", 10+i*3, pick(cities, 0)),
			"devices": float64(counts[api.Device] / max(counts[api.Place], 1)),
		}
	case api.Group:
		return api.Record{
			"id":      id,
			"name":    fmt.Sprintf("group-%02d", i+1),
			"place":   ref(api.Place),
			"devices": float64(5 + i%13),
		}
	case api.Device:
		return api.Record{
			"id":       id,
			"name":     fmt.Sprintf("%s-%04d", pick(models, 0), i+1),
			"status":   pick(statuses, 3),
			"ip":       fmt.Sprintf("10.%d.%d.%d", i/65536%256, i/256%256, i%256+1),
			"firmware": fmt.Sprintf("1.%d.%d", i%4, i%9),
			"cpu":      0.0,
			"lastSeen": "",
			"group":    ref(api.Group),
		}
	case api.Map:
		return api.Record{
			"id":    id,
			"name":  fmt.Sprintf("Floor plan %02d", i+1),
			"place": ref(api.Place),
			"floor": float64(i % 5),
		}
	case api.Firmware:
		return api.Record{
			"id":         id,
			"version":    fmt.Sprintf("1.%d.%d", i/9, i%9),
			"model":      pick(models, 1),
			"releasedAt": epoch.Add(time.Duration(i*14*24) * time.Hour).Format(time.RFC3339),
			"size":       float64(1<<20 + i*40960),
		}
	}
	return api.Record{"id": id}
}

// liveDevice fills the fields of a synthetic device that change over time
func liveDevice(rec api.Record, i int, now time.Time) api.Record {
	out := make(api.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	if out["status"] == "offline" {
		out["cpu"] = 0.0
		out["lastSeen"] = now.Add(-time.Duration(i%48+1) * time.Hour).Format(time.RFC3339)
		return out
	}
	phase := float64(now.Unix()%300)/300*2*math.Pi + float64(i)
	out["cpu"] = math.Round((35+30*math.Sin(phase))*10) / 10
	out["lastSeen"] = now.Add(-time.Duration(i%seenSpread) * time.Second).Format(time.RFC3339)
	return out
}
