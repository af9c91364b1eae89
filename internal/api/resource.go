package api

import (
	"fmt"
	"strings"
)

// Resource is one of the collections exposed by the fleet server
type Resource string

const (
	User     Resource = "user"
	Role     Resource = "role"
	Place    Resource = "place"
	Group    Resource = "group"
	Device   Resource = "device"
	Map      Resource = "map"
	Firmware Resource = "firmware"
)

// Resources lists every resource in tab order
var Resources = []Resource{User, Role, Place, Group, Device, Map, Firmware}

// Column describes how a record field is shown in a table
type Column struct {
	Key   string
	Title string
	Width int // 0 = flexible
}

var columns = map[Resource][]Column{
	User: {
		{Key: "id", Title: "ID", Width: 8},
		{Key: "username", Title: "USERNAME", Width: 16},
		{Key: "email", Title: "EMAIL"},
		{Key: "role", Title: "ROLE", Width: 10},
		{Key: "lastLogin", Title: "LAST LOGIN", Width: 20},
	},
	Role: {
		{Key: "id", Title: "ID", Width: 8},
		{Key: "name", Title: "NAME", Width: 14},
		{Key: "description", Title: "DESCRIPTION"},
		{Key: "permissions", Title: "PERMS", Width: 6},
	},
	Place: {
		{Key: "id", Title: "ID", Width: 8},
		{Key: "name", Title: "NAME", Width: 18},
		{Key: "address", Title: "ADDRESS"},
		{Key: "devices", Title: "DEVICES", Width: 8},
	},
	Group: {
		{Key: "id", Title: "ID", Width: 8},
		{Key: "name", Title: "NAME", Width: 18},
		{Key: "place", Title: "PLACE"},
		{Key: "devices", Title: "DEVICES", Width: 8},
	},
	Device: {
		{Key: "id", Title: "ID", Width: 8},
		{Key: "name", Title: "NAME", Width: 16},
		{Key: "status", Title: "STATUS", Width: 8},
		{Key: "ip", Title: "IP", Width: 15},
		{Key: "firmware", Title: "FIRMWARE", Width: 9},
		{Key: "cpu", Title: "CPU%", Width: 6},
		{Key: "lastSeen", Title: "LAST SEEN"},
	},
	Map: {
		{Key: "id", Title: "ID", Width: 8},
		{Key: "name", Title: "NAME", Width: 18},
		{Key: "place", Title: "PLACE"},
		{Key: "floor", Title: "FLOOR", Width: 6},
	},
	Firmware: {
		{Key: "id", Title: "ID", Width: 8},
		{Key: "version", Title: "VERSION", Width: 10},
		{Key: "model", Title: "MODEL"},
		{Key: "releasedAt", Title: "RELEASED", Width: 20},
		{Key: "size", Title: "SIZE", Width: 10},
	},
}

// ParseResource accepts a resource name in singular or plural form
func ParseResource(s string) (Resource, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range Resources {
		if s == string(r) || s == r.Plural() {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q (want one of %s)", s, strings.Join(ResourceNames(), ", "))
}

// ResourceNames returns the names of all resources, for completion and errors
func ResourceNames() []string {
	names := make([]string, len(Resources))
	for i, r := range Resources {
		names[i] = string(r)
	}
	return names
}

// Path returns the collection path on the server
func (r Resource) Path() string {
	return "/" + string(r)
}

// Plural returns the plural name
func (r Resource) Plural() string {
	return string(r) + "s"
}

// Title returns the tab title
func (r Resource) Title() string {
	p := r.Plural()
	return strings.ToUpper(p[:1]) + p[1:]
}

// Columns returns the table columns
func (r Resource) Columns() []Column {
	return columns[r]
}

// Orderable returns the column keys the server can order by
func (r Resource) Orderable() []string {
	cols := r.Columns()
	keys := make([]string, 0, len(cols))
	for _, c := range cols {
		keys = append(keys, c.Key)
	}
	return keys
}

// DefaultOrder returns the column a fresh table is ordered by
func (r Resource) DefaultOrder() string {
	cols := r.Columns()
	if len(cols) > 1 {
		return cols[1].Key
	}
	return "id"
}
