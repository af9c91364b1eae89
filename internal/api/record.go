package api

import (
	"encoding/json"
	"strconv"
)

// Record is one decoded JSON object from the server
type Record map[string]any

// ID returns the record's id field as a string
func (r Record) ID() string {
	return r.String("id")
}

// String formats the field at key for display
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', 1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		return strconv.Itoa(len(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// JSON returns the record as indented JSON for detail views
func (r Record) JSON() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
