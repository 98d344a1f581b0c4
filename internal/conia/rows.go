package conia

import (
	"time"

	"conia-sync/internal/model"
)

// Row is a wire-format row exchanged with the remote store: JSON object keys
// mapped to their decoded values. Accessors tolerate the numeric widening
// encoding/json performs (every number arrives as float64).
type Row map[string]any

// Int64 returns the value at key as an int64.
func (r Row) Int64(key string) (int64, bool) {
	switch v := r[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// String returns the value at key as a string. Absent keys and nulls report
// false.
func (r Row) String(key string) (string, bool) {
	v, ok := r[key].(string)
	return v, ok
}

// Bool returns the value at key as a bool, accepting the 0/1 integers some
// backends emit for boolean columns.
func (r Row) Bool(key string) (bool, bool) {
	switch v := r[key].(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case int64:
		return v != 0, true
	}
	return false, false
}

// Time parses the value at key as an RFC 3339 timestamp.
func (r Row) Time(key string) (time.Time, bool) {
	s, ok := r.String(key)
	if !ok {
		return time.Time{}, false
	}
	t, err := model.ParseTime(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
