package model

import "time"

// TimeFormat is the canonical timestamp layout for both the local TEXT
// columns and the remote wire format: UTC with fixed three-digit
// milliseconds. The fixed width matters because the pull watermark is
// computed with SQL MAX() over the TEXT column, which is only order-correct
// when every value has the same shape.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in the canonical layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime accepts any RFC 3339 timestamp (the backend emits millisecond
// precision, older rows may carry seconds or nanoseconds) and normalizes to
// UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Truncate drops sub-millisecond precision. Timestamps are truncated before
// being stored so the in-memory value compares equal to what a later read
// parses back.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
