package util

import "time"

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// IntervalDuration returns the length of a candle interval such as "1h".
func IntervalDuration(tf string) (time.Duration, bool) {
	d, ok := intervals[tf]
	return d, ok
}

// AlignToInterval truncates t to the start of its tf bucket in UTC.
// Unknown intervals align to the minute.
func AlignToInterval(t time.Time, tf string) time.Time {
	d, ok := intervals[tf]
	if !ok {
		d = time.Minute
	}
	return t.UTC().Truncate(d)
}

// FromUnixMilli converts an exchange millisecond timestamp; zero stays zero.
func FromUnixMilli(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
