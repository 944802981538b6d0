package util

import "time"

// ISOLayout matches the timestamp format the web page parses.
const ISOLayout = "2006-01-02T15:04:05.000000Z07:00"

// Clock is swapped in tests to pin timestamps.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now()
}

func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}
