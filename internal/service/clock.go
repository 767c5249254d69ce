package service

import "time"

// Clock returns the current time. Stored timestamps have millisecond
// precision, so values are truncated to match.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (c Clock) now() time.Time {
	if c == nil {
		return SystemClock()
	}
	return c().UTC().Truncate(time.Millisecond)
}
