package clock

import "time"

// Clock supplies the current time. Auction phase is derived from timestamps,
// so every check inside one request must read the same clock source.
type Clock interface {
	Now() time.Time
}

// System is the wall-clock implementation used outside of tests.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant. Intended for tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}
