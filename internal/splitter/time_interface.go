package splitter

import "time"

// TimeProvider is the engine's clock. Tests swap it to get fixed durations.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the wall clock.
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time { return time.Now() }
