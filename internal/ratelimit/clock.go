package ratelimit

import "time"

// Clock abstracts time.Now so rate limiters and sweepers can be driven by a
// fake clock in tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the Clock used in production.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
