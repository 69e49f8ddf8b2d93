package domain

import "time"

// Clock abstracts wall-clock reads so time-gated settlement can be driven by
// synthetic time in tests. Every "now" in the store and oracle goes through
// this interface.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
