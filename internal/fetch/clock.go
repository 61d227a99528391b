package fetch

import "time"

// Clock abstracts time so the limiter and retry backoff are testable without
// real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// NewRealClock returns the wall clock.
func NewRealClock() Clock { return realClock{} }
