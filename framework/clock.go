package framework

import "time"

// Clock abstracts wall-clock access so that timing and polling can be tested without delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the real clock.
func SystemClock() Clock { return systemClock{} }
