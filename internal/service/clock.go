package service

import "time"

// Clock provides the time an install is measured with.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock implements Clock for tests. It starts at FixedTime and moves
// forward by Step on every call.
type TestClock struct {
	FixedTime time.Time
	Step      time.Duration

	calls int
}

// Now returns the fixed time plus one Step per earlier call.
func (t *TestClock) Now() time.Time {
	now := t.FixedTime.Add(time.Duration(t.calls) * t.Step)
	t.calls++
	return now
}
