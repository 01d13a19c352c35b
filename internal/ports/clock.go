package ports

import "time"

// Clock supplies wall-clock timestamps for audit logging. Deadline
// scheduling is deliberately not part of this contract: the match loop's
// tick counter is the scheduler, and deadlines are tick stamps checked
// there with a generation guard.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
