package probe

import "time"

// Cadence is an absolute periodic schedule. The ideal wake times are
// start+period, start+2*period, ... and never move when the caller wakes
// late, so drift accumulates in Deviation instead of being absorbed.
type Cadence struct {
	start     time.Time
	period    time.Duration
	completed int
}

// NewCadence starts a schedule whose first ideal wake is start+period.
func NewCadence(start time.Time, period time.Duration) *Cadence {
	return &Cadence{start: start, period: period}
}

// Next returns the ideal wake time ending the current period.
func (c *Cadence) Next() time.Time {
	return c.start.Add(time.Duration(c.completed+1) * c.period)
}

// LastWake returns the ideal wake time of the last completed period, or the
// start time before any period completed.
func (c *Cadence) LastWake() time.Time {
	return c.start.Add(time.Duration(c.completed) * c.period)
}

// Advance moves to the next period regardless of when the caller woke.
func (c *Cadence) Advance() {
	c.completed++
}

// Completed returns the number of completed periods.
func (c *Cadence) Completed() int {
	return c.completed
}

// Deviation returns how late now is relative to the ideal wake of the last
// completed period: (now - Next()) + period.
func (c *Cadence) Deviation(now time.Time) time.Duration {
	return now.Sub(c.Next()) + c.period
}

// SleepUntilNext returns how long to sleep from now until Next, clamped to
// zero when the deadline already passed.
func (c *Cadence) SleepUntilNext(now time.Time) time.Duration {
	return max(0, c.Next().Sub(now))
}
