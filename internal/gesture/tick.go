package gesture

import (
	"time"
)

// Tick is a millisecond tick count. It wraps at 2^32.
type Tick uint32

// Sub returns t-u as a signed millisecond delta. The subtraction wraps the
// same way a 32-bit machine word does, so deltas stay correct across a
// counter rollover.
func (t Tick) Sub(u Tick) int32 {
	return int32(t - u)
}

// Add returns t advanced by ms milliseconds, wrapping on overflow.
func (t Tick) Add(ms uint32) Tick {
	return t + Tick(ms)
}

// TickFromTime converts a wall time into a Tick by truncating its
// millisecond count.
func TickFromTime(t time.Time) Tick {
	return Tick(uint32(t.UnixMilli()))
}
