// Package deadline converts the relative wait requested by a caller into the
// absolute point in time handed to the OS wait primitive, and back into the
// remaining-time representation each primitive consumes.
//
// The absolute deadline is computed once per call from a fresh clock read.
// time.Now carries a monotonic reading, so a wall-clock jump between the
// read and the wait does not stretch or shrink the wait; the wall-clock
// value is only ever used for reporting.
package deadline

import (
	"math"
	"time"
)

// At returns the absolute deadline for a wait starting now. A negative wait
// is treated as zero, which makes the deadline already passed and each
// Remaining* conversion an immediate check.
func At(wait time.Duration) time.Time {
	if wait < 0 {
		wait = 0
	}
	return time.Now().Add(wait)
}

// RemainingNanos returns the nanoseconds left until dl, clamped at zero.
// Sub-second precision is preserved in full; a 1.5ms remainder stays
// 1_500_000ns rather than collapsing to a whole second or to nothing.
func RemainingNanos(dl time.Time) int64 {
	left := time.Until(dl)
	if left < 0 {
		return 0
	}
	return left.Nanoseconds()
}

// RemainingMillis returns the milliseconds left until dl for primitives with
// millisecond granularity. Fractional milliseconds round up, never down:
// rounding down would turn a short but positive wait into an immediate
// timeout, falsely reporting a still-running thread.
func RemainingMillis(dl time.Time) uint32 {
	left := time.Until(dl)
	if left <= 0 {
		return 0
	}
	ms := (left + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxUint32-1 {
		// One below the ceiling; the all-ones value means "infinite" to
		// WaitForSingleObject and must never be produced from a finite wait.
		return math.MaxUint32 - 1
	}
	return uint32(ms)
}
