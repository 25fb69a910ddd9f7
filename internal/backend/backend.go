// Package backend hides the per-OS primitive used to observe the
// termination of a single OS thread without consuming it.
//
// Exactly one backend is compiled in, selected by build tags:
//   - backend_linux.go: pidfd (pidfd_open with PIDFD_THREAD) plus ppoll
//   - backend_windows.go: a SYNCHRONIZE thread handle plus WaitForSingleObject
//   - backend_other.go: a stub that reports ErrUnsupported
//
// A Waiter observes thread state; it never reaps the thread and never
// retrieves its result.
package backend

import "time"

// Waiter polls or waits for the termination of one OS thread.
//
// A Waiter is not safe for concurrent use: the join family of operations on
// one thread must be serialized by the caller.
type Waiter interface {
	// TryWait reports immediately whether the thread has terminated.
	TryWait() (bool, error)

	// WaitUntil blocks until the thread terminates or the absolute deadline
	// is reached, whichever comes first. A deadline at or before the current
	// time degrades to a single immediate check.
	WaitUntil(deadline time.Time) (bool, error)

	// Raw exposes the underlying OS object for multiplexed waits.
	Raw() uintptr

	// Close releases the OS object. The Waiter is unusable afterwards.
	Close() error
}

// Open creates a Waiter for the calling thread. It must be invoked on the
// target thread itself, with the goroutine locked to it, before that thread
// can terminate. On platforms or kernels without a usable primitive it
// returns an error wrapping ErrUnsupported.
func Open() (Waiter, error) {
	return open()
}

// Probe reports whether this process can open thread waiters at all. The
// returned error, non-nil exactly when the capability is absent, wraps
// ErrUnsupported with the stable reason. The answer never changes for the
// lifetime of the process.
func Probe() (bool, error) {
	return probe()
}

// WaitAnyUntil blocks until the first of the given threads terminates or the
// deadline is reached. It returns the index of a terminated thread and true,
// or -1 and false on timeout.
func WaitAnyUntil(deadline time.Time, ws []Waiter) (int, bool, error) {
	return waitAnyUntil(deadline, ws)
}

// OnMainThread reports whether the calling goroutine is running on the
// process's initial thread. The runtime parks that thread instead of
// terminating it when a locked goroutine exits, so a waiter bound to it
// would never signal; workers must not be hosted there.
func OnMainThread() bool {
	return onMainThread()
}
