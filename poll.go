package tryjoin

import (
	"sync"
	"time"

	"github.com/OpenListTeam/go-tryjoin/internal/backend"
	"github.com/OpenListTeam/go-tryjoin/internal/deadline"
)

// TryJoin reports immediately whether the thread has terminated, without
// blocking for longer than the underlying query itself.
//
// It returns nil once the thread has terminated (the result stays
// retrievable through Join), ErrStillRunning while it has not,
// ErrUnsupported where the platform cannot poll, and ErrAlreadyJoined after
// Join has finalized the handle. Any other OS failure is returned with its
// errno preserved.
//
// TryJoin is idempotent: polling a running thread any number of times
// returns ErrStillRunning every time and never invalidates the handle.
func (t *Thread[T]) TryJoin() error {
	w, err := t.osWaiter()
	if err != nil {
		return err
	}
	done, err := w.TryWait()
	if err != nil {
		return err
	}
	if !done {
		return ErrStillRunning
	}
	return nil
}

// TimedJoin waits until the thread terminates or wait has elapsed,
// whichever comes first, and reports the outcome exactly like TryJoin.
//
// The absolute deadline is computed from the clock at the moment of the
// call; sub-second precision of wait is preserved down to what the platform
// primitive can express. A zero (or negative) wait degrades to a single
// immediate check. The calling goroutine is parked in the OS wait primitive
// for the duration, not spun; there is no way to abort the wait early other
// than the deadline itself.
func (t *Thread[T]) TimedJoin(wait time.Duration) error {
	w, err := t.osWaiter()
	if err != nil {
		return err
	}
	done, err := w.WaitUntil(deadline.At(wait))
	if err != nil {
		return err
	}
	if !done {
		return ErrStillRunning
	}
	return nil
}

// Joiner is the result-type-independent view of a *Thread, accepted by
// TimedJoinAny so handles of different result types can be waited on
// together.
type Joiner interface {
	TryJoin() error
	TimedJoin(wait time.Duration) error
	Done() <-chan struct{}

	osWaiter() (backend.Waiter, error)
}

// TimedJoinAny waits until the first of the given threads terminates or
// wait has elapsed, and returns the index of a terminated thread. All
// handles are observed in a single multiplexed OS wait, so the caller wakes
// on the first termination rather than scanning.
//
// On timeout it returns -1 and ErrStillRunning. A finalized handle or an
// unsupported platform surfaces exactly as in TryJoin, before any waiting
// happens. Every handle remains joinable afterwards, including the one
// reported terminated.
func TimedJoinAny(wait time.Duration, threads ...Joiner) (int, error) {
	if len(threads) == 0 {
		return -1, ErrNoThreads
	}
	ws := make([]backend.Waiter, len(threads))
	for i, th := range threads {
		w, err := th.osWaiter()
		if err != nil {
			return -1, err
		}
		ws[i] = w
	}
	idx, done, err := backend.WaitAnyUntil(deadline.At(wait), ws)
	if err != nil {
		return -1, err
	}
	if !done {
		return -1, ErrStillRunning
	}
	return idx, nil
}

var supported = sync.OnceValues(backend.Probe)

// Supported reports whether this process can poll thread termination at
// all. When it cannot, the error wraps ErrUnsupported with the stable,
// platform-specific reason. The answer never changes during the process's
// lifetime, so checking once is enough.
func Supported() (bool, error) {
	return supported()
}
