//go:build !linux && !windows

package backend

import (
	"fmt"
	"runtime"
	"time"
)

// This platform has no sanctioned way to poll a thread for termination
// (there is no portable pthread_tryjoin_np equivalent reachable from Go).
// Every entry point reports the same stable reason instead of silently
// falling back to a blocking join, which would break the contract callers
// depend on.

func errUnsupported() error {
	return fmt.Errorf("%w on %s", ErrUnsupported, runtime.GOOS)
}

func open() (Waiter, error) {
	return nil, errUnsupported()
}

func probe() (bool, error) {
	return false, errUnsupported()
}

func waitAnyUntil(time.Time, []Waiter) (int, bool, error) {
	return -1, false, errUnsupported()
}

// Without a waiter there is no thread death to observe, so hosting a worker
// on the initial thread is harmless here.
func onMainThread() bool {
	return false
}
