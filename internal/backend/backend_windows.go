//go:build windows

package backend

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows"

	"github.com/OpenListTeam/go-tryjoin/internal/deadline"
)

// threadWaiter observes one thread through a SYNCHRONIZE handle. The handle
// is opened while the thread is alive, so later TID reuse cannot redirect it.
type threadWaiter struct {
	h windows.Handle
}

// open must run on the target thread: GetCurrentThreadId names the calling
// thread, which is why the caller holds runtime.LockOSThread.
func open() (Waiter, error) {
	tid := windows.GetCurrentThreadId()
	h, err := windows.OpenThread(windows.SYNCHRONIZE, false, tid)
	if err != nil {
		return nil, fmt.Errorf("OpenThread: %w", err)
	}
	return &threadWaiter{h: h}, nil
}

func probe() (bool, error) {
	// Thread handles are waitable on every supported Windows version.
	return true, nil
}

// Windows has no query for a process's initial thread, so its id is
// captured while package initialization still runs there.
var mainThreadID = windows.GetCurrentThreadId()

func onMainThread() bool {
	return windows.GetCurrentThreadId() == mainThreadID
}

func (w *threadWaiter) TryWait() (bool, error) {
	return w.waitMillis(0)
}

// WaitUntil blocks in WaitForSingleObject. The wait primitive has
// millisecond granularity, so the remaining time is rounded up: a short but
// positive wait must never collapse into an immediate timeout.
func (w *threadWaiter) WaitUntil(dl time.Time) (bool, error) {
	return w.waitMillis(deadline.RemainingMillis(dl))
}

func (w *threadWaiter) waitMillis(ms uint32) (bool, error) {
	event, err := windows.WaitForSingleObject(w.h, ms)
	switch event {
	case windows.WAIT_OBJECT_0:
		return true, nil
	case uint32(windows.WAIT_TIMEOUT):
		return false, nil
	}
	return false, waitError("WaitForSingleObject", event, err)
}

// waitError reports an event the wait family never yields for a thread
// handle. err can be nil (e.g. WAIT_ABANDONED), so it is only wrapped when
// present.
func waitError(call string, event uint32, err error) error {
	if err == nil {
		return fmt.Errorf("%s: unexpected event %#x", call, event)
	}
	return fmt.Errorf("%s: event %#x: %w", call, event, err)
}

func (w *threadWaiter) Raw() uintptr {
	return uintptr(w.h)
}

func (w *threadWaiter) Close() error {
	if w.h == 0 {
		return nil
	}
	err := windows.CloseHandle(w.h)
	w.h = 0
	return err
}

// waitAnyUntil multiplexes the thread handles into one
// WaitForMultipleObjects call; the first exiting thread wakes the caller.
func waitAnyUntil(dl time.Time, ws []Waiter) (int, bool, error) {
	handles := make([]windows.Handle, len(ws))
	for i, w := range ws {
		handles[i] = windows.Handle(w.Raw())
	}
	event, err := windows.WaitForMultipleObjects(handles, false, deadline.RemainingMillis(dl))
	switch {
	case event >= windows.WAIT_OBJECT_0 && event < windows.WAIT_OBJECT_0+uint32(len(handles)):
		return int(event - windows.WAIT_OBJECT_0), true, nil
	case event == uint32(windows.WAIT_TIMEOUT):
		return -1, false, nil
	}
	return -1, false, waitError("WaitForMultipleObjects", event, err)
}
