//go:build linux

package backend

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/OpenListTeam/go-tryjoin/internal/deadline"
)

// pidfdWaiter observes one thread through a pidfd opened with PIDFD_THREAD.
// The pidfd becomes readable when the thread exits and is immune to TID
// reuse because it is opened while the thread is still alive.
type pidfdWaiter struct {
	fd int
}

const (
	readyEvents   = unix.POLLIN | unix.POLLHUP
	invalidEvents = unix.POLLNVAL | unix.POLLERR

	// PIDFD_THREAD from linux/uapi/pidfd.h (the value aliases O_EXCL).
	// x/sys/unix exports PIDFD_NONBLOCK but not this flag yet.
	pidfdThread = 0x80
)

// open must run on the target thread. Gettid and PidfdOpen refer to the
// calling thread, which is why the caller holds runtime.LockOSThread.
func open() (Waiter, error) {
	tid := unix.Gettid()
	fd, err := unix.PidfdOpen(tid, pidfdThread|unix.PIDFD_NONBLOCK)
	if err != nil {
		return nil, mapOpenError(err)
	}
	return &pidfdWaiter{fd: fd}, nil
}

// mapOpenError distinguishes "this kernel cannot do it" from genuine
// failures. The unsupported cases are permanent and wrap ErrUnsupported with
// a stable reason; anything else is surfaced with its errno.
func mapOpenError(err error) error {
	switch err {
	case unix.ENOSYS:
		return fmt.Errorf("%w: kernel lacks pidfd_open (Linux 5.3+ required)", ErrUnsupported)
	case unix.EINVAL:
		return fmt.Errorf("%w: kernel lacks PIDFD_THREAD (Linux 6.9+ required)", ErrUnsupported)
	}
	return fmt.Errorf("pidfd_open: %w", err)
}

var probeOnce = sync.OnceValues(func() (bool, error) {
	// Probe against the probing thread itself. The goroutine is pinned so
	// the TID cannot change between Gettid and PidfdOpen.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	w, err := open()
	if err == nil {
		_ = w.Close()
		return true, nil
	}
	return false, err
})

func probe() (bool, error) {
	return probeOnce()
}

// The initial thread's TID equals the PID of its thread group.
func onMainThread() bool {
	return unix.Gettid() == unix.Getpid()
}

// errClosed guards against polling a released fd: poll(2) silently ignores
// negative descriptors, which would masquerade as "still running".
func (w *pidfdWaiter) errClosed() error {
	if w.fd < 0 {
		return fmt.Errorf("poll pidfd: waiter released: %w", unix.EBADF)
	}
	return nil
}

func (w *pidfdWaiter) TryWait() (bool, error) {
	if err := w.errClosed(); err != nil {
		return false, err
	}
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: readyEvents}}
	for {
		n, err := unix.Poll(fds, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("poll pidfd: %w", err)
		}
		if n == 0 {
			return false, nil
		}
		return decodeRevents(fds[0].Revents)
	}
}

// WaitUntil parks the calling thread in ppoll until the pidfd signals or the
// deadline is reached. The timeout is recomputed from the absolute deadline
// on every EINTR so interruptions never extend the total wait.
func (w *pidfdWaiter) WaitUntil(dl time.Time) (bool, error) {
	if err := w.errClosed(); err != nil {
		return false, err
	}
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: readyEvents}}
	for {
		ts := unix.NsecToTimespec(deadline.RemainingNanos(dl))
		fds[0].Revents = 0
		n, err := unix.Ppoll(fds, &ts, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("ppoll pidfd: %w", err)
		}
		if n == 0 {
			return false, nil
		}
		return decodeRevents(fds[0].Revents)
	}
}

func (w *pidfdWaiter) Raw() uintptr {
	return uintptr(w.fd)
}

func (w *pidfdWaiter) Close() error {
	if w.fd < 0 {
		return nil
	}
	err := unix.Close(w.fd)
	w.fd = -1
	return err
}

// decodeRevents maps the poll result for one pidfd. Thread exit shows up as
// POLLIN (POLLHUP on some kernels); POLLNVAL and POLLERR mean the fd itself
// is bad, which is a caller bug, not a thread state.
func decodeRevents(revents int16) (bool, error) {
	if revents&invalidEvents != 0 {
		return false, fmt.Errorf("poll pidfd: revents %#x: %w", revents, unix.EBADF)
	}
	return revents&readyEvents != 0, nil
}

// waitAnyUntil multiplexes every pidfd into a single ppoll call, so the
// caller is woken by the first exiting thread rather than scanning.
func waitAnyUntil(dl time.Time, ws []Waiter) (int, bool, error) {
	fds := make([]unix.PollFd, len(ws))
	for i, w := range ws {
		fds[i] = unix.PollFd{Fd: int32(w.Raw()), Events: readyEvents}
	}
	for {
		ts := unix.NsecToTimespec(deadline.RemainingNanos(dl))
		for i := range fds {
			fds[i].Revents = 0
		}
		n, err := unix.Ppoll(fds, &ts, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, false, fmt.Errorf("ppoll pidfds: %w", err)
		}
		if n == 0 {
			return -1, false, nil
		}
		for i := range fds {
			done, err := decodeRevents(fds[i].Revents)
			if err != nil {
				return i, false, err
			}
			if done {
				return i, true, nil
			}
		}
		// n > 0 with no decoded event should not happen; re-arm and keep
		// waiting out the deadline.
	}
}
