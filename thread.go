package tryjoin

import (
	"runtime"
	"sync/atomic"

	"github.com/OpenListTeam/go-tryjoin/internal/backend"
	"github.com/OpenListTeam/go-tryjoin/internal/completion"
)

// Thread is a handle to a worker spawned by Spawn, running on an OS thread
// of its own. The handle stays valid and joinable across any number of
// polls; only Join finalizes it.
//
// The join family of methods (TryJoin, TimedJoin, Join) must not be invoked
// concurrently on one handle: the underlying OS object admits a single
// outstanding wait, and serializing access is the owner's job.
type Thread[T any] struct {
	sig    *completion.Signal
	waiter backend.Waiter // nil when the platform cannot poll termination
	reason error          // why waiter is nil, wraps ErrUnsupported

	joined atomic.Bool
	result T
	err    error
}

// Spawn runs fn on a goroutine locked to an OS thread of its own and
// returns a handle to it. The goroutine never unlocks, so the Go runtime
// destroys the OS thread when fn returns; that destruction is the
// termination event the poll methods observe.
//
// Before fn starts, the worker opens an OS-level waiter on itself. If the
// platform cannot provide one the handle is still usable: Join works
// everywhere, and the poll methods report the reason via ErrUnsupported.
func Spawn[T any](fn func() (T, error)) *Thread[T] {
	t := &Thread[T]{sig: completion.NewSignal()}
	ready := make(chan struct{})
	go t.run(fn, ready)
	<-ready
	return t
}

// run hosts the worker. The scheduler may have placed this goroutine on the
// process's initial thread, which the runtime parks rather than terminates
// when a locked goroutine exits; a waiter bound to it would report the
// thread running forever. In that case the goroutine keeps the initial
// thread occupied, which forces the replacement onto some other thread, and
// releases it once the replacement holds its own.
func (t *Thread[T]) run(fn func() (T, error), ready chan struct{}) {
	runtime.LockOSThread()
	if backend.OnMainThread() {
		go t.run(fn, ready)
		<-ready
		runtime.UnlockOSThread()
		return
	}

	if w, err := backend.Open(); err != nil {
		t.reason = err
	} else {
		t.waiter = w
	}
	close(ready)

	t.result, t.err = fn()
	t.sig.SetReady()
}

// Join blocks until the worker finishes and returns its result. It releases
// the OS-level waiter, so it may succeed exactly once per handle; any later
// call, and any later poll, returns ErrAlreadyJoined.
func (t *Thread[T]) Join() (T, error) {
	t.sig.Wait()
	if !t.joined.CompareAndSwap(false, true) {
		var zero T
		return zero, ErrAlreadyJoined
	}
	if t.waiter != nil {
		_ = t.waiter.Close()
	}
	return t.result, t.err
}

// Done returns a channel closed when fn has returned. It is the sanctioned
// way to compose a handle into a select statement; it observes the runtime
// handing over the result, which slightly precedes the OS thread's death.
func (t *Thread[T]) Done() <-chan struct{} {
	return t.sig.Channel()
}

// osWaiter gates every poll behind the handle's lifecycle: a finalized
// handle is a caller bug, an absent waiter is the platform's limitation.
func (t *Thread[T]) osWaiter() (backend.Waiter, error) {
	if t.joined.Load() {
		return nil, ErrAlreadyJoined
	}
	if t.waiter == nil {
		return nil, t.reason
	}
	return t.waiter, nil
}
