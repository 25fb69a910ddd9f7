// Package tryjoin joins OS threads without committing to an unbounded
// blocking wait.
//
// Go only offers blocking rendezvous with a worker: once you wait, you wait
// until it finishes. This package spawns a worker pinned to an OS thread and
// lets the owner ask "is it done yet?" (TryJoin), wait up to a deadline
// (TimedJoin), or race several workers (TimedJoinAny), all without giving
// up the ordinary blocking Join that finally retrieves the result.
//
// Termination is observed at the OS boundary, not inferred from the Go side:
// on Linux through a pidfd opened with PIDFD_THREAD (kernel 6.9+), on
// Windows through a waitable thread handle. Platforms without such a
// primitive deterministically report ErrUnsupported instead of silently
// blocking; Supported exposes the capability up front.
//
//	th := tryjoin.Spawn(func() (int, error) {
//		time.Sleep(200 * time.Millisecond)
//		return 42, nil
//	})
//
//	for errors.Is(th.TryJoin(), tryjoin.ErrStillRunning) {
//		// do other work
//	}
//	n, err := th.Join()
//
// Polling never consumes the handle: a thread reported terminated is still
// joinable, and a thread reported still running can be polled again. Looping
// tightly on ErrStillRunning degrades to a busy-poll; prefer TimedJoin when
// there is nothing else to do.
package tryjoin
