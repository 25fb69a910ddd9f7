package tryjoin

import (
	"errors"

	"github.com/OpenListTeam/go-tryjoin/internal/backend"
)

var (
	// ErrStillRunning reports that the thread had not terminated when the
	// poll observed it, or before the deadline passed. It is the expected
	// "try again later" outcome, not a failure; whether and when to retry
	// is the caller's decision.
	ErrStillRunning = errors.New("tryjoin: thread still running")

	// ErrUnsupported reports that the running platform cannot poll thread
	// termination. Errors carrying the platform-specific reason wrap it, so
	// test with errors.Is. The condition is permanent for the lifetime of
	// the process; callers may check once and cache the answer.
	ErrUnsupported = backend.ErrUnsupported

	// ErrAlreadyJoined reports a poll or join on a handle that Join has
	// already finalized. It indicates a caller bug and must not be retried.
	ErrAlreadyJoined = errors.New("tryjoin: thread already joined")

	// ErrNoThreads is returned by TimedJoinAny when called with no handles.
	ErrNoThreads = errors.New("tryjoin: no threads to join")
)
