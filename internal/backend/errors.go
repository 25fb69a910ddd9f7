package backend

import "errors"

// ErrUnsupported is wrapped by every error reporting that the running
// platform cannot poll thread termination. The condition is permanent for
// the lifetime of the process, so callers may check once and cache it.
var ErrUnsupported = errors.New("thread termination polling not supported")
