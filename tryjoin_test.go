package tryjoin_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tryjoin "github.com/OpenListTeam/go-tryjoin"
)

// requireSupported skips timing tests on platforms that cannot poll thread
// termination; the unsupported contract has its own test below.
func requireSupported(t *testing.T) {
	t.Helper()
	if ok, reason := tryjoin.Supported(); !ok {
		t.Skipf("polling unsupported here: %v", reason)
	}
}

func sleeper(d time.Duration) func() (struct{}, error) {
	return func() (struct{}, error) {
		time.Sleep(d)
		return struct{}{}, nil
	}
}

func TestJoinReturnsResult(t *testing.T) {
	th := tryjoin.Spawn(func() (string, error) { return "ok", nil })

	got, err := th.Join()
	require.NoError(t, err)
	require.Equal(t, "ok", got)
}

func TestJoinPropagatesWorkerError(t *testing.T) {
	boom := errors.New("boom")
	th := tryjoin.Spawn(func() (int, error) { return 0, boom })

	_, err := th.Join()
	require.ErrorIs(t, err, boom)
}

func TestJoinTwice(t *testing.T) {
	th := tryjoin.Spawn(func() (int, error) { return 7, nil })

	n, err := th.Join()
	require.NoError(t, err)
	require.Equal(t, 7, n)

	n, err = th.Join()
	require.ErrorIs(t, err, tryjoin.ErrAlreadyJoined)
	require.Zero(t, n)
}

func TestTryJoinStillRunning(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(sleeper(200 * time.Millisecond))
	require.ErrorIs(t, th.TryJoin(), tryjoin.ErrStillRunning)

	_, err := th.Join()
	require.NoError(t, err)
}

func TestTryJoinIdempotentWhileRunning(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(sleeper(300 * time.Millisecond))
	for range 10 {
		require.ErrorIs(t, th.TryJoin(), tryjoin.ErrStillRunning)
	}

	_, err := th.Join()
	require.NoError(t, err)
}

func TestTryJoinSeesTermination(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(func() (int, error) { return 1, nil })

	// The OS thread dies shortly after the worker function returns, so the
	// poll flips from ErrStillRunning to nil rather than instantly.
	require.Eventually(t, func() bool {
		return th.TryJoin() == nil
	}, 2*time.Second, time.Millisecond)

	// Observing termination does not consume the handle.
	require.NoError(t, th.TryJoin())

	n, err := th.Join()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestTryJoinAfterJoin(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(func() (int, error) { return 1, nil })
	_, err := th.Join()
	require.NoError(t, err)

	require.ErrorIs(t, th.TryJoin(), tryjoin.ErrAlreadyJoined)
	require.ErrorIs(t, th.TimedJoin(10*time.Millisecond), tryjoin.ErrAlreadyJoined)
}

func TestTimedJoinExpiresAtDeadline(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(sleeper(500 * time.Millisecond))

	start := time.Now()
	err := th.TimedJoin(100 * time.Millisecond)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, tryjoin.ErrStillRunning)
	require.GreaterOrEqual(t, elapsed, 90*time.Millisecond, "returned before the deadline")
	require.Less(t, elapsed, 400*time.Millisecond, "kept waiting past the deadline")

	_, err = th.Join()
	require.NoError(t, err)
}

func TestTimedJoinWakesOnTermination(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(sleeper(200 * time.Millisecond))

	start := time.Now()
	err := th.TimedJoin(500 * time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	require.Less(t, elapsed, 450*time.Millisecond, "slept out the deadline instead of waking on termination")

	_, err = th.Join()
	require.NoError(t, err)
}

func TestTimedJoinZeroWaitIsImmediateCheck(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(sleeper(200 * time.Millisecond))

	start := time.Now()
	err := th.TimedJoin(0)
	require.ErrorIs(t, err, tryjoin.ErrStillRunning)
	require.Less(t, time.Since(start), 100*time.Millisecond)

	_, err = th.Join()
	require.NoError(t, err)
}

func TestTimedJoinNegativeWaitIsImmediateCheck(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(sleeper(200 * time.Millisecond))
	require.ErrorIs(t, th.TimedJoin(-time.Second), tryjoin.ErrStillRunning)

	_, err := th.Join()
	require.NoError(t, err)
}

func TestTimedJoinFractionalWait(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(func() (int, error) { return 1, nil })

	// A 1500µs wait must survive the conversion to the OS representation:
	// truncated to whole seconds or rounded down to zero it would never
	// succeed, no matter how often it is retried against a dead thread.
	require.Eventually(t, func() bool {
		return th.TimedJoin(1500*time.Microsecond) == nil
	}, 2*time.Second, 5*time.Millisecond)

	_, err := th.Join()
	require.NoError(t, err)
}

func TestTimedJoinOnTerminatedThread(t *testing.T) {
	requireSupported(t)

	th := tryjoin.Spawn(func() (int, error) { return 1, nil })
	require.Eventually(t, func() bool {
		return th.TryJoin() == nil
	}, 2*time.Second, time.Millisecond)

	start := time.Now()
	require.NoError(t, th.TimedJoin(5*time.Second))
	require.Less(t, time.Since(start), time.Second)

	_, err := th.Join()
	require.NoError(t, err)
}

func TestDoneComposesInSelect(t *testing.T) {
	th := tryjoin.Spawn(sleeper(50 * time.Millisecond))

	select {
	case <-th.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker never signalled completion")
	}

	_, err := th.Join()
	require.NoError(t, err)
}

func TestTimedJoinAnyReturnsFirstFinisher(t *testing.T) {
	requireSupported(t)

	slow1 := tryjoin.Spawn(sleeper(400 * time.Millisecond))
	fast := tryjoin.Spawn(sleeper(50 * time.Millisecond))
	slow2 := tryjoin.Spawn(sleeper(400 * time.Millisecond))

	idx, err := tryjoin.TimedJoinAny(5*time.Second, slow1, fast, slow2)
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	for _, th := range []*tryjoin.Thread[struct{}]{slow1, fast, slow2} {
		_, err := th.Join()
		require.NoError(t, err)
	}
}

func TestTimedJoinAnyTimeout(t *testing.T) {
	requireSupported(t)

	a := tryjoin.Spawn(sleeper(500 * time.Millisecond))
	b := tryjoin.Spawn(sleeper(500 * time.Millisecond))

	start := time.Now()
	idx, err := tryjoin.TimedJoinAny(100*time.Millisecond, a, b)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, tryjoin.ErrStillRunning)
	require.Equal(t, -1, idx)
	require.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	require.Less(t, elapsed, 400*time.Millisecond)

	_, err = a.Join()
	require.NoError(t, err)
	_, err = b.Join()
	require.NoError(t, err)
}

func TestTimedJoinAnyNoThreads(t *testing.T) {
	idx, err := tryjoin.TimedJoinAny(time.Second)
	require.ErrorIs(t, err, tryjoin.ErrNoThreads)
	require.Equal(t, -1, idx)
}

func TestTimedJoinAnyRejectsJoinedHandle(t *testing.T) {
	requireSupported(t)

	done := tryjoin.Spawn(func() (int, error) { return 1, nil })
	_, err := done.Join()
	require.NoError(t, err)

	live := tryjoin.Spawn(sleeper(200 * time.Millisecond))

	idx, err := tryjoin.TimedJoinAny(time.Second, done, live)
	require.ErrorIs(t, err, tryjoin.ErrAlreadyJoined)
	require.Equal(t, -1, idx)

	_, err = live.Join()
	require.NoError(t, err)
}

func TestUnsupportedPlatformContract(t *testing.T) {
	ok, reason := tryjoin.Supported()
	if ok {
		require.NoError(t, reason)
		t.Skip("platform supports polling; unsupported contract not reachable")
	}
	require.ErrorIs(t, reason, tryjoin.ErrUnsupported)

	th := tryjoin.Spawn(func() (int, error) { return 9, nil })

	// Polls fail deterministically and without blocking...
	start := time.Now()
	require.ErrorIs(t, th.TryJoin(), tryjoin.ErrUnsupported)
	require.ErrorIs(t, th.TimedJoin(10*time.Second), tryjoin.ErrUnsupported)
	require.Less(t, time.Since(start), time.Second)

	// ...while the ordinary blocking join still works.
	n, err := th.Join()
	require.NoError(t, err)
	require.Equal(t, 9, n)
}

func TestSupportedIsStable(t *testing.T) {
	ok1, reason1 := tryjoin.Supported()
	ok2, reason2 := tryjoin.Supported()
	require.Equal(t, ok1, ok2)
	require.Equal(t, reason1, reason2)
}
