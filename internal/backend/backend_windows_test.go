//go:build windows

package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestWaitErrorWithoutCause(t *testing.T) {
	// WAIT_ABANDONED arrives with a nil error; the message must still name
	// the event instead of degrading into a broken wrap verb.
	err := waitError("WaitForSingleObject", uint32(windows.WAIT_ABANDONED), nil)
	require.Error(t, err)
	require.NotContains(t, err.Error(), "%!w")
	require.Contains(t, err.Error(), "0x80")
}

func TestWaitErrorPreservesCause(t *testing.T) {
	err := waitError("WaitForSingleObject", uint32(windows.WAIT_FAILED), windows.ERROR_INVALID_HANDLE)
	require.ErrorIs(t, err, windows.ERROR_INVALID_HANDLE)
}
