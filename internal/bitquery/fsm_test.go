package bitquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnFSMHappyPath(t *testing.T) {
	f := newConnFSM(time.Second, 5)
	assert.Equal(t, StateIdle, f.State())

	require.True(t, f.ConnectRequested())
	assert.Equal(t, StateConnecting, f.State())

	f.Opened()
	assert.Equal(t, StateOpen, f.State())
	assert.Equal(t, 0, f.Attempt())

	f.DisconnectRequested()
	assert.Equal(t, StateIdle, f.State())
}

func TestConnFSMConnectIsNoOpWhileLive(t *testing.T) {
	f := newConnFSM(time.Second, 5)

	require.True(t, f.ConnectRequested())
	// A second Connect while dialing must not start another dial.
	assert.False(t, f.ConnectRequested())

	f.Opened()
	assert.False(t, f.ConnectRequested())
	assert.Equal(t, StateOpen, f.State())
}

func TestConnFSMLinearBackoff(t *testing.T) {
	base := 2 * time.Second
	f := newConnFSM(base, 5)
	require.True(t, f.ConnectRequested())

	for i := 1; i <= 5; i++ {
		retry, delay := f.ConnLost()
		require.True(t, retry, "attempt %d should retry", i)
		assert.Equal(t, base*time.Duration(i), delay)
		assert.Equal(t, StateReconnecting, f.State())
		assert.Equal(t, i, f.Attempt())
	}

	// Budget spent: the sixth loss parks the machine in Failed.
	retry, delay := f.ConnLost()
	assert.False(t, retry)
	assert.Zero(t, delay)
	assert.Equal(t, StateFailed, f.State())
}

func TestConnFSMOpenedResetsAttemptCounter(t *testing.T) {
	f := newConnFSM(time.Second, 3)
	require.True(t, f.ConnectRequested())

	_, _ = f.ConnLost()
	_, _ = f.ConnLost()
	require.Equal(t, 2, f.Attempt())

	f.Opened()
	assert.Equal(t, 0, f.Attempt())

	// A fresh failure run gets the full budget again.
	for i := 1; i <= 3; i++ {
		retry, _ := f.ConnLost()
		require.True(t, retry)
	}
	retry, _ := f.ConnLost()
	assert.False(t, retry)
}

func TestConnFSMConnectClearsFailed(t *testing.T) {
	f := newConnFSM(time.Second, 1)
	require.True(t, f.ConnectRequested())
	_, _ = f.ConnLost()
	_, _ = f.ConnLost()
	require.Equal(t, StateFailed, f.State())

	// An explicit Connect is the only way out of Failed.
	assert.True(t, f.ConnectRequested())
	assert.Equal(t, StateConnecting, f.State())
	assert.Equal(t, 0, f.Attempt())
}

func TestConnFSMLossWhileIdleIsIgnored(t *testing.T) {
	f := newConnFSM(time.Second, 3)
	retry, _ := f.ConnLost()
	assert.False(t, retry)
	assert.Equal(t, StateIdle, f.State())
}
