package bitquery

import (
	"fmt"
	"time"
)

// State of the streaming connection lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// connFSM encodes the connection lifecycle as explicit transitions so the
// backoff and give-up behavior can be exercised without a socket.
//
//	Idle ──ConnectRequested──▶ Connecting ──Opened──▶ Open
//	Connecting/Open ──ConnLost──▶ Reconnecting(attempt) ──Opened──▶ Open
//	Reconnecting ──ConnLost (attempt > max)──▶ Failed
//	any ──DisconnectRequested──▶ Idle
type connFSM struct {
	state       State
	attempt     int
	baseDelay   time.Duration
	maxAttempts int
}

func newConnFSM(baseDelay time.Duration, maxAttempts int) *connFSM {
	return &connFSM{
		state:       StateIdle,
		baseDelay:   baseDelay,
		maxAttempts: maxAttempts,
	}
}

// ConnectRequested handles an explicit Connect call. It returns true when a
// new dial should be started; while a connection is live or in progress the
// call is a no-op (the caller only swaps its data callback).
func (f *connFSM) ConnectRequested() bool {
	switch f.state {
	case StateIdle, StateFailed:
		f.state = StateConnecting
		f.attempt = 0
		return true
	}
	return false
}

// Opened records a completed handshake.
func (f *connFSM) Opened() {
	f.state = StateOpen
	f.attempt = 0
}

// ConnLost handles a dial failure or socket close. It returns whether a
// reconnect should be scheduled and after what delay; once the attempt budget
// is spent the machine parks in Failed until the next explicit Connect.
func (f *connFSM) ConnLost() (retry bool, delay time.Duration) {
	if f.state == StateIdle || f.state == StateFailed {
		return false, 0
	}
	f.attempt++
	if f.attempt > f.maxAttempts {
		f.state = StateFailed
		return false, 0
	}
	f.state = StateReconnecting
	return true, f.baseDelay * time.Duration(f.attempt)
}

// DisconnectRequested handles an explicit Disconnect call.
func (f *connFSM) DisconnectRequested() {
	f.state = StateIdle
	f.attempt = 0
}

func (f *connFSM) State() State { return f.state }

func (f *connFSM) Attempt() int { return f.attempt }
