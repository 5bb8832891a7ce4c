package handshake

import (
	"fmt"
	"time"
)

// State is the initiator-side handshake state (§4.D). The responder side
// is stateless: it answers each valid Init with a Response and each valid
// Finish with a session install, without tracking retries of its own.
type State int

const (
	StateIdle State = iota
	StateSentInit
	StateSentFinish
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSentInit:
		return "sent-init"
	case StateSentFinish:
		return "sent-finish"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MaxHandshakeAttempts bounds the retry count before a handshake attempt
// is abandoned (§4.D: "SENT_INIT --(timeout)--> retry up to 5 with
// exponential backoff").
const MaxHandshakeAttempts = 5

func backoffDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// StateMachine drives one peer's initiator-side handshake attempt. It
// owns retry/backoff bookkeeping and the Init/Response/Finish stage
// transitions but never touches the network itself: callers obtain the
// stage to (re)send from Trigger/CheckTimeout and feed received packets
// in via OnResponse/OnEstablished/OnError. This mirrors how the method
// layer's Session is a pure state object driven by an outer I/O loop.
type StateMachine struct {
	state     State
	attempt   int
	sentAt    time.Time
	baseDelay time.Duration
}

// NewStateMachine builds an idle state machine. baseDelay is the initial
// retry timeout; it doubles on each of up to MaxHandshakeAttempts tries.
func NewStateMachine(baseDelay time.Duration) *StateMachine {
	return &StateMachine{state: StateIdle, baseDelay: baseDelay}
}

// State reports the current handshake state.
func (m *StateMachine) State() State { return m.state }

// Attempt reports the 1-based attempt count of the current stage, or 0 if
// idle.
func (m *StateMachine) Attempt() int { return m.attempt }

// Trigger starts a new handshake attempt from Idle, returning StageInit
// for the caller to build and send.
func (m *StateMachine) Trigger(now time.Time) (Stage, error) {
	if m.state != StateIdle {
		return 0, fmt.Errorf("handshake: Trigger called in state %s", m.state)
	}
	m.state = StateSentInit
	m.attempt = 1
	m.sentAt = now
	return StageInit, nil
}

// Deadline reports when the currently outstanding stage will next be
// considered timed out.
func (m *StateMachine) Deadline() time.Time {
	return m.sentAt.Add(backoffDelay(m.baseDelay, m.attempt))
}

// CheckTimeout is called by the maintenance tick for every peer with an
// outstanding handshake. If the deadline has passed it either signals a
// retransmission of the same stage (retry=true, with the attempt counter
// and sentAt already advanced) or, past MaxHandshakeAttempts, abandons the
// attempt and returns to Idle (gaveUp=true).
func (m *StateMachine) CheckTimeout(now time.Time) (retry, gaveUp bool) {
	if m.state == StateIdle {
		return false, false
	}
	if now.Before(m.Deadline()) {
		return false, false
	}
	if m.attempt >= MaxHandshakeAttempts {
		m.state = StateIdle
		m.attempt = 0
		return false, true
	}
	m.attempt++
	m.sentAt = now
	return true, false
}

// OnResponse advances SENT_INIT -> SENT_FINISH on receipt of a valid
// Response packet, resetting the retry counter for the new stage.
func (m *StateMachine) OnResponse(now time.Time) error {
	if m.state != StateSentInit {
		return fmt.Errorf("handshake: unexpected response in state %s", m.state)
	}
	m.state = StateSentFinish
	m.attempt = 1
	m.sentAt = now
	return nil
}

// OnEstablished completes SENT_FINISH -> INSTALL_SESSION -> IDLE (§4.D).
// No success reply to the Finish stage is awaited: the daemon calls this
// right after installing its session on a valid Response, before it sends
// the Finish. The state machine has no distinct INSTALL_SESSION state: the
// caller installs the session synchronously before this returns, so no
// window exists in which a concurrent Trigger could race the installation.
func (m *StateMachine) OnEstablished() error {
	if m.state != StateSentFinish {
		return fmt.Errorf("handshake: unexpected establish in state %s", m.state)
	}
	m.state = StateIdle
	m.attempt = 0
	return nil
}

// OnError abandons the in-flight attempt on a protocol error reply or a
// malformed packet (§4.D: "any --(recv error)--> IDLE (log + backoff)").
// The backoff itself is enforced by the handshake rate limiter on the
// next Trigger, not by this method.
func (m *StateMachine) OnError() {
	m.state = StateIdle
	m.attempt = 0
}

// Reset forces the machine back to Idle, e.g. when its peer is destroyed
// or roams to a different remote address mid-handshake.
func (m *StateMachine) Reset() {
	m.state = StateIdle
	m.attempt = 0
}
