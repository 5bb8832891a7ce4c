package handshake

import (
	"testing"
	"time"
)

func TestStateMachineHappyPath(t *testing.T) {
	m := NewStateMachine(time.Second)
	base := time.Unix(0, 0)

	stage, err := m.Trigger(base)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if stage != StageInit || m.State() != StateSentInit {
		t.Fatalf("expected sent-init, got stage=%d state=%s", stage, m.State())
	}

	if err := m.OnResponse(base.Add(100 * time.Millisecond)); err != nil {
		t.Fatalf("OnResponse: %v", err)
	}
	if m.State() != StateSentFinish {
		t.Fatalf("expected sent-finish, got %s", m.State())
	}

	if err := m.OnEstablished(); err != nil {
		t.Fatalf("OnEstablished: %v", err)
	}
	if m.State() != StateIdle {
		t.Fatalf("expected idle after establish, got %s", m.State())
	}
}

func TestStateMachineRetryThenGiveUp(t *testing.T) {
	m := NewStateMachine(time.Second)
	base := time.Unix(0, 0)
	if _, err := m.Trigger(base); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	now := base
	for attempt := 1; attempt < MaxHandshakeAttempts; attempt++ {
		now = now.Add(backoffDelay(time.Second, attempt) + time.Millisecond)
		retry, gaveUp := m.CheckTimeout(now)
		if !retry || gaveUp {
			t.Fatalf("attempt %d: expected retry, got retry=%v gaveUp=%v", attempt, retry, gaveUp)
		}
		if m.Attempt() != attempt+1 {
			t.Fatalf("attempt %d: expected counter %d, got %d", attempt, attempt+1, m.Attempt())
		}
	}

	now = now.Add(backoffDelay(time.Second, MaxHandshakeAttempts) + time.Millisecond)
	retry, gaveUp := m.CheckTimeout(now)
	if retry || !gaveUp {
		t.Fatalf("expected give-up after %d attempts, got retry=%v gaveUp=%v", MaxHandshakeAttempts, retry, gaveUp)
	}
	if m.State() != StateIdle {
		t.Fatalf("expected idle after give-up, got %s", m.State())
	}
}

func TestStateMachineNoTimeoutBeforeDeadline(t *testing.T) {
	m := NewStateMachine(time.Second)
	base := time.Unix(0, 0)
	m.Trigger(base)

	retry, gaveUp := m.CheckTimeout(base.Add(500 * time.Millisecond))
	if retry || gaveUp {
		t.Fatal("must not time out before the deadline")
	}
}

func TestStateMachineOnErrorResetsFromAnyState(t *testing.T) {
	m := NewStateMachine(time.Second)
	base := time.Unix(0, 0)
	m.Trigger(base)
	m.OnResponse(base)
	m.OnError()
	if m.State() != StateIdle {
		t.Fatalf("expected idle after error, got %s", m.State())
	}
	if m.Attempt() != 0 {
		t.Fatalf("expected attempt counter reset, got %d", m.Attempt())
	}
}

func TestStateMachineRejectsOutOfOrderTransitions(t *testing.T) {
	m := NewStateMachine(time.Second)
	if err := m.OnResponse(time.Unix(0, 0)); err == nil {
		t.Fatal("OnResponse from Idle must fail")
	}
	if err := m.OnEstablished(); err == nil {
		t.Fatal("OnEstablished from Idle must fail")
	}
	m.Trigger(time.Unix(0, 0))
	if _, err := m.Trigger(time.Unix(1, 0)); err == nil {
		t.Fatal("Trigger while already sent-init must fail")
	}
}
