package peer

import (
	"testing"
	"time"

	"github.com/hwhw/fastd/crypto/primitives"
	"github.com/hwhw/fastd/method"
)

func newTestSession(t *testing.T, isInitiator bool) *method.Session {
	t.Helper()
	prov := method.NewProvider(primitives.NewRegistry())
	m, err := prov.CreateByName("null-gmac")
	if err != nil {
		t.Fatalf("CreateByName: %v", err)
	}
	sess, err := m.SessionInit(nil, nil, make([]byte, 16), isInitiator, method.SessionParams{
		KeyRefresh:      time.Hour,
		KeyRefreshSplay: 0,
		KeyValidOld:     time.Minute,
	})
	if err != nil {
		t.Fatalf("SessionInit: %v", err)
	}
	return sess
}

func TestPeerInstallSessionSupersedesPrevious(t *testing.T) {
	p := New(testConfig("x", 1, false), time.Second)
	now := time.Now()

	first := newTestSession(t, true)
	p.InstallSession(first, now)
	if p.Current != first || p.Previous != nil {
		t.Fatal("first install must become Current with no Previous")
	}

	second := newTestSession(t, true)
	p.InstallSession(second, now)
	if p.Current != second {
		t.Fatal("second install must become Current")
	}
	if p.Previous != first {
		t.Fatal("superseded session must move to Previous")
	}
	if !first.Superseded() {
		t.Fatal("old Current must be marked superseded")
	}
}

func TestPeerReapExpiredSession(t *testing.T) {
	p := New(testConfig("y", 1, false), time.Second)
	now := time.Now()

	first := newTestSession(t, true)
	p.InstallSession(first, now)
	second := newTestSession(t, true)
	p.InstallSession(second, now)

	p.ReapExpiredSession(now.Add(30 * time.Second))
	if p.Previous == nil {
		t.Fatal("previous must still be present before key_valid_old elapses")
	}

	p.ReapExpiredSession(now.Add(2 * time.Minute))
	if p.Previous != nil {
		t.Fatal("previous must be reaped after key_valid_old elapses")
	}
}

func TestPeerStale(t *testing.T) {
	p := New(testConfig("z", 1, false), time.Second)
	now := time.Now()
	if p.Stale(now.Add(time.Minute), 90*time.Second) {
		t.Fatal("fresh peer must not be stale before peer_stale_time")
	}
	if !p.Stale(now.Add(2*time.Minute), 90*time.Second) {
		t.Fatal("peer must be stale after peer_stale_time with no traffic")
	}
}
