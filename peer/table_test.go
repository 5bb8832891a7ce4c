package peer

import (
	"net/netip"
	"testing"
	"time"

	"github.com/hwhw/fastd/domain/peeraddr"
)

func testConfig(name string, pub byte, floating bool) *Config {
	key := make([]byte, 32)
	key[0] = pub
	return &Config{Name: name, PublicKey: key, Floating: floating}
}

func TestTableInsertLookupRemove(t *testing.T) {
	tbl := NewTable()
	p := New(testConfig("a", 1, false), time.Second)
	p.RemoteAddr = peeraddr.FromAddrPort(netip.MustParseAddrPort("10.0.0.1:1234"))

	if err := tbl.Insert(p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got, ok := tbl.ByAddr(p.RemoteAddr); !ok || got != p {
		t.Fatal("expected to find peer by address")
	}
	if got, ok := tbl.ByPublicKey(p.Config.PublicKey); !ok || got != p {
		t.Fatal("expected to find peer by public key")
	}

	tbl.Remove(p)
	if _, ok := tbl.ByAddr(p.RemoteAddr); ok {
		t.Fatal("peer must be gone after Remove")
	}
	if _, ok := tbl.ByPublicKey(p.Config.PublicKey); ok {
		t.Fatal("peer must be gone from pubkey index after Remove")
	}
}

func TestTableFloatingPeerNotIndexedByAddr(t *testing.T) {
	tbl := NewTable()
	p := New(testConfig("floaty", 2, true), time.Second)
	if err := tbl.Insert(p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(tbl.byAddr) != 0 {
		t.Fatal("a floating peer must not be indexed by address")
	}
	cands := tbl.FloatingCandidates()
	if len(cands) != 1 || cands[0] != p {
		t.Fatal("expected the floating peer to be a candidate")
	}
}

func TestTableMaxConnections(t *testing.T) {
	tbl := NewTable()
	g := NewRootGroup("limited")
	g.MaxConnections = 1

	c1 := testConfig("p1", 1, false)
	c1.Group = g
	c2 := testConfig("p2", 2, false)
	c2.Group = g

	p1 := New(c1, time.Second)
	p1.RemoteAddr = peeraddr.FromAddrPort(netip.MustParseAddrPort("10.0.0.1:1"))
	p2 := New(c2, time.Second)
	p2.RemoteAddr = peeraddr.FromAddrPort(netip.MustParseAddrPort("10.0.0.2:1"))

	if err := tbl.Insert(p1); err != nil {
		t.Fatalf("first insert should succeed: %v", err)
	}
	if err := tbl.Insert(p2); err == nil {
		t.Fatal("second insert should fail on max_connections")
	}
}

func TestTryRoamGatedByChange(t *testing.T) {
	tbl := NewTable()
	p := New(testConfig("roamer", 3, true), time.Second)
	a := peeraddr.FromAddrPort(netip.MustParseAddrPort("10.0.0.1:1"))
	b := peeraddr.FromAddrPort(netip.MustParseAddrPort("10.0.0.2:2"))
	p.RemoteAddr = a
	tbl.Insert(p)

	if tbl.TryRoam(p, a) {
		t.Fatal("same address must not count as roaming")
	}
	if !tbl.TryRoam(p, b) {
		t.Fatal("new address must trigger roaming")
	}
	if got, ok := tbl.ByAddr(b); !ok || got != p {
		t.Fatal("peer must now be indexed at the new address")
	}
	if _, ok := tbl.ByAddr(a); ok {
		t.Fatal("peer must no longer be indexed at the old address")
	}
}

func TestByMAC(t *testing.T) {
	tbl := NewTable()
	p := New(testConfig("tap-peer", 4, false), time.Second)
	p.RemoteAddr = peeraddr.FromAddrPort(netip.MustParseAddrPort("10.0.0.1:1"))
	tbl.Insert(p)

	mac := MAC{0x02, 0, 0, 0, 0, 1}
	p.LearnMAC(mac)

	got, ok := tbl.ByMAC(mac)
	if !ok || got != p {
		t.Fatal("expected to resolve peer by learned MAC")
	}

	p.ForgetMAC(mac)
	if _, ok := tbl.ByMAC(mac); ok {
		t.Fatal("MAC must be gone after ForgetMAC")
	}
}
