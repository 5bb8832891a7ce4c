package peeraddr

import (
	"net/netip"
	"testing"
)

func TestFromAddrPortUnmapsIPv4(t *testing.T) {
	mapped := netip.MustParseAddrPort("[::ffff:192.0.2.1]:1234")
	a := FromAddrPort(mapped)
	if !a.AddrPort().Addr().Is4() {
		t.Fatalf("expected simplified IPv4 address, got %v", a.AddrPort())
	}
	if a.AddrPort().Addr().String() != "192.0.2.1" {
		t.Fatalf("got %v", a.AddrPort())
	}
}

func TestFloatingNeverEqual(t *testing.T) {
	f1 := Floating()
	f2 := Floating()
	if f1.Equal(f2) {
		t.Fatal("floating addresses must never compare equal")
	}
	concrete := FromAddrPort(netip.MustParseAddrPort("198.51.100.1:1234"))
	if f1.Equal(concrete) || concrete.Equal(f1) {
		t.Fatal("floating must not equal a concrete address")
	}
}

func TestValidateRejectsZeroPort(t *testing.T) {
	a := FromAddrPort(netip.AddrPortFrom(netip.MustParseAddr("203.0.113.1"), 0))
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for zero port")
	}
}

func TestValidateAcceptsFloating(t *testing.T) {
	if err := Floating().Validate(); err != nil {
		t.Fatalf("floating address should always validate: %v", err)
	}
}
