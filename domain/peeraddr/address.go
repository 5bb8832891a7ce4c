// Package peeraddr models the tagged-union peer address described in §3:
// IPv4, IPv6 (with an optional link-local scope index), or "floating"
// (unspecified, discovered at handshake time).
package peeraddr

import (
	"fmt"
	"net/netip"
)

// Address is a tagged union over the three address kinds a peer may have.
type Address struct {
	// Floating is true when no concrete remote endpoint is known yet.
	Floating bool
	addr     netip.AddrPort
	// Zone carries the IPv6 scope/interface index for link-local addresses.
	Zone string
}

// Floating returns the unspecified, floating address.
func Floating() Address {
	return Address{Floating: true}
}

// FromAddrPort builds a concrete address, simplifying IPv4-mapped IPv6
// addresses down to plain IPv4 as required by §3 ("simplified on ingestion").
func FromAddrPort(ap netip.AddrPort) Address {
	a := ap.Addr()
	if a.Is4In6() {
		ap = netip.AddrPortFrom(a.Unmap(), ap.Port())
	}
	return Address{addr: ap, Zone: ap.Addr().Zone()}
}

// AddrPort returns the concrete endpoint. Calling it on a floating address
// returns the zero value; callers must check Floating first.
func (a Address) AddrPort() netip.AddrPort {
	return a.addr
}

// IsIPv6LinkLocal reports whether this is a link-local IPv6 address, in
// which case Zone may carry a bind interface.
func (a Address) IsIPv6LinkLocal() bool {
	return !a.Floating && a.addr.Addr().Is6() && a.addr.Addr().IsLinkLocalUnicast()
}

func (a Address) String() string {
	if a.Floating {
		return "floating"
	}
	return a.addr.String()
}

// Equal reports whether two addresses name the same endpoint. Two floating
// addresses are never equal to each other or to anything else — a floating
// peer's identity is established at the session layer, not by address.
func (a Address) Equal(o Address) bool {
	if a.Floating || o.Floating {
		return false
	}
	return a.addr == o.addr
}

// Validate rejects addresses that cannot appear on the wire: zero port for
// a concrete address, or a unicast-scope mismatch between family and zone.
func (a Address) Validate() error {
	if a.Floating {
		return nil
	}
	if !a.addr.IsValid() {
		return fmt.Errorf("peeraddr: invalid address")
	}
	if a.addr.Port() == 0 {
		return fmt.Errorf("peeraddr: zero port")
	}
	if a.Zone != "" && !a.IsIPv6LinkLocal() {
		return fmt.Errorf("peeraddr: zone %q on a non-link-local address", a.Zone)
	}
	return nil
}
