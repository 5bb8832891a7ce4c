package peer

import (
	"errors"

	"github.com/hwhw/fastd/domain/peeraddr"
)

// PacketKind mirrors the leading byte of every datagram (handshake §6 wire
// format reuses the same PacketType; it is redeclared here to keep the
// peer package independent of the handshake package's internal layout).
type PacketKind byte

const (
	PacketData      PacketKind = 0
	PacketHandshake PacketKind = 1
)

// ErrUnknownSource is returned when a data packet arrives from an address
// that matches no peer and no floating peer can be credited with it yet
// (§4.E step 1: "otherwise drop").
var ErrUnknownSource = errors.New("peer: datagram from unknown source dropped")

// ClassifyData resolves an inbound PACKET_DATA datagram's source address to
// a peer, per §4.E step 1. allowFloatingMatch is true in TAP mode and false
// in TUN mode, since a TUN tunnel interface addresses exactly one peer. An
// unmatched source yields ErrUnknownSource either way; the caller tries the
// peers from FloatingCandidates only when allowFloatingMatch holds.
func (t *Table) ClassifyData(src peeraddr.Address, allowFloatingMatch bool) (*Peer, error) {
	if p, ok := t.ByAddr(src); ok {
		return p, nil
	}
	if !allowFloatingMatch {
		return nil, ErrUnknownSource
	}
	// No address match: a floating peer may still own this datagram, but
	// that can only be confirmed once its session successfully decrypts
	// the payload (§4.E: "match the peer whose identity is later
	// confirmed at session layer"). The demux itself cannot pick one
	// floating peer over another; the caller tries each peer from
	// FloatingCandidates via Decrypt.
	return nil, ErrUnknownSource
}

// FloatingCandidates returns every peer configured as floating, for the
// caller to attempt decryption against when ClassifyData finds no address
// match (§4.E).
func (t *Table) FloatingCandidates() []*Peer {
	var out []*Peer
	for _, p := range t.order {
		if Floating(p) {
			out = append(out, p)
		}
	}
	return out
}

// TryRoam updates p's indexed address to src if it differs from its
// current one. The caller must only invoke this after a packet from src
// has been successfully authenticated under p's session (§4.E "Address
// rebinding... gated on a successful MAC check", §8 invariant 7).
func (t *Table) TryRoam(p *Peer, src peeraddr.Address) bool {
	if p.RemoteAddr.Equal(src) {
		return false
	}
	t.Rebind(p, src)
	return true
}

// ByMAC looks up the peer a learned Ethernet source address belongs to,
// for handshake-triggering purposes distinct from the forwarding plane's
// own Eth-addr table (§4.E key (c): "by MAC address -> peer for TAP
// outbound").
func (t *Table) ByMAC(mac MAC) (*Peer, bool) {
	for _, p := range t.order {
		if _, ok := p.LearnedMACs[mac]; ok {
			return p, true
		}
	}
	return nil, false
}
