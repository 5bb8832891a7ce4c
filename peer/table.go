package peer

import (
	"encoding/hex"
	"fmt"

	"github.com/hwhw/fastd/domain/peeraddr"
)

// ErrMaxConnections is returned when admitting a peer would exceed its
// group's max_connections cap (§3 "Peer group").
type ErrMaxConnections struct {
	Group string
	Max   int
}

func (e *ErrMaxConnections) Error() string {
	return fmt.Sprintf("peer group %q: max_connections (%d) reached", e.Group, e.Max)
}

// Table indexes runtime peers by remote socket address and by static
// public-key identity (§3 "Peer table owns peer records, indexes by
// identity... and by remote socket address", §4.E).
type Table struct {
	byAddr   map[string]*Peer
	byPubkey map[string]*Peer
	groupCnt map[*Group]int
	order    []*Peer // stable iteration order for maintenance sweeps
}

// NewTable builds an empty peer table.
func NewTable() *Table {
	return &Table{
		byAddr:   make(map[string]*Peer),
		byPubkey: make(map[string]*Peer),
		groupCnt: make(map[*Group]int),
	}
}

func pubkeyKey(pub []byte) string { return hex.EncodeToString(pub) }

func isFloatingAddr(a peeraddr.Address) bool { return a.Floating }

// Insert admits p into the table, indexing it by public key and, if it
// already has a concrete remote address, by that address too. Returns
// ErrMaxConnections if p's group is at capacity.
func (t *Table) Insert(p *Peer) error {
	if g := p.Config.Group; g != nil && g.MaxConnections >= 0 {
		if t.groupCnt[g] >= g.MaxConnections {
			return &ErrMaxConnections{Group: g.Name, Max: g.MaxConnections}
		}
	}
	t.byPubkey[pubkeyKey(p.Config.PublicKey)] = p
	if !isFloatingAddr(p.RemoteAddr) {
		t.byAddr[p.RemoteAddr.String()] = p
	}
	if g := p.Config.Group; g != nil {
		t.groupCnt[g]++
	}
	t.order = append(t.order, p)
	return nil
}

// Remove drops p from every index and purges its group accounting.
func (t *Table) Remove(p *Peer) {
	delete(t.byPubkey, pubkeyKey(p.Config.PublicKey))
	delete(t.byAddr, p.RemoteAddr.String())
	if g := p.Config.Group; g != nil {
		if t.groupCnt[g] > 0 {
			t.groupCnt[g]--
		}
	}
	for i, q := range t.order {
		if q == p {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// ByAddr looks up a peer by its current remote socket address (§4.E step
// 1: "PACKET_DATA -> find peer by remote address").
func (t *Table) ByAddr(addr peeraddr.Address) (*Peer, bool) {
	p, ok := t.byAddr[addr.String()]
	return p, ok
}

// ByPublicKey looks up a peer by its static identity (§4.E step 2:
// "PACKET_HANDSHAKE -> ... look up by public key").
func (t *Table) ByPublicKey(pub []byte) (*Peer, bool) {
	p, ok := t.byPubkey[pubkeyKey(pub)]
	return p, ok
}

// Rebind updates p's address index after a roaming event (§4.E "Address
// rebinding", §8 invariant 7): the caller must already have gated this on
// a successful MAC check against p's session.
func (t *Table) Rebind(p *Peer, addr peeraddr.Address) {
	delete(t.byAddr, p.RemoteAddr.String())
	p.RemoteAddr = addr
	if !isFloatingAddr(addr) {
		t.byAddr[addr.String()] = p
	}
}

// All returns every peer currently in the table, in insertion order.
func (t *Table) All() []*Peer {
	out := make([]*Peer, len(t.order))
	copy(out, t.order)
	return out
}

// Floating reports whether a peer config allows roaming (used by the
// demux to decide whether an unmatched source address may still belong
// to an existing, floating peer pending session confirmation).
func Floating(p *Peer) bool { return p.Config.Floating }
