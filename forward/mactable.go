// Package forward implements the forwarding plane (§4.F): Ethernet-address
// learning and lookup for TAP mode, single-peer forwarding for TUN mode,
// and the shared Eth-addr table both read.
package forward

import (
	"time"

	"github.com/hwhw/fastd/peer"
)

type macEntry struct {
	peer     *peer.Peer
	lastSeen time.Time
}

// MACTable maps learned Ethernet source addresses to the peer they were
// last seen behind (§3 "Eth-addr table"). It is owned by the scheduler
// goroutine; no internal locking (§5 concurrency model).
type MACTable struct {
	staleAfter time.Duration
	entries    map[peer.MAC]macEntry
}

// NewMACTable builds an empty table evicting entries idle beyond
// staleAfter (eth_addr_stale_time, default 300s).
func NewMACTable(staleAfter time.Duration) *MACTable {
	return &MACTable{staleAfter: staleAfter, entries: make(map[peer.MAC]macEntry)}
}

// Learn records or refreshes mac as reachable through p (§4.F "Learning:
// on inbound decrypted frame, extract source MAC and insert (mac -> peer,
// now)... refresh timestamp on subsequent traffic").
func (t *MACTable) Learn(mac peer.MAC, p *peer.Peer, now time.Time) {
	t.entries[mac] = macEntry{peer: p, lastSeen: now}
	p.LearnMAC(mac)
}

// Lookup resolves mac to its owning peer, if learned and not stale.
func (t *MACTable) Lookup(mac peer.MAC, now time.Time) (*peer.Peer, bool) {
	e, ok := t.entries[mac]
	if !ok {
		return nil, false
	}
	if now.Sub(e.lastSeen) > t.staleAfter {
		delete(t.entries, mac)
		e.peer.ForgetMAC(mac)
		return nil, false
	}
	return e.peer, true
}

// Purge evicts every entry idle beyond staleAfter (maintenance tick, §4.G).
func (t *MACTable) Purge(now time.Time) {
	for mac, e := range t.entries {
		if now.Sub(e.lastSeen) > t.staleAfter {
			delete(t.entries, mac)
			e.peer.ForgetMAC(mac)
		}
	}
}

// RemovePeer purges every entry pointing at p (§3 "evicted when... the
// peer is destroyed").
func (t *MACTable) RemovePeer(p *peer.Peer) {
	for mac, e := range t.entries {
		if e.peer == p {
			delete(t.entries, mac)
		}
	}
	p.LearnedMACs = make(map[peer.MAC]struct{})
}

// Len reports the number of currently-tracked entries (for tests/metrics).
func (t *MACTable) Len() int { return len(t.entries) }
