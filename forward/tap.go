package forward

import (
	"time"

	"github.com/hwhw/fastd/peer"
)

// Sender delivers an already-classified plaintext frame to one peer. The
// forwarding plane never touches crypto directly; encryption and the
// actual socket write live one layer up (§4.F describes forwarding as
// "lookup peer... encrypt to that peer", but encryption is the method
// layer's job, done by daemon.Core's SendTo).
type Sender interface {
	SendTo(p *peer.Peer, frame []byte) error
}

// TAP implements TAP-mode forwarding (§4.F): outbound frames are learned
// by source MAC and routed by destination MAC, falling back to flooding
// every established peer for broadcast, multicast, or unknown unicast
// destinations.
type TAP struct {
	Table *peer.Table
	MACs  *MACTable
}

// NewTAP builds a TAP forwarder over an existing peer table and
// Eth-addr table.
func NewTAP(table *peer.Table, macs *MACTable) *TAP {
	return &TAP{Table: table, MACs: macs}
}

// LearnFromDecrypted records the frame's source MAC against p (§4.F
// "Learning"), to be called after a successful inbound decrypt, before the
// frame is written to the tunnel device.
func (f *TAP) LearnFromDecrypted(p *peer.Peer, frame []byte, now time.Time) error {
	_, src, err := parseEthernetAddrs(frame)
	if err != nil {
		return err
	}
	if !isMulticast(src) && !isZero(src) {
		f.MACs.Learn(src, p, now)
	}
	return nil
}

// Forward routes an outbound frame read from the tunnel device to the
// peer(s) that should receive it, per §4.F: a known unicast destination
// goes to its learned peer; everything else (broadcast, multicast, or an
// unknown unicast address) floods every established peer.
func (f *TAP) Forward(frame []byte, now time.Time, send Sender) error {
	dst, _, err := parseEthernetAddrs(frame)
	if err != nil {
		return err
	}

	if !isMulticast(dst) {
		if p, ok := f.MACs.Lookup(dst, now); ok {
			if p.Established() {
				return send.SendTo(p, frame)
			}
			return nil
		}
	}

	for _, p := range f.Table.All() {
		if !p.Established() {
			continue
		}
		if err := send.SendTo(p, frame); err != nil {
			return err
		}
	}
	return nil
}
