package forward

import (
	"errors"

	"github.com/hwhw/fastd/peer"
)

// ErrNoTUNPeer is returned when TUN forwarding is attempted before a
// single peer has been bound to the tunnel (§4.F: "TUN: at most one
// peer").
var ErrNoTUNPeer = errors.New("forward: no peer bound to tun device")

// TUN implements TUN-mode forwarding: every tunnel-device packet goes to
// exactly one configured peer, with no address learning or demux (§4.F).
type TUN struct {
	Peer *peer.Peer
}

// NewTUN binds a TUN forwarder to its single peer.
func NewTUN(p *peer.Peer) *TUN {
	return &TUN{Peer: p}
}

// Forward sends packet to the bound peer, if established.
func (f *TUN) Forward(packet []byte, send Sender) error {
	if f.Peer == nil {
		return ErrNoTUNPeer
	}
	if !f.Peer.Established() {
		return nil
	}
	return send.SendTo(f.Peer, packet)
}
