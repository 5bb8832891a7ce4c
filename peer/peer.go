package peer

import (
	"time"

	"github.com/hwhw/fastd/domain/peeraddr"
	"github.com/hwhw/fastd/handshake"
	"github.com/hwhw/fastd/method"
)

// MAC is a 6-byte Ethernet address, used as the Eth-addr table key (§3,
// §4.F) and mirrored per-peer so a peer removal can purge its entries
// without scanning the whole table.
type MAC [6]byte

// Peer is the runtime record for a configured or dynamically discovered
// peer (§3 "Peer"). There is exactly one executor (§5: "single-threaded,
// cooperative"), so Peer carries no locks; it is only ever touched by the
// scheduler goroutine.
type Peer struct {
	Config *Config

	RemoteAddr    peeraddr.Address
	LastReceiveAt time.Time
	LastHandshake time.Time
	RefreshAt     time.Time

	Handshake *handshake.StateMachine

	Current  *method.Session
	Previous *method.Session

	LearnedMACs map[MAC]struct{}

	createdAt time.Time
}

// New builds a runtime peer for cfg, seeded with an idle handshake state
// machine. baseHandshakeDelay is the initial retry timeout fed to the
// state machine's exponential backoff.
func New(cfg *Config, baseHandshakeDelay time.Duration) *Peer {
	return &Peer{
		Config:      cfg,
		RemoteAddr:  peeraddr.Floating(),
		Handshake:   handshake.NewStateMachine(baseHandshakeDelay),
		LearnedMACs: make(map[MAC]struct{}),
		createdAt:   time.Now(),
	}
}

// Established reports whether the peer has a usable, non-superseded
// session to encrypt traffic with right now.
func (p *Peer) Established() bool {
	return p.Current != nil && !p.Current.Superseded()
}

// Stale reports whether the peer has received nothing for longer than
// staleTimeout (§4.G maintenance tick: "drop those idle beyond
// peer_stale_time").
func (p *Peer) Stale(now time.Time, staleTimeout time.Duration) bool {
	last := p.LastReceiveAt
	if last.IsZero() {
		last = p.createdAt
	}
	return now.Sub(last) > staleTimeout
}

// InstallSession makes sess the current session, superseding (not
// dropping) whatever was current, and frees whatever was previous whether
// or not its key_valid_old window has elapsed, since a peer only ever
// holds two sessions at once (§3 "at most two per peer").
func (p *Peer) InstallSession(sess *method.Session, now time.Time) {
	if p.Previous != nil {
		p.Previous.Free()
	}
	if p.Current != nil {
		p.Current.Supersede(now)
	}
	p.Previous = p.Current
	p.Current = sess
}

// ReapExpiredSession drops Previous once its key_valid_old overlap window
// has elapsed (§3 "Session state", §8 invariant 6).
func (p *Peer) ReapExpiredSession(now time.Time) {
	if p.Previous != nil && p.Previous.Expired(now) {
		p.Previous.Free()
		p.Previous = nil
	}
}

// Teardown releases all per-peer cryptographic state. Called exactly once
// during peer destruction (§5 resource acquisition).
func (p *Peer) Teardown() {
	if p.Current != nil {
		p.Current.Free()
		p.Current = nil
	}
	if p.Previous != nil {
		p.Previous.Free()
		p.Previous = nil
	}
}

// LearnMAC records that mac is reachable through this peer.
func (p *Peer) LearnMAC(mac MAC) {
	p.LearnedMACs[mac] = struct{}{}
}

// ForgetMAC drops a previously learned address, e.g. on eviction from the
// shared Eth-addr table.
func (p *Peer) ForgetMAC(mac MAC) {
	delete(p.LearnedMACs, mac)
}
