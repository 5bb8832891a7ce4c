package daemon

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/hwhw/fastd/config"
	"github.com/hwhw/fastd/crypto/primitives"
	"github.com/hwhw/fastd/domain/peeraddr"
	"github.com/hwhw/fastd/external/hooks"
	"github.com/hwhw/fastd/external/resolver"
	"github.com/hwhw/fastd/external/tundevice"
	"github.com/hwhw/fastd/external/udpsocket"
	"github.com/hwhw/fastd/forward"
	"github.com/hwhw/fastd/handshake"
	"github.com/hwhw/fastd/logging"
	"github.com/hwhw/fastd/method"
	"github.com/hwhw/fastd/peer"
	"github.com/hwhw/fastd/scheduler"
)

// wireHeaderSize is the one leading byte every UDP datagram carries ahead
// of either the method layer's common header or a handshake record
// stream, used by the demux to tell them apart (§4.E: "Peek the first
// byte").
const wireHeaderSize = 1

// Core wires the peer table, forwarding plane, handshake state machines
// and method provider into the scheduler.Handlers contract: it is the
// daemon's single point of contact with all of them at once (§2 "Data
// flow").
type Core struct {
	store *config.Store

	table    *peer.Table
	macs     *forward.MACTable
	tap      *forward.TAP
	tun      *forward.TUN
	mode     handshake.Mode
	provider *method.Provider

	sockets  []*udpsocket.Socket
	tunDev   tundevice.Device
	hooksR   *hooks.Runner
	resolver *resolver.Resolver
	log      logging.Logger

	identity Identity
	attempts map[*peer.Peer]*attempt

	// resolving tracks peers with an outstanding hostname lookup, keyed
	// by peer, so HandleResolved can match a
	// result back to the peer that asked (§5 "communicates... via a
	// bounded request/response channel").
	resolving map[*peer.Peer]struct{}

	handshakeLimiter *handshake.RateLimiter
}

// New assembles a Core from a snapshot and already-opened external
// collaborators.
func New(store *config.Store, id Identity, tunDev tundevice.Device, sockets []*udpsocket.Socket, hooksR *hooks.Runner, res *resolver.Resolver, log logging.Logger) *Core {
	snap := store.Load()
	table := peer.NewTable()
	macs := forward.NewMACTable(snap.EthAddrStaleTime)

	c := &Core{
		store:            store,
		table:            table,
		macs:             macs,
		provider:         method.NewProvider(primitives.NewRegistry()),
		sockets:          sockets,
		tunDev:           tunDev,
		hooksR:           hooksR,
		resolver:         res,
		log:              log,
		identity:         id,
		attempts:         make(map[*peer.Peer]*attempt),
		resolving:        make(map[*peer.Peer]struct{}),
		handshakeLimiter: handshake.NewRateLimiter(snap.MinHandshakeInterval),
	}
	if snap.Mode == config.ModeTAP {
		c.mode = handshake.ModeTAP
		c.tap = forward.NewTAP(table, macs)
	} else {
		c.mode = handshake.ModeTUN
	}
	for _, pc := range snap.Peers {
		p := peer.New(pc, time.Second)
		if addr, ok := firstLiteralAddr(pc); ok {
			p.RemoteAddr = addr
		}
		if err := table.Insert(p); err != nil {
			log.Printf("peer %q: %v", pc.Name, err)
			continue
		}
		if c.mode == handshake.ModeTUN && !pc.Floating {
			c.tun = forward.NewTUN(p)
		}
	}
	return c
}

// firstLiteralAddr returns the first configured remote that names a
// concrete address rather than a hostname, seeding a non-floating peer's
// RemoteAddr before its first handshake attempt so it never needs the
// resolver at all (§3 "Peer configuration": remotes may be literal or
// hostname-based).
func firstLiteralAddr(pc *peer.Config) (peeraddr.Address, bool) {
	for _, r := range pc.Remotes {
		if r.Hostname == "" && !r.Addr.Floating {
			return r.Addr, true
		}
	}
	return peeraddr.Address{}, false
}

// SendTo implements forward.Sender: it encrypts frame under p's current
// session and writes it to p's remote address, prefixed with the
// PACKET_DATA demux byte.
func (c *Core) SendTo(p *peer.Peer, frame []byte) error {
	if p.Current == nil || p.Current.Superseded() {
		return fmt.Errorf("daemon: no usable session for peer %q", p.Config.Name)
	}
	m, ok := c.methodFor(p)
	if !ok {
		return fmt.Errorf("daemon: no method resolved for peer %q", p.Config.Name)
	}

	encrypted, err := m.Encrypt(p.Current, frame, nil)
	if err != nil {
		return fmt.Errorf("daemon: encrypt to %q: %w", p.Config.Name, err)
	}

	out := make([]byte, wireHeaderSize+len(encrypted))
	out[0] = byte(peer.PacketData)
	copy(out[wireHeaderSize:], encrypted)

	if len(c.sockets) == 0 {
		return fmt.Errorf("daemon: no bound sockets")
	}
	return c.sockets[0].WriteTo(out, p.RemoteAddr)
}

// methodFor resolves the negotiated method for p. Until the supplemented
// per-peer method negotiation is wired up, every peer uses the first
// entry of method_list, matching §4.B's "ordered" method_list semantics
// for the common single-method-list deployment.
func (c *Core) methodFor(p *peer.Peer) (method.Method, bool) {
	snap := c.store.Load()
	if len(snap.MethodList) == 0 {
		return method.Method{}, false
	}
	m, err := c.provider.CreateByName(snap.MethodList[0])
	if err != nil {
		c.log.Printf("method %q: %v", snap.MethodList[0], err)
		return method.Method{}, false
	}
	return m, true
}

// HandleUDP implements scheduler.Handlers.
func (c *Core) HandleUDP(now time.Time, pkt scheduler.InboundUDP) {
	if len(pkt.Data) < wireHeaderSize {
		return
	}
	kind := peer.PacketKind(pkt.Data[0])
	body := pkt.Data[wireHeaderSize:]

	switch kind {
	case peer.PacketData:
		c.handleData(now, pkt.Addr, body)
	case peer.PacketHandshake:
		c.handleHandshake(now, pkt.Addr, pkt.Data) // handshake codec expects its own leading type byte
	}
}

func (c *Core) handleData(now time.Time, src peeraddr.Address, body []byte) {
	p, err := c.table.ClassifyData(src, c.mode == handshake.ModeTAP)
	candidates := []*peer.Peer{p}
	if err != nil {
		if c.mode != handshake.ModeTAP {
			return
		}
		candidates = c.table.FloatingCandidates()
	}

	m, ok := c.firstMethod()
	if !ok {
		return
	}

	for _, cand := range candidates {
		if cand == nil || cand.Current == nil {
			continue
		}
		result, derr := m.Decrypt(cand.Current, body, nil)
		if derr != nil {
			continue
		}
		cand.LastReceiveAt = now
		c.table.TryRoam(cand, src)
		if c.tap != nil {
			_ = c.tap.LearnFromDecrypted(cand, result.Plaintext, now)
		}
		c.writeTunnel(result.Plaintext)
		return
	}
}

func (c *Core) firstMethod() (method.Method, bool) {
	snap := c.store.Load()
	if len(snap.MethodList) == 0 {
		return method.Method{}, false
	}
	m, err := c.provider.CreateByName(snap.MethodList[0])
	return m, err == nil
}

func (c *Core) writeTunnel(frame []byte) {
	if c.tunDev == nil {
		return
	}
	if mtu := c.tunDev.MTU(); mtu > 0 {
		if cut, truncated := tundevice.TruncateToMTU(frame, mtu); truncated {
			c.log.Printf("tunnel write: %v", &tundevice.ErrTruncated{Wanted: len(frame), Got: mtu})
			frame = cut
		}
	}
	if _, err := c.tunDev.Write(frame); err != nil {
		c.log.Printf("tunnel write: %v", err)
	}
}

// HandleTunnel implements scheduler.Handlers: a frame/packet read off the
// tunnel device is forwarded to one or all established peers (§4.F).
func (c *Core) HandleTunnel(now time.Time, frame []byte) {
	switch {
	case c.tap != nil:
		if err := c.tap.Forward(frame, now, c); err != nil {
			c.log.Printf("tap forward: %v", err)
		}
	case c.tun != nil:
		if err := c.tun.Forward(frame, c); err != nil {
			c.log.Printf("tun forward: %v", err)
		}
	}
}

// Maintenance implements scheduler.Handlers (§4.G maintenance tick).
func (c *Core) Maintenance(now time.Time) {
	snap := c.store.Load()
	for _, p := range c.table.All() {
		if p.Stale(now, snap.PeerStaleTime) {
			c.log.Printf("peer %q stale, tearing down session", p.Config.Name)
			wasEstablished := p.Established()
			p.Teardown()
			if wasEstablished {
				c.hooksR.Fire(hooks.EventDisestablish, c.peerEnv(p))
			}
			continue
		}
		p.ReapExpiredSession(now)
		if p.Current != nil && p.Current.WantRefresh(now) {
			c.triggerHandshake(p, now)
		}
		if retry, gaveUp := p.Handshake.CheckTimeout(now); retry {
			c.retryHandshake(p, now)
		} else if gaveUp {
			c.log.Printf("peer %q: handshake abandoned after max attempts", p.Config.Name)
		}
	}
	c.macs.Purge(now)
}

// triggerHandshake starts a fresh handshake attempt toward p if the
// min_handshake_interval rate limiter allows it right now. A peer with no
// resolved address yet (a hostname remote, never contacted) is sent to
// the resolver instead; HandleResolved restarts the handshake once an
// address comes back.
func (c *Core) triggerHandshake(p *peer.Peer, now time.Time) {
	if p.RemoteAddr.Floating {
		if host, ok := firstHostname(p); ok {
			c.requestResolve(p, host, now)
			return
		}
	}
	if !c.handshakeLimiter.Allow(p.RemoteAddr.String(), now) {
		return
	}
	if _, err := p.Handshake.Trigger(now); err != nil {
		return
	}
	c.hooksR.Fire(hooks.EventConnect, c.peerEnv(p))
	pkt, err := c.buildInit(p, c.identity)
	if err != nil {
		c.log.Printf("peer %q: build init: %v", p.Config.Name, err)
		return
	}
	c.sendHandshake(p, pkt)
}

func firstHostname(p *peer.Peer) (peer.Remote, bool) {
	for _, r := range p.Config.Remotes {
		if r.Hostname != "" {
			return r, true
		}
	}
	return peer.Remote{}, false
}

func (c *Core) requestResolve(p *peer.Peer, remote peer.Remote, now time.Time) {
	if c.resolver == nil {
		return
	}
	if _, inFlight := c.resolving[p]; inFlight {
		return
	}
	if c.resolver.Submit(resolver.Request{Host: remote.Hostname, Token: resolveToken{peer: p, port: remote.Port}}, now) {
		c.resolving[p] = struct{}{}
	}
}

// resolveToken is the opaque Token carried through the resolver's
// request/response round trip, letting HandleResolved recover which peer
// and port a lookup was for.
type resolveToken struct {
	peer *peer.Peer
	port uint16
}

// HandleResolved implements scheduler.Handlers: a completed hostname
// lookup either unblocks a pending handshake attempt (by giving the peer
// a concrete RemoteAddr to send Init to) or is logged and dropped.
func (c *Core) HandleResolved(now time.Time, res resolver.Result) {
	tok, ok := res.Token.(resolveToken)
	if !ok {
		return
	}
	p := tok.peer
	delete(c.resolving, p)

	if res.Err != nil || len(res.Addrs) == 0 {
		c.log.Printf("peer %q: resolve failed: %v", p.Config.Name, res.Err)
		return
	}
	addr := netip.AddrPortFrom(res.Addrs[0], tok.port)
	c.table.Rebind(p, peeraddr.FromAddrPort(addr))
	c.triggerHandshake(p, now)
}

func (c *Core) retryHandshake(p *peer.Peer, now time.Time) {
	a, ok := c.attempts[p]
	if !ok {
		return
	}
	switch p.Handshake.State() {
	case handshake.StateSentInit:
		b := handshake.NewBuilder().
			Stage(handshake.StageInit).
			Mode(c.mode).
			ProtocolName(protocolName)
		b.Protocol(payloadInitiatorStatic, c.identity.KeyPair.Public.Bytes())
		b.Protocol(payloadInitiatorEphemeral, a.ephemeral.Public.Bytes())
		c.sendHandshake(p, b.Bytes())
	}
}

func (c *Core) sendHandshake(p *peer.Peer, pkt []byte) {
	if len(c.sockets) == 0 {
		return
	}
	if err := c.sockets[0].WriteTo(pkt, p.RemoteAddr); err != nil {
		c.log.Printf("peer %q: send handshake: %v", p.Config.Name, err)
	}
}

// peerEnv builds the hook-script environment for p (§6: "environment
// variables a hook script can read").
func (c *Core) peerEnv(p *peer.Peer) hooks.Env {
	return hooks.Env{
		"INTERFACE": c.store.Load().Interface,
		"PEER_NAME": p.Config.Name,
		"PEER_ADDR": p.RemoteAddr.String(),
	}
}
