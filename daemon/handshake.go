package daemon

import (
	"time"

	"github.com/hwhw/fastd/domain/peeraddr"
	"github.com/hwhw/fastd/external/hooks"
	"github.com/hwhw/fastd/handshake"
	"github.com/hwhw/fastd/method"
)

// handleHandshake dispatches one received handshake packet to its stage
// handler (§4.D). A packet that fails to parse is logged and dropped
// without advancing any state; no REPLY_* packet is sent back for it or for
// any other error. A received packet that carries a reply code abandons the
// in-flight attempt locally.
func (c *Core) handleHandshake(now time.Time, src peeraddr.Address, raw []byte) {
	pkt, err := handshake.ParsePacket(raw)
	if err != nil {
		c.log.Printf("handshake from %s: %v", src, err)
		return
	}
	if pkt.HasReply {
		c.log.Printf("handshake from %s: peer replied %v %q", src, pkt.Reply, pkt.ErrorDetail)
		if p, ok := c.table.ByPublicKey(pkt.Protocol[payloadInitiatorStatic]); ok {
			p.Handshake.OnError()
			delete(c.attempts, p)
		}
		return
	}

	switch pkt.Stage {
	case handshake.StageInit:
		c.onInit(now, src, pkt)
	case handshake.StageResponse:
		c.onResponse(now, src, pkt)
	case handshake.StageFinish:
		c.onFinish(now, src, pkt)
	}
}

// onInit handles a received Init as the responder.
func (c *Core) onInit(now time.Time, src peeraddr.Address, pkt *handshake.Packet) {
	p, ok := c.table.ByPublicKey(pkt.Protocol[payloadInitiatorStatic])
	if !ok {
		c.log.Printf("handshake init from %s: unknown peer", src)
		return
	}
	if !c.handshakeLimiter.Allow(p.RemoteAddr.String(), now) {
		return
	}

	X, err := handshake.DecodePublic(pkt.Protocol[payloadInitiatorEphemeral])
	if err != nil {
		c.log.Printf("peer %q: bad initiator ephemeral: %v", p.Config.Name, err)
		return
	}
	A, err := handshake.DecodePublic(pkt.Protocol[payloadInitiatorStatic])
	if err != nil {
		c.log.Printf("peer %q: bad initiator static: %v", p.Config.Name, err)
		return
	}

	respPkt, eph, err := c.buildResponse(pkt, c.identity)
	if err != nil {
		c.log.Printf("peer %q: build response: %v", p.Config.Name, err)
		return
	}

	sigma, err := handshake.CombineResponder(eph.Private, c.identity.KeyPair.Private, eph.Public, c.identity.KeyPair.Public, X, A)
	if err != nil {
		c.log.Printf("peer %q: combine responder: %v", p.Config.Name, err)
		return
	}
	salt := hkdfSalt(pkt.Protocol[payloadInitiatorStatic], c.identity.KeyPair.Public.Bytes())
	m, ok := c.firstMethod()
	if !ok {
		return
	}
	keys, err := c.deriveKeys(m, sigma.Bytes(), salt, handshake.RoleResponder)
	if err != nil {
		c.log.Printf("peer %q: derive session keys: %v", p.Config.Name, err)
		return
	}

	c.attempts[p] = &attempt{
		ephemeral:     eph,
		method:        m,
		peerStatic:    append([]byte(nil), pkt.Protocol[payloadInitiatorStatic]...),
		peerEphemeral: append([]byte(nil), pkt.Protocol[payloadInitiatorEphemeral]...),
		keys:          keys,
	}
	c.table.TryRoam(p, src)
	c.sendHandshake(p, respPkt)
}

// onResponse handles a received Response as the initiator.
func (c *Core) onResponse(now time.Time, src peeraddr.Address, pkt *handshake.Packet) {
	p, ok := c.table.ByPublicKey(pkt.Protocol[payloadResponderStatic])
	if !ok || p.Handshake.State() != handshake.StateSentInit {
		return
	}
	a, ok := c.attempts[p]
	if !ok {
		return
	}

	B, err := handshake.DecodePublic(pkt.Protocol[payloadResponderStatic])
	if err != nil {
		c.log.Printf("peer %q: bad responder static: %v", p.Config.Name, err)
		return
	}
	Y, err := handshake.DecodePublic(pkt.Protocol[payloadResponderEphemeral])
	if err != nil {
		c.log.Printf("peer %q: bad responder ephemeral: %v", p.Config.Name, err)
		return
	}

	sigma, err := handshake.CombineInitiator(a.ephemeral.Private, c.identity.KeyPair.Private, a.ephemeral.Public, c.identity.KeyPair.Public, Y, B)
	if err != nil {
		c.log.Printf("peer %q: combine initiator: %v", p.Config.Name, err)
		return
	}
	salt := hkdfSalt(c.identity.KeyPair.Public.Bytes(), pkt.Protocol[payloadResponderStatic])
	keys, err := c.deriveKeys(a.method, sigma.Bytes(), salt, handshake.RoleInitiator)
	if err != nil {
		c.log.Printf("peer %q: derive session keys: %v", p.Config.Name, err)
		return
	}
	a.keys = keys
	a.peerStatic = append([]byte(nil), pkt.Protocol[payloadResponderStatic]...)
	a.peerEphemeral = append([]byte(nil), pkt.Protocol[payloadResponderEphemeral]...)

	if err := p.Handshake.OnResponse(now); err != nil {
		c.log.Printf("peer %q: %v", p.Config.Name, err)
		return
	}

	sess, err := a.method.SessionInit(keys.SendKey, keys.RecvKey, keys.MacKey, true, c.sessionParams())
	if err != nil {
		c.log.Printf("peer %q: session init: %v", p.Config.Name, err)
		p.Handshake.OnError()
		return
	}
	p.InstallSession(sess, now)
	p.LastHandshake = now
	if err := p.Handshake.OnEstablished(); err != nil {
		c.log.Printf("peer %q: %v", p.Config.Name, err)
	}

	finishPkt := c.buildFinish(c.identity, a, keys.SessionID, a.method.Name)
	c.table.TryRoam(p, src)
	c.sendHandshake(p, finishPkt)
	delete(c.attempts, p)
	c.hooksR.Fire(hooks.EventEstablish, c.peerEnv(p))
}

// onFinish handles a received Finish as the responder, completing the
// session installation begun in onInit.
func (c *Core) onFinish(now time.Time, src peeraddr.Address, pkt *handshake.Packet) {
	p, ok := c.table.ByPublicKey(pkt.Protocol[payloadInitiatorStatic])
	if !ok {
		return
	}
	a, ok := c.attempts[p]
	if !ok {
		c.log.Printf("peer %q: finish with no pending attempt", p.Config.Name)
		return
	}

	if !verifyConfirmation(a.keys.SessionID, pkt.Protocol[payloadConfirmation]) {
		c.log.Printf("peer %q: confirmation mismatch, abandoning handshake", p.Config.Name)
		delete(c.attempts, p)
		return
	}

	sess, err := a.method.SessionInit(a.keys.SendKey, a.keys.RecvKey, a.keys.MacKey, false, c.sessionParams())
	if err != nil {
		c.log.Printf("peer %q: session init: %v", p.Config.Name, err)
		delete(c.attempts, p)
		return
	}
	p.InstallSession(sess, now)
	p.LastHandshake = now
	c.table.TryRoam(p, src)
	delete(c.attempts, p)
	c.hooksR.Fire(hooks.EventEstablish, c.peerEnv(p))
}

// deriveKeys expands sigma into method-sized session keys. For a
// "-gmac"/"+gmac" method the mac-key slot is sized for the gmac cipher
// (§4.A): that raw key is what method.NewSession later reduces into the
// GHASH key H and the per-packet nonce mask, never the GHASH mac's own
// fixed 16-byte key length.
func (c *Core) deriveKeys(m method.Method, sigma, salt []byte, role handshake.Role) (handshake.SessionKeys, error) {
	keyLen := m.Cipher.KeyLength()
	macLen := m.Mac.KeyLength()
	if m.GmacCipher != nil {
		macLen = m.GmacCipher.KeyLength()
	}
	return handshake.DeriveSessionKeys(sigma, salt, role, keyLen, macLen)
}

func (c *Core) sessionParams() method.SessionParams {
	snap := c.store.Load()
	return method.SessionParams{
		KeyRefresh:      snap.KeyRefresh,
		KeyRefreshSplay: snap.KeyRefreshSplay,
		KeyValidOld:     snap.KeyValidOld,
	}
}
