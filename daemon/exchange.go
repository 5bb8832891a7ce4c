// Package daemon wires the crypto, handshake, peer, forwarding, and
// scheduler packages into the running engine described by §2's data-flow
// diagram. It is the one place allowed to know about all of them at once.
package daemon

import (
	"crypto/sha256"
	"fmt"

	"github.com/hwhw/fastd/handshake"
	"github.com/hwhw/fastd/method"
	"github.com/hwhw/fastd/peer"
)

// attempt holds the ephemeral key material and negotiated method for one
// in-flight initiator-side handshake, keyed off the peer it belongs to.
// The handshake package's StateMachine tracks retries/stages; attempt
// carries the cryptographic context the state machine itself is agnostic
// to.
type attempt struct {
	ephemeral handshake.KeyPair
	method    method.Method

	// peerStatic/peerEphemeral are the other side's public points, known
	// once a Response (initiator role) or Init (responder role) has been
	// parsed, needed again when the matching Finish arrives.
	peerStatic    []byte
	peerEphemeral []byte
	keys          handshake.SessionKeys
}

// protocolPayloads is this implementation's own assignment of the five
// generic protocol-specific payload slots (§4.C: "protocol-specific
// payloads 1-5 (public keys, challenge, response)"), chosen to carry
// exactly what ec25519-fhmqvc needs at each stage:
//
//	Init:     [1]=initiator static pubkey A  [2]=initiator ephemeral X
//	Response: [1]=A (echo) [2]=X (echo) [3]=responder static B [4]=responder ephemeral Y
//	Finish:   [1]=A (echo) [2]=X (echo)                         [5]=session confirmation tag
const (
	payloadInitiatorStatic    = 0 // Protocol1
	payloadInitiatorEphemeral = 1 // Protocol2
	payloadResponderStatic    = 2 // Protocol3
	payloadResponderEphemeral = 3 // Protocol4
	payloadConfirmation       = 4 // Protocol5
)

// Identity is this node's own long-term key, loaded from configuration.
type Identity struct {
	KeyPair handshake.KeyPair
}

// buildInit constructs the StageInit packet an initiator sends to start a
// handshake with p, recording the fresh ephemeral it generated so the
// Response can be matched against it.
func (c *Core) buildInit(p *peer.Peer, id Identity) ([]byte, error) {
	eph, err := handshake.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("daemon: generate ephemeral: %w", err)
	}
	m, ok := c.firstMethod()
	if !ok {
		return nil, fmt.Errorf("daemon: no usable method in method_list")
	}
	c.attempts[p] = &attempt{ephemeral: eph, method: m}

	b := handshake.NewBuilder().
		Stage(handshake.StageInit).
		Mode(c.mode).
		ProtocolName(protocolName)
	b.Protocol(payloadInitiatorStatic, id.KeyPair.Public.Bytes())
	b.Protocol(payloadInitiatorEphemeral, eph.Public.Bytes())
	return b.Bytes(), nil
}

// buildResponse is the responder's reply to a valid Init, carrying its own
// fresh ephemeral.
func (c *Core) buildResponse(initPkt *handshake.Packet, id Identity) ([]byte, handshake.KeyPair, error) {
	eph, err := handshake.GenerateKeyPair()
	if err != nil {
		return nil, handshake.KeyPair{}, fmt.Errorf("daemon: generate ephemeral: %w", err)
	}

	b := handshake.NewBuilder().
		Stage(handshake.StageResponse).
		ProtocolName(protocolName)
	b.Protocol(payloadInitiatorStatic, initPkt.Protocol[payloadInitiatorStatic])
	b.Protocol(payloadInitiatorEphemeral, initPkt.Protocol[payloadInitiatorEphemeral])
	b.Protocol(payloadResponderStatic, id.KeyPair.Public.Bytes())
	b.Protocol(payloadResponderEphemeral, eph.Public.Bytes())
	return b.Bytes(), eph, nil
}

// buildFinish is the initiator's reply to a valid Response, carrying a
// confirmation tag derived from the now-agreed session keys so the
// responder can detect a mismatched combiner before installing a session.
func (c *Core) buildFinish(id Identity, a *attempt, sessionID [32]byte, methodName string) []byte {
	b := handshake.NewBuilder().
		Stage(handshake.StageFinish).
		ProtocolName(protocolName).
		MethodName(methodName)
	b.Protocol(payloadInitiatorStatic, id.KeyPair.Public.Bytes())
	b.Protocol(payloadInitiatorEphemeral, a.ephemeral.Public.Bytes())
	b.Protocol(payloadConfirmation, confirmationTag(sessionID))
	return b.Bytes()
}

// confirmationTag derives a short proof that both sides reached the same
// session id, carried in the Finish message's Protocol5 slot.
func confirmationTag(sessionID [32]byte) []byte {
	sum := sha256.Sum256(append([]byte("fastd handshake confirmation"), sessionID[:]...))
	return sum[:16]
}

func verifyConfirmation(sessionID [32]byte, tag []byte) bool {
	want := confirmationTag(sessionID)
	if len(tag) != len(want) {
		return false
	}
	for i := range want {
		if want[i] != tag[i] {
			return false
		}
	}
	return true
}

// protocolName is the single supported key-exchange protocol (§4.D).
const protocolName = "ec25519-fhmqvc"

// salt binds both static identities into the HKDF derivation. It is the
// same for every handshake between the same two long-term keys, so it does
// not by itself tell a fresh sigma from a replayed one: freshness depends
// only on the ephemerals inside sigma itself (§4.D).
func hkdfSalt(initiatorStatic, responderStatic []byte) []byte {
	h := sha256.New()
	h.Write(initiatorStatic)
	h.Write(responderStatic)
	return h.Sum(nil)
}
