package handshake

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SessionKeys holds everything the method layer needs to install a session
// (§4.D: "the shared secret is never used directly; session keys are
// derived from it"). SendKey/RecvKey/MacKey are sized for the chosen
// method by the caller through DeriveSessionKeys' keyLen and macKeyLen
// arguments, which set how many bytes are pulled from each HKDF expansion.
type SessionKeys struct {
	SendKey   []byte
	RecvKey   []byte
	MacKey    []byte
	SessionID [32]byte
}

// Role distinguishes which side of the derivation is running, so that
// the initiator's send key becomes the responder's recv key and vice
// versa, mirroring how the teacher's client/server crypto split derives
// directional keys from one shared secret.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

// DeriveSessionKeys expands the FHMQV-C shared point sigma into directional
// session keys plus a session id, using HKDF-SHA256 (§4.D: "keys MUST be
// derived via a KDF, not used directly").  salt is supplied by the caller;
// the daemon passes a hash of both peers' long-term public keys, so
// freshness comes from the ephemerals inside sigma; the construction mirrors the "salt is
// the two identities, info is the key purpose" HKDF idiom used by the
// pack's session-id derivation helpers.
func DeriveSessionKeys(sigma []byte, salt []byte, role Role, keyLen, macKeyLen int) (SessionKeys, error) {
	if keyLen <= 0 {
		return SessionKeys{}, fmt.Errorf("handshake: invalid key length %d", keyLen)
	}

	initToResp, err := expand(sigma, salt, []byte("fastd ec25519-fhmqvc initiator-to-responder"), keyLen)
	if err != nil {
		return SessionKeys{}, err
	}
	respToInit, err := expand(sigma, salt, []byte("fastd ec25519-fhmqvc responder-to-initiator"), keyLen)
	if err != nil {
		return SessionKeys{}, err
	}
	var macKey []byte
	if macKeyLen > 0 {
		macKey, err = expand(sigma, salt, []byte("fastd ec25519-fhmqvc mac-key"), macKeyLen)
		if err != nil {
			return SessionKeys{}, err
		}
	}
	sessionIDBytes, err := expand(sigma, salt, []byte("fastd ec25519-fhmqvc session-id"), 32)
	if err != nil {
		return SessionKeys{}, err
	}

	keys := SessionKeys{MacKey: macKey}
	copy(keys.SessionID[:], sessionIDBytes)

	switch role {
	case RoleInitiator:
		keys.SendKey = initToResp
		keys.RecvKey = respToInit
	case RoleResponder:
		keys.SendKey = respToInit
		keys.RecvKey = initToResp
	default:
		return SessionKeys{}, fmt.Errorf("handshake: unknown peer role %d", role)
	}
	return keys, nil
}

func expand(secret, salt, info []byte, n int) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, salt, info)
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("handshake: hkdf expand: %w", err)
	}
	return out, nil
}
