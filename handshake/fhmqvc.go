package handshake

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"filippo.io/edwards25519"
)

// KeyPair is a Curve25519 (Edwards form) scalar/point pair, used for both
// long-term identities and per-handshake ephemerals in ec25519-fhmqvc.
type KeyPair struct {
	Private *edwards25519.Scalar
	Public  *edwards25519.Point
}

// GenerateKeyPair creates a fresh random scalar and its basepoint multiple.
// Scalar clamping follows the same SetBytesWithClamping idiom used for
// scalar-from-hash derivation elsewhere in the pack (cvsouth-tor-go's
// address-blinding combiner), applied here to raw randomness instead.
func GenerateKeyPair() (KeyPair, error) {
	var seed [32]byte
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return KeyPair{}, fmt.Errorf("fhmqvc: generate key pair: %w", err)
	}
	priv, err := new(edwards25519.Scalar).SetBytesWithClamping(seed[:])
	if err != nil {
		return KeyPair{}, fmt.Errorf("fhmqvc: clamp scalar: %w", err)
	}
	pub := new(edwards25519.Point).ScalarBaseMult(priv)
	return KeyPair{Private: priv, Public: pub}, nil
}

// KeyPairFromSeed rebuilds a long-term KeyPair from a stored 32-byte seed
// (the main config's own `key` directive, §6), using the same clamping
// path as GenerateKeyPair so a persisted identity round-trips exactly.
func KeyPairFromSeed(seed []byte) (KeyPair, error) {
	if len(seed) != 32 {
		return KeyPair{}, fmt.Errorf("fhmqvc: seed must be 32 bytes, got %d", len(seed))
	}
	priv, err := new(edwards25519.Scalar).SetBytesWithClamping(seed)
	if err != nil {
		return KeyPair{}, fmt.Errorf("fhmqvc: clamp scalar: %w", err)
	}
	pub := new(edwards25519.Point).ScalarBaseMult(priv)
	return KeyPair{Private: priv, Public: pub}, nil
}

// DecodePublic parses a 32-byte compressed point received over the wire.
func DecodePublic(b []byte) (*edwards25519.Point, error) {
	p, err := new(edwards25519.Point).SetBytes(b)
	if err != nil {
		return nil, fmt.Errorf("fhmqvc: invalid public point: %w", err)
	}
	return p, nil
}

func hashToScalar(parts ...[]byte) (*edwards25519.Scalar, error) {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(nil)
	return new(edwards25519.Scalar).SetBytesWithClamping(sum)
}

// CombineInitiator computes the FHMQV-C shared secret point as the
// initiator: sigma = (x + d*a) * (Y + e*B), where x/a are this side's
// ephemeral/static scalars, X/A the matching public points, and Y/B the
// responder's ephemeral/static public points. d and e are the "hash
// elevation" challenges that bind both parties' identities into the
// combiner, preventing an unknown-key-share attack (§4.D: "authenticated
// Diffie-Hellman variant").
func CombineInitiator(x, a *edwards25519.Scalar, X, A, Y, B *edwards25519.Point) (*edwards25519.Point, error) {
	d, err := hashToScalar(X.Bytes(), B.Bytes())
	if err != nil {
		return nil, err
	}
	e, err := hashToScalar(Y.Bytes(), A.Bytes())
	if err != nil {
		return nil, err
	}

	exponent := new(edwards25519.Scalar).Add(x, new(edwards25519.Scalar).Multiply(d, a))
	base := new(edwards25519.Point).Add(Y, new(edwards25519.Point).ScalarMult(e, B))
	return new(edwards25519.Point).ScalarMult(exponent, base), nil
}

// CombineResponder is the mirror of CombineInitiator for the responder
// side: sigma = (y + e*b) * (X + d*A). It produces the same point as
// CombineInitiator given the matching four keys.
func CombineResponder(y, b *edwards25519.Scalar, Y, B, X, A *edwards25519.Point) (*edwards25519.Point, error) {
	d, err := hashToScalar(X.Bytes(), B.Bytes())
	if err != nil {
		return nil, err
	}
	e, err := hashToScalar(Y.Bytes(), A.Bytes())
	if err != nil {
		return nil, err
	}

	exponent := new(edwards25519.Scalar).Add(y, new(edwards25519.Scalar).Multiply(e, b))
	base := new(edwards25519.Point).Add(X, new(edwards25519.Point).ScalarMult(d, A))
	return new(edwards25519.Point).ScalarMult(exponent, base), nil
}
