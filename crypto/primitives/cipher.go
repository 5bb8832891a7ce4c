// Package primitives implements the named cipher and MAC providers of
// §4.A: each supplies key/IV lengths and an init/crypt|digest/free contract,
// resolved from the registry by (name, impl) pair.
package primitives

import "fmt"

// CipherState is the per-session state returned by a Cipher's Init.
type CipherState interface {
	// Crypt XORs (or otherwise transforms) in into out under the given IV.
	// Stream ciphers and CTR-mode block ciphers are involutory, so the same
	// method serves both encryption and decryption.
	Crypt(out, in []byte, iv []byte) bool
	// Free releases any sensitive state. Called exactly once.
	Free()
}

// Cipher is the immutable, process-lived descriptor for a named cipher
// implementation.
type Cipher interface {
	Name() string
	KeyLength() int
	// IVLength is 0 for primitives that carry their own internal counter
	// (the null cipher), matching §4.A.
	IVLength() int
	Init(key []byte) (CipherState, error)
}

// ErrKeyLength is returned when a key of the wrong length is supplied.
type ErrKeyLength struct {
	Cipher string
	Want   int
	Got    int
}

func (e *ErrKeyLength) Error() string {
	return fmt.Sprintf("primitives: cipher %q wants a %d-byte key, got %d", e.Cipher, e.Want, e.Got)
}
