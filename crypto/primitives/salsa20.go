package primitives

import "golang.org/x/crypto/salsa20/salsa"

// Salsa20 is the stream cipher primitive used by fastd's "null+salsa20-gmac"
// method (spec §8 S1). It uses the full 20-round core with an 8-byte nonce,
// padded from the method layer's 6-byte packet nonce.
type Salsa20 struct{}

func (Salsa20) Name() string   { return "salsa20" }
func (Salsa20) KeyLength() int { return 32 }
func (Salsa20) IVLength() int  { return 8 }

func (Salsa20) Init(key []byte) (CipherState, error) {
	if len(key) != 32 {
		return nil, &ErrKeyLength{Cipher: "salsa20", Want: 32, Got: len(key)}
	}
	var k [32]byte
	copy(k[:], key)
	return &salsa20State{key: k}, nil
}

type salsa20State struct {
	key [32]byte
}

func (s *salsa20State) Crypt(out, in []byte, iv []byte) bool {
	if len(iv) != 8 {
		return false
	}
	var nonce [8]byte
	copy(nonce[:], iv)
	salsa.XORKeyStream(out, in, &nonce, &s.key)
	return true
}

func (s *salsa20State) Free() {
	s.key = [32]byte{}
}
