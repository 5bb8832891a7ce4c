package primitives

import (
	"crypto/aes"
	"crypto/cipher"
)

// AES128CTR is the counter-mode AES-128 cipher primitive. Any cipher may
// serve as a method's gmac cipher (§4.A); AES128CTR is simply one such
// choice, as in "aes128-ctr-gmac".
type AES128CTR struct{}

func (AES128CTR) Name() string   { return "aes128-ctr" }
func (AES128CTR) KeyLength() int { return 16 }
func (AES128CTR) IVLength() int  { return aes.BlockSize }

func (AES128CTR) Init(key []byte) (CipherState, error) {
	if len(key) != 16 {
		return nil, &ErrKeyLength{Cipher: "aes128-ctr", Want: 16, Got: len(key)}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &aesCTRState{block: block}, nil
}

type aesCTRState struct {
	block cipher.Block
}

func (s *aesCTRState) Crypt(out, in []byte, iv []byte) bool {
	if len(iv) != aes.BlockSize {
		return false
	}
	stream := cipher.NewCTR(s.block, iv)
	stream.XORKeyStream(out, in)
	return true
}

func (s *aesCTRState) Free() {
	s.block = nil
}
