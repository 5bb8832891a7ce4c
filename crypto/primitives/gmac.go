package primitives

import "fmt"

// GHash is the "ghash" MAC provider: its key is the 16-byte H value used by
// GHASH, itself derived by the method layer from a gmac-cipher's encryption
// of an all-zero block (composed-gmac's gmac_cipher_state), not from the raw
// session key directly.
type GHash struct{}

func (GHash) Name() string   { return "ghash" }
func (GHash) KeyLength() int { return 16 }
func (GHash) TagSize() int   { return 16 }

func (GHash) Init(key []byte) (MacState, error) {
	if len(key) != 16 {
		return nil, &ErrKeyLength{Cipher: "ghash", Want: 16, Got: len(key)}
	}
	var h [16]byte
	copy(h[:], key)
	return &ghashState{h: h}, nil
}

type ghashState struct {
	h [16]byte
}

func (s *ghashState) Digest(out, in []byte) bool {
	if len(out) != 16 {
		return false
	}
	tag := ghashSum(s.h, in)
	copy(out, tag[:])
	return true
}

func (s *ghashState) Free() {
	s.h = [16]byte{}
}

// DeriveGHashKey computes H = E_gmac(0) as composed-gmac does: whichever
// cipher the method name selects as the gmac cipher is keyed with
// gmacCipherKey and used to encrypt one all-zero block, producing the
// GHASH key. The gmac cipher is never used to transform the payload
// itself (session_init:153 in the original derives H the same way, from
// whichever cipher the method name names, not a hardcoded AES128).
func DeriveGHashKey(gmacCipher Cipher, gmacCipherKey []byte) ([16]byte, error) {
	var h [16]byte
	state, err := gmacCipher.Init(gmacCipherKey)
	if err != nil {
		return h, err
	}
	defer state.Free()

	iv := make([]byte, gmacCipher.IVLength())
	if !state.Crypt(h[:], h[:], iv) {
		return h, fmt.Errorf("primitives: gmac cipher %q failed to derive ghash key", gmacCipher.Name())
	}
	return h, nil
}
