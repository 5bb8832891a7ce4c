package primitives

// NullCipher is the identity cipher: it copies plaintext to ciphertext
// unchanged. Combined with a MAC it yields an authenticated-only method
// (spec §4.B, "null+salsa20-gmac" style constructions, and the composed-gmac
// provider's own "combining the null cipher with GMAC" doc comment).
type NullCipher struct{}

func (NullCipher) Name() string   { return "null" }
func (NullCipher) KeyLength() int { return 0 }
func (NullCipher) IVLength() int  { return 0 }

func (NullCipher) Init([]byte) (CipherState, error) {
	return nullState{}, nil
}

type nullState struct{}

func (nullState) Crypt(out, in []byte, _ []byte) bool {
	copy(out, in)
	return true
}

func (nullState) Free() {}
