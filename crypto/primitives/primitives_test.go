package primitives

import (
	"bytes"
	"testing"
)

func TestNullCipherRoundTrip(t *testing.T) {
	st, err := (NullCipher{}).Init(nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	in := []byte("hello world")
	out := make([]byte, len(in))
	if !st.Crypt(out, in, nil) {
		t.Fatal("Crypt returned false")
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("null cipher changed data: %v != %v", out, in)
	}
}

func TestAES128CTRRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 16)
	iv := bytes.Repeat([]byte{0x22}, 16)
	st, err := (AES128CTR{}).Init(key)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	plaintext := []byte("the quick brown fox jumps")
	ct := make([]byte, len(plaintext))
	if !st.Crypt(ct, plaintext, iv) {
		t.Fatal("encrypt failed")
	}

	st2, _ := (AES128CTR{}).Init(key)
	pt := make([]byte, len(ct))
	if !st2.Crypt(pt, ct, iv) {
		t.Fatal("decrypt failed")
	}
	if !bytes.Equal(pt, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", pt, plaintext)
	}
}

func TestSalsa20RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x33}, 32)
	iv := bytes.Repeat([]byte{0x44}, 8)
	st, _ := (Salsa20{}).Init(key)
	plaintext := []byte("ff ff ff ff ff ff 02 00")
	ct := make([]byte, len(plaintext))
	st.Crypt(ct, plaintext, iv)

	st2, _ := (Salsa20{}).Init(key)
	pt := make([]byte, len(ct))
	st2.Crypt(pt, ct, iv)
	if !bytes.Equal(pt, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", pt, plaintext)
	}
}

func TestGHashDeterministic(t *testing.T) {
	key := bytes.Repeat([]byte{0x55}, 16)
	h, err := DeriveGHashKey(AES128CTR{}, key)
	if err != nil {
		t.Fatalf("DeriveGHashKey: %v", err)
	}
	mac, _ := (GHash{}).Init(h[:])
	data := []byte("payload bytes to authenticate")
	tag1 := make([]byte, 16)
	tag2 := make([]byte, 16)
	mac.Digest(tag1, data)
	mac.Digest(tag2, data)
	if !bytes.Equal(tag1, tag2) {
		t.Fatal("GHASH must be deterministic")
	}

	mac.Digest(tag2, append(append([]byte{}, data...), 0))
	if bytes.Equal(tag1, tag2) {
		t.Fatal("different inputs must not collide trivially")
	}
}

func TestRegistryMissingImplIsFatal(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Cipher("aes128-ctr", "hardware-avx"); err == nil {
		t.Fatal("expected error for unregistered impl")
	}
	if _, err := r.Cipher("does-not-exist", ""); err == nil {
		t.Fatal("expected error for unknown cipher name")
	}
}

func TestRegistryResolvesGeneric(t *testing.T) {
	r := NewRegistry()
	c, err := r.Cipher("salsa20", "")
	if err != nil {
		t.Fatalf("Cipher: %v", err)
	}
	if c.KeyLength() != 32 {
		t.Fatalf("KeyLength = %d, want 32", c.KeyLength())
	}
}
