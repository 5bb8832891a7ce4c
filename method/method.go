// Package method assembles a (cipher, mac) pair plus the protocol's common
// header into a fastd "method": the composed AEAD construction of §4.B.
package method

import (
	"crypto/subtle"
	"errors"

	"github.com/hwhw/fastd/crypto/primitives"
	"github.com/hwhw/fastd/domain/buffer"
)

// ErrSuperseded is returned by Encrypt on a session that has been
// superseded: it may still decrypt in-flight packets but must not
// originate new ones (§4.B).
var ErrSuperseded = errors.New("method: session superseded, encrypt refused")

// ErrBadFlags is returned when a data packet's flags byte isn't zero.
var ErrBadFlags = errors.New("method: non-zero flags in data packet")

// ErrShortPacket is returned when a datagram is too small to contain the
// common header and tag.
var ErrShortPacket = errors.New("method: packet shorter than header+tag")

// ErrAuthFailed is returned when the GMAC/HMAC tag doesn't verify.
var ErrAuthFailed = errors.New("method: authentication failed")

// DecryptResult carries the plaintext and the replay-window classification
// of the nonce that produced it (§4.B, §5 ordering guarantees).
type DecryptResult struct {
	Plaintext []byte
	Nonce     uint64
	Reordered bool
}

// Method is the immutable descriptor combining a cipher and a mac, used to
// operate on sessions of matching type. MaxOverhead mirrors the provider
// descriptor of §3; Method declares no min head/tail space.
//
// GmacCipher is non-nil only for "-gmac"/"+gmac" methods: it is the cipher
// keyed to derive the GHASH key (§4.A) and, per packet, to produce the
// nonce-keyed mask folded into the wire tag (composed_gmac.c encrypt:225-248).
// It may be the same cipher as Cipher (the bare "-gmac" shortcut) or a
// distinct one (the two-cipher composed form).
type Method struct {
	Name       string
	Cipher     primitives.Cipher
	Mac        primitives.Mac
	GmacCipher primitives.Cipher
}

// MaxOverhead is the wire overhead this method adds to every packet:
// header + tag.
func (Method) MaxOverhead() int {
	return DataHeaderSize
}

// Encrypt authenticates and (unless the cipher is null) encrypts plaintext
// under session, returning the full wire packet
// [nonce|flags|tag|ciphertext] per §6.
func (m Method) Encrypt(s *Session, plaintext []byte, dst []byte) ([]byte, error) {
	if s.Superseded() {
		return nil, ErrSuperseded
	}

	nonce, err := s.sendSeq.Next()
	if err != nil {
		return nil, err
	}

	// The wire packet is built header-first, then tag, then ciphertext,
	// via the same head/tail-slack buffer the forwarding plane uses to
	// grow frames in place (§4.A: "min head/tail space").
	buf := buffer.New(0, 0, DataHeaderSize+len(plaintext))
	header, err := buf.GrowTail(HeaderSize)
	if err != nil {
		return nil, err
	}
	tag, err := buf.GrowTail(TagSize)
	if err != nil {
		return nil, err
	}
	ciphertext, err := buf.GrowTail(len(plaintext))
	if err != nil {
		return nil, err
	}

	encodeNonce(nonce, header[0:NonceSize])
	header[NonceSize] = 0 // flags

	iv, err := expandNonce(header[0:NonceSize], s.ivLen)
	if err != nil {
		return nil, err
	}

	if !s.sendCipher.Crypt(ciphertext, plaintext, iv) {
		return nil, errors.New("method: encrypt failed")
	}
	if !s.mac.Digest(tag, ciphertext) {
		return nil, errors.New("method: mac digest failed")
	}
	if err := s.foldNonceMask(tag, header[0:NonceSize]); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if cap(dst) >= len(out) {
		out = append(dst[:0], out...)
	}
	return out, nil
}

// Decrypt validates and (unless the cipher is null) decrypts a wire packet
// against session. Per §4.B: the replay window is consulted before the tag
// is verified, but only Accept-ed (mutated) after the tag checks out, so a
// forged packet can never poison the window (§7: "no mutation on failure").
func (m Method) Decrypt(s *Session, packet []byte, dst []byte) (DecryptResult, error) {
	if len(packet) < DataHeaderSize {
		return DecryptResult{}, ErrShortPacket
	}
	if packet[NonceSize] != 0 {
		return DecryptResult{}, ErrBadFlags
	}

	nonce := decodeNonce(packet[0:NonceSize])
	if err := s.recv.Check(nonce); err != nil {
		return DecryptResult{}, err
	}

	ciphertext := packet[DataHeaderSize:]
	wantTag := packet[HeaderSize:DataHeaderSize]

	gotTag := make([]byte, TagSize)
	if !s.mac.Digest(gotTag, ciphertext) {
		return DecryptResult{}, errors.New("method: mac digest failed")
	}
	if err := s.foldNonceMask(gotTag, packet[0:NonceSize]); err != nil {
		return DecryptResult{}, err
	}
	if subtle.ConstantTimeCompare(gotTag, wantTag) != 1 {
		return DecryptResult{}, ErrAuthFailed
	}

	iv, err := expandNonce(packet[0:NonceSize], s.ivLen)
	if err != nil {
		return DecryptResult{}, err
	}

	total := len(ciphertext)
	if cap(dst) < total {
		dst = make([]byte, total)
	}
	plaintext := dst[:total]
	if !s.recvCipher.Crypt(plaintext, ciphertext, iv) {
		return DecryptResult{}, errors.New("method: decrypt failed")
	}

	reordered := s.recv.Accept(nonce)
	return DecryptResult{Plaintext: plaintext, Nonce: nonce, Reordered: reordered}, nil
}
