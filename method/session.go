package method

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hwhw/fastd/crypto/primitives"
)

// Session is the per-peer, per-method cryptographic state of §3: symmetric
// keys, monotonic send nonce, receive replay window, lifecycle timestamps
// and the supersession flag. At most two sessions (current + previous) may
// be live for a peer during the brief rekey overlap window.
type Session struct {
	sendCipher primitives.CipherState
	recvCipher primitives.CipherState
	mac        primitives.MacState
	ivLen      int

	// gmacCipher is non-nil for "-gmac"/"+gmac" methods: it is keyed with
	// the same raw mac key H was derived from, and is used per packet to
	// produce the nonce-keyed mask folded into the wire tag
	// (composed_gmac.c encrypt:225,248 — "tag = GHASH_H(ct) XOR E_gmac(nonce)").
	gmacCipher primitives.CipherState
	gmacIVLen  int

	sendSeq *NonceSequencer
	recv    ReplayWindow

	createdAt    time.Time
	keyRefresh   time.Duration
	refreshSplay time.Duration
	refreshAt    time.Time

	superseded   bool
	supersededAt time.Time
	keyValidOld  time.Duration
}

// NewSession installs a fresh session for one peer direction. sendKey/recvKey
// are the already-derived symmetric keys for this method; macKey is the mac
// key as HKDF produced it: for a plain mac (e.g. hmac-sha256) it is used
// directly, for a "-gmac"/"+gmac" method it is the raw gmac-cipher key, from
// which the GHASH key H and the per-packet nonce mask are both derived here.
func NewSession(
	cipher primitives.Cipher,
	mac primitives.Mac,
	gmacCipher primitives.Cipher,
	sendKey, recvKey, macKey []byte,
	isInitiator bool,
	keyRefresh, refreshSplay, keyValidOld time.Duration,
) (*Session, error) {
	sendState, err := cipher.Init(sendKey)
	if err != nil {
		return nil, err
	}
	recvState, err := cipher.Init(recvKey)
	if err != nil {
		return nil, err
	}

	var macState primitives.MacState
	var gmacState primitives.CipherState
	gmacIVLen := 0
	if gmacCipher != nil {
		h, err := primitives.DeriveGHashKey(gmacCipher, macKey)
		if err != nil {
			return nil, err
		}
		macState, err = mac.Init(h[:])
		if err != nil {
			return nil, err
		}
		gmacState, err = gmacCipher.Init(macKey)
		if err != nil {
			return nil, err
		}
		gmacIVLen = cipherIVLen(gmacCipher)
	} else {
		macState, err = mac.Init(macKey)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	return &Session{
		sendCipher:   sendState,
		recvCipher:   recvState,
		mac:          macState,
		ivLen:        cipherIVLen(cipher),
		gmacCipher:   gmacState,
		gmacIVLen:    gmacIVLen,
		sendSeq:      NewNonceSequencer(isInitiator),
		createdAt:    now,
		keyRefresh:   keyRefresh,
		refreshSplay: refreshSplay,
		refreshAt:    now.Add(keyRefresh + splay(refreshSplay)),
		keyValidOld:  keyValidOld,
	}, nil
}

// foldNonceMask XORs E_gmac(nonce) into tag in place. A no-op for methods
// with no separate gmac cipher (e.g. hmac-sha256 methods), where the mac
// alone authenticates the packet.
func (s *Session) foldNonceMask(tag, nonce []byte) error {
	if s.gmacCipher == nil {
		return nil
	}
	iv, err := expandNonce(nonce, s.gmacIVLen)
	if err != nil {
		return err
	}
	mask := make([]byte, TagSize)
	if !s.gmacCipher.Crypt(mask, mask, iv) {
		return fmt.Errorf("method: gmac mask failed")
	}
	for i := range tag {
		tag[i] ^= mask[i]
	}
	return nil
}

func cipherIVLen(c primitives.Cipher) int {
	if n := c.IVLength(); n > 0 {
		return n
	}
	return NonceSize
}

func splay(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}

// WantRefresh implements session_want_refresh (§4.B): true once the splayed
// refresh deadline has passed, or the send nonce is within 8 of exhaustion.
func (s *Session) WantRefresh(now time.Time) bool {
	if now.After(s.refreshAt) {
		return true
	}
	return s.sendSeq.NearExhaustion(8)
}

// Supersede marks the session as superseded: it keeps accepting decrypts
// but refuses further encrypts (§4.B).
func (s *Session) Supersede(now time.Time) {
	if s.superseded {
		return
	}
	s.superseded = true
	s.supersededAt = now
}

// Superseded reports whether Supersede has been called.
func (s *Session) Superseded() bool {
	return s.superseded
}

// Expired reports whether a superseded session's overlap window
// (key_valid_old) has elapsed and it may be dropped for good.
func (s *Session) Expired(now time.Time) bool {
	return s.superseded && now.After(s.supersededAt.Add(s.keyValidOld))
}

// Free releases sensitive per-session state. Must be called exactly once,
// during peer teardown or supersession release (§5 resource acquisition).
func (s *Session) Free() {
	s.sendCipher.Free()
	s.recvCipher.Free()
	s.mac.Free()
	if s.gmacCipher != nil {
		s.gmacCipher.Free()
	}
}
