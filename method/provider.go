package method

import (
	"fmt"
	"strings"
	"time"

	"github.com/hwhw/fastd/crypto/primitives"
)

// Provider builds Methods by name, per §4.B's grammar:
//
//	<cipher>+<auth>         e.g. "null+hmac-sha256"
//	<cipher>-gmac           the same cipher doubles as the GHASH-key
//	                        generator (composed-gmac's shortcut).
//	<cipher>+<gmac-cipher>-gmac  a distinct cipher derives the GHASH key
//	                        (composed_gmac.c:81-106); e.g. "null+salsa20-gmac"
//	                        pairs a null payload cipher with a salsa20 gmac
//	                        cipher (§4.B example, §8 scenario S1).
//	<cipher>+gmac           bare gmac shortcut in "+"-joined form: same
//	                        cipher for payload and GHASH key.
//	<cipher>+<gmac-cipher>+gmac  the supplemented two-cipher form
//	                        (SPEC_FULL.md) written with "+gmac" instead of
//	                        "-gmac".
type Provider struct {
	registry *primitives.Registry
}

func NewProvider(registry *primitives.Registry) *Provider {
	return &Provider{registry: registry}
}

// ErrUnknownMethod is a fatal config error (§7): an unparsable or
// unsupported method name.
type ErrUnknownMethod struct {
	Name string
}

func (e *ErrUnknownMethod) Error() string {
	return fmt.Sprintf("method: unknown method name %q", e.Name)
}

// CreateByName resolves a method name into a Method descriptor.
func (p *Provider) CreateByName(name string) (Method, error) {
	switch {
	case strings.HasSuffix(name, "-gmac"):
		// composed_gmac.c:81-106: the part before "-gmac" splits on "+"
		// into a payload cipher and a separate gmac-key cipher; with no
		// "+" the same cipher plays both roles (the "-gmac" shortcut).
		cipherPart := strings.TrimSuffix(name, "-gmac")
		payloadName, gmacName, _ := strings.Cut(cipherPart, "+")
		if gmacName == "" {
			gmacName = payloadName
		}
		cipher, err := p.registry.Cipher(payloadName, "")
		if err != nil {
			return Method{}, &ErrUnknownMethod{Name: name}
		}
		gmacCipher, err := p.registry.Cipher(gmacName, "")
		if err != nil {
			return Method{}, &ErrUnknownMethod{Name: name}
		}
		mac, err := p.registry.Mac("ghash", "")
		if err != nil {
			return Method{}, &ErrUnknownMethod{Name: name}
		}
		return Method{Name: name, Cipher: cipher, Mac: mac, GmacCipher: gmacCipher}, nil

	case strings.Contains(name, "+"):
		parts := strings.SplitN(name, "+", 2)
		cipher, err := p.registry.Cipher(parts[0], "")
		if err != nil {
			return Method{}, &ErrUnknownMethod{Name: name}
		}
		authName := parts[1]
		if authName == "gmac" || strings.HasSuffix(authName, "+gmac") {
			// The two-cipher composed form (SPEC_FULL.md): <cipher>+<gmac-cipher>+gmac
			// names a distinct cipher to derive the GHASH key from; the bare
			// <cipher>+gmac shortcut reuses the payload cipher for that role.
			gmacName := parts[0]
			if authName != "gmac" {
				gmacName = strings.TrimSuffix(authName, "+gmac")
			}
			gmacCipher, err := p.registry.Cipher(gmacName, "")
			if err != nil {
				return Method{}, &ErrUnknownMethod{Name: name}
			}
			mac, err := p.registry.Mac("ghash", "")
			if err != nil {
				return Method{}, &ErrUnknownMethod{Name: name}
			}
			return Method{Name: name, Cipher: cipher, Mac: mac, GmacCipher: gmacCipher}, nil
		}
		mac, err := p.registry.Mac(authName, "")
		if err != nil {
			return Method{}, &ErrUnknownMethod{Name: name}
		}
		return Method{Name: name, Cipher: cipher, Mac: mac}, nil

	default:
		return Method{}, &ErrUnknownMethod{Name: name}
	}
}

// SessionParams bundles the timing knobs a session needs, taken from the
// configuration snapshot (§6: key_valid, key_valid_old, key_refresh,
// key_refresh_splay).
type SessionParams struct {
	KeyRefresh      time.Duration
	KeyRefreshSplay time.Duration
	KeyValidOld     time.Duration
}

// SessionInit builds a new Session for this method from already-derived
// keying material (the handshake layer owns key derivation; see §4.D).
// macKey is the raw HKDF output: for a "-gmac"/"+gmac" method it is the
// gmac cipher's key, from which Session derives both the GHASH key H and
// the per-packet nonce mask; for a plain mac (e.g. "hmac-sha256") it is
// used as Mac.Init's key directly.
func (m Method) SessionInit(sendKey, recvKey, macKey []byte, isInitiator bool, p SessionParams) (*Session, error) {
	return NewSession(m.Cipher, m.Mac, m.GmacCipher, sendKey, recvKey, macKey, isInitiator, p.KeyRefresh, p.KeyRefreshSplay, p.KeyValidOld)
}
