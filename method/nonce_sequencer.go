package method

import "fmt"

// ErrNonceExhausted is returned once the 48-bit nonce space for this
// session's direction is exhausted; the session must be refreshed (§4.B).
var ErrNonceExhausted = fmt.Errorf("method: nonce space exhausted")

// NonceSequencer hands out the strictly-increasing send nonces for one
// direction of a session. The nonce space is partitioned by parity: the
// initiator uses odd nonces, the responder even ones, each side
// incrementing by 2 (§4.B), so both ends can run the same method instance
// without coordinating a single shared counter.
type NonceSequencer struct {
	current uint64
}

// NewNonceSequencer seeds the sequencer so the first Next() call returns 1
// (initiator) or 2 (responder).
func NewNonceSequencer(isInitiator bool) *NonceSequencer {
	if isInitiator {
		return &NonceSequencer{current: ^uint64(0)} // Next() -> 1
	}
	return &NonceSequencer{current: 0} // Next() -> 2
}

// Next returns the next nonce to send, advancing the sequence by 2.
func (s *NonceSequencer) Next() (uint64, error) {
	next := s.current + 2
	if next > nonceLimit {
		return 0, ErrNonceExhausted
	}
	s.current = next
	return next, nil
}

// NearExhaustion reports whether fewer than `margin` sends remain before
// the nonce space runs out, used by Session.WantRefresh's clause (b).
func (s *NonceSequencer) NearExhaustion(margin uint64) bool {
	return nonceLimit-s.current < margin*2
}
