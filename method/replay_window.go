package method

import "errors"

// ErrReplayed is returned when a nonce has already been accepted, or falls
// below the sliding window's lower edge.
var ErrReplayed = errors.New("method: nonce replayed or too old")

// ReplayWindow is the 64-bit sliding bitmap of §3/§4.B: bit i is set when
// nonce max-i has been accepted. Adapted from
// the teacher's single-word ReplayWindow (infrastructure/cryptography/chacha20
// /replay_window.go), split into a non-mutating Check and a commit-only-on
// -success Accept so a failed AEAD tag never corrupts the window (§7: "no
// mutation on failure").
type ReplayWindow struct {
	max    uint64
	bitmap uint64
	valid  bool
}

// Check reports whether nonce would be accepted without mutating state.
func (w *ReplayWindow) Check(nonce uint64) error {
	if !w.valid {
		return nil
	}
	switch {
	case nonce > w.max:
		return nil
	case w.max-nonce >= 64:
		return ErrReplayed
	default:
		bit := uint64(1) << (w.max - nonce)
		if w.bitmap&bit != 0 {
			return ErrReplayed
		}
		return nil
	}
}

// Accept commits nonce to the window, assuming Check returned nil for it,
// and reports whether the nonce was reordered (accepted but not the new
// high-water mark).
func (w *ReplayWindow) Accept(nonce uint64) (reordered bool) {
	if !w.valid {
		w.valid = true
		w.max = nonce
		w.bitmap = 1
		return false
	}
	switch {
	case nonce > w.max:
		shift := nonce - w.max
		if shift >= 64 {
			w.bitmap = 0
		} else {
			w.bitmap <<= shift
		}
		w.bitmap |= 1
		w.max = nonce
		return false
	case w.max-nonce < 64:
		bit := uint64(1) << (w.max - nonce)
		w.bitmap |= bit
		return true
	default:
		return true
	}
}

// Max returns the highest nonce accepted so far.
func (w *ReplayWindow) Max() uint64 {
	return w.max
}
