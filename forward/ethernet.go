package forward

import (
	"fmt"

	"github.com/hwhw/fastd/peer"
)

// EthernetHeaderSize is the minimum length of a frame forward can look at:
// 6 bytes destination MAC, 6 bytes source MAC. The EtherType that follows
// is not examined.
const EthernetHeaderSize = 12

// ErrFrameTooShort is returned when a frame is too small to contain an
// Ethernet header.
var ErrFrameTooShort = fmt.Errorf("forward: frame shorter than %d-byte ethernet header", EthernetHeaderSize)

func parseEthernetAddrs(frame []byte) (dst, src peer.MAC, err error) {
	if len(frame) < EthernetHeaderSize {
		return peer.MAC{}, peer.MAC{}, ErrFrameTooShort
	}
	copy(dst[:], frame[0:6])
	copy(src[:], frame[6:12])
	return dst, src, nil
}

// isMulticast reports whether a destination MAC is broadcast or multicast
// (the I/G bit, the low bit of the first octet, per 802.3).
func isMulticast(mac peer.MAC) bool {
	return mac[0]&0x01 != 0
}

func isZero(mac peer.MAC) bool {
	return mac == peer.MAC{}
}
