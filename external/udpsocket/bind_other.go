//go:build !linux

package udpsocket

import (
	"fmt"
	"net"
)

// bindToDevice has no portable equivalent outside Linux's SO_BINDTODEVICE;
// binding to a specific link-local zone there is instead expressed in the
// address itself (e.g. "fe80::1%eth0").
func bindToDevice(conn *net.UDPConn, device string) error {
	return fmt.Errorf("udpsocket: SO_BINDTODEVICE is not supported on this platform, use a zoned address instead")
}
