//go:build linux

package udpsocket

import (
	"net"

	"golang.org/x/sys/unix"
)

// bindToDevice applies SO_BINDTODEVICE so a link-local IPv6 bind resolves
// to a specific interface (§6: "Optional SO_BINDTODEVICE for IPv6
// link-local").
func bindToDevice(conn *net.UDPConn, device string) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, device)
	})
	if err != nil {
		return err
	}
	return sockErr
}
