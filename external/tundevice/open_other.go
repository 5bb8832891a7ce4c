//go:build !linux

package tundevice

import "fmt"

// Open creates the OS-appropriate backend for the given mode. TAP mode has
// no portable driver outside Linux's /dev/net/tun; only TUN is available
// here.
func Open(tap bool, name string, mtu int) (Device, error) {
	if tap {
		return nil, fmt.Errorf("tundevice: tap mode is only implemented on linux")
	}
	return OpenWireguardTUN(name, mtu)
}
