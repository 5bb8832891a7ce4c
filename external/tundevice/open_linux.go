//go:build linux

package tundevice

// Open creates the OS-appropriate backend for the given mode: a raw
// /dev/net/tun TAP device on Linux, or the cross-platform wireguard/tun
// driver for TUN.
func Open(tap bool, name string, mtu int) (Device, error) {
	if tap {
		return OpenLinuxTAP(name, mtu)
	}
	return OpenWireguardTUN(name, mtu)
}
