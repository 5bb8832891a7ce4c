//go:build linux

package tundevice

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Ethernet frames carry no extra framing beyond the 14-byte header, unlike
// wireguard/tun's TUN path which deals in bare IP packets; TAP mode needs
// its own /dev/net/tun-backed device since wireguard/tun is TUN-only.
const (
	ifNameSize = 16
	iffTap     = 0x0002
	iffNoPI    = 0x1000
	tunSetIff  = 0x400454ca
)

type ifReq struct {
	name  [ifNameSize]byte
	flags uint16
	_     [22]byte // pad to match struct ifreq on linux/amd64
}

// LinuxTAP is a Device backed by the kernel's /dev/net/tun driver opened
// in IFF_TAP mode, for when the core runs in TAP (Ethernet bridging) mode.
type LinuxTAP struct {
	f    *os.File
	name string
	mtu  int
}

// OpenLinuxTAP creates (or attaches to) a TAP interface named requestedName
// ("" lets the kernel pick tapN) and reports the MTU the caller intends to
// use (MTU itself must still be set on the interface by the privileged
// config/network-setup collaborator; this type only does raw I/O).
func OpenLinuxTAP(requestedName string, mtu int) (*LinuxTAP, error) {
	f, err := os.OpenFile("/dev/net/tun", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("tundevice: open /dev/net/tun: %w", err)
	}

	var req ifReq
	copy(req.name[:], requestedName)
	req.flags = iffTap | iffNoPI

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), tunSetIff, uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("tundevice: TUNSETIFF: %w", errno)
	}

	name := string(req.name[:])
	for i, b := range req.name {
		if b == 0 {
			name = string(req.name[:i])
			break
		}
	}

	return &LinuxTAP{f: f, name: name, mtu: mtu}, nil
}

func (d *LinuxTAP) Name() string { return d.name }
func (d *LinuxTAP) MTU() int     { return d.mtu }

func (d *LinuxTAP) Read(p []byte) (int, error)  { return d.f.Read(p) }
func (d *LinuxTAP) Write(p []byte) (int, error) { return d.f.Write(p) }
func (d *LinuxTAP) Close() error                { return d.f.Close() }
