package tundevice

import (
	"fmt"

	wgtun "golang.zx2c4.com/wireguard/tun"
)

// WireguardTUN adapts a golang.zx2c4.com/wireguard/tun.Device into Device
// for TUN mode, in the allocation-light style of the teacher's
// WgTunAdapter: buffers are sized once and reused across Read/Write.
type WireguardTUN struct {
	device wgtun.Device
	name   string
	mtu    int

	readBufs [][]byte
	readSzs  []int
}

// OpenWireguardTUN creates (or opens, for "tun") a TUN device of the given
// requested name and MTU using the cross-platform wireguard/tun driver,
// then wraps it as a Device.
func OpenWireguardTUN(requestedName string, mtu int) (*WireguardTUN, error) {
	dev, err := wgtun.CreateTUN(requestedName, mtu)
	if err != nil {
		return nil, fmt.Errorf("tundevice: create tun %q: %w", requestedName, err)
	}
	name, err := dev.Name()
	if err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("tundevice: query tun name: %w", err)
	}
	return &WireguardTUN{
		device:   dev,
		name:     name,
		mtu:      mtu,
		readBufs: [][]byte{make([]byte, mtu+256)},
		readSzs:  []int{0},
	}, nil
}

func (d *WireguardTUN) Name() string { return d.name }
func (d *WireguardTUN) MTU() int     { return d.mtu }

// Read returns one IP packet. wireguard/tun's batched Read API always
// wants a header offset; 0 is correct since fastd carries no additional
// framing on top of the raw packet.
func (d *WireguardTUN) Read(p []byte) (int, error) {
	d.readSzs[0] = 0
	d.readBufs[0] = d.readBufs[0][:cap(d.readBufs[0])]
	n, err := d.device.Read(d.readBufs, d.readSzs, 0)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	size := d.readSzs[0]
	copy(p, d.readBufs[0][:size])
	return size, nil
}

func (d *WireguardTUN) Write(p []byte) (int, error) {
	n, err := d.device.Write([][]byte{p}, 0)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (d *WireguardTUN) Close() error {
	return d.device.Close()
}
