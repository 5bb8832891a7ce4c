// Package udpsocket is the external collaborator of §6 ("UDP socket: one
// per configured bind address. Optional SO_BINDTODEVICE for IPv6
// link-local. IPv4-mapped addresses are normalised to IPv4").
package udpsocket

import (
	"context"
	"fmt"
	"net"

	"github.com/hwhw/fastd/domain/peeraddr"
	"github.com/hwhw/fastd/scheduler"
)

// BindSpec describes one configured bind address.
type BindSpec struct {
	Addr   string // "0.0.0.0:10000", "[fe80::1%eth0]:10000", etc.
	Device string // optional SO_BINDTODEVICE interface name
}

// Socket owns one bound UDP socket and implements scheduler.UDPSource by
// blocking-reading it on its own goroutine.
type Socket struct {
	conn *net.UDPConn
}

// Bind opens and binds one UDP socket per §6's "one per configured bind
// address", applying SO_BINDTODEVICE when spec.Device is set (needed to
// disambiguate IPv6 link-local binds across interfaces).
func Bind(spec BindSpec) (*Socket, error) {
	addr, err := net.ResolveUDPAddr("udp", spec.Addr)
	if err != nil {
		return nil, fmt.Errorf("udpsocket: resolve %q: %w", spec.Addr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udpsocket: listen %q: %w", spec.Addr, err)
	}
	if spec.Device != "" {
		if err := bindToDevice(conn, spec.Device); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("udpsocket: bind device %q: %w", spec.Device, err)
		}
	}
	return &Socket{conn: conn}, nil
}

// LocalAddr reports the bound address.
func (s *Socket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// WriteTo sends a datagram to dst. Floating/zero addresses are a caller
// bug, not something this layer can recover from.
func (s *Socket) WriteTo(payload []byte, dst peeraddr.Address) error {
	ap := dst.AddrPort()
	_, err := s.conn.WriteToUDPAddrPort(payload, ap)
	return err
}

// Close releases the socket.
func (s *Socket) Close() error { return s.conn.Close() }

// ReadLoop implements scheduler.UDPSource: it blocks on ReadFromUDPAddrPort
// in its own goroutine and forwards normalised datagrams onto out,
// normalising IPv4-mapped source addresses down to plain IPv4 (§6).
func (s *Socket) ReadLoop(ctx context.Context, out chan<- scheduler.InboundUDP) error {
	buf := make([]byte, 65536)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, srcAddr, err := s.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return fmt.Errorf("udpsocket: read: %w", err)
			}
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		pkt := scheduler.InboundUDP{
			Addr: peeraddr.FromAddrPort(srcAddr),
			Data: data,
		}
		select {
		case out <- pkt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
