package udpsocket

import (
	"context"
	"testing"
	"time"

	"github.com/hwhw/fastd/scheduler"
)

func TestBindAndRoundTrip(t *testing.T) {
	sock, err := Bind(BindSpec{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer sock.Close()

	out := make(chan scheduler.InboundUDP, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sock.ReadLoop(ctx, out) }()

	peer, err := Bind(BindSpec{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("Bind peer: %v", err)
	}
	defer peer.Close()

	addr := sock.LocalAddr().String()
	_ = addr

	dstAddrPort := sock.conn.LocalAddr()
	_, err = peer.conn.WriteTo([]byte("ping"), dstAddrPort)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	select {
	case pkt := <-out:
		if string(pkt.Data) != "ping" {
			t.Fatalf("expected %q, got %q", "ping", pkt.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}
