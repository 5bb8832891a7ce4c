package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hwhw/fastd/external/resolver"
)

type recordingHandlers struct {
	mu           sync.Mutex
	udp          []InboundUDP
	tunnel       [][]byte
	maintenances int
}

func (h *recordingHandlers) HandleUDP(now time.Time, pkt InboundUDP) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.udp = append(h.udp, pkt)
}

func (h *recordingHandlers) HandleTunnel(now time.Time, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tunnel = append(h.tunnel, frame)
}

func (h *recordingHandlers) HandleResolved(now time.Time, res resolver.Result) {}

func (h *recordingHandlers) Maintenance(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maintenances++
}

func (h *recordingHandlers) counts() (udp, tunnel, maint int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.udp), len(h.tunnel), h.maintenances
}

func TestLoopDispatchesUDPAndTunnel(t *testing.T) {
	handlers := &recordingHandlers{}
	loop := NewLoop(handlers, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	loop.UDPChan() <- InboundUDP{Data: []byte("hello")}
	loop.TunChan() <- []byte("frame")

	deadline := time.After(time.Second)
	for {
		udp, tunnel, _ := handlers.counts()
		if udp == 1 && tunnel == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for dispatch")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestLoopRunsMaintenanceOnSchedule(t *testing.T) {
	handlers := &recordingHandlers{}
	loop := NewLoop(handlers, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	deadline := time.After(time.Second)
	for {
		_, _, maint := handlers.counts()
		if maint >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for recurring maintenance")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestLoopReturnsContextError(t *testing.T) {
	handlers := &recordingHandlers{}
	loop := NewLoop(handlers, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := loop.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
