// Package scheduler implements the single-threaded cooperative event loop
// of §4.G: a timer queue plus dispatch of inbound UDP and tunnel I/O,
// computing the next wake time and draining ready work each iteration.
//
// Go has no portable, idiomatic equivalent of a raw poll(2) loop shared
// across the tunnel device and one-or-more UDP sockets, and the pack
// carries no third-party event-loop library. The idiomatic rendering used
// here instead leans on the Go runtime's own netpoller: each I/O source
// runs its blocking Read in its own goroutine and forwards what it reads
// onto a channel; exactly one goroutine (Run's select loop) ever reads
// those channels and touches peer/session state, preserving §5's "no
// internal locking... exactly one executor" invariant without needing a
// manual epoll/kqueue abstraction.
package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hwhw/fastd/domain/peeraddr"
	"github.com/hwhw/fastd/external/resolver"
)

// InboundUDP is one datagram read from a bound UDP socket.
type InboundUDP struct {
	Addr peeraddr.Address
	Data []byte
}

// Handlers is the set of callbacks the loop dispatches to. Implementations
// live in the component that wires peer/forward/handshake together; the
// scheduler itself knows nothing about their semantics.
type Handlers interface {
	HandleUDP(now time.Time, pkt InboundUDP)
	HandleTunnel(now time.Time, frame []byte)
	HandleResolved(now time.Time, res resolver.Result)
	Maintenance(now time.Time)
}

// UDPSource is a blocking UDP reader that pushes datagrams onto out until
// ctx is cancelled or a read error occurs.
type UDPSource interface {
	ReadLoop(ctx context.Context, out chan<- InboundUDP) error
}

// TunSource is a blocking tunnel-device reader that pushes frames/packets
// onto out until ctx is cancelled or a read error occurs.
type TunSource interface {
	ReadLoop(ctx context.Context, out chan<- []byte) error
}

// Loop is the scheduler core: the timer queue and the dispatch select.
type Loop struct {
	timers              *TimerQueue
	handlers            Handlers
	maintenanceInterval time.Duration

	udpIn      chan InboundUDP
	tunIn      chan []byte
	resolvedIn chan resolver.Result
}

// NewLoop builds a loop that calls handlers.Maintenance every interval and
// dispatches inbound packets as they arrive on the channels it exposes.
func NewLoop(handlers Handlers, maintenanceInterval time.Duration) *Loop {
	return &Loop{
		timers:              NewTimerQueue(),
		handlers:            handlers,
		maintenanceInterval: maintenanceInterval,
		udpIn:               make(chan InboundUDP, 256),
		tunIn:               make(chan []byte, 256),
		resolvedIn:          make(chan resolver.Result, 32),
	}
}

// UDPChan is where a UDP-reading Source should send inbound datagrams.
func (l *Loop) UDPChan() chan<- InboundUDP { return l.udpIn }

// TunChan is where a tunnel-device-reading Source should send inbound
// frames/packets.
func (l *Loop) TunChan() chan<- []byte { return l.tunIn }

// ResolvedChan is where the resolver's Run loop delivers completed lookups
// (§5: resolver results "communicate with the main loop via a bounded
// request/response channel").
func (l *Loop) ResolvedChan() chan<- resolver.Result { return l.resolvedIn }

// Schedule exposes the underlying timer queue to callers that need to
// arrange future work (handshake retries, key refresh) from within a
// Handlers callback, which always runs on the loop goroutine.
func (l *Loop) Schedule(at time.Time, run func(now time.Time)) *Task {
	return l.timers.Schedule(at, run)
}

// Cancel withdraws a previously scheduled task.
func (l *Loop) Cancel(t *Task) { l.timers.Cancel(t) }

// Run drives the event loop until ctx is cancelled. It schedules its own
// recurring maintenance tick and returns ctx.Err() on shutdown; tasks
// still pending in the timer queue are not run.
func (l *Loop) Run(ctx context.Context) error {
	var scheduleMaintenance func(now time.Time)
	scheduleMaintenance = func(now time.Time) {
		l.handlers.Maintenance(now)
		l.timers.Schedule(now.Add(l.maintenanceInterval), scheduleMaintenance)
	}
	l.timers.Schedule(time.Now().Add(l.maintenanceInterval), scheduleMaintenance)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt := <-l.udpIn:
			l.handlers.HandleUDP(time.Now(), pkt)
		case frame := <-l.tunIn:
			l.handlers.HandleTunnel(time.Now(), frame)
		case res := <-l.resolvedIn:
			l.handlers.HandleResolved(time.Now(), res)
		case now := <-l.nextTimer():
			l.timers.DrainDue(now)
		}
	}
}

// nextTimer returns a channel that fires once at the earliest pending
// deadline, or a channel that never fires if the queue is empty (the loop
// then simply waits on I/O until a Handlers callback schedules something).
func (l *Loop) nextTimer() <-chan time.Time {
	deadline, ok := l.timers.NextDeadline()
	if !ok {
		return nil
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	return time.After(d)
}

// RunWithSources starts udp.ReadLoop, tun.ReadLoop and the resolver's
// blocking loop alongside Run under a shared errgroup: if any of them
// returns (including a read error), the group's context is cancelled and
// the others are asked to stop. Shutdown does not walk peers: no peer is
// notified and no session is freed here. res may be nil if no hostname
// resolution is needed.
func RunWithSources(ctx context.Context, l *Loop, udp UDPSource, tun TunSource, res *resolver.Resolver) error {
	g, gctx := errgroup.WithContext(ctx)
	if udp != nil {
		g.Go(func() error { return udp.ReadLoop(gctx, l.udpIn) })
	}
	if tun != nil {
		g.Go(func() error { return tun.ReadLoop(gctx, l.tunIn) })
	}
	if res != nil {
		g.Go(func() error { return res.Run(gctx) })
		g.Go(func() error { return pumpResolved(gctx, res, l.resolvedIn) })
	}
	g.Go(func() error { return l.Run(gctx) })
	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// pumpResolved relays completed lookups from the resolver's own output
// channel onto the loop's dispatch channel, keeping Resolver itself
// ignorant of the scheduler (§5: the resolver "never touches peer state").
func pumpResolved(ctx context.Context, res *resolver.Resolver, out chan<- resolver.Result) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-res.Results():
			select {
			case out <- r:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
