package udpsocket

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hwhw/fastd/scheduler"
)

// Group fans the ReadLoops of several bound sockets into one
// scheduler.UDPSource, matching §6's "one [socket] per configured bind
// address" with the scheduler's single dispatch channel per source kind.
type Group []*Socket

// ReadLoop implements scheduler.UDPSource by running every socket's own
// ReadLoop concurrently; the first one to return (including on ctx
// cancellation) stops the rest via the shared errgroup context.
func (g Group) ReadLoop(ctx context.Context, out chan<- scheduler.InboundUDP) error {
	gr, gctx := errgroup.WithContext(ctx)
	for _, sock := range g {
		sock := sock
		gr.Go(func() error { return sock.ReadLoop(gctx, out) })
	}
	if err := gr.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return ctx.Err()
}
