// Package resolver is the external collaborator of §5 ("A secondary
// worker may exist solely for blocking hostname resolution; it
// communicates with the main loop via a bounded request/response channel
// and never touches peer state") and §4.D's min_resolve_interval rate
// limit.
package resolver

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/hwhw/fastd/handshake"
)

// Request asks the resolver goroutine to resolve Host, tagging the reply
// with an opaque Token the caller can use to route the Result back to the
// peer that asked.
type Request struct {
	Host  string
	Token any
}

// Result is the resolver's reply to a Request.
type Result struct {
	Token any
	Addrs []netip.Addr
	Err   error
}

// Resolver runs blocking net.DefaultResolver.LookupNetIP calls on its own goroutine, rate
// limited per host by min_resolve_interval (§4.D), and never touches peer
// or session state directly — only the bounded channels it exposes.
type Resolver struct {
	limiter *handshake.RateLimiter
	in      chan Request
	out     chan Result
}

// New builds a resolver rate-limited to one lookup per host per
// minInterval, with a bounded request/response queue of depth queueDepth.
func New(minInterval time.Duration, queueDepth int) *Resolver {
	return &Resolver{
		limiter: handshake.NewRateLimiter(minInterval),
		in:      make(chan Request, queueDepth),
		out:     make(chan Result, queueDepth),
	}
}

// Requests is where the main loop submits lookups.
func (r *Resolver) Requests() chan<- Request { return r.in }

// Results is where the main loop receives completed lookups.
func (r *Resolver) Results() <-chan Result { return r.out }

// Submit enqueues req if min_resolve_interval allows another lookup for
// req.Host right now; it reports whether the request was accepted so the
// caller can decide to try again later rather than block.
func (r *Resolver) Submit(req Request, now time.Time) bool {
	if !r.limiter.Allow(req.Host, now) {
		return false
	}
	select {
	case r.in <- req:
		return true
	default:
		return false
	}
}

// Run drives the blocking resolution loop until ctx is cancelled. It is
// the "secondary worker" of §5: it owns no peer state, only req/resp
// channels.
func (r *Resolver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-r.in:
			res := r.resolve(ctx, req)
			select {
			case r.out <- res:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (r *Resolver) resolve(ctx context.Context, req Request) Result {
	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", req.Host)
	if err != nil {
		return Result{Token: req.Token, Err: fmt.Errorf("resolver: lookup %q: %w", req.Host, err)}
	}
	return Result{Token: req.Token, Addrs: ips}
}
