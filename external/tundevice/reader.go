package tundevice

import (
	"context"
	"fmt"

	"github.com/hwhw/fastd/scheduler"
)

// Source adapts a Device's blocking Read into scheduler.TunSource: Device
// itself stays a plain read/write handle (§6), ignorant of the scheduler,
// the same separation udpsocket.Socket keeps from its own ReadLoop.
type Source struct {
	Device Device
}

// ReadLoop implements scheduler.TunSource. Device.Read has no context
// parameter, so cancellation works by closing the device once ctx is
// done, which unblocks the pending Read with an error; that race is
// harmless since the loop is shutting down either way.
func (s Source) ReadLoop(ctx context.Context, out chan<- []byte) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Device.Close()
		case <-done:
		}
	}()

	buf := make([]byte, s.Device.MTU()+256)
	for {
		n, err := s.Device.Read(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return fmt.Errorf("tundevice: read: %w", err)
			}
		}
		if n == 0 {
			continue
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		select {
		case out <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
