package renderer

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/castle-waves/internal/engine/gpu"
)

// Fence is a gpu.Timeline backed by GL sync objects. GL sync objects belong
// to the context, so every method must run on the GL thread.
type Fence struct {
	log *zap.Logger

	// pending syncs in signal order
	pending   []fenceSync
	completed uint64
	signaled  uint64
	lost      error

	// Slice of the unbounded Wait; a timeout is logged and waited again.
	timeout time.Duration
}

type fenceSync struct {
	value uint64
	sync  uintptr
}

// NewFence returns a timeline at value zero.
func NewFence(log *zap.Logger) *Fence {
	return &Fence{log: log, timeout: time.Second}
}

// Completed implements gpu.Timeline without blocking.
func (f *Fence) Completed() uint64 {
	for len(f.pending) > 0 {
		status := gl.ClientWaitSync(f.pending[0].sync, 0, 0)
		if status != gl.ALREADY_SIGNALED && status != gl.CONDITION_SATISFIED {
			break
		}
		f.retire()
	}
	return f.completed
}

// Signal implements gpu.Timeline by inserting a fence behind every command
// issued so far.
func (f *Fence) Signal(value uint64) error {
	if value <= f.signaled {
		return fmt.Errorf("%w: signal %d after %d", gpu.ErrFenceOrder, value, f.signaled)
	}
	sync := gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	if sync == 0 {
		return fmt.Errorf("%w: glFenceSync returned no sync object", gpu.ErrDeviceLost)
	}
	f.pending = append(f.pending, fenceSync{value: value, sync: sync})
	f.signaled = value
	return nil
}

// Wait implements gpu.Timeline.
func (f *Fence) Wait(value uint64) error {
	for f.completed < value {
		if f.lost != nil {
			return f.lost
		}
		if len(f.pending) == 0 {
			return fmt.Errorf("%w: wait for %d, last signal %d", gpu.ErrDeviceLost, value, f.signaled)
		}
		head := f.pending[0]
		switch gl.ClientWaitSync(head.sync, gl.SYNC_FLUSH_COMMANDS_BIT, uint64(f.timeout.Nanoseconds())) {
		case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
			f.retire()
		case gl.TIMEOUT_EXPIRED:
			f.log.Warn("gpu fence wait timed out, still waiting",
				zap.Uint64("fence", head.value),
				zap.Uint64("completed", f.completed),
				zap.Duration("timeout", f.timeout),
			)
		default:
			f.lost = fmt.Errorf("%w: glClientWaitSync failed on fence %d", gpu.ErrDeviceLost, head.value)
			f.log.Error("gpu fence wait failed", zap.Error(f.lost))
			return f.lost
		}
	}
	return nil
}

func (f *Fence) retire() {
	head := f.pending[0]
	gl.DeleteSync(head.sync)
	f.completed = head.value
	f.pending = f.pending[1:]
}

// Close deletes outstanding sync objects.
func (f *Fence) Close() {
	for _, p := range f.pending {
		gl.DeleteSync(p.sync)
	}
	f.pending = nil
}
