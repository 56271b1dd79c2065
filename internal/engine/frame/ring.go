// Package frame implements the multi-buffered frame resource ring: N slots of
// per-frame upload memory rotated round-robin, with a fence timeline making
// sure the CPU never rewrites memory the GPU has not finished reading.
package frame

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/castle-waves/internal/engine/gpu"
)

// DefaultSlotCount is the number of frame resources the castle demo uses.
const DefaultSlotCount = 3

// Config sizes the ring. Every slot gets identical buffers.
type Config struct {
	Slots              int
	PassCount          int
	ObjectCount        int
	MaterialCount      int
	DynamicVertexCount int
}

// Ring rotates frame slots and owns the CPU side of the fence protocol.
// It is driven from a single goroutine.
type Ring struct {
	log      *zap.Logger
	timeline gpu.Timeline

	slots   []*Slot
	cursor  int
	current *Slot

	// fence is the last value handed to SubmitAndSignal or Flush.
	fence  uint64
	stalls int
}

// NewRing allocates cfg.Slots slots. At least two are required for the CPU
// to ever run ahead of the GPU.
func NewRing(cfg Config, timeline gpu.Timeline, log *zap.Logger) (*Ring, error) {
	if cfg.Slots < 2 {
		return nil, fmt.Errorf("frame ring: need at least 2 slots, got %d", cfg.Slots)
	}
	if cfg.PassCount <= 0 {
		cfg.PassCount = 1
	}

	r := &Ring{
		log:      log,
		timeline: timeline,
		slots:    make([]*Slot, cfg.Slots),
		// first Advance lands on slot 0
		cursor: cfg.Slots - 1,
	}
	for i := range r.slots {
		s, err := newSlot(i, cfg)
		if err != nil {
			return nil, fmt.Errorf("frame slot %d: %w", i, err)
		}
		r.slots[i] = s
	}

	log.Debug("frame ring created",
		zap.Int("slots", cfg.Slots),
		zap.Int("objects", cfg.ObjectCount),
		zap.Int("materials", cfg.MaterialCount),
		zap.Int("dynamicVertices", cfg.DynamicVertexCount),
		zap.Int("objectStride", r.slots[0].Objects.ElementByteSize()),
	)
	return r, nil
}

// Len returns the number of slots.
func (r *Ring) Len() int {
	return len(r.slots)
}

// Slot returns slot i.
func (r *Ring) Slot(i int) *Slot {
	return r.slots[i]
}

// Current returns the slot returned by the last Advance, or nil before the
// first frame.
func (r *Ring) Current() *Slot {
	return r.current
}

// FenceValue returns the last fence value handed out.
func (r *Ring) FenceValue() uint64 {
	return r.fence
}

// Stalls returns how many times Advance had to block on the GPU.
func (r *Ring) Stalls() int {
	return r.stalls
}

// Advance moves to the next slot and returns it once it is safe to write.
// If the GPU has not retired the slot's previous submission, Advance blocks
// until it does. A failed wait means the device is gone and is fatal.
func (r *Ring) Advance() (*Slot, error) {
	r.cursor = (r.cursor + 1) % len(r.slots)
	s := r.slots[r.cursor]

	if s.Fence != 0 && r.timeline.Completed() < s.Fence {
		r.stalls++
		if err := r.timeline.Wait(s.Fence); err != nil {
			r.log.Error("frame slot wait failed",
				zap.Int("slot", s.Index),
				zap.Uint64("fence", s.Fence),
				zap.Error(err),
			)
			return nil, fmt.Errorf("waiting for frame slot %d (fence %d): %w", s.Index, s.Fence, err)
		}
	}

	if err := s.resetCommands(r.timeline.Completed()); err != nil {
		return nil, err
	}
	r.current = s
	return s, nil
}

func (r *Ring) mustBeCurrent(s *Slot) {
	if s == nil || s != r.current {
		panic("frame: write into a slot that is not current")
	}
}

// WriteObjectConstants copies c into the slot's object buffer at index.
func (r *Ring) WriteObjectConstants(s *Slot, index int, c ObjectConstants) {
	r.mustBeCurrent(s)
	s.Objects.CopyData(index, c)
}

// WriteMaterialConstants copies c into the slot's material buffer at index.
func (r *Ring) WriteMaterialConstants(s *Slot, index int, c MaterialConstants) {
	r.mustBeCurrent(s)
	s.Materials.CopyData(index, c)
}

// WritePassConstants copies c into the slot's single pass record.
func (r *Ring) WritePassConstants(s *Slot, c PassConstants) {
	r.mustBeCurrent(s)
	s.Pass.CopyData(0, c)
}

// SubmitAndSignal tags the slot with the next fence value and enqueues the
// matching signal on the GPU timeline. Call it after the slot's command list
// has been submitted.
func (r *Ring) SubmitAndSignal(s *Slot) error {
	r.mustBeCurrent(s)
	next := r.fence + 1
	if err := r.timeline.Signal(next); err != nil {
		return fmt.Errorf("signalling fence %d for slot %d: %w", next, s.Index, err)
	}
	r.fence = next
	s.Fence = next
	return nil
}

// Flush signals one more fence value and blocks until the GPU reaches it,
// leaving every slot retired. Call before tearing down GPU resources.
func (r *Ring) Flush() error {
	next := r.fence + 1
	if err := r.timeline.Signal(next); err != nil {
		return fmt.Errorf("signalling flush fence %d: %w", next, err)
	}
	r.fence = next
	if err := r.timeline.Wait(next); err != nil {
		return fmt.Errorf("flushing frame ring: %w", err)
	}
	r.log.Debug("frame ring flushed", zap.Uint64("fence", next))
	return nil
}
