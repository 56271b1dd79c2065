package frame

import (
	"fmt"

	"github.com/Faultbox/castle-waves/internal/engine/geometry"
)

// Slot is one of the ring's frame resources. Everything it owns is written by
// the CPU only while the slot is current, and read by the GPU only between
// submission and the retirement of Fence.
type Slot struct {
	Index int

	// Fence is the timeline value that retires this slot's last submission.
	// Zero means the slot has never been submitted.
	Fence uint64

	Commands  *CommandAllocator
	Objects   *UploadBuffer[ObjectConstants]
	Materials *UploadBuffer[MaterialConstants]
	Pass      *UploadBuffer[PassConstants]

	// Vertices is the dynamic vertex buffer; nil unless the ring was built
	// with a dynamic vertex count.
	Vertices *UploadBuffer[geometry.Vertex]
}

func newSlot(index int, cfg Config) (*Slot, error) {
	s := &Slot{Index: index, Commands: &CommandAllocator{}}

	var err error
	if s.Pass, err = NewUploadBuffer[PassConstants](cfg.PassCount, true); err != nil {
		return nil, fmt.Errorf("pass constants: %w", err)
	}
	if s.Objects, err = NewUploadBuffer[ObjectConstants](cfg.ObjectCount, true); err != nil {
		return nil, fmt.Errorf("object constants: %w", err)
	}
	if s.Materials, err = NewUploadBuffer[MaterialConstants](cfg.MaterialCount, true); err != nil {
		return nil, fmt.Errorf("material constants: %w", err)
	}
	if cfg.DynamicVertexCount > 0 {
		if s.Vertices, err = NewUploadBuffer[geometry.Vertex](cfg.DynamicVertexCount, false); err != nil {
			return nil, fmt.Errorf("dynamic vertices: %w", err)
		}
	}
	return s, nil
}

// resetCommands recycles the command allocator once completed has reached
// the slot's fence.
func (s *Slot) resetCommands(completed uint64) error {
	if s.Fence > completed {
		return fmt.Errorf("%w: slot %d fence %d, completed %d", ErrAllocatorInFlight, s.Index, s.Fence, completed)
	}
	s.Commands.reset()
	return nil
}
