package frame

import (
	"errors"
	"fmt"
)

// ErrAllocatorInFlight is returned when a slot's command allocator is reset
// while the GPU may still be executing its previous recording.
var ErrAllocatorInFlight = errors.New("frame: command allocator still in flight")

// Layer orders draws within a frame.
type Layer uint8

const (
	LayerOpaque Layer = iota
	LayerAlphaTested
	// LayerTreeSprites holds billboards expanded from point lists; they
	// are alpha tested like LayerAlphaTested but use their own program.
	LayerTreeSprites
	LayerTransparent
	LayerCount
)

// String returns the scene-file name of the layer.
func (l Layer) String() string {
	switch l {
	case LayerOpaque:
		return "opaque"
	case LayerAlphaTested:
		return "alpha_tested"
	case LayerTreeSprites:
		return "tree_sprites"
	case LayerTransparent:
		return "transparent"
	default:
		return fmt.Sprintf("layer(%d)", uint8(l))
	}
}

// DrawCommand is one recorded indexed draw. Mesh names a static mesh owned by
// the device; Dynamic draws take their vertices from the slot's dynamic
// vertex buffer instead and reuse Mesh only for the index buffer. Points
// draws submit the indices as a point list.
type DrawCommand struct {
	Layer         Layer
	Mesh          int
	Dynamic       bool
	Points        bool
	ObjectIndex   int
	MaterialIndex int
	IndexCount    int
	StartIndex    int
	BaseVertex    int
}

// CommandAllocator owns the memory one frame's command list is recorded
// into. It may only be reset once the GPU has retired the slot.
type CommandAllocator struct {
	commands []DrawCommand
	closed   bool
}

// Record appends a draw. Recording into a closed list is a caller bug.
func (a *CommandAllocator) Record(cmd DrawCommand) {
	if a.closed {
		panic("frame: record on a closed command list")
	}
	a.commands = append(a.commands, cmd)
}

// Close ends recording.
func (a *CommandAllocator) Close() {
	a.closed = true
}

// Closed reports whether recording has ended.
func (a *CommandAllocator) Closed() bool {
	return a.closed
}

// Commands returns the recorded draws in submission order.
func (a *CommandAllocator) Commands() []DrawCommand {
	return a.commands
}

func (a *CommandAllocator) reset() {
	a.commands = a.commands[:0]
	a.closed = false
}
