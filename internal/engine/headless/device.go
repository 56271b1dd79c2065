// Package headless executes frame slots on a simulated GPU. It checks that
// the CPU never writes a slot's upload memory while the GPU may still read
// it, so the frame protocol can be exercised without a window.
package headless

import (
	"errors"
	"fmt"
	"hash/maphash"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/castle-waves/internal/engine/frame"
	"github.com/Faultbox/castle-waves/internal/engine/gpu"
	"github.com/Faultbox/castle-waves/internal/engine/scene"
)

// ErrInFlightWrite is reported when a slot's upload memory changed between
// submission and execution.
var ErrInFlightWrite = errors.New("headless: upload memory written while in flight")

// Device runs slot command lists on a gpu.SoftQueue.
type Device struct {
	log   *zap.Logger
	queue *gpu.SoftQueue
	seed  maphash.Seed

	indexCounts []int
	dynamic     []bool
	points      []bool

	// beforeExecute runs on the GPU goroutine ahead of each submission.
	beforeExecute func()

	submitted atomic.Uint64
	executed  atomic.Uint64
	draws     atomic.Uint64
	presented atomic.Uint64
}

// New starts a device whose GPU runs latency behind each submission.
func New(latency time.Duration, log *zap.Logger) *Device {
	return &Device{
		log:   log,
		queue: gpu.NewSoftQueue(log, latency, 0),
		seed:  maphash.MakeSeed(),
	}
}

// Timeline returns the simulated GPU's fence timeline.
func (d *Device) Timeline() gpu.Timeline {
	return d.queue
}

// UploadMeshes records mesh sizes so draws can be validated.
func (d *Device) UploadMeshes(meshes []scene.Mesh) error {
	for _, m := range meshes {
		if len(m.Data.Indices) == 0 {
			return fmt.Errorf("mesh %q has no indices", m.Shape)
		}
		d.indexCounts = append(d.indexCounts, len(m.Data.Indices))
		d.dynamic = append(d.dynamic, m.Dynamic)
		d.points = append(d.points, m.Points)
	}
	return nil
}

// Submit fingerprints the slot's upload memory and queues its execution. The
// queued work fingerprints the memory again when the simulated GPU reaches
// it; a difference loses the device.
func (d *Device) Submit(slot *frame.Slot) error {
	if !slot.Commands.Closed() {
		return fmt.Errorf("slot %d submitted while still recording", slot.Index)
	}
	want := d.fingerprint(slot)
	cmds := append([]frame.DrawCommand(nil), slot.Commands.Commands()...)
	seq := d.submitted.Add(1)

	return d.queue.Submit(func() error {
		if d.beforeExecute != nil {
			d.beforeExecute()
		}
		if got := d.fingerprint(slot); got != want {
			return fmt.Errorf("%w: slot %d, submission %d", ErrInFlightWrite, slot.Index, seq)
		}
		for _, cmd := range cmds {
			if err := d.validate(slot, cmd); err != nil {
				return fmt.Errorf("slot %d, submission %d: %w", slot.Index, seq, err)
			}
		}
		d.draws.Add(uint64(len(cmds)))
		d.executed.Add(1)
		return nil
	})
}

func (d *Device) fingerprint(slot *frame.Slot) uint64 {
	var h maphash.Hash
	h.SetSeed(d.seed)
	h.Write(slot.Pass.Bytes())
	h.Write(slot.Objects.Bytes())
	h.Write(slot.Materials.Bytes())
	if slot.Vertices != nil {
		h.Write(slot.Vertices.Bytes())
	}
	return h.Sum64()
}

func (d *Device) validate(slot *frame.Slot, cmd frame.DrawCommand) error {
	if cmd.Mesh < 0 || cmd.Mesh >= len(d.indexCounts) {
		return fmt.Errorf("draw references mesh %d of %d", cmd.Mesh, len(d.indexCounts))
	}
	if cmd.Dynamic != d.dynamic[cmd.Mesh] {
		return fmt.Errorf("mesh %d drawn with dynamic=%t", cmd.Mesh, cmd.Dynamic)
	}
	if cmd.Points != d.points[cmd.Mesh] {
		return fmt.Errorf("mesh %d drawn with points=%t", cmd.Mesh, cmd.Points)
	}
	if cmd.Points && cmd.Layer != frame.LayerTreeSprites {
		return fmt.Errorf("point draw of mesh %d in layer %s", cmd.Mesh, cmd.Layer)
	}
	if cmd.Dynamic && slot.Vertices == nil {
		return errors.New("dynamic draw without a dynamic vertex buffer")
	}
	if cmd.StartIndex+cmd.IndexCount > d.indexCounts[cmd.Mesh] {
		return fmt.Errorf("draw of mesh %d reads indices [%d,%d) of %d",
			cmd.Mesh, cmd.StartIndex, cmd.StartIndex+cmd.IndexCount, d.indexCounts[cmd.Mesh])
	}
	if cmd.ObjectIndex < 0 || cmd.ObjectIndex >= slot.Objects.Len() {
		return fmt.Errorf("object index %d out of %d", cmd.ObjectIndex, slot.Objects.Len())
	}
	if cmd.MaterialIndex < 0 || cmd.MaterialIndex >= slot.Materials.Len() {
		return fmt.Errorf("material index %d out of %d", cmd.MaterialIndex, slot.Materials.Len())
	}
	return nil
}

// Present counts a presented frame.
func (d *Device) Present() error {
	d.presented.Add(1)
	return nil
}

// Executed returns how many submissions the simulated GPU has run.
func (d *Device) Executed() uint64 { return d.executed.Load() }

// Draws returns the total number of draws executed.
func (d *Device) Draws() uint64 { return d.draws.Load() }

// Presented returns how many frames were presented.
func (d *Device) Presented() uint64 { return d.presented.Load() }

// Close drains the queue and stops the simulated GPU.
func (d *Device) Close() error {
	d.queue.Close()
	d.log.Info("headless device closed",
		zap.Uint64("submitted", d.submitted.Load()),
		zap.Uint64("executed", d.executed.Load()),
		zap.Uint64("draws", d.draws.Load()),
	)
	return nil
}
