// Package gpu defines the fence timeline shared between the CPU frame loop
// and whatever executes its command lists, plus two software timelines used
// for headless runs and tests.
package gpu

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDeviceLost is returned by Wait when the timeline can never reach the
	// requested value. It is not recoverable.
	ErrDeviceLost = errors.New("gpu: device lost")

	// ErrFenceOrder is returned when a signal value does not increase.
	ErrFenceOrder = errors.New("gpu: fence values must increase")
)

// Timeline is a monotonically increasing fence counter owned by a GPU queue.
type Timeline interface {
	// Completed returns the highest value the GPU has retired.
	Completed() uint64

	// Signal enqueues a signal for value behind all previously submitted
	// work. Values must be strictly increasing.
	Signal(value uint64) error

	// Wait blocks the calling goroutine until Completed() >= value. There is
	// no timeout; the only failure is the device being lost.
	Wait(value uint64) error
}

// Manual is a Timeline whose progress is driven explicitly by Complete. It
// stands in for the GPU when a caller needs to control exactly when work
// retires.
type Manual struct {
	mu        sync.Mutex
	cond      *sync.Cond
	completed uint64
	signaled  uint64
	lost      error
}

// NewManual returns a Manual timeline at value zero.
func NewManual() *Manual {
	m := &Manual{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Completed implements Timeline.
func (m *Manual) Completed() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}

// Signaled returns the highest value passed to Signal.
func (m *Manual) Signaled() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signaled
}

// Signal implements Timeline.
func (m *Manual) Signal(value uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value <= m.signaled {
		return fmt.Errorf("%w: signal %d after %d", ErrFenceOrder, value, m.signaled)
	}
	m.signaled = value
	return nil
}

// Complete retires every signal up to value.
func (m *Manual) Complete(value uint64) {
	m.mu.Lock()
	if value > m.completed {
		m.completed = value
	}
	m.mu.Unlock()
	m.cond.Broadcast()
}

// CompleteAll retires everything signalled so far.
func (m *Manual) CompleteAll() {
	m.Complete(m.Signaled())
}

// Lose puts the timeline into the device-lost state and wakes all waiters.
func (m *Manual) Lose(cause error) {
	m.mu.Lock()
	m.lost = fmt.Errorf("%w: %v", ErrDeviceLost, cause)
	m.mu.Unlock()
	m.cond.Broadcast()
}

// Wait implements Timeline.
func (m *Manual) Wait(value uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.completed < value {
		if m.lost != nil {
			return m.lost
		}
		m.cond.Wait()
	}
	return nil
}
